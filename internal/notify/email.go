package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/common"
	"github.com/blessedux/CasaGreda/internal/events"
	"github.com/blessedux/CasaGreda/internal/i18n"
	"github.com/blessedux/CasaGreda/internal/pricing"
)

// EmailNotifier sends the order confirmation email for order.confirmed tasks.
type EmailNotifier struct {
	Mail    common.EmailSender
	Enabled bool
}

// ProcessTask implements asynq.Handler. Malformed tasks are not retried.
func (n EmailNotifier) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	ev, err := events.FromTask(t)
	if err != nil {
		return fmt.Errorf("email notify: %v: %w", err, asynq.SkipRetry)
	}
	if ev.Topic != events.TopicOrderConfirmed {
		return nil
	}
	var order events.OrderConfirmed
	if err := ev.DecodePayload(&order); err != nil {
		return fmt.Errorf("email notify: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(order.Email) == "" {
		zerolog.Ctx(ctx).Warn().Str("order_id", order.OrderID).Msg("order confirmed without recipient")
		return nil
	}
	msg := OrderConfirmationEmail(order)
	if err := n.Mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("email notify: send %s: %w", order.OrderID, err)
	}
	zerolog.Ctx(ctx).Info().Str("order_id", order.OrderID).Str("event_id", ev.ID).Msg("order confirmation sent")
	return nil
}

// OrderConfirmationEmail renders the confirmation in the order's locale.
func OrderConfirmationEmail(order events.OrderConfirmed) common.Email {
	locale := i18n.Locale(order.Locale).OrDefault()
	dict := i18n.For(locale)
	delivery := order.EstimatedDelivery
	if delivery == "" {
		delivery = dict.Checkout.EstimatedDelivery
	}
	subject := i18n.Format(dict.Email.OrderConfirmedSubject, map[string]string{"orderId": order.OrderID})
	intro := i18n.Format(dict.Email.OrderConfirmedIntro, map[string]string{"orderId": order.OrderID, "delivery": delivery})
	total := i18n.Format(dict.Email.OrderTotal, map[string]string{"total": pricing.FormatDisplayPrice(order.Total, locale)})

	var text, body strings.Builder
	text.WriteString(intro + "\n\n")
	body.WriteString("<p>" + html.EscapeString(intro) + "</p><ul>")
	for _, line := range order.Items {
		entry := fmt.Sprintf("%d x %s: %s", line.Quantity, line.Title, pricing.FormatDisplayPrice(line.Total, locale))
		text.WriteString("- " + entry + "\n")
		body.WriteString("<li>" + html.EscapeString(entry) + "</li>")
	}
	text.WriteString("\n" + total + "\n")
	body.WriteString("</ul><p><strong>" + html.EscapeString(total) + "</strong></p>")

	return common.Email{To: order.Email, Subject: subject, Text: text.String(), HTML: body.String()}
}

// LogSender writes outgoing email to the context logger instead of an SMTP
// relay.
type LogSender struct {
	From string
}

// Send implements common.EmailSender.
func (s LogSender) Send(ctx context.Context, msg common.Email) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("email: recipient is required")
	}
	zerolog.Ctx(ctx).Info().
		Str("from", s.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("text", msg.Text).
		Msg("email sent")
	return nil
}
