package checkout

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blessedux/CasaGreda/internal/cart"
	"github.com/blessedux/CasaGreda/internal/common"
	"github.com/blessedux/CasaGreda/internal/events"
	"github.com/blessedux/CasaGreda/internal/i18n"
	"github.com/blessedux/CasaGreda/internal/obs"
	"github.com/blessedux/CasaGreda/internal/pricing"
)

// ErrEmptyCart is returned when checkout is attempted without items.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// StatusConfirmed is the only status a mock order can reach.
const StatusConfirmed = "confirmed"

// DefaultDelay simulates payment processing latency.
const DefaultDelay = time.Second

// Address is the shipping destination collected at checkout.
type Address struct {
	Name   string `json:"name" validate:"required,max=120"`
	Line1  string `json:"line1" validate:"required,max=200"`
	Line2  string `json:"line2,omitempty" validate:"max=200"`
	City   string `json:"city" validate:"required,max=80"`
	Region string `json:"region" validate:"required,max=80"`
	Phone  string `json:"phone" validate:"required,min=6,max=32"`
}

// Input is the checkout request body.
type Input struct {
	Email           string  `json:"email" validate:"required,email,max=254"`
	ShippingAddress Address `json:"shippingAddress" validate:"required"`
}

// Order is a confirmed mock order.
type Order struct {
	ID                string        `json:"id"`
	Items             []cart.Item   `json:"items"`
	Total             pricing.Money `json:"total"`
	TotalDisplay      string        `json:"totalDisplay"`
	Email             string        `json:"email"`
	ShippingAddress   Address       `json:"shippingAddress"`
	Status            string        `json:"status"`
	EstimatedDelivery string        `json:"estimatedDelivery"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// Output is returned by a successful checkout.
type Output struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
	Order   Order  `json:"order"`
}

// Service converts the visitor's cart into a confirmed order. No payment is
// taken and no stock is reserved.
type Service struct {
	Carts  *cart.Service
	Events *events.Bus
	Delay  time.Duration
	Now    func() time.Time
}

// Create checks the cart stored under key, validates in, waits for the
// simulated processing delay, confirms the order and clears the cart. An
// empty cart is reported before the input is looked at.
func (s *Service) Create(ctx context.Context, key string, locale i18n.Locale, in Input) (Output, error) {
	current, err := s.Begin(ctx, key)
	if err != nil {
		return Output{}, err
	}
	return s.Place(ctx, key, locale, current, in)
}

// Begin loads the cart under key and fails with ErrEmptyCart when it has
// no lines.
func (s *Service) Begin(ctx context.Context, key string) (cart.Cart, error) {
	if s == nil || s.Carts == nil {
		return cart.Cart{}, errors.New("checkout service not configured")
	}
	current, err := s.Carts.Get(ctx, key)
	if err != nil {
		obs.IncCounter(obs.CheckoutOrdersTotal, "error")
		return cart.Cart{}, err
	}
	if current.IsEmpty() {
		obs.IncCounter(obs.CheckoutOrdersTotal, "empty")
		return cart.Cart{}, ErrEmptyCart
	}
	return current, nil
}

// Place confirms an order for current, the cart returned by Begin.
func (s *Service) Place(ctx context.Context, key string, locale i18n.Locale, current cart.Cart, in Input) (out Output, err error) {
	ctx, span := obs.StartSpan(ctx, "checkout.place",
		attribute.String("locale", string(locale)),
		attribute.Int("cart.items", current.TotalItems),
		attribute.Int64("cart.total", current.TotalPrice))
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.String("order.id", out.OrderID))
		}
		obs.EndSpan(span, err)
	}()

	if s == nil || s.Carts == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if current.IsEmpty() {
		return Output{}, ErrEmptyCart
	}
	in.Email = strings.TrimSpace(in.Email)
	if err := common.ValidateStruct(in); err != nil {
		obs.IncCounter(obs.CheckoutOrdersTotal, "invalid")
		return Output{}, err
	}
	if err := s.wait(ctx); err != nil {
		obs.IncCounter(obs.CheckoutOrdersTotal, "error")
		return Output{}, err
	}

	now := s.now()
	dict := i18n.For(locale)
	order := Order{
		ID:                NewOrderID(now),
		Items:             append([]cart.Item(nil), current.Items...),
		Total:             current.TotalPrice,
		TotalDisplay:      pricing.FormatDisplayPrice(current.TotalPrice, locale),
		Email:             in.Email,
		ShippingAddress:   in.ShippingAddress,
		Status:            StatusConfirmed,
		EstimatedDelivery: dict.Checkout.EstimatedDelivery,
		CreatedAt:         now,
	}
	logger := zerolog.Ctx(ctx)

	// the order is final at this point; a failed clear only leaves stale items
	if _, err := s.Carts.Clear(ctx, key); err != nil {
		logger.Warn().Err(err).Str("order_id", order.ID).Msg("clear cart after checkout")
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderConfirmed, order.ID, confirmedPayload(order, locale)); err != nil {
			logger.Error().Err(err).Str("order_id", order.ID).Msg("publish order confirmed")
		}
	}
	obs.IncCounter(obs.CheckoutOrdersTotal, "ok")
	logger.Info().Str("order_id", order.ID).Int64("total", order.Total).Int("items", current.TotalItems).Msg("order confirmed")

	return Output{OrderID: order.ID, Message: dict.Checkout.Success, Order: order}, nil
}

func (s *Service) wait(ctx context.Context) error {
	delay := s.Delay
	if delay < 0 {
		return nil
	}
	if delay == 0 {
		delay = DefaultDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("checkout: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NewOrderID returns "CG-<unix millis>-<9 base36 chars>".
func NewOrderID(now time.Time) string {
	id := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	if len(suffix) < 9 {
		suffix = strings.Repeat("0", 9-len(suffix)) + suffix
	}
	return fmt.Sprintf("CG-%d-%s", now.UnixMilli(), suffix[len(suffix)-9:])
}

func confirmedPayload(o Order, locale i18n.Locale) events.OrderConfirmed {
	lines := make([]events.OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, events.OrderLine{
			ProductID: it.ProductID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.Total,
		})
	}
	return events.OrderConfirmed{
		OrderID:           o.ID,
		Email:             o.Email,
		Locale:            string(locale),
		Items:             lines,
		Total:             o.Total,
		EstimatedDelivery: o.EstimatedDelivery,
		ConfirmedAt:       o.CreatedAt,
	}
}
