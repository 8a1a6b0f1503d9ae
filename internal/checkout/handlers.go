package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/cart"
	"github.com/blessedux/CasaGreda/internal/common"
	"github.com/blessedux/CasaGreda/internal/i18n"
)

// Handler exposes POST /api/v1/checkout.
type Handler struct {
	Svc      *Service
	Sessions cart.Sessions
}

// Checkout places a mock order for the visitor's cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	key := cart.CookieName
	if h.Sessions != nil {
		key = h.Sessions.Key(w, r)
	}
	current, err := h.Svc.Begin(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload Input
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.Svc.Place(r.Context(), key, i18n.FromContext(r.Context()), current, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, out)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	dict := i18n.For(i18n.FromContext(r.Context()))
	if appErr, ok := common.AsAppError(err); ok {
		common.WriteAppError(w, appErr)
		return
	}
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusBadRequest, "CART_EMPTY", dict.Checkout.EmptyCart, nil)
	case errors.Is(err, cart.ErrUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "CART_UNAVAILABLE", dict.Errors.Retry, nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("checkout aborted")
		common.JSONError(w, http.StatusServiceUnavailable, "CHECKOUT_ABORTED", dict.Checkout.Failed, nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("checkout failed")
		common.JSONError(w, http.StatusInternalServerError, "CHECKOUT_FAILED", dict.Checkout.Failed, nil)
	}
}
