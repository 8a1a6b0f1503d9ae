package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/common"
	"github.com/blessedux/CasaGreda/internal/i18n"
	"github.com/blessedux/CasaGreda/internal/pricing"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Rooms handles GET /api/v1/rooms.
func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rooms, err := h.service.Rooms(r.Context(), i18n.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, rooms)
}

// Room handles GET /api/v1/rooms/{room}.
func (h *Handler) Room(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	locale := i18n.FromContext(r.Context())
	room, err := h.service.Room(r.Context(), chi.URLParam(r, "room"), locale)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", i18n.For(locale).Errors.RoomNotFound, nil)
			return
		}
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, room)
}

// ProductDetail handles GET /api/v1/products/{slug}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	detail, err := h.service.ProductDetail(r.Context(), chi.URLParam(r, "slug"), i18n.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

// Quote handles GET /api/v1/products/{slug}/quote?qty=N.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	locale := i18n.FromContext(r.Context())
	raw := strings.TrimSpace(r.URL.Query().Get("qty"))
	qty := 1
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, badRequest("qty", i18n.For(locale).Product.InvalidQty, err))
			return
		}
		qty = parsed
	}
	quote, err := h.service.Quote(r.Context(), chi.URLParam(r, "slug"), qty, locale)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, quote)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	dict := i18n.For(i18n.FromContext(r.Context()))
	if appErr, ok := common.AsAppError(err); ok {
		common.WriteAppError(w, appErr)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", dict.Product.NotFound, nil)
	case errors.Is(err, pricing.ErrInvalidInput):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("catalog pricing data rejected")
		common.JSONError(w, http.StatusInternalServerError, "PRICING_UNAVAILABLE", dict.Product.PricingProblem, nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("catalog request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", dict.Errors.Internal, nil)
	}
}
