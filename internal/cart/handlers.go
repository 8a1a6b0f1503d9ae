package cart

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/catalog"
	"github.com/blessedux/CasaGreda/internal/common"
	"github.com/blessedux/CasaGreda/internal/i18n"
	"github.com/blessedux/CasaGreda/internal/pricing"
)

// Catalog resolves the product a cart line refers to.
type Catalog interface {
	ProductByID(ctx context.Context, id string) (catalog.Product, error)
	ProductBySlug(ctx context.Context, slug string) (catalog.Product, error)
}

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	Catalog  Catalog
	Sessions Sessions
}

// ItemView is a cart line with display prices.
type ItemView struct {
	Item
	UnitPriceDisplay string `json:"unitPriceDisplay"`
	TotalDisplay     string `json:"totalDisplay"`
}

// View is the cart payload returned by every cart endpoint.
type View struct {
	Items             []ItemView    `json:"items"`
	TotalItems        int           `json:"totalItems"`
	TotalPrice        pricing.Money `json:"totalPrice"`
	TotalPriceDisplay string        `json:"totalPriceDisplay"`
	Empty             bool          `json:"empty"`
}

// NewView renders c for locale l.
func NewView(c Cart, l i18n.Locale) View {
	items := make([]ItemView, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, ItemView{
			Item:             it,
			UnitPriceDisplay: pricing.FormatDisplayPrice(it.UnitPrice, l),
			TotalDisplay:     pricing.FormatDisplayPrice(it.Total, l),
		})
	}
	return View{
		Items:             items,
		TotalItems:        c.TotalItems,
		TotalPrice:        c.TotalPrice,
		TotalPriceDisplay: pricing.FormatDisplayPrice(c.TotalPrice, l),
		Empty:             c.IsEmpty(),
	}
}

func (h *Handler) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if h.Sessions == nil {
		return CookieName
	}
	return h.Sessions.Key(w, r)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return false
	}
	return true
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.Svc.Get(r.Context(), h.sessionKey(w, r))
	h.respond(w, r, http.StatusOK, c, err)
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required_without=Slug"`
	Slug      string `json:"slug" validate:"required_without=ProductID"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

// AddItem handles POST /api/v1/cart/items. The unit price is always
// resolved server side from the product's tiers.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	var payload addItemRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	locale := i18n.FromContext(ctx)

	var (
		product catalog.Product
		err     error
	)
	if id := strings.TrimSpace(payload.ProductID); id != "" {
		product, err = h.Catalog.ProductByID(ctx, id)
	} else {
		product, err = h.Catalog.ProductBySlug(ctx, strings.TrimSpace(payload.Slug))
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	calc, err := pricing.ResolveTierPrice(product.PriceTiers, payload.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Svc.Add(ctx, h.sessionKey(w, r), Candidate{
		ProductID: product.ID,
		Slug:      product.Slug,
		Title:     product.Title.In(locale),
		Image:     product.CoverImage(),
		Quantity:  payload.Quantity,
		UnitPrice: calc.Unit,
	})
	h.respond(w, r, http.StatusOK, c, err)
}

type updateItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	UnitPrice *int64 `json:"unitPrice" validate:"required,min=0"`
	Quantity  *int   `json:"quantity" validate:"required,max=999"`
}

// UpdateItem handles PATCH /api/v1/cart/items. A quantity of zero or less
// removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload updateItemRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Svc.SetQuantity(r.Context(), h.sessionKey(w, r), payload.ProductID, *payload.UnitPrice, *payload.Quantity)
	h.respond(w, r, http.StatusOK, c, err)
}

// RemoveItem handles DELETE /api/v1/cart/items?productId=&unitPrice=.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q := r.URL.Query()
	productID := strings.TrimSpace(q.Get("productId"))
	if productID == "" {
		h.writeError(w, r, common.NewAppError("BAD_REQUEST", "productId is required", http.StatusBadRequest, nil))
		return
	}
	unitPrice, err := strconv.ParseInt(strings.TrimSpace(q.Get("unitPrice")), 10, 64)
	if err != nil || unitPrice < 0 {
		h.writeError(w, r, common.NewAppError("BAD_REQUEST", "unitPrice must be a non-negative integer", http.StatusBadRequest, err))
		return
	}
	c, err := h.Svc.Remove(r.Context(), h.sessionKey(w, r), productID, unitPrice)
	h.respond(w, r, http.StatusOK, c, err)
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.Svc.Clear(r.Context(), h.sessionKey(w, r))
	h.respond(w, r, http.StatusOK, c, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, c Cart, err error) {
	if err != nil {
		h.writeErrorWithCart(w, r, err, &c)
		return
	}
	common.Data(w, status, NewView(c, i18n.FromContext(r.Context())))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorWithCart(w, r, err, nil)
}

func (h *Handler) writeErrorWithCart(w http.ResponseWriter, r *http.Request, err error, last *Cart) {
	locale := i18n.FromContext(r.Context())
	dict := i18n.For(locale)
	if appErr, ok := common.AsAppError(err); ok {
		common.WriteAppError(w, appErr)
		return
	}
	switch {
	case errors.Is(err, ErrUnavailable):
		var details any
		if last != nil {
			details = map[string]any{"cart": NewView(*last, locale)}
		}
		common.JSONError(w, http.StatusServiceUnavailable, "CART_UNAVAILABLE", dict.Errors.Retry, details)
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", dict.Product.NotFound, nil)
	case errors.Is(err, pricing.ErrInvalidInput):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("product pricing rejected")
		common.JSONError(w, http.StatusInternalServerError, "PRICING_UNAVAILABLE", dict.Product.PricingProblem, nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("cart request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", dict.Errors.Internal, nil)
	}
}
