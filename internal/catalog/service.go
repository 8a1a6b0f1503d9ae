package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blessedux/CasaGreda/internal/common"
	"github.com/blessedux/CasaGreda/internal/i18n"
	"github.com/blessedux/CasaGreda/internal/obs"
	"github.com/blessedux/CasaGreda/internal/pricing"
)

// Service assembles localized catalog views on top of a Source.
type Service struct {
	source Source
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source Source
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog: source is required")
	}
	return &Service{source: cfg.Source}, nil
}

// ProductCard is the compact product shape used on room scenes.
type ProductCard struct {
	ID               string        `json:"id"`
	Slug             string        `json:"slug"`
	Title            string        `json:"title"`
	Image            string        `json:"image"`
	FromPrice        pricing.Money `json:"fromPrice"`
	FromPriceDisplay string        `json:"fromPriceDisplay"`
	InStock          bool          `json:"inStock"`
}

// HotspotView is a hotspot with its product resolved.
type HotspotView struct {
	ProductID string      `json:"productId"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Product   ProductCard `json:"product"`
}

// RoomSummary is a room as listed on the home page.
type RoomSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Intro        string `json:"intro,omitempty"`
	Media        Media  `json:"media"`
	ProductCount int    `json:"productCount"`
}

// RoomView is a room scene with its product hotspots.
type RoomView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Intro    string        `json:"intro,omitempty"`
	Media    Media         `json:"media"`
	Hotspots []HotspotView `json:"hotspots"`
}

// QuantityOption is one selectable pack size on the product page.
type QuantityOption struct {
	Qty            int            `json:"qty"`
	Label          string         `json:"label"`
	Unit           pricing.Money  `json:"unit"`
	UnitDisplay    string         `json:"unitDisplay"`
	Total          pricing.Money  `json:"total"`
	TotalDisplay   string         `json:"totalDisplay"`
	Savings        *pricing.Money `json:"savings,omitempty"`
	SavingsDisplay string         `json:"savingsDisplay,omitempty"`
}

// ProductDetail is the full product page payload.
type ProductDetail struct {
	ID               string              `json:"id"`
	Slug             string              `json:"slug"`
	Title            string              `json:"title"`
	Subtitle         string              `json:"subtitle,omitempty"`
	Category         string              `json:"category"`
	Materials        []string            `json:"materials"`
	WeightKg         float64             `json:"weightKg,omitempty"`
	DimensionsCm     Dimensions          `json:"dimensionsCm"`
	HeatSafe         *bool               `json:"heatSafe,omitempty"`
	Care             []string            `json:"care"`
	Gallery          []Image             `json:"gallery"`
	Stock            int                 `json:"stock"`
	InStock          bool                `json:"inStock"`
	ShippingNotes    string              `json:"shippingNotes,omitempty"`
	PriceTiers       []pricing.PriceTier `json:"priceTiers"`
	FromPriceDisplay string              `json:"fromPriceDisplay"`
	Options          []QuantityOption    `json:"options"`
}

// QuoteLabels carries the translated captions for a price breakdown.
type QuoteLabels struct {
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
	Savings   string `json:"savings"`
}

// Quote is the price breakdown for a product at a quantity.
type Quote struct {
	ProductID      string              `json:"productId"`
	Slug           string              `json:"slug"`
	Quantity       int                 `json:"quantity"`
	Summary        string              `json:"summary"`
	Calculation    pricing.Calculation `json:"calculation"`
	UnitDisplay    string              `json:"unitDisplay"`
	TotalDisplay   string              `json:"totalDisplay"`
	SavingsDisplay string              `json:"savingsDisplay,omitempty"`
	WithinStock    bool                `json:"withinStock"`
	Labels         QuoteLabels         `json:"labels"`
}

// ProductByID passes through to the source.
func (s *Service) ProductByID(ctx context.Context, id string) (Product, error) {
	return s.source.ProductByID(ctx, id)
}

// ProductBySlug passes through to the source.
func (s *Service) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	return s.source.ProductBySlug(ctx, slug)
}

// Rooms lists every room in l.
func (s *Service) Rooms(ctx context.Context, l i18n.Locale) ([]RoomSummary, error) {
	rooms, err := s.source.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomSummary{
			ID:           r.ID,
			Title:        r.Title.In(l),
			Intro:        introIn(r, l),
			Media:        r.Media,
			ProductCount: len(r.Hotspots),
		})
	}
	return out, nil
}

// Room returns a room scene. Hotspots whose product has disappeared from
// the catalog are dropped.
func (s *Service) Room(ctx context.Context, id string, l i18n.Locale) (RoomView, error) {
	r, err := s.source.Room(ctx, id)
	if err != nil {
		return RoomView{}, err
	}
	view := RoomView{
		ID:       r.ID,
		Title:    r.Title.In(l),
		Intro:    introIn(r, l),
		Media:    r.Media,
		Hotspots: make([]HotspotView, 0, len(r.Hotspots)),
	}
	for _, h := range r.Hotspots {
		p, err := s.source.ProductByID(ctx, h.ProductID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return RoomView{}, err
		}
		card, err := cardFor(p, l)
		if err != nil {
			return RoomView{}, err
		}
		view.Hotspots = append(view.Hotspots, HotspotView{ProductID: h.ProductID, X: h.X, Y: h.Y, Product: card})
	}
	return view, nil
}

// ProductDetail returns the product page for slug in l.
func (s *Service) ProductDetail(ctx context.Context, slug string, l i18n.Locale) (ProductDetail, error) {
	p, err := s.source.ProductBySlug(ctx, slug)
	if err != nil {
		return ProductDetail{}, err
	}
	tiers, err := pricing.SortedTiers(p.PriceTiers)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("product %q: %w", p.ID, err)
	}
	from, err := pricing.FromPrice(tiers)
	if err != nil {
		return ProductDetail{}, err
	}
	dict := i18n.For(l)
	detail := ProductDetail{
		ID:               p.ID,
		Slug:             p.Slug,
		Title:            p.Title.In(l),
		Category:         p.Category,
		Materials:        p.Materials,
		WeightKg:         p.WeightKg,
		DimensionsCm:     p.DimensionsCm,
		HeatSafe:         p.HeatSafe,
		Care:             p.Care,
		Gallery:          p.Gallery,
		Stock:            p.Stock,
		InStock:          p.Stock > 0,
		ShippingNotes:    p.ShippingNotes,
		PriceTiers:       tiers,
		FromPriceDisplay: pricing.FormatDisplayPrice(from, l),
		Options:          []QuantityOption{},
	}
	if p.Subtitle != nil {
		detail.Subtitle = p.Subtitle.In(l)
	}
	if len(detail.Gallery) == 0 {
		detail.Gallery = []Image{{Src: PlaceholderImage, Alt: detail.Title}}
	}
	for _, qty := range pricing.AvailableQuantities(tiers, p.Stock) {
		calc, err := pricing.ResolveTierPrice(tiers, qty)
		if err != nil {
			return ProductDetail{}, err
		}
		opt := QuantityOption{
			Qty:          qty,
			Label:        strconv.Itoa(qty) + " " + dict.UnitLabel(qty),
			Unit:         calc.Unit,
			UnitDisplay:  pricing.FormatDisplayPrice(calc.Unit, l),
			Total:        calc.Total,
			TotalDisplay: pricing.FormatDisplayPrice(calc.Total, l),
			Savings:      calc.Savings,
		}
		if calc.Savings != nil && *calc.Savings > 0 {
			opt.SavingsDisplay = pricing.FormatDisplayPrice(*calc.Savings, l)
		}
		detail.Options = append(detail.Options, opt)
	}
	return detail, nil
}

// Quote prices qty units of the product identified by slug.
func (s *Service) Quote(ctx context.Context, slug string, qty int, l i18n.Locale) (Quote, error) {
	if qty < 1 || qty > pricing.MaxQuantity {
		return Quote{}, badRequest("qty", i18n.For(l).Product.InvalidQty, pricing.ErrInvalidInput)
	}
	p, err := s.source.ProductBySlug(ctx, slug)
	if err != nil {
		return Quote{}, err
	}
	calc, err := pricing.ResolveTierPrice(p.PriceTiers, qty)
	if err != nil {
		obs.IncCounter(obs.PriceQuotesTotal, "error")
		return Quote{}, fmt.Errorf("product %q: %w", p.ID, err)
	}
	obs.IncCounter(obs.PriceQuotesTotal, "ok")

	dict := i18n.For(l)
	q := Quote{
		ProductID:    p.ID,
		Slug:         p.Slug,
		Quantity:     qty,
		Summary:      strconv.Itoa(qty) + " " + dict.UnitLabel(qty),
		Calculation:  calc,
		UnitDisplay:  pricing.FormatDisplayPrice(calc.Unit, l),
		TotalDisplay: pricing.FormatDisplayPrice(calc.Total, l),
		WithinStock:  qty <= p.Stock,
		Labels: QuoteLabels{
			UnitPrice: dict.Product.UnitPrice,
			Total:     dict.Product.Total,
			Savings:   dict.Product.Savings,
		},
	}
	if calc.Savings != nil && *calc.Savings > 0 {
		q.SavingsDisplay = pricing.FormatDisplayPrice(*calc.Savings, l)
	}
	return q, nil
}

func cardFor(p Product, l i18n.Locale) (ProductCard, error) {
	from, err := pricing.FromPrice(p.PriceTiers)
	if err != nil {
		return ProductCard{}, fmt.Errorf("product %q: %w", p.ID, err)
	}
	return ProductCard{
		ID:               p.ID,
		Slug:             p.Slug,
		Title:            p.Title.In(l),
		Image:            p.CoverImage(),
		FromPrice:        from,
		FromPriceDisplay: pricing.FormatDisplayPrice(from, l),
		InStock:          p.Stock > 0,
	}, nil
}

func introIn(r Room, l i18n.Locale) string {
	if r.Intro == nil {
		return ""
	}
	return r.Intro.In(l)
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
