package catalog

import (
	"errors"

	"github.com/blessedux/CasaGreda/internal/i18n"
	"github.com/blessedux/CasaGreda/internal/pricing"
)

// ErrNotFound indicates the requested product or room does not exist.
var ErrNotFound = errors.New("not found")

// PlaceholderImage is served when a product has no gallery.
const PlaceholderImage = "/placeholder.svg"

// Text is a string with a mandatory Spanish form and optional English form.
type Text struct {
	ES string `json:"es" yaml:"es"`
	EN string `json:"en,omitempty" yaml:"en,omitempty"`
}

// In returns the text for l, falling back to Spanish.
func (t Text) In(l i18n.Locale) string {
	if l == i18n.EN && t.EN != "" {
		return t.EN
	}
	return t.ES
}

// Image is one gallery entry.
type Image struct {
	Src   string `json:"src" yaml:"src"`
	Alt   string `json:"alt" yaml:"alt"`
	Focal string `json:"focal,omitempty" yaml:"focal,omitempty"`
}

// Dimensions in centimetres; zero means unspecified.
type Dimensions struct {
	D float64 `json:"d,omitempty" yaml:"d,omitempty"`
	W float64 `json:"w,omitempty" yaml:"w,omitempty"`
	H float64 `json:"h,omitempty" yaml:"h,omitempty"`
}

// Product is a catalog entry with its quantity price table.
type Product struct {
	ID            string              `json:"id" yaml:"id"`
	Slug          string              `json:"slug" yaml:"slug"`
	Title         Text                `json:"title" yaml:"title"`
	Subtitle      *Text               `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Category      string              `json:"category" yaml:"category"`
	Materials     []string            `json:"materials" yaml:"materials"`
	WeightKg      float64             `json:"weightKg,omitempty" yaml:"weightKg,omitempty"`
	DimensionsCm  Dimensions          `json:"dimensionsCm" yaml:"dimensionsCm"`
	HeatSafe      *bool               `json:"heatSafe,omitempty" yaml:"heatSafe,omitempty"`
	Care          []string            `json:"care" yaml:"care"`
	Gallery       []Image             `json:"gallery" yaml:"gallery"`
	PriceTiers    []pricing.PriceTier `json:"priceTiers" yaml:"priceTiers"`
	Stock         int                 `json:"stock" yaml:"stock"`
	Featured      bool                `json:"featured,omitempty" yaml:"featured,omitempty"`
	RoomTags      []string            `json:"roomTags,omitempty" yaml:"roomTags,omitempty"`
	ShippingNotes string              `json:"shippingNotes,omitempty" yaml:"shippingNotes,omitempty"`
}

// CoverImage is the first gallery image, or the placeholder.
func (p Product) CoverImage() string {
	if len(p.Gallery) > 0 && p.Gallery[0].Src != "" {
		return p.Gallery[0].Src
	}
	return PlaceholderImage
}

// Media is a room's hero asset.
type Media struct {
	Type string `json:"type" yaml:"type"`
	Src  string `json:"src" yaml:"src"`
	Alt  string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Hotspot places a product on a room image, in percent from top-left.
type Hotspot struct {
	ProductID string  `json:"productId" yaml:"productId"`
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
}

// Room is a themed browsing space.
type Room struct {
	ID       string    `json:"id" yaml:"id"`
	Title    Text      `json:"title" yaml:"title"`
	Media    Media     `json:"media" yaml:"media"`
	Intro    *Text     `json:"intro,omitempty" yaml:"intro,omitempty"`
	Hotspots []Hotspot `json:"hotspots" yaml:"hotspots"`
}

var categories = map[string]bool{
	"platos": true, "bowls": true, "tazas": true, "jarras": true, "decoracion": true,
}
