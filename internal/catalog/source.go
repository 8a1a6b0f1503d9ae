package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/blessedux/CasaGreda/internal/pricing"
)

// Source is the read side of the catalog.
type Source interface {
	Rooms(ctx context.Context) ([]Room, error)
	Room(ctx context.Context, id string) (Room, error)
	ProductByID(ctx context.Context, id string) (Product, error)
	ProductBySlug(ctx context.Context, slug string) (Product, error)
}

//go:embed data/catalog.yaml
var seedYAML []byte

// Seed is the document shape of the embedded catalog.
type Seed struct {
	Products []Product `yaml:"products"`
	Rooms    []Room    `yaml:"rooms"`
}

// ParseSeed decodes and validates a catalog document.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// DefaultSeed returns the embedded storefront catalog.
func DefaultSeed() (Seed, error) {
	return ParseSeed(seedYAML)
}

// Validate rejects documents that would make pricing or navigation fail at
// request time.
func (s Seed) Validate() error {
	var errs []error
	ids := make(map[string]bool, len(s.Products))
	slugs := make(map[string]bool, len(s.Products))
	for _, p := range s.Products {
		switch {
		case p.ID == "" || p.Slug == "":
			errs = append(errs, fmt.Errorf("product %q: id and slug are required", p.ID))
		case ids[p.ID]:
			errs = append(errs, fmt.Errorf("product %q: duplicate id", p.ID))
		case slugs[p.Slug]:
			errs = append(errs, fmt.Errorf("product %q: duplicate slug %q", p.ID, p.Slug))
		}
		ids[p.ID] = true
		slugs[p.Slug] = true
		if p.Title.ES == "" {
			errs = append(errs, fmt.Errorf("product %q: spanish title is required", p.ID))
		}
		if !categories[p.Category] {
			errs = append(errs, fmt.Errorf("product %q: unknown category %q", p.ID, p.Category))
		}
		if p.Stock < 0 {
			errs = append(errs, fmt.Errorf("product %q: negative stock", p.ID))
		}
		if _, err := pricing.SortedTiers(p.PriceTiers); err != nil {
			errs = append(errs, fmt.Errorf("product %q: %w", p.ID, err))
		}
	}
	rooms := make(map[string]bool, len(s.Rooms))
	for _, r := range s.Rooms {
		if r.ID == "" || rooms[r.ID] {
			errs = append(errs, fmt.Errorf("room %q: missing or duplicate id", r.ID))
		}
		rooms[r.ID] = true
		for _, h := range r.Hotspots {
			if !ids[h.ProductID] {
				errs = append(errs, fmt.Errorf("room %q: hotspot references unknown product %q", r.ID, h.ProductID))
			}
			if h.X < 0 || h.X > 100 || h.Y < 0 || h.Y > 100 {
				errs = append(errs, fmt.Errorf("room %q: hotspot %q outside the image", r.ID, h.ProductID))
			}
		}
	}
	return errors.Join(errs...)
}

// StaticSource serves an in-process catalog document.
type StaticSource struct {
	rooms    []Room
	roomByID map[string]Room
	byID     map[string]Product
	bySlug   map[string]Product
}

// NewStaticSource indexes a validated seed.
func NewStaticSource(seed Seed) *StaticSource {
	s := &StaticSource{
		rooms:    seed.Rooms,
		roomByID: make(map[string]Room, len(seed.Rooms)),
		byID:     make(map[string]Product, len(seed.Products)),
		bySlug:   make(map[string]Product, len(seed.Products)),
	}
	for _, r := range seed.Rooms {
		s.roomByID[r.ID] = r
	}
	for _, p := range seed.Products {
		s.byID[p.ID] = p
		s.bySlug[p.Slug] = p
	}
	return s
}

// Rooms returns every room in document order.
func (s *StaticSource) Rooms(context.Context) ([]Room, error) {
	return append([]Room(nil), s.rooms...), nil
}

// Room returns one room.
func (s *StaticSource) Room(_ context.Context, id string) (Room, error) {
	r, ok := s.roomByID[id]
	if !ok {
		return Room{}, fmt.Errorf("room %q: %w", id, ErrNotFound)
	}
	return r, nil
}

// ProductByID returns one product.
func (s *StaticSource) ProductByID(_ context.Context, id string) (Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", id, ErrNotFound)
	}
	return p, nil
}

// ProductBySlug returns one product.
func (s *StaticSource) ProductBySlug(_ context.Context, slug string) (Product, error) {
	p, ok := s.bySlug[slug]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}
	return p, nil
}
