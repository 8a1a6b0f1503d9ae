package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blessedux/CasaGreda/internal/pricing"
)

// PGSource reads the catalog from PostgreSQL. Product and room documents
// live in JSONB; identity, stock and price tiers are relational columns and
// take precedence over anything in the document.
type PGSource struct {
	Pool *pgxpool.Pool
}

const (
	productByIDSQL   = `SELECT id, slug, stock, doc FROM products WHERE id = $1`
	productBySlugSQL = `SELECT id, slug, stock, doc FROM products WHERE slug = $1`
	tiersSQL         = `SELECT qty, unit_price FROM product_price_tiers WHERE product_id = $1 ORDER BY qty`
	roomsSQL         = `SELECT id, doc FROM rooms ORDER BY position, id`
	roomSQL          = `SELECT id, doc FROM rooms WHERE id = $1`
)

func (s *PGSource) ready() error {
	if s == nil || s.Pool == nil {
		return errors.New("catalog database not configured")
	}
	return nil
}

// ProductByID implements Source.
func (s *PGSource) ProductByID(ctx context.Context, id string) (Product, error) {
	return s.product(ctx, productByIDSQL, id)
}

// ProductBySlug implements Source.
func (s *PGSource) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	return s.product(ctx, productBySlugSQL, slug)
}

func (s *PGSource) product(ctx context.Context, query, arg string) (Product, error) {
	if err := s.ready(); err != nil {
		return Product{}, err
	}
	var (
		p     Product
		id    string
		slug  string
		stock int
		doc   []byte
	)
	if err := s.Pool.QueryRow(ctx, query, arg).Scan(&id, &slug, &stock, &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %q: %w", arg, ErrNotFound)
		}
		return Product{}, fmt.Errorf("query product: %w", err)
	}
	if err := json.Unmarshal(doc, &p); err != nil {
		return Product{}, fmt.Errorf("decode product %q: %w", id, err)
	}
	p.ID, p.Slug, p.Stock = id, slug, stock

	rows, err := s.Pool.Query(ctx, tiersSQL, id)
	if err != nil {
		return Product{}, fmt.Errorf("query tiers: %w", err)
	}
	tiers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (pricing.PriceTier, error) {
		var t pricing.PriceTier
		err := row.Scan(&t.Qty, &t.UnitPrice)
		return t, err
	})
	if err != nil {
		return Product{}, fmt.Errorf("scan tiers: %w", err)
	}
	p.PriceTiers = tiers
	return p, nil
}

// Rooms implements Source.
func (s *PGSource) Rooms(ctx context.Context) ([]Room, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.Pool.Query(ctx, roomsSQL)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	return pgx.CollectRows(rows, scanRoom)
}

// Room implements Source.
func (s *PGSource) Room(ctx context.Context, id string) (Room, error) {
	if err := s.ready(); err != nil {
		return Room{}, err
	}
	rows, err := s.Pool.Query(ctx, roomSQL, id)
	if err != nil {
		return Room{}, fmt.Errorf("query room: %w", err)
	}
	room, err := pgx.CollectExactlyOneRow(rows, scanRoom)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Room{}, fmt.Errorf("room %q: %w", id, ErrNotFound)
		}
		return Room{}, err
	}
	return room, nil
}

func scanRoom(row pgx.CollectableRow) (Room, error) {
	var (
		r   Room
		id  string
		doc []byte
	)
	if err := row.Scan(&id, &doc); err != nil {
		return Room{}, err
	}
	if err := json.Unmarshal(doc, &r); err != nil {
		return Room{}, fmt.Errorf("decode room %q: %w", id, err)
	}
	r.ID = id
	return r, nil
}
