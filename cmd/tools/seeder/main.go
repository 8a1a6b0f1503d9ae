package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/catalog"
)

func main() {
	file := flag.String("file", "", "catalog YAML to load instead of the embedded seed")
	migrate := flag.Bool("migrate", true, "apply catalog migrations before seeding")
	prune := flag.Bool("prune", false, "delete products and rooms missing from the seed")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	seed, err := loadSeed(*file)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalog")
	}

	if *migrate {
		if err := catalog.Migrate(dbURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if err := write(ctx, db, seed, *prune); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	logger.Info().Int("products", len(seed.Products)).Int("rooms", len(seed.Rooms)).Msg("seeding completed")
}

func loadSeed(path string) (catalog.Seed, error) {
	if path == "" {
		return catalog.DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Seed{}, err
	}
	return catalog.ParseSeed(data)
}

func write(ctx context.Context, db *sql.DB, seed catalog.Seed, prune bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if prune {
		ids := make([]string, 0, len(seed.Products))
		for _, p := range seed.Products {
			ids = append(ids, p.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE NOT (id = ANY($1))`, pq.Array(ids)); err != nil {
			return fmt.Errorf("prune products: %w", err)
		}
		roomIDs := make([]string, 0, len(seed.Rooms))
		for _, r := range seed.Rooms {
			roomIDs = append(roomIDs, r.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE NOT (id = ANY($1))`, pq.Array(roomIDs)); err != nil {
			return fmt.Errorf("prune rooms: %w", err)
		}
	}

	for _, p := range seed.Products {
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, slug, category, stock, doc) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET slug = EXCLUDED.slug, category = EXCLUDED.category,
				stock = EXCLUDED.stock, doc = EXCLUDED.doc, updated_at = now()`,
			p.ID, p.Slug, p.Category, p.Stock, doc); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_price_tiers WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("reset tiers %s: %w", p.ID, err)
		}
		for _, tier := range p.PriceTiers {
			if _, err := tx.ExecContext(ctx, `INSERT INTO product_price_tiers (product_id, qty, unit_price) VALUES ($1, $2, $3)`,
				p.ID, tier.Qty, tier.UnitPrice); err != nil {
				return fmt.Errorf("insert tier %s/%d: %w", p.ID, tier.Qty, err)
			}
		}
	}

	for i, r := range seed.Rooms {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode room %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, position, doc) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET position = EXCLUDED.position, doc = EXCLUDED.doc`,
			r.ID, i, doc); err != nil {
			return fmt.Errorf("upsert room %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
