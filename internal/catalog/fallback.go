package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blessedux/CasaGreda/internal/obs"
	"github.com/blessedux/CasaGreda/internal/resilience"
)

// FallbackSource reads from Primary through a circuit breaker and answers
// from Fallback while the primary is failing or the breaker is open. Not
// found from the primary is authoritative and never falls back.
type FallbackSource struct {
	Primary  Source
	Fallback Source
	Breaker  *resilience.Breaker
}

func guarded[T any](ctx context.Context, s FallbackSource, op string, primary, fallback func(context.Context) (T, error)) (T, error) {
	ctx, span := obs.StartSpan(ctx, "catalog."+op)
	var v T
	err := s.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		v, err = primary(ctx)
		return err
	}, func(err error) bool { return errors.Is(err, ErrNotFound) })
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		obs.EndSpan(span, err)
		return v, err
	}
	zerolog.Ctx(ctx).Warn().Err(err).Str("op", op).Msg("catalog primary unavailable, serving fallback")
	span.SetAttributes(attribute.Bool("catalog.fallback", true), attribute.String("catalog.primary_error", err.Error()))
	v, err = fallback(ctx)
	obs.EndSpan(span, err)
	return v, err
}

// Rooms implements Source.
func (s FallbackSource) Rooms(ctx context.Context) ([]Room, error) {
	return guarded(ctx, s, "rooms", s.Primary.Rooms, s.Fallback.Rooms)
}

// Room implements Source.
func (s FallbackSource) Room(ctx context.Context, id string) (Room, error) {
	return guarded(ctx, s, "room",
		func(ctx context.Context) (Room, error) { return s.Primary.Room(ctx, id) },
		func(ctx context.Context) (Room, error) { return s.Fallback.Room(ctx, id) })
}

// ProductByID implements Source.
func (s FallbackSource) ProductByID(ctx context.Context, id string) (Product, error) {
	return guarded(ctx, s, "product_by_id",
		func(ctx context.Context) (Product, error) { return s.Primary.ProductByID(ctx, id) },
		func(ctx context.Context) (Product, error) { return s.Fallback.ProductByID(ctx, id) })
}

// ProductBySlug implements Source.
func (s FallbackSource) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	return guarded(ctx, s, "product_by_slug",
		func(ctx context.Context) (Product, error) { return s.Primary.ProductBySlug(ctx, slug) },
		func(ctx context.Context) (Product, error) { return s.Fallback.ProductBySlug(ctx, slug) })
}
