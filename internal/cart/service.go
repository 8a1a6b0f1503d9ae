package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/obs"
	"github.com/blessedux/CasaGreda/internal/pricing"
)

// ErrUnavailable means the cart could not be persisted. The caller receives
// the last confirmed cart alongside it.
var ErrUnavailable = errors.New("cart temporarily unavailable")

// Locker serialises mutations of one session across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service runs load, apply, save for every cart mutation.
type Service struct {
	Store   Store
	Locker  Locker
	LockTTL time.Duration
}

// Get returns the stored cart for key.
func (s *Service) Get(ctx context.Context, key string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Empty(), errors.New("cart service not configured")
	}
	start := time.Now()
	c, err := s.Store.Load(ctx, key)
	obs.ObserveMillis(obs.CartStoreLatency, obs.DurationMillis(time.Since(start)), "load")
	if err != nil {
		return Empty(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, nil
}

// Add merges a candidate line into the cart.
func (s *Service) Add(ctx context.Context, key string, cand Candidate) (Cart, error) {
	return s.mutate(ctx, key, "add", func(c Cart) Cart { return AddLine(c, cand) })
}

// Remove drops the line identified by productID and unitPrice.
func (s *Service) Remove(ctx context.Context, key, productID string, unitPrice pricing.Money) (Cart, error) {
	return s.mutate(ctx, key, "remove", func(c Cart) Cart { return RemoveLine(c, productID, unitPrice) })
}

// SetQuantity sets a line quantity; zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, key, productID string, unitPrice pricing.Money, qty int) (Cart, error) {
	return s.mutate(ctx, key, "set_quantity", func(c Cart) Cart { return SetLineQuantity(c, productID, unitPrice, qty) })
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, key string) (Cart, error) {
	return s.mutate(ctx, key, "clear", func(Cart) Cart { return Clear() })
}

func (s *Service) mutate(ctx context.Context, key, op string, fn func(Cart) Cart) (Cart, error) {
	if s == nil || s.Store == nil {
		return Empty(), errors.New("cart service not configured")
	}
	var (
		result Cart
		opErr  error
	)
	run := func(ctx context.Context) error {
		result, opErr = s.apply(ctx, key, fn)
		return opErr
	}
	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, key, s.lockTTL(), run)
		if err != nil && opErr == nil {
			// the lock itself failed; fall back to whatever the store holds now
			result, _ = s.Get(ctx, key)
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	} else {
		err = run(ctx)
	}
	if err != nil {
		obs.IncCounter(obs.CartMutationsTotal, op, "error")
		zerolog.Ctx(ctx).Warn().Err(err).Str("op", op).Msg("cart mutation failed")
		return result, err
	}
	obs.IncCounter(obs.CartMutationsTotal, op, "ok")
	return result, nil
}

// apply loads the confirmed cart, proposes the mutation and commits it only
// after the store accepted the write.
func (s *Service) apply(ctx context.Context, key string, fn func(Cart) Cart) (Cart, error) {
	confirmed, err := s.Get(ctx, key)
	if err != nil {
		return confirmed, err
	}
	holder := NewOptimistic(confirmed)
	next := holder.Propose(fn)

	start := time.Now()
	err = s.Store.Save(ctx, key, next)
	obs.ObserveMillis(obs.CartStoreLatency, obs.DurationMillis(time.Since(start)), "save")
	if err != nil {
		return holder.Rollback(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return holder.Commit(), nil
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return 5 * time.Second
	}
	return s.LockTTL
}
