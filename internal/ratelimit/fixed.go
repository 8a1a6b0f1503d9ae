package ratelimit

import (
	"context"
	"sync"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Allower decides whether a request identified by key may proceed.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error)
}

// Fixed is a fixed window limiter on top of ulule/limiter. It runs on the
// in-memory store when no Redis is configured.
type Fixed struct {
	Store limiter.Store

	mu       sync.Mutex
	limiters map[limiter.Rate]*limiter.Limiter
}

// NewMemory returns a Fixed limiter with a process-local store.
func NewMemory() *Fixed {
	return &Fixed{Store: memory.NewStore()}
}

func (f *Fixed) limiterFor(rate limiter.Rate) *limiter.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limiters == nil {
		f.limiters = map[limiter.Rate]*limiter.Limiter{}
	}
	l, ok := f.limiters[rate]
	if !ok {
		if f.Store == nil {
			f.Store = memory.NewStore()
		}
		l = limiter.New(f.Store, rate)
		f.limiters[rate] = l
	}
	return l
}

// Allow implements Allower.
func (f *Fixed) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	if max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, ResetAt: time.Now().Add(window)}, nil
	}
	res, err := f.limiterFor(limiter.Rate{Period: window, Limit: int64(max)}).Get(ctx, key)
	if err != nil {
		return Decision{ResetAt: time.Now().Add(window)}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Remaining: int(res.Remaining),
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
