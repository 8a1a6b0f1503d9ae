package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blessedux/CasaGreda/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBreakerTransitions(t *testing.T) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	breaker := resilience.NewBreaker(2, 0.5, time.Minute).WithTarget("catalog").WithClock(c.now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx), "open breaker refuses calls")

	c.advance(time.Minute)
	require.True(t, breaker.Allow(ctx), "cool-off admits a probe")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	require.False(t, breaker.Allow(ctx), "only one probe at a time")

	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
	require.True(t, breaker.Allow(ctx))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(1, 1, time.Second).WithClock(c.now)
	ctx := context.Background()

	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())

	c.advance(time.Second)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))
}

func TestDoTreatsHealthyErrorsAsSuccess(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	ctx := context.Background()
	missing := errors.New("missing")
	healthy := func(err error) bool { return errors.Is(err, missing) }

	for i := 0; i < 5; i++ {
		err := breaker.Do(ctx, func(context.Context) error { return missing }, healthy)
		require.ErrorIs(t, err, missing)
	}
	require.Equal(t, resilience.Closed, breaker.State())

	down := errors.New("connection refused")
	err := breaker.Do(ctx, func(context.Context) error { return down }, healthy)
	require.ErrorIs(t, err, down)
	require.Equal(t, resilience.Closed, breaker.State(), "earlier successes still outweigh one failure")
	err = breaker.Do(ctx, func(context.Context) error { return down }, healthy)
	require.ErrorIs(t, err, down)
	require.Equal(t, resilience.Open, breaker.State())

	called := false
	err = breaker.Do(ctx, func(context.Context) error { called = true; return nil }, healthy)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, called)
}

func TestDoIgnoresCallerCancellation(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	err := breaker.Do(context.Background(), func(context.Context) error { return context.Canceled }, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, resilience.Closed, breaker.State())
}
