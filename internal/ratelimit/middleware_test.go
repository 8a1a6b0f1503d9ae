package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	for name, allower := range map[string]func(t *testing.T) Allower{
		"sliding": func(t *testing.T) Allower {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return Sliding{Client: client, Prefix: "ratelimit:"}
		},
		"memory": func(*testing.T) Allower { return NewMemory() },
	} {
		t.Run(name, func(t *testing.T) {
			handler := Handler{
				Limiter: allower(t),
				Config:  Config{Key: ByClientIP("checkout"), Window: time.Minute, Max: 1},
			}
			counted := handler.Middleware(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			rr1 := httptest.NewRecorder()
			counted.ServeHTTP(rr1, req.Clone(req.Context()))
			require.Equal(t, http.StatusOK, rr1.Code)

			rr2 := httptest.NewRecorder()
			counted.ServeHTTP(rr2, req.Clone(req.Context()))
			require.Equal(t, http.StatusTooManyRequests, rr2.Code)
			require.Equal(t, "1", rr2.Header().Get("X-RateLimit-Limit"))
			require.Equal(t, "0", rr2.Header().Get("X-RateLimit-Remaining"))
			require.NotEmpty(t, rr2.Header().Get("Retry-After"))
			require.Contains(t, rr2.Body.String(), "RATE_LIMITED")

			// another caller has its own budget
			other := req.Clone(req.Context())
			other.RemoteAddr = "10.0.0.2:5555"
			rr3 := httptest.NewRecorder()
			counted.ServeHTTP(rr3, other)
			require.Equal(t, http.StatusOK, rr3.Code)
		})
	}
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	called := false
	handler := Handler{
		Limiter: Sliding{Client: client, Prefix: "ratelimit:"},
		Config:  Config{Key: func(*http.Request) string { return "err" }, Window: time.Second, Max: 1},
		OnError: func(*http.Request, error) { called = true },
	}

	rr := httptest.NewRecorder()
	handler.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestByClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "cart:203.0.113.7", ByClientIP("cart")(req))
}
