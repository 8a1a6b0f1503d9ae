package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/blessedux/CasaGreda/internal/cart"
	"github.com/blessedux/CasaGreda/internal/catalog"
	"github.com/blessedux/CasaGreda/internal/checkout"
	"github.com/blessedux/CasaGreda/internal/config"
	"github.com/blessedux/CasaGreda/internal/events"
	"github.com/blessedux/CasaGreda/internal/health"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:           "test",
		CartStore:        config.CartStoreCookie,
		CartCookieName:   cart.CookieName,
		CartCookieSecret: []byte("router-test-cart-secret-0123456789"),
		CartTTL:          time.Hour,
		CatalogSource:    config.CatalogStatic,
		RateLimitWindow:  time.Minute,
		RateLimitMax:     100,
		BodyLimitBytes:   1 << 16,
		SecurityHeaders:  true,
		CSRFEnabled:      true,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := testConfig()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	catalogService, err := catalog.NewService(catalog.ServiceConfig{Source: catalog.NewStaticSource(seed)})
	require.NoError(t, err)
	carts := &cart.Service{Store: cartStore(cfg, nil)}

	srv := httptest.NewServer(newRouter(cfg, deps{
		Logger:   zerolog.Nop(),
		Catalog:  catalogService,
		Carts:    carts,
		Sessions: cartSessions(cfg),
		Checkout: &checkout.Service{Carts: carts, Events: &events.Bus{}, Delay: -1},
		Health:   health.Handler{},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newHTTPClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func call(t *testing.T, c *http.Client, method, url, body string, header map[string]string) (int, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestStorefrontJourney(t *testing.T) {
	srv := newTestServer(t)
	c := newHTTPClient(t)

	code, _ := call(t, c, http.MethodGet, srv.URL+"/api/v1/rooms", "", nil)
	require.Equal(t, http.StatusOK, code)

	// writes without a csrf token are refused
	code, _ = call(t, c, http.MethodPost, srv.URL+"/api/v1/cart/items", `{"slug":"bowl-greda-mediano","quantity":2}`, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, env := call(t, c, http.MethodGet, srv.URL+"/api/v1/csrf", "", nil)
	require.Equal(t, http.StatusOK, code)
	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env["data"], &issued))
	withToken := map[string]string{"X-CSRF-Token": issued.Token, "Content-Type": "application/json"}

	code, env = call(t, c, http.MethodPost, srv.URL+"/api/v1/cart/items", `{"slug":"bowl-greda-mediano","quantity":2}`, withToken)
	require.Equal(t, http.StatusOK, code)
	var view cart.View
	require.NoError(t, json.Unmarshal(env["data"], &view))
	require.EqualValues(t, 22000, view.TotalPrice)

	code, env = call(t, c, http.MethodGet, srv.URL+"/api/v1/cart", "", map[string]string{"Accept-Language": "en"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env["data"], &view))
	require.Equal(t, "$28", view.TotalPriceDisplay)

	code, env = call(t, c, http.MethodPost, srv.URL+"/api/v1/checkout",
		`{"email":"ana@example.cl","shippingAddress":{"name":"Ana","line1":"Los Leones 10","city":"Santiago","region":"RM","phone":"+56911112222"}}`,
		withToken)
	require.Equal(t, http.StatusCreated, code)
	var out checkout.Output
	require.NoError(t, json.Unmarshal(env["data"], &out))
	require.EqualValues(t, 22000, out.Order.Total)

	code, env = call(t, c, http.MethodGet, srv.URL+"/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env["data"], &view))
	require.True(t, view.Empty)
}
