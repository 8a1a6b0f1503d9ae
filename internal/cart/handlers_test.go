package cart_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/blessedux/CasaGreda/internal/cart"
	"github.com/blessedux/CasaGreda/internal/catalog"
	"github.com/blessedux/CasaGreda/internal/i18n"
)

type envelope struct {
	Data  cart.View `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newCartRouter(t *testing.T, store cart.Store) http.Handler {
	t.Helper()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	products, err := catalog.NewService(catalog.ServiceConfig{Source: catalog.NewStaticSource(seed)})
	require.NoError(t, err)

	h := &cart.Handler{
		Svc:      &cart.Service{Store: store},
		Catalog:  products,
		Sessions: cart.FixedSession(cart.CookieName),
	}
	r := chi.NewRouter()
	r.Use(cart.CookieJarMiddleware)
	r.Use(i18n.NewResolver("").Middleware)
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items", h.UpdateItem)
		r.Delete("/items", h.RemoveItem)
	})
	return r
}

type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
	lang    string
}

func (c *client) do(method, path, body string) (int, envelope) {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	var env envelope
	require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

var cookieStore = cart.CookieStore{Secret: []byte("test-cart-secret-0123456789abcdef")}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func TestCartFlowOverCookies(t *testing.T) {
	c := newClient(t, newCartRouter(t, cookieStore))

	code, env := c.do(http.MethodGet, "/api/v1/cart/", "")
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Data.Empty)
	require.Empty(t, env.Data.Items)

	code, env = c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":2}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Items, 1)
	require.EqualValues(t, 14000, env.Data.Items[0].UnitPrice)
	require.Equal(t, "Plato de greda extendido", env.Data.Items[0].Title)
	require.Equal(t, "$28.000", env.Data.TotalPriceDisplay)
	require.Contains(t, c.cookies, cart.CookieName)

	// same product and tier merges into the existing line
	code, env = c.do(http.MethodPost, "/api/v1/cart/items", `{"productId":"plato-greda-extendido","quantity":2}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Items, 1)
	require.Equal(t, 4, env.Data.Items[0].Quantity)

	// a different tier opens a separate line
	code, env = c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":1}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Items, 2)
	require.Equal(t, 5, env.Data.TotalItems)
	require.EqualValues(t, 71000, env.Data.TotalPrice)

	code, env = c.do(http.MethodPatch, "/api/v1/cart/items", `{"productId":"plato-greda-extendido","unitPrice":15000,"quantity":0}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Items, 1)
	require.EqualValues(t, 14000, env.Data.Items[0].UnitPrice)

	code, env = c.do(http.MethodDelete, "/api/v1/cart/items?productId=plato-greda-extendido&unitPrice=14000", "")
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Data.Empty)

	_, _ = c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"taza-greda-cafe","quantity":1}`)
	code, env = c.do(http.MethodDelete, "/api/v1/cart/", "")
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Data.Empty)

	code, env = c.do(http.MethodGet, "/api/v1/cart/", "")
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Data.Empty)
}

func TestCartRendersEnglishPrices(t *testing.T) {
	c := newClient(t, newCartRouter(t, cookieStore))
	c.lang = "en-US"

	code, env := c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":1}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Extended clay plate", env.Data.Items[0].Title)
	require.Equal(t, "$19", env.Data.Items[0].UnitPriceDisplay)
	// stored amounts stay in CLP
	require.EqualValues(t, 15000, env.Data.TotalPrice)
}

func TestCartRejectsBadInput(t *testing.T) {
	c := newClient(t, newCartRouter(t, cookieStore))

	code, env := c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":0}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, env = c.do(http.MethodPost, "/api/v1/cart/items", `{"quantity":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, env = c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"no-existe","quantity":1}`)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Producto no encontrado", env.Error.Message)

	code, env = c.do(http.MethodDelete, "/api/v1/cart/items?productId=x&unitPrice=abc", "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "BAD_REQUEST", env.Error.Code)

	code, env = c.do(http.MethodPatch, "/api/v1/cart/items", `{"productId":"x","quantity":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestCartQuantitiesAreBounded(t *testing.T) {
	c := newClient(t, newCartRouter(t, cookieStore))

	code, env := c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":1}`)
	require.Equal(t, http.StatusOK, code)

	code, env = c.do(http.MethodPatch, "/api/v1/cart/items", `{"productId":"plato-greda-extendido","unitPrice":15000,"quantity":922337203685477}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, env = c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":1000}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)

	// repeated adds saturate instead of growing without limit
	for i := 0; i < 2; i++ {
		code, _ = c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":999}`)
		require.Equal(t, http.StatusOK, code)
	}

	code, env = c.do(http.MethodGet, "/api/v1/cart/", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Items, 2)
	require.Equal(t, 999, env.Data.Items[1].Quantity)
	require.EqualValues(t, 15000+999*12500, env.Data.TotalPrice)
}

type brokenStore struct {
	confirmed cart.Cart
}

func (b brokenStore) Load(context.Context, string) (cart.Cart, error) { return b.confirmed, nil }
func (b brokenStore) Save(context.Context, string, cart.Cart) error {
	return errors.New("connection refused")
}

func TestCartSaveFailureReturnsConfirmedCart(t *testing.T) {
	confirmed := cart.AddLine(cart.Empty(), cart.Candidate{
		ProductID: "taza-greda-cafe", Slug: "taza-greda-cafe", Title: "Taza", Quantity: 1, UnitPrice: 8000,
	})
	c := newClient(t, newCartRouter(t, brokenStore{confirmed: confirmed}))

	code, env := c.do(http.MethodPost, "/api/v1/cart/items", `{"slug":"plato-greda-extendido","quantity":1}`)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "CART_UNAVAILABLE", env.Error.Code)

	var details struct {
		Cart cart.View `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	require.Len(t, details.Cart.Items, 1)
	require.Equal(t, "taza-greda-cafe", details.Cart.Items[0].ProductID)
	require.EqualValues(t, 8000, details.Cart.TotalPrice)
}
