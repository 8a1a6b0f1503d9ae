package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/blessedux/CasaGreda/internal/catalog"
	"github.com/blessedux/CasaGreda/internal/i18n"
)

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	svc, err := catalog.NewService(catalog.ServiceConfig{Source: catalog.NewStaticSource(seed)})
	require.NoError(t, err)
	h := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	r := chi.NewRouter()
	r.Use(i18n.NewResolver("").Middleware)
	r.Get("/api/v1/rooms", h.Rooms)
	r.Get("/api/v1/rooms/{room}", h.Room)
	r.Get("/api/v1/products/{slug}", h.ProductDetail)
	r.Get("/api/v1/products/{slug}/quote", h.Quote)
	return r
}

func get[T any](t *testing.T, h http.Handler, path, lang string) (int, envelope[T]) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var body envelope[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return rr.Code, body
}

func TestRoomsListing(t *testing.T) {
	h := newRouter(t)
	code, body := get[[]catalog.RoomSummary](t, h, "/api/v1/rooms", "en-US")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Data, 4)
	require.Equal(t, "comedor", body.Data[0].ID)
	require.Equal(t, "Dining Room", body.Data[0].Title)
	require.Equal(t, 2, body.Data[0].ProductCount)
}

func TestRoomSceneResolvesHotspots(t *testing.T) {
	h := newRouter(t)
	code, body := get[catalog.RoomView](t, h, "/api/v1/rooms/rituales", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Rituales", body.Data.Title)
	require.Len(t, body.Data.Hotspots, 2)
	taza := body.Data.Hotspots[0]
	require.Equal(t, "taza-greda-cafe", taza.ProductID)
	require.Equal(t, float64(40), taza.X)
	require.Equal(t, "Taza de greda para café", taza.Product.Title)
	require.Equal(t, int64(7000), taza.Product.FromPrice)
	require.Equal(t, "/images/products/taza-cafe/front.jpg", taza.Product.Image)
}

func TestUnknownRoomIs404(t *testing.T) {
	h := newRouter(t)
	code, body := get[any](t, h, "/api/v1/rooms/banio", "en")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.Equal(t, "Room not found", body.Error.Message)
}

func TestProductDetailOptions(t *testing.T) {
	h := newRouter(t)
	code, body := get[catalog.ProductDetail](t, h, "/api/v1/products/plato-greda-extendido", "es-CL")
	require.Equal(t, http.StatusOK, code)
	d := body.Data
	require.Equal(t, "Plato de greda extendido", d.Title)
	require.True(t, d.InStock)
	require.Equal(t, "$12.500", d.FromPriceDisplay)
	require.Len(t, d.Options, 3)
	require.Equal(t, "1 unidad", d.Options[0].Label)
	require.Nil(t, d.Options[0].Savings)
	require.Equal(t, "4 unidades", d.Options[2].Label)
	require.Equal(t, "$50.000", d.Options[2].TotalDisplay)
	require.Equal(t, "$10.000", d.Options[2].SavingsDisplay)
}

func TestQuote(t *testing.T) {
	h := newRouter(t)
	code, body := get[catalog.Quote](t, h, "/api/v1/products/plato-greda-extendido/quote?qty=3", "en")
	require.Equal(t, http.StatusOK, code)
	q := body.Data
	require.Equal(t, int64(14000), q.Calculation.Unit)
	require.Equal(t, int64(42000), q.Calculation.Total)
	require.Equal(t, "$18", q.UnitDisplay)
	require.Equal(t, "$53", q.TotalDisplay)
	require.Equal(t, "$4", q.SavingsDisplay)
	require.Equal(t, "3 units", q.Summary)
	require.Equal(t, "Unit price", q.Labels.UnitPrice)
	require.True(t, q.WithinStock)
}

func TestQuoteRejectsBadQuantity(t *testing.T) {
	h := newRouter(t)
	for _, qty := range []string{"0", "-2", "abc", "1000", "922337203685477", "99999999999999999999"} {
		code, body := get[any](t, h, "/api/v1/products/taza-greda-cafe/quote?qty="+qty, "")
		require.Equal(t, http.StatusBadRequest, code, qty)
		require.Equal(t, "BAD_REQUEST", body.Error.Code)
	}
}

func TestUnknownProductIs404(t *testing.T) {
	h := newRouter(t)
	code, _ := get[any](t, h, "/api/v1/products/nope", "")
	require.Equal(t, http.StatusNotFound, code)
}
