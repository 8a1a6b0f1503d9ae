package i18n

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromAcceptLanguage(t *testing.T) {
	cases := map[string]Locale{
		"":                        ES,
		"en-US,en;q=0.9":          EN,
		"es-CL,es;q=0.9,en;q=0.8": ES,
		"fr-FR":                   ES,
		"de,en;q=0.5":             EN,
		";;garbage":               ES,
	}
	for header, want := range cases {
		require.Equal(t, want, FromAcceptLanguage(header), "header %q", header)
	}
}

func TestResolverCookieWins(t *testing.T) {
	r := NewResolver("")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "es-CL")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "en"})
	require.Equal(t, EN, r.Resolve(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-GB")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "pt"})
	require.Equal(t, EN, r.Resolve(req))
}

func TestMiddlewareInjectsLocale(t *testing.T) {
	var got Locale
	h := NewResolver("").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, EN, got)
	require.Equal(t, "en", rr.Header().Get("Content-Language"))
}

func TestLookupFallsBackToKey(t *testing.T) {
	require.Equal(t, "Add to cart", Lookup(EN, "product.addToCart"))
	require.Equal(t, "Agregar al carrito", Lookup(ES, "product.addToCart"))
	require.Equal(t, "Agregar al carrito", Lookup(Locale("pt"), "product.addToCart"))
	require.Equal(t, "product.nope", Lookup(EN, "product.nope"))
	require.Equal(t, "product", Lookup(EN, "product"))
}

func TestDictionariesComplete(t *testing.T) {
	for _, l := range Supported {
		assertFilled(t, string(l), reflect.ValueOf(*For(l)))
	}
}

func assertFilled(t *testing.T, path string, v reflect.Value) {
	t.Helper()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		name := path + "." + v.Type().Field(i).Name
		switch f.Kind() {
		case reflect.Struct:
			assertFilled(t, name, f)
		case reflect.String:
			require.NotEmpty(t, f.String(), name)
		}
	}
}

func TestParse(t *testing.T) {
	l, ok := Parse("EN_us")
	require.True(t, ok)
	require.Equal(t, EN, l)
	_, ok = Parse("fr")
	require.False(t, ok)
	require.Equal(t, ES, Locale("").OrDefault())
}

func TestFormatPlaceholders(t *testing.T) {
	require.Equal(t, "You save $2", Format(For(EN).Product.YouSave, map[string]string{"amount": "$2"}))
	require.Equal(t, "unidad", For(ES).UnitLabel(1))
	require.Equal(t, "units", For(EN).UnitLabel(3))
}

func TestDictionaryHandlerServesRequestLocale(t *testing.T) {
	h := NewResolver("").Middleware(http.HandlerFunc(DictionaryHandler))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/i18n", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data struct {
			Locale     Locale     `json:"locale"`
			Dictionary Dictionary `json:"dictionary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, EN, body.Data.Locale)
	require.Equal(t, "Cart is empty", body.Data.Dictionary.Checkout.EmptyCart)
}
