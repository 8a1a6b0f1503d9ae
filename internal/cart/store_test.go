package cart

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func sampleCart() Cart {
	c := AddLine(Empty(), plato(2, 14000))
	return AddLine(c, Candidate{ProductID: "taza-greda-cafe", Slug: "taza-greda-cafe", Title: "Taza", Image: "/t.jpg", Quantity: 1, UnitPrice: 8000})
}

func TestCodecRoundTrip(t *testing.T) {
	for _, c := range []Cart{Empty(), sampleCart()} {
		data, err := Encode(c)
		require.NoError(t, err)
		back, err := Decode(data)
		require.NoError(t, err)
		require.Equal(t, c, back)

		token, err := EncodeToken(c, testSecret)
		require.NoError(t, err)
		back, err = DecodeToken(token, testSecret)
		require.NoError(t, err)
		require.Equal(t, c, back)
	}
}

func TestDecodeRejectsInconsistentState(t *testing.T) {
	bad := []string{
		`not json`,
		`{"items":null,"totalItems":0,"totalPrice":0}`,
		`{"items":[{"productId":"a","quantity":2,"unitPrice":100,"total":150}],"totalItems":2,"totalPrice":150}`,
		`{"items":[{"productId":"a","quantity":0,"unitPrice":100,"total":0}],"totalItems":0,"totalPrice":0}`,
		`{"items":[{"productId":"a","quantity":1,"unitPrice":100,"total":100}],"totalItems":7,"totalPrice":100}`,
		`{"items":[{"productId":"a","quantity":1000,"unitPrice":1,"total":1000}],"totalItems":1000,"totalPrice":1000}`,
		`{"items":[{"productId":"a","quantity":922337203685477,"unitPrice":15000,"total":-4611686018427396616}],"totalItems":922337203685477,"totalPrice":-4611686018427396616}`,
		`{"items":[{"productId":"a","quantity":1,"unitPrice":1000000000001,"total":1000000000001}],"totalItems":1,"totalPrice":1000000000001}`,
	}
	for _, raw := range bad {
		_, err := Decode([]byte(raw))
		require.ErrorIs(t, err, ErrCorrupt, raw)
	}
}

func requestWithCart(t *testing.T, value string) (*httptest.ResponseRecorder, context.Context) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	}
	rr := httptest.NewRecorder()
	return rr, WithCookieJar(context.Background(), rr, req)
}

func TestCookieStoreLoadSave(t *testing.T) {
	store := CookieStore{Secret: testSecret, TTL: DefaultTTL, Secure: true}
	rr, ctx := requestWithCart(t, "")

	c, err := store.Load(ctx, CookieName)
	require.NoError(t, err)
	require.Equal(t, Empty(), c)

	require.NoError(t, store.Save(ctx, CookieName, sampleCart()))
	again, err := store.Load(ctx, CookieName)
	require.NoError(t, err)
	require.Equal(t, sampleCart(), again)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	require.Equal(t, CookieName, ck.Name)
	require.Equal(t, "/", ck.Path)
	require.Equal(t, int((30 * 24 * time.Hour).Seconds()), ck.MaxAge)
	require.True(t, ck.Secure)
	require.False(t, ck.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	_, ctx = requestWithCart(t, ck.Value)
	fromClient, err := store.Load(ctx, CookieName)
	require.NoError(t, err)
	require.Equal(t, sampleCart(), fromClient)
}

func TestCookieStoreCorruptCookieIsEmpty(t *testing.T) {
	store := CookieStore{Secret: testSecret}
	inconsistent := []byte(`{"items":[{"productId":"a","quantity":1,"unitPrice":5,"total":6}],"totalItems":1,"totalPrice":6}`)
	signedInconsistent := base64.RawURLEncoding.EncodeToString(inconsistent) + "." + base64.RawURLEncoding.EncodeToString(sign(testSecret, inconsistent))
	for _, value := range []string{"%%%", "abc.%%%", base64.RawURLEncoding.EncodeToString(inconsistent), signedInconsistent} {
		_, ctx := requestWithCart(t, value)
		c, err := store.Load(ctx, CookieName)
		require.NoError(t, err)
		require.Equal(t, Empty(), c)
	}
}

func TestCookieStoreRejectsTamperedPrice(t *testing.T) {
	store := CookieStore{Secret: testSecret}
	token, err := EncodeToken(sampleCart(), testSecret)
	require.NoError(t, err)

	// a client rewrites every unit price to 1 and keeps the totals consistent
	cheap := Empty()
	for _, it := range sampleCart().Items {
		cheap = AddLine(cheap, Candidate{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: 1})
	}
	forged, err := Encode(cheap)
	require.NoError(t, err)
	_, mac, _ := strings.Cut(token, ".")
	tampered := base64.RawURLEncoding.EncodeToString(forged) + "." + mac

	_, err = DecodeToken(tampered, testSecret)
	require.ErrorIs(t, err, ErrCorrupt)

	_, ctx := requestWithCart(t, tampered)
	c, err := store.Load(ctx, CookieName)
	require.NoError(t, err)
	require.Equal(t, Empty(), c)

	otherKey, err := EncodeToken(cheap, []byte("someone-elses-secret-0123456789ab"))
	require.NoError(t, err)
	_, ctx = requestWithCart(t, otherKey)
	c, err = store.Load(ctx, CookieName)
	require.NoError(t, err)
	require.Equal(t, Empty(), c)
}

func TestCookieStoreNeedsJarAndSecret(t *testing.T) {
	store := CookieStore{Secret: testSecret}
	_, err := store.Load(context.Background(), CookieName)
	require.ErrorIs(t, err, ErrNoCookieJar)
	require.ErrorIs(t, store.Save(context.Background(), CookieName, Empty()), ErrNoCookieJar)

	_, ctx := requestWithCart(t, "")
	_, err = CookieStore{}.Load(ctx, CookieName)
	require.ErrorIs(t, err, ErrNoSecret)
	require.ErrorIs(t, CookieStore{}.Save(ctx, CookieName, Empty()), ErrNoSecret)
}

func TestCookieStoreRejectsOversizedCart(t *testing.T) {
	c := Empty()
	for i := 0; i < 200; i++ {
		c = AddLine(c, Candidate{ProductID: "product-with-a-rather-long-identifier", Title: "Un título bastante largo para ocupar espacio", Quantity: 1, UnitPrice: int64(1000 + i)})
	}
	_, ctx := requestWithCart(t, "")
	require.ErrorIs(t, CookieStore{Secret: testSecret}.Save(ctx, CookieName, c), ErrTooLarge)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, 0)
	ctx := context.Background()

	c, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, Empty(), c)

	require.NoError(t, store.Save(ctx, "sess-1", sampleCart()))
	require.Equal(t, DefaultTTL, mr.TTL("cart:sess-1"))

	c, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, sampleCart(), c)

	require.NoError(t, mr.Set("cart:sess-2", `{"items":`))
	c, err = store.Load(ctx, "sess-2")
	require.NoError(t, err)
	require.Equal(t, Empty(), c)

	mr.FastForward(DefaultTTL + time.Second)
	c, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
}

func TestRedisStoreSurfacesTransportErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	store := NewRedisStore(client, time.Hour)
	_, err := store.Load(context.Background(), "sess")
	require.Error(t, err)
	require.Error(t, store.Save(context.Background(), "sess", Empty()))
}
