package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// CookieName is the cookie that carries the serialised cart.
const CookieName = "casa-greda-cart"

// MaxCookieBytes is the largest cookie value browsers reliably accept.
const MaxCookieBytes = 4000

var (
	// ErrNoCookieJar means a CookieStore was used outside an HTTP request.
	ErrNoCookieJar = errors.New("cart: no cookie jar in context")
	// ErrTooLarge means the encoded cart no longer fits into a cookie.
	ErrTooLarge = errors.New("cart: encoded cart exceeds cookie size")
)

type cookieJarKey struct{}

// cookieJar gives a Store request-scoped access to incoming cookies and the
// response. Cookies written during the request shadow the incoming ones.
type cookieJar struct {
	mu      sync.Mutex
	r       *http.Request
	w       http.ResponseWriter
	written map[string]string
}

// WithCookieJar binds the request and response to ctx for CookieStore.
func WithCookieJar(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, cookieJarKey{}, &cookieJar{r: r, w: w, written: map[string]string{}})
}

// CookieJarMiddleware installs a cookie jar for every request.
func CookieJarMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithCookieJar(r.Context(), w, r)))
	})
}

func jarFrom(ctx context.Context) *cookieJar {
	jar, _ := ctx.Value(cookieJarKey{}).(*cookieJar)
	return jar
}

func (j *cookieJar) get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if v, ok := j.written[name]; ok {
		return v, true
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (j *cookieJar) set(c *http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.written[c.Name] = c.Value
	http.SetCookie(j.w, c)
}

// CookieStore keeps the whole cart in a client cookie signed with Secret.
// The key passed to Load and Save is the cookie name. A cookie whose
// signature does not verify loads as the empty cart.
type CookieStore struct {
	Secret   []byte
	TTL      time.Duration
	Secure   bool
	SameSite http.SameSite
	Domain   string
	Path     string
}

func (s CookieStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

// Load decodes the cart cookie.
func (s CookieStore) Load(ctx context.Context, key string) (Cart, error) {
	if len(s.Secret) == 0 {
		return Empty(), ErrNoSecret
	}
	jar := jarFrom(ctx)
	if jar == nil {
		return Empty(), ErrNoCookieJar
	}
	value, ok := jar.get(key)
	if !ok || value == "" {
		return Empty(), nil
	}
	return decodeOrEmpty(ctx, key, func() (Cart, error) { return DecodeToken(value, s.Secret) }), nil
}

// Save writes the cart cookie. Script access stays enabled so the
// storefront can render optimistic updates without a round trip.
func (s CookieStore) Save(ctx context.Context, key string, c Cart) error {
	jar := jarFrom(ctx)
	if jar == nil {
		return ErrNoCookieJar
	}
	token, err := EncodeToken(c, s.Secret)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if len(token) > MaxCookieBytes {
		return ErrTooLarge
	}
	path := s.Path
	if path == "" {
		path = "/"
	}
	sameSite := s.SameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	jar.set(&http.Cookie{
		Name:     key,
		Value:    token,
		Path:     path,
		Domain:   s.Domain,
		MaxAge:   int(s.ttl().Seconds()),
		Secure:   s.Secure,
		HttpOnly: false,
		SameSite: sameSite,
	})
	return nil
}
