package i18n

import (
	"net/http"
	"strings"
)

// CookieName is the cookie a client sets to pin its language choice.
const CookieName = "locale"

// Resolver determines the request locale from a pinned cookie or the
// Accept-Language header and injects it into the request context.
type Resolver struct {
	CookieName string
}

// NewResolver returns a resolver reading the given cookie. An empty name
// falls back to CookieName.
func NewResolver(cookieName string) *Resolver {
	cookieName = strings.TrimSpace(cookieName)
	if cookieName == "" {
		cookieName = CookieName
	}
	return &Resolver{CookieName: cookieName}
}

// Middleware resolves the locale and sets Content-Language on the response.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		locale := r.Resolve(req)
		w.Header().Set("Content-Language", string(locale))
		next.ServeHTTP(w, req.WithContext(WithLocale(req.Context(), locale)))
	})
}

// Resolve applies cookie, then header, then Default.
func (r *Resolver) Resolve(req *http.Request) Locale {
	if req == nil {
		return Default
	}
	name := CookieName
	if r != nil && r.CookieName != "" {
		name = r.CookieName
	}
	if c, err := req.Cookie(name); err == nil {
		if l, ok := Parse(c.Value); ok {
			return l
		}
	}
	return FromAcceptLanguage(req.Header.Get("Accept-Language"))
}
