package cart

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blessedux/CasaGreda/internal/common"
)

// SessionCookieName identifies the visitor for server-side cart stores.
const SessionCookieName = "casa-greda-session"

// Sessions maps a request to the key its cart is stored under.
type Sessions interface {
	Key(w http.ResponseWriter, r *http.Request) string
}

// FixedSession uses a constant key. With CookieStore the key is the cart
// cookie name, so the browser itself scopes the cart to the visitor.
type FixedSession string

// Key implements Sessions.
func (f FixedSession) Key(http.ResponseWriter, *http.Request) string {
	if f == "" {
		return CookieName
	}
	return string(f)
}

// CookieSession issues an opaque random identifier on first contact.
type CookieSession struct {
	Name     string
	TTL      time.Duration
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// Key returns the visitor's session id, setting the cookie when absent or
// malformed.
func (s CookieSession) Key(w http.ResponseWriter, r *http.Request) string {
	name := s.Name
	if name == "" {
		name = SessionCookieName
	}
	if c, err := r.Cookie(name); err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(c.Value)); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sameSite := s.SameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   int(ttl.Seconds()),
		Secure:   s.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	})
	return id
}

// Visitor identifies the caller without issuing cookies: the session id
// when present, else a digest of the cart cookie, else the client address.
func Visitor(sessionCookie, cartCookie string) func(*http.Request) string {
	return func(r *http.Request) string {
		if c, err := r.Cookie(sessionCookie); err == nil {
			if id, err := uuid.Parse(strings.TrimSpace(c.Value)); err == nil {
				return "session:" + id.String()
			}
		}
		if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
			return "cart:" + common.Sha256Hex(c.Value)
		}
		return "ip:" + common.ClientIP(r)
	}
}
