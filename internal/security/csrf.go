package security

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blessedux/CasaGreda/internal/common"
)

// CSRF protects cookie-based cart writes using the double-submit technique:
// the token issued in a readable cookie must be echoed in a header.
type CSRF struct {
	Header string
	Cookie string
	TTL    time.Duration
	Secure bool
}

func (c CSRF) names() (header, cookie string) {
	header = strings.TrimSpace(c.Header)
	if header == "" {
		header = "X-CSRF-Token"
	}
	cookie = strings.TrimSpace(c.Cookie)
	if cookie == "" {
		cookie = "casa-greda-csrf"
	}
	return header, cookie
}

// Issue handles GET /api/v1/csrf. It reuses a present token and mints one
// otherwise.
func (c CSRF) Issue(w http.ResponseWriter, r *http.Request) {
	_, cookieName := c.names()
	token := ""
	if existing, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(existing.Value) != "" {
		token = existing.Value
	} else {
		token = strings.ReplaceAll(uuid.NewString(), "-", "")
		ttl := c.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	common.Data(w, http.StatusOK, map[string]string{"token": token})
}

// Middleware enforces that state-changing requests carry a header token
// matching the cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName, cookieName := c.names()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf token", nil)
			return
		}

		cookie, err := r.Cookie(cookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf cookie", nil)
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", "invalid csrf token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
