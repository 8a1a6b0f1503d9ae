package cart

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is how long a stored cart survives without being written.
const DefaultTTL = 30 * 24 * time.Hour

// ErrCorrupt marks stored cart bytes that do not decode into a valid cart.
var ErrCorrupt = errors.New("corrupt cart state")

// Store persists one cart per session key. Load never fails because of bad
// stored data: corrupt or missing state yields the empty cart. Writes are
// last-write-wins.
type Store interface {
	Load(ctx context.Context, key string) (Cart, error)
	Save(ctx context.Context, key string, c Cart) error
}

// Encode serialises a cart as JSON.
func Encode(c Cart) ([]byte, error) {
	if c.Items == nil {
		c.Items = []Item{}
	}
	return json.Marshal(c)
}

// Decode parses and validates serialised cart state.
func Decode(data []byte) (Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !c.Valid() {
		return Cart{}, fmt.Errorf("%w: invariants violated", ErrCorrupt)
	}
	return c, nil
}

// ErrNoSecret means a token was sealed or opened without a signing key.
var ErrNoSecret = errors.New("cart: token secret not configured")

// EncodeToken serialises a cart into a cookie-safe string of the form
// base64(json) "." base64(hmac-sha256(json)).
func EncodeToken(c Cart, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	data, err := Encode(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(sign(secret, data)), nil
}

// DecodeToken verifies and parses a token from EncodeToken. A missing or
// wrong signature is reported as ErrCorrupt.
func DecodeToken(token string, secret []byte) (Cart, error) {
	if len(secret) == 0 {
		return Cart{}, ErrNoSecret
	}
	body, mac, ok := strings.Cut(token, ".")
	if !ok {
		return Cart{}, fmt.Errorf("%w: unsigned token", ErrCorrupt)
	}
	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	got, err := base64.RawURLEncoding.DecodeString(mac)
	if err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !hmac.Equal(got, sign(secret, data)) {
		return Cart{}, fmt.Errorf("%w: signature mismatch", ErrCorrupt)
	}
	return Decode(data)
}

func sign(secret, data []byte) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write(data)
	return m.Sum(nil)
}

// decodeOrEmpty substitutes the empty cart for unreadable state.
func decodeOrEmpty(ctx context.Context, key string, decode func() (Cart, error)) Cart {
	c, err := decode()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("cart_key", key).Msg("discarding unreadable cart state")
		return Empty()
	}
	return c
}
