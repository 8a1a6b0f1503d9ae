package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps carts server side under "<prefix><session>".
type RedisStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

// NewRedisStore returns a store using the "cart:" prefix and DefaultTTL
// unless overridden.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{Client: client, Prefix: "cart:", TTL: ttl}
}

func (s *RedisStore) key(session string) string {
	return s.Prefix + session
}

// Load fetches the cart. Missing and unreadable carts are empty.
func (s *RedisStore) Load(ctx context.Context, session string) (Cart, error) {
	if s == nil || s.Client == nil {
		return Empty(), errors.New("redis cart store not configured")
	}
	data, err := s.Client.Get(ctx, s.key(session)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("load cart: %w", err)
	}
	return decodeOrEmpty(ctx, session, func() (Cart, error) { return Decode(data) }), nil
}

// Save overwrites the cart and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, session string, c Cart) error {
	if s == nil || s.Client == nil {
		return errors.New("redis cart store not configured")
	}
	data, err := Encode(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.Client.Set(ctx, s.key(session), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
