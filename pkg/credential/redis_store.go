package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used by RedisStore unless WithKey overrides it.
const DefaultRedisKey = "authsession:credential"

// RedisStore keeps the credential under a single redis key so several client
// processes on one host can share a session.
type RedisStore struct {
	db  redis.UniversalClient
	key string
	ttl time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey overrides the redis key. Empty keys are ignored.
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithTTL expires the stored credential after ttl. Zero means no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore wraps a go-redis client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{db: client, key: DefaultRedisKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the redis key holding the credential.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Save(ctx context.Context, credential string) error {
	if credential == "" {
		return ErrEmptyCredential
	}
	if err := s.db.Set(ctx, s.key, credential, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	val, err := s.db.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get credential: %w", err)
	}
	if val == "" {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.db.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis delete credential: %w", err)
	}
	return nil
}
