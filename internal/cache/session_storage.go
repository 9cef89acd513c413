package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// SessionStorage implements fiber.Storage on top of go-redis so that the
// fiber session middleware keeps cookie sessions in Redis.
type SessionStorage struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

// NewSessionStorage returns a storage bound to rdb. rdb must not be nil.
func NewSessionStorage(rdb *redis.Client) *SessionStorage {
	return &SessionStorage{rdb: rdb, prefix: sessionPrefix, timeout: 2 * time.Second}
}

func (s *SessionStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns nil, nil when the key does not exist.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

// Set stores val under key. A zero exp means no expiry.
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Set(ctx, s.prefix+key, val, exp).Err()
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// Reset removes every session, leaving other keys alone.
func (s *SessionStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Close is a no-op; the shared client is closed by cache.Close.
func (s *SessionStorage) Close() error {
	return nil
}
