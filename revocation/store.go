package revocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every backend failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrEmptyTokenID is returned when jti is empty.
var ErrEmptyTokenID = errors.New("empty token id")

const defaultPrefix = "rv"

// Store is a jti denylist. Entries expire on their own once the token would
// have expired anyway.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore returns a Store using client. An empty prefix defaults to "rv".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) key(jti string) string {
	return s.prefix + ":jti:" + jti
}

// Revoke denylists jti until the given time, normally the token's exp.
// Revoking with until in the past is a no-op: the token is already dead.
func (s *Store) Revoke(ctx context.Context, jti string, until time.Time) error {
	if jti == "" {
		return ErrEmptyTokenID
	}
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := s.redis.Set(ctx, s.key(jti), until.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether jti is on the denylist.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Restore removes jti from the denylist. Restoring an unknown jti is not an error.
func (s *Store) Restore(ctx context.Context, jti string) error {
	if jti == "" {
		return ErrEmptyTokenID
	}
	if err := s.redis.Del(ctx, s.key(jti)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokedUntil returns the time the entry for jti lapses, or false if none.
func (s *Store) RevokedUntil(ctx context.Context, jti string) (time.Time, bool, error) {
	if jti == "" {
		return time.Time{}, false, nil
	}
	unix, err := s.redis.Get(ctx, s.key(jti)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Unix(unix, 0), true, nil
}
