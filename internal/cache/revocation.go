package cache

import (
	"context"
	"time"
)

// RevokeToken blacklists a token id until it would have expired anyway.
func RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if client == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, RevokedTokenKey(jti), 1, ttl).Err()
}

// IsTokenRevoked reports whether jti was revoked. Without Redis nothing is revoked.
func IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
