package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = Close() })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 1, Username: "alice"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Username)

	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "alice", second.Username)
	assert.Equal(t, 1, calls)

	InvalidateUser(ctx, 1)

	var third cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := setupRedis(t)

	var dest cachedUser
	err := Aside(context.Background(), UserKey(2), &dest, UserTTL, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists(UserKey(2)))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)

	calls := 0
	var dest cachedUser
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), UserKey(3), &dest, UserTTL, func() error {
			calls++
			dest = cachedUser{ID: 3}
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestTokenRevocation(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Already expired tokens are not stored.
	require.NoError(t, RevokeToken(ctx, "jti-2", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(RevokedTokenKey("jti-2")))
}

func TestSessionStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewSessionStorage(rdb)

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("abc", []byte("payload"), time.Minute))
	val, err = s.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)
	assert.True(t, mr.Exists("session:abc"))

	require.NoError(t, mr.Set("unrelated", "keep"))
	require.NoError(t, s.Set("def", []byte("other"), 0))
	require.NoError(t, s.Reset())
	assert.False(t, mr.Exists("session:abc"))
	assert.False(t, mr.Exists("session:def"))
	assert.True(t, mr.Exists("unrelated"))

	require.NoError(t, s.Set("ghi", []byte("x"), time.Minute))
	require.NoError(t, s.Delete("ghi"))
	val, err = s.Get("ghi")
	require.NoError(t, err)
	assert.Nil(t, val)

	assert.NoError(t, s.Close())
}
