package session

import (
	"context"
	"errors"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapValues map[string]interface{}

func (m mapValues) Get(key string) interface{}      { return m[key] }
func (m mapValues) Set(key string, val interface{}) { m[key] = val }
func (m mapValues) Delete(key string)               { delete(m, key) }

type lookupStub struct {
	users map[uint]*models.User
	err   error
}

func (l *lookupStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if l.err != nil {
		return nil, l.err
	}
	if u, ok := l.users[id]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", id)
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice"}
	bob := &models.User{ID: 2, Username: "bob"}
	m := NewManager(&lookupStub{users: map[uint]*models.User{1: alice, 2: bob}})
	ctx := context.Background()
	values := mapValues{}

	user, err := m.CurrentUser(ctx, values)
	require.NoError(t, err)
	assert.Nil(t, user)

	Login(values, alice)
	user, err = m.CurrentUser(ctx, values)
	require.NoError(t, err)
	assert.Same(t, alice, user)

	Login(values, bob)
	user, err = m.CurrentUser(ctx, values)
	require.NoError(t, err)
	assert.Same(t, bob, user, "login replaces the previous identity")

	Logout(values)
	user, err = m.CurrentUser(ctx, values)
	require.NoError(t, err)
	assert.Nil(t, user)
	_, present := values[CurrentUserKey]
	assert.False(t, present)

	assert.NotPanics(t, func() { Logout(values) })
}

func TestCurrentUser_DropsStaleIdentity(t *testing.T) {
	m := NewManager(&lookupStub{users: map[uint]*models.User{}})
	values := mapValues{CurrentUserKey: uint(42)}

	user, err := m.CurrentUser(context.Background(), values)
	require.NoError(t, err)
	assert.Nil(t, user)
	_, present := values[CurrentUserKey]
	assert.False(t, present)
}

func TestCurrentUser_MalformedIdentity(t *testing.T) {
	m := NewManager(&lookupStub{})
	values := mapValues{CurrentUserKey: "not-an-id"}

	user, err := m.CurrentUser(context.Background(), values)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Nil(t, values.Get(CurrentUserKey))
}

func TestCurrentUser_StoreFailure(t *testing.T) {
	boom := errors.New("db down")
	m := NewManager(&lookupStub{err: boom})
	values := mapValues{CurrentUserKey: uint(1)}

	user, err := m.CurrentUser(context.Background(), values)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint(1), values.Get(CurrentUserKey), "identity kept on transient errors")
}

func TestFlash(t *testing.T) {
	values := mapValues{}
	assert.Nil(t, PopFlash(values))

	SetFlash(values, "Access unauthorized.", "danger")
	f := PopFlash(values)
	require.NotNil(t, f)
	assert.Equal(t, "Access unauthorized.", f.Message)
	assert.Equal(t, "danger", f.Category)

	assert.Nil(t, PopFlash(values), "flash is shown once")
}
