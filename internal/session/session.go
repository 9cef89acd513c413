// Package session keeps the logged-in identity and one-shot flash messages
// inside a request's cookie session.
package session

import (
	"context"

	"warbler/internal/models"
)

const (
	// CurrentUserKey is the reserved session key holding the logged-in user id.
	CurrentUserKey = "curr_user"

	flashMessageKey  = "flash_msg"
	flashCategoryKey = "flash_cat"
)

// Values is the subset of a session the manager needs. *session.Session
// from fiber's session middleware satisfies it.
type Values interface {
	Get(key string) interface{}
	Set(key string, val interface{})
	Delete(key string)
}

// UserLookup loads a user by id, returning a NOT_FOUND AppError when missing.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Manager resolves the identity stored in a session.
type Manager struct {
	users UserLookup
}

// NewManager returns a Manager backed by users.
func NewManager(users UserLookup) *Manager {
	return &Manager{users: users}
}

// Login records user as the session identity, replacing any previous one.
func Login(values Values, user *models.User) {
	values.Set(CurrentUserKey, user.ID)
}

// Logout removes the session identity. It is a no-op when nobody is logged in.
func Logout(values Values) {
	values.Delete(CurrentUserKey)
}

// UserID returns the stored identity and whether one is present.
func UserID(values Values) (uint, bool) {
	switch v := values.Get(CurrentUserKey).(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case uint64:
		return uint(v), v != 0
	default:
		return 0, false
	}
}

// CurrentUser returns the logged-in user, or nil when the session holds no
// identity or the user no longer exists. A stale identity is dropped.
func (m *Manager) CurrentUser(ctx context.Context, values Values) (*models.User, error) {
	id, ok := UserID(values)
	if !ok {
		if values.Get(CurrentUserKey) != nil {
			Logout(values)
		}
		return nil, nil
	}

	user, err := m.users.GetByID(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			Logout(values)
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Message  string
	Category string
}

// SetFlash stores a message for the next page. Category is a bootstrap
// alert class such as "danger" or "success".
func SetFlash(values Values, message, category string) {
	values.Set(flashMessageKey, message)
	values.Set(flashCategoryKey, category)
}

// PopFlash returns and clears the pending flash message, if any.
func PopFlash(values Values) *Flash {
	msg, _ := values.Get(flashMessageKey).(string)
	if msg == "" {
		return nil
	}
	cat, _ := values.Get(flashCategoryKey).(string)
	values.Delete(flashMessageKey)
	values.Delete(flashCategoryKey)
	return &Flash{Message: msg, Category: cat}
}
