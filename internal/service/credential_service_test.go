package service

import (
	"context"
	"errors"
	"testing"

	"warbler/internal/cache"
	"warbler/internal/database"
	"warbler/internal/models"
	"warbler/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cache.SetClient(nil)
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newCredentialService(db *gorm.DB) *CredentialService {
	svc := NewCredentialService(repository.NewUserRepository(db), repository.NewTransactor(db), "")
	svc.SetHashCost(bcrypt.MinCost)
	return svc
}

func TestSignup_HashesPasswordAndDefaultsImage(t *testing.T) {
	svc := newCredentialService(setupTestDB(t))
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret1", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")))
	assert.Equal(t, models.DefaultImageURL, user.ImageURL)
}

func TestSignup_ConstraintViolations(t *testing.T) {
	svc := newCredentialService(setupTestDB(t))
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SignupInput
	}{
		{"duplicate username", SignupInput{Username: "alice", Email: "other@example.com", Password: "secret1"}},
		{"duplicate email", SignupInput{Username: "bob", Email: "alice@example.com", Password: "secret1"}},
		{"empty username", SignupInput{Username: "", Email: "empty@example.com", Password: "secret1"}},
		{"empty email", SignupInput{Username: "carol", Email: "", Password: "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Signup(ctx, tt.in)
			assert.Nil(t, user)
			assert.True(t, models.IsConstraintViolation(err), "got %v", err)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newCredentialService(setupTestDB(t))
	ctx := context.Background()

	created, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong"},
		{"unknown user", "nobody", "secret1"},
		{"empty password", "alice", ""},
		{"case differs", "Alice", "secret1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(ctx, tt.username, tt.password)
			assert.NoError(t, err)
			assert.Nil(t, user)
		})
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	boom := models.NewInternalError(errors.New("db down"))
	repo := &userRepoStub{
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, boom },
	}
	svc := NewCredentialService(repo, &txStub{}, "")

	user, err := svc.Authenticate(context.Background(), "alice", "secret1")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, boom)
}

func TestSignup_RunsInTransaction(t *testing.T) {
	tx := &txStub{}
	var stored *models.User
	repo := &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			stored = u
			u.ID = 10
			return nil
		},
	}
	svc := NewCredentialService(repo, tx, "/img/custom.png")
	svc.SetHashCost(bcrypt.MinCost)

	user, err := svc.Signup(context.Background(), SignupInput{Username: "dave", Email: "d@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.Same(t, stored, user)
	assert.Equal(t, "/img/custom.png", user.ImageURL)
}
