package repository

import (
	"context"
	"fmt"
	"testing"

	"warbler/internal/cache"
	"warbler/internal/database"
	"warbler/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	cache.SetClient(nil)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupTestDB returns a private, migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cache.SetClient(nil)
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
		ImageURL: models.DefaultImageURL,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createMessage(t *testing.T, db *gorm.DB, userID uint, text string) *models.Message {
	t.Helper()
	m := &models.Message{UserID: userID, Text: text}
	require.NoError(t, NewMessageRepository(db).Create(context.Background(), m))
	return m
}
