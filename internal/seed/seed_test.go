package seed

import (
	"strings"
	"testing"
	"unicode/utf8"

	"warbler/internal/database"
	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newSeeder(db *gorm.DB) *Seeder {
	s := NewSeeder(db, 42)
	s.SetHashCost(bcrypt.MinCost)
	return s
}

func TestRun_CreatesRequestedData(t *testing.T) {
	db := setupTestDB(t)
	s := newSeeder(db)

	sum, err := s.Run(Options{NumUsers: 6, NumMessages: 30, FollowsPerUser: 2, LikesPerUser: 3})
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 30, sum.Messages)
	assert.Equal(t, 12, sum.Follows)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 6, users)

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).
		Where("user_following_id = user_being_followed_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	var ownLikes int64
	require.NoError(t, db.Model(&models.Like{}).
		Joins("JOIN messages ON messages.id = likes.message_id").
		Where("messages.user_id = likes.user_id").Count(&ownLikes).Error)
	assert.Zero(t, ownLikes)

	var u models.User
	require.NoError(t, db.First(&u).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
}

func TestRun_CleanReplacesData(t *testing.T) {
	db := setupTestDB(t)
	s := newSeeder(db)

	_, err := s.Run(Options{NumUsers: 3, NumMessages: 5})
	require.NoError(t, err)
	_, err = s.Run(Options{NumUsers: 2, NumMessages: 1, ShouldClean: true})
	require.NoError(t, err)

	var users, messages int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Message{}).Count(&messages).Error)
	assert.EqualValues(t, 2, users)
	assert.EqualValues(t, 1, messages)
}

func TestMessageText(t *testing.T) {
	assert.Equal(t, "short", messageText("short"))

	long := strings.Repeat("é", models.MaxMessageLength+20)
	got := messageText(long)
	assert.Equal(t, models.MaxMessageLength, utf8.RuneCountInString(got))
}
