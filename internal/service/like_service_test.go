package service

import (
	"context"
	"testing"

	"warbler/internal/models"
	"warbler/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeService_CannotLikeOwnMessage(t *testing.T) {
	messages := &messageRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Message, error) {
			return &models.Message{ID: id, UserID: 4}, nil
		},
	}
	svc := NewLikeService(&likeRepoStub{}, messages, &txStub{})

	liked, err := svc.Toggle(context.Background(), 4, 1)
	assert.False(t, liked)
	assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
}

func TestLikeService_Toggle(t *testing.T) {
	db := setupTestDB(t)
	creds := newCredentialService(db)
	tx := repository.NewTransactor(db)
	msgs := NewMessageService(repository.NewMessageRepository(db), repository.NewFollowRepository(db), tx, nil)
	svc := NewLikeService(repository.NewLikeRepository(db), repository.NewMessageRepository(db), tx)
	ctx := context.Background()

	alice, err := creds.Signup(ctx, SignupInput{Username: "alice", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	bob, err := creds.Signup(ctx, SignupInput{Username: "bob", Email: "b@example.com", Password: "secret1"})
	require.NoError(t, err)
	msg, err := msgs.Post(ctx, alice.ID, "like me")
	require.NoError(t, err)

	liked, err := svc.Toggle(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	set, err := svc.LikedSet(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, set[msg.ID])

	liked, err = svc.Toggle(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	set, err = svc.LikedSet(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, set)

	_, err = svc.Toggle(ctx, bob.ID, 9999)
	assert.True(t, models.IsNotFound(err))
}
