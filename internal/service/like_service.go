package service

import (
	"context"

	"warbler/internal/cache"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

// LikeService toggles likes on messages.
type LikeService struct {
	likes    repository.LikeRepository
	messages repository.MessageRepository
	tx       repository.Transactor
}

// NewLikeService returns a new LikeService.
func NewLikeService(likes repository.LikeRepository, messages repository.MessageRepository, tx repository.Transactor) *LikeService {
	return &LikeService{likes: likes, messages: messages, tx: tx}
}

// Toggle likes messageID for actorID, or removes the like if present.
// It returns whether the message is liked afterwards. Liking one's own
// message is rejected.
func (s *LikeService) Toggle(ctx context.Context, actorID, messageID uint) (bool, error) {
	var liked bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		msg, err := s.messages.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if msg.UserID == actorID {
			return models.NewValidationError("You cannot like your own message")
		}

		existing, err := s.likes.Get(ctx, actorID, messageID)
		if err != nil {
			return err
		}
		if existing != nil {
			liked = false
			return s.likes.Delete(ctx, existing.ID)
		}
		liked = true
		return s.likes.Create(ctx, &models.Like{UserID: actorID, MessageID: messageID})
	})
	if err != nil {
		return false, err
	}

	if liked {
		observability.GraphChanges.WithLabelValues("like").Inc()
	} else {
		observability.GraphChanges.WithLabelValues("unlike").Inc()
	}
	cache.Invalidate(ctx, cache.UserStatsKey(actorID))
	return liked, nil
}

// LikedSet returns the ids of the messages userID liked.
func (s *LikeService) LikedSet(ctx context.Context, userID uint) (map[uint]bool, error) {
	ids, err := s.likes.MessageIDsLikedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
