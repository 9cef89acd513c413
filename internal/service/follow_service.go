package service

import (
	"context"

	"warbler/internal/cache"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

// FollowService manages the directed follow graph.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	tx      repository.Transactor
}

// NewFollowService returns a new FollowService.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, tx repository.Transactor) *FollowService {
	return &FollowService{follows: follows, users: users, tx: tx}
}

// Follow makes actorID follow targetID. Following someone already followed
// is a no-op; following oneself is rejected.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.NewValidationError("You cannot follow yourself")
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, targetID); err != nil {
			return err
		}
		return s.follows.Create(ctx, actorID, targetID)
	})
	if err != nil {
		return err
	}

	observability.GraphChanges.WithLabelValues("follow").Inc()
	cache.InvalidateUser(ctx, actorID)
	cache.InvalidateUser(ctx, targetID)
	return nil
}

// Unfollow removes the actorID -> targetID edge if it exists.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint) error {
	if err := s.follows.Delete(ctx, actorID, targetID); err != nil {
		return err
	}
	observability.GraphChanges.WithLabelValues("unfollow").Inc()
	cache.InvalidateUser(ctx, actorID)
	cache.InvalidateUser(ctx, targetID)
	return nil
}

// IsFollowing reports whether a follows b.
func (s *FollowService) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.follows.Exists(ctx, a, b)
}

// IsFollowedBy reports whether a is followed by b.
func (s *FollowService) IsFollowedBy(ctx context.Context, a, b uint) (bool, error) {
	return s.follows.Exists(ctx, b, a)
}

// Following returns the users userID follows, ordered by username.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.follows.Following(ctx, userID)
}

// Followers returns the users following userID, ordered by username.
func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.follows.Followers(ctx, userID)
}

// FollowingSet returns the ids userID follows, for marking follow buttons.
func (s *FollowService) FollowingSet(ctx context.Context, userID uint) (map[uint]bool, error) {
	ids, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
