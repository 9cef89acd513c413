package service

import (
	"context"
	"strings"

	"warbler/internal/cache"
	"warbler/internal/models"
	"warbler/internal/repository"
)

const (
	maxBioLen      = 500
	maxLocationLen = 100
)

// ProfileInput carries the editable fields of a profile. Empty image fields
// reset to the defaults.
type ProfileInput struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

// UserService provides profile and account business logic.
type UserService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	follows  repository.FollowRepository
	likes    repository.LikeRepository
	tx       repository.Transactor
	creds    *CredentialService

	defaultImage       string
	defaultHeaderImage string
}

// NewUserService returns a new UserService.
func NewUserService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	follows repository.FollowRepository,
	likes repository.LikeRepository,
	tx repository.Transactor,
	creds *CredentialService,
) *UserService {
	return &UserService{
		users:              users,
		messages:           messages,
		follows:            follows,
		likes:              likes,
		tx:                 tx,
		creds:              creds,
		defaultImage:       models.DefaultImageURL,
		defaultHeaderImage: models.DefaultHeaderImageURL,
	}
}

// SetDefaultImages overrides the images assigned when a profile clears them.
func (s *UserService) SetDefaultImages(image, header string) {
	if image != "" {
		s.defaultImage = image
	}
	if header != "" {
		s.defaultHeaderImage = header
	}
}

// ListUsers returns users ordered by username, filtered by a username
// substring when query is non-empty.
func (s *UserService) ListUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, query, limit, offset)
}

// GetUserByID returns the user, or NOT_FOUND when there is none.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Stats returns the profile counters of user id.
func (s *UserService) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	return s.users.Stats(ctx, id)
}

// UpdateProfile applies in to the acting user after re-checking password.
// A wrong password is UNAUTHORIZED and nothing is written.
func (s *UserService) UpdateProfile(ctx context.Context, actorID uint, password string, in ProfileInput) (*models.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	verified, err := s.creds.Authenticate(ctx, actor.Username, password)
	if err != nil {
		return nil, err
	}
	if verified == nil || verified.ID != actorID {
		return nil, models.NewUnauthorizedError("Wrong password, please try again.")
	}

	if len(in.Bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}
	if len(in.Location) > maxLocationLen {
		return nil, models.NewValidationError("Location too long (max 100 characters)")
	}

	updated := *verified
	updated.Username = in.Username
	updated.Email = in.Email
	updated.Bio = in.Bio
	updated.Location = in.Location
	updated.ImageURL = strings.TrimSpace(in.ImageURL)
	if updated.ImageURL == "" {
		updated.ImageURL = s.defaultImage
	}
	updated.HeaderImageURL = strings.TrimSpace(in.HeaderImageURL)
	if updated.HeaderImageURL == "" {
		updated.HeaderImageURL = s.defaultHeaderImage
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.users.UpdateProfile(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	// Only after commit, or a concurrent read could re-cache the old row.
	cache.InvalidateUser(ctx, actorID)
	return &updated, nil
}

// DeleteAccount removes the acting user together with their messages,
// likes and follow edges in a single transaction.
func (s *UserService) DeleteAccount(ctx context.Context, actorID uint) error {
	followers, err := s.follows.FollowerIDs(ctx, actorID)
	if err != nil {
		return err
	}
	following, err := s.follows.FollowingIDs(ctx, actorID)
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.likes.DeleteByUser(ctx, actorID); err != nil {
			return err
		}
		if err := s.messages.DeleteByUser(ctx, actorID); err != nil {
			return err
		}
		if err := s.follows.DeleteByUser(ctx, actorID); err != nil {
			return err
		}
		return s.users.Delete(ctx, actorID)
	})
	if err != nil {
		return err
	}

	cache.InvalidateUser(ctx, actorID)
	for _, id := range append(followers, following...) {
		cache.InvalidateUser(ctx, id)
	}
	return nil
}
