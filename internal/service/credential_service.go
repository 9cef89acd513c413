// Package service holds the business rules of Warbler on top of the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced by the signup and login forms.
const MinPasswordLength = 6

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// CredentialService registers accounts and checks passwords.
type CredentialService struct {
	users        repository.UserRepository
	tx           repository.Transactor
	defaultImage string
	hashCost     int
}

// NewCredentialService returns a CredentialService. An empty defaultImage
// falls back to models.DefaultImageURL.
func NewCredentialService(users repository.UserRepository, tx repository.Transactor, defaultImage string) *CredentialService {
	if defaultImage == "" {
		defaultImage = models.DefaultImageURL
	}
	return &CredentialService{
		users:        users,
		tx:           tx,
		defaultImage: defaultImage,
		hashCost:     bcrypt.DefaultCost,
	}
}

// SetHashCost overrides the bcrypt cost. Tests and seeding use bcrypt.MinCost.
func (s *CredentialService) SetHashCost(cost int) {
	s.hashCost = cost
}

// Signup hashes the password and inserts the user in one transaction.
// Uniqueness and non-emptiness of username and email are left to the
// storage layer, so a rejected account surfaces as CONSTRAINT_VIOLATION
// from the write.
func (s *CredentialService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, models.NewValidationError("Password is too long")
		}
		return nil, models.NewInternalError(err)
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		imageURL = s.defaultImage
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		ImageURL: imageURL,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		observability.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	observability.SignupsTotal.WithLabelValues("created").Inc()
	middleware.Logger.InfoContext(ctx, "user signed up",
		slog.Uint64("new_user_id", uint64(user.ID)),
		slog.String("username", user.Username))
	return user, nil
}

// Authenticate returns the user when username exists and password matches
// its hash. Every kind of mismatch yields (nil, nil); an error means the
// store could not be queried.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		observability.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, nil
	}

	observability.LoginsTotal.WithLabelValues("succeeded").Inc()
	return user, nil
}
