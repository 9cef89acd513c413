package repository

import (
	"context"
	"errors"
	"strings"

	"warbler/internal/cache"
	"warbler/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query string, limit, offset int) ([]models.User, error)
	Stats(ctx context.Context, id uint) (*models.UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID serves the user from the cache outside transactions.
// Cached rows never carry the password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	fetch := func() error {
		if err := conn(ctx, r.db).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	var err error
	if inTx(ctx) {
		err = fetch()
	} else {
		err = cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, fetch)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user has that username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		return writeError(err, "Username already taken")
	}
	return nil
}

// UpdateProfile writes the editable profile columns only.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := conn(ctx, r.db).Model(&models.User{ID: user.ID}).
		Updates(map[string]any{
			"username":         user.Username,
			"email":            user.Email,
			"image_url":        user.ImageURL,
			"header_image_url": user.HeaderImageURL,
			"bio":              user.Bio,
			"location":         user.Location,
		}).Error
	if err != nil {
		return writeError(err, "Username or email already taken")
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// List orders users by username. A non-empty query filters on a
// case-insensitive username substring.
func (r *userRepository) List(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	var users []models.User
	q := conn(ctx, r.db).Order("username ASC").Limit(clampLimit(limit, 100, 500)).Offset(offset)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	var stats models.UserStats
	err := cache.Aside(ctx, cache.UserStatsKey(id), &stats, cache.StatsTTL, func() error {
		db := conn(ctx, r.db)
		if err := db.Model(&models.Message{}).Where("user_id = ?", id).Count(&stats.Messages).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := db.Model(&models.Follow{}).Where("user_following_id = ?", id).Count(&stats.Following).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := db.Model(&models.Follow{}).Where("user_being_followed_id = ?", id).Count(&stats.Followers).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := db.Model(&models.Like{}).Where("user_id = ?", id).Count(&stats.Likes).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
