package repository

import (
	"context"
	"errors"

	"warbler/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores likes of messages by users.
type LikeRepository interface {
	Get(ctx context.Context, userID, messageID uint) (*models.Like, error)
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, id uint) error
	MessageIDsLikedBy(ctx context.Context, userID uint) ([]uint, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Get returns nil, nil when userID has not liked messageID.
func (r *likeRepository) Get(ctx context.Context, userID, messageID uint) (*models.Like, error) {
	var like models.Like
	if err := conn(ctx, r.db).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(like).Error; err != nil {
		return writeError(err, "Like rejected")
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&models.Like{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) MessageIDsLikedBy(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := conn(ctx, r.db).Model(&models.Like{}).
		Where("user_id = ?", userID).
		Pluck("message_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// DeleteByUser removes the likes userID gave.
func (r *likeRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
