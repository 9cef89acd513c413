package repository

import (
	"context"
	"errors"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uint) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	LikedBy(ctx context.Context, userID uint, limit int) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := conn(ctx, r.db).Omit("User").Create(msg).Error; err != nil {
		return writeError(err, "Message rejected")
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := conn(ctx, r.db).Preload("User").First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	db := conn(ctx, r.db)
	if err := db.Where("message_id = ?", id).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := db.Delete(&models.Message{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	return nil
}

// DeleteByUser removes every message owned by userID together with likes on them.
func (r *messageRepository) DeleteByUser(ctx context.Context, userID uint) error {
	db := conn(ctx, r.db)
	owned := db.Model(&models.Message{}).Select("id").Where("user_id = ?", userID)
	if err := db.Where("message_id IN (?)", owned).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.Message{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByUser returns the newest messages of userID first.
func (r *messageRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var msgs []models.Message
	if err := conn(ctx, r.db).
		Preload("User").
		Where("user_id = ?", userID).
		Order("timestamp DESC").Order("id DESC").
		Limit(clampLimit(limit, 100, 500)).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// Timeline returns the newest messages written by userID or anyone userID follows.
func (r *messageRepository) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var msgs []models.Message
	db := conn(ctx, r.db)
	followed := db.Model(&models.Follow{}).Select("user_being_followed_id").Where("user_following_id = ?", userID)
	if err := db.
		Preload("User").
		Where("user_id = ? OR user_id IN (?)", userID, followed).
		Order("timestamp DESC").Order("id DESC").
		Limit(clampLimit(limit, 100, 500)).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// LikedBy returns the messages userID liked, most recently liked first.
func (r *messageRepository) LikedBy(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var msgs []models.Message
	if err := conn(ctx, r.db).
		Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC").Order("likes.id DESC").
		Limit(clampLimit(limit, 100, 500)).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
