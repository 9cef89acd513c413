package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"warbler/internal/cache"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// TimelineSize is the number of messages on the home timeline.
const TimelineSize = 100

// FeedPublisher delivers a freshly posted message to live followers.
type FeedPublisher interface {
	Publish(ctx context.Context, recipients []uint, msg *models.Message) error
}

// MessageService provides posting, deletion and timeline queries.
type MessageService struct {
	messages  repository.MessageRepository
	follows   repository.FollowRepository
	tx        repository.Transactor
	publisher FeedPublisher
}

// NewMessageService returns a new MessageService. publisher may be nil.
func NewMessageService(messages repository.MessageRepository, follows repository.FollowRepository, tx repository.Transactor, publisher FeedPublisher) *MessageService {
	return &MessageService{messages: messages, follows: follows, tx: tx, publisher: publisher}
}

// Post stores a new message for userID and announces it to followers.
func (s *MessageService) Post(ctx context.Context, userID uint, text string) (msg *models.Message, err error) {
	ctx, span := observability.StartSpan(ctx, "MessageService.Post", attribute.Int64("user.id", int64(userID)))
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, models.NewValidationError("Message must be at most 140 characters")
	}

	msg = &models.Message{UserID: userID, Text: text}
	if err = s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	// Create does not load the author; the feed event needs the username.
	if loaded, lerr := s.messages.GetByID(ctx, msg.ID); lerr == nil {
		msg = loaded
	} else {
		middleware.Logger.WarnContext(ctx, "reload posted message failed", slog.String("error", lerr.Error()))
	}

	observability.MessagesPosted.Inc()
	cache.Invalidate(ctx, cache.UserStatsKey(userID))
	s.announce(ctx, msg)
	return msg, nil
}

func (s *MessageService) announce(ctx context.Context, msg *models.Message) {
	if s.publisher == nil {
		return
	}
	followers, err := s.follows.FollowerIDs(ctx, msg.UserID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "feed fan-out skipped", slog.String("error", err.Error()))
		return
	}
	recipients := append(followers, msg.UserID)
	if err := s.publisher.Publish(ctx, recipients, msg); err != nil {
		middleware.Logger.WarnContext(ctx, "feed publish failed", slog.String("error", err.Error()))
	}
}

// GetMessage returns the message with its author, or NOT_FOUND.
func (s *MessageService) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	return s.messages.GetByID(ctx, id)
}

// Delete removes messageID when actorID owns it. Ownership is checked
// before anything is written.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "MessageService.Delete",
		attribute.Int64("user.id", int64(actorID)), attribute.Int64("message.id", int64(messageID)))
	defer func() { observability.EndSpan(span, err) }()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		msg, err := s.messages.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if msg.UserID != actorID {
			return models.NewForbiddenError("You can only delete your own messages")
		}
		return s.messages.Delete(ctx, messageID)
	})
	if err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.UserStatsKey(actorID))
	return nil
}

// ForUser returns userID's messages, newest first.
func (s *MessageService) ForUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.messages.ListByUser(ctx, userID, limit)
}

// Timeline returns the newest TimelineSize messages by userID and the users they follow.
func (s *MessageService) Timeline(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.messages.Timeline(ctx, userID, TimelineSize)
}

// LikedBy returns the messages userID liked.
func (s *MessageService) LikedBy(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.messages.LikedBy(ctx, userID, limit)
}
