// Package seed fills a database with fake users, messages, follows and likes
// for local development and demos.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is given to every seeded account.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumMessages    int
	FollowsPerUser int
	LikesPerUser   int
	ShouldClean    bool
	Password       string
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Messages int
	Follows  int
	Likes    int
}

// Seeder writes fake data through gorm.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	cost  int
}

// NewSeeder returns a Seeder. A zero seed picks a time-based one.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{db: db, faker: gofakeit.New(seed), cost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost used for the shared password.
func (s *Seeder) SetHashCost(cost int) {
	s.cost = cost
}

// Run seeds the database according to opts.
func (s *Seeder) Run(opts Options) (Summary, error) {
	var sum Summary

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return sum, err
		}
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}

	users, err := s.SeedUsers(opts.NumUsers, opts.Password)
	if err != nil {
		return sum, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)

	messages, err := s.SeedMessages(users, opts.NumMessages)
	if err != nil {
		return sum, fmt.Errorf("failed to create messages: %w", err)
	}
	sum.Messages = len(messages)

	if sum.Follows, err = s.SeedFollows(users, opts.FollowsPerUser); err != nil {
		return sum, fmt.Errorf("failed to create follows: %w", err)
	}
	if sum.Likes, err = s.SeedLikes(users, messages, opts.LikesPerUser); err != nil {
		return sum, fmt.Errorf("failed to create likes: %w", err)
	}

	middleware.Logger.Info("seeding complete",
		slog.Int("users", sum.Users),
		slog.Int("messages", sum.Messages),
		slog.Int("follows", sum.Follows),
		slog.Int("likes", sum.Likes))
	return sum, nil
}

// ClearAll deletes every row, children first.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return nil
	})
}

// SeedUsers creates n users sharing one password.
func (s *Seeder) SeedUsers(n int, password string) ([]models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), i)
		users = append(users, models.User{
			Username:       username,
			Email:          fmt.Sprintf("%s@%s", username, s.faker.DomainName()),
			Password:       string(hash),
			ImageURL:       fmt.Sprintf("https://picsum.photos/seed/%s/200/200", username),
			HeaderImageURL: models.DefaultHeaderImageURL,
			Bio:            s.faker.HipsterSentence(8),
			Location:       s.faker.City(),
		})
	}

	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SeedMessages spreads n messages over users with timestamps from the last 30 days.
func (s *Seeder) SeedMessages(users []models.User, n int) ([]models.Message, error) {
	if n <= 0 || len(users) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	messages := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		messages = append(messages, models.Message{
			UserID:    author.ID,
			Text:      messageText(s.faker.Sentence(s.faker.Number(4, 20))),
			Timestamp: s.faker.DateRange(now.AddDate(0, 0, -30), now),
		})
	}

	if err := s.db.Omit(clause.Associations).CreateInBatches(&messages, 100).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// SeedFollows makes every user follow up to perUser distinct others.
func (s *Seeder) SeedFollows(users []models.User, perUser int) (int, error) {
	if perUser <= 0 || len(users) < 2 {
		return 0, nil
	}

	var follows []models.Follow
	for _, u := range users {
		picked := 0
		for _, idx := range s.faker.Rand.Perm(len(users)) {
			if picked == perUser {
				break
			}
			target := users[idx]
			if target.ID == u.ID {
				continue
			}
			follows = append(follows, models.Follow{UserFollowingID: u.ID, UserBeingFollowedID: target.ID})
			picked++
		}
	}

	err := s.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&follows, 200).Error
	if err != nil {
		return 0, err
	}
	return len(follows), nil
}

// SeedLikes makes every user like up to perUser messages written by others.
func (s *Seeder) SeedLikes(users []models.User, messages []models.Message, perUser int) (int, error) {
	if perUser <= 0 || len(messages) == 0 {
		return 0, nil
	}

	var likes []models.Like
	for _, u := range users {
		picked := 0
		for _, idx := range s.faker.Rand.Perm(len(messages)) {
			if picked == perUser {
				break
			}
			msg := messages[idx]
			if msg.UserID == u.ID {
				continue
			}
			likes = append(likes, models.Like{UserID: u.ID, MessageID: msg.ID})
			picked++
		}
	}
	if len(likes) == 0 {
		return 0, nil
	}

	err := s.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&likes, 200).Error
	if err != nil {
		return 0, err
	}
	return len(likes), nil
}

// messageText trims sentence to the message length limit on a rune boundary.
func messageText(sentence string) string {
	if utf8.RuneCountInString(sentence) <= models.MaxMessageLength {
		return sentence
	}
	runes := []rune(sentence)
	return strings.TrimSpace(string(runes[:models.MaxMessageLength]))
}
