// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"
)

const (
	// DefaultImageURL is assigned to users who sign up without a profile image.
	DefaultImageURL = "/static/images/default-pic.png"
	// DefaultHeaderImageURL is the profile header shown until the user sets one.
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User represents a Warbler account.
// Username and email must be non-empty and unique; the storage layer enforces both.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"unique;not null;check:username <> ''" json:"username"`
	Email          string    `gorm:"unique;not null;check:email <> ''" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u User) String() string {
	return fmt.Sprintf("<User #%d: %s, %s>", u.ID, u.Username, u.Email)
}

// UserStats holds the counters shown in a profile sidebar.
type UserStats struct {
	Messages  int64 `json:"messages"`
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
	Likes     int64 `json:"likes"`
}
