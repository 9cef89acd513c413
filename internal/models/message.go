package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxMessageLength bounds the text of a single message.
const MaxMessageLength = 140

// Message is a short post owned by exactly one user.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null;check:text <> ''" json:"text"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

// BeforeCreate stamps the message when the caller did not.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}
