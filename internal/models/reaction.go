package models

import "time"

// Reaction is unique per (message, user): re-reacting with a different type
// updates the row in place, keeping the original id and created_at.
type Reaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MessageID uint   `gorm:"not null;uniqueIndex:idx_message_user" json:"message_id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_message_user" json:"user_id"`
	Type      string `gorm:"size:32;not null" json:"type"`
}
