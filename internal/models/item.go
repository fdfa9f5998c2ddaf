package models

import (
	"time"
)

type ItemStatus string

const (
	ItemActive   ItemStatus = "active"
	ItemArchived ItemStatus = "archived"
)

// Item rows are hard-deleted so the DB cascade removes images and the thread.
type Item struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID  uint `gorm:"not null;index" json:"user_id"`
	GroupID uint `gorm:"not null;index" json:"group_id"`

	Name          string     `gorm:"size:255;not null" json:"name"`
	Category      string     `gorm:"size:100" json:"category"`
	ConditionRank int        `gorm:"default:3" json:"condition_rank"`
	Status        ItemStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Result of object detection on the first uploaded image. Empty when
	// recognition was unavailable or found nothing.
	RecognizedLabel string   `gorm:"size:100" json:"recognized_label"`
	Confidence      *float64 `json:"confidence"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`

	// Images and the discussion thread are removed by DB cascade when the
	// item row is deleted.
	Images []ItemImage `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"images"`
	Thread *Thread     `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"thread,omitempty"`
}

type ItemImage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ItemID      uint   `gorm:"not null;index" json:"item_id"`
	URL         string `gorm:"size:512;not null" json:"url"`
	ContentType string `gorm:"size:100" json:"content_type"`
}

// Thread is the one-to-one discussion attached to an item, created in the
// same transaction as the item itself.
type Thread struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ItemID uint `gorm:"uniqueIndex;not null" json:"item_id"`

	Messages []Message `gorm:"foreignKey:ThreadID" json:"-"`
}
