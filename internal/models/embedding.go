package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// MessageEmbedding is one indexed chat message in the RAG sidebar's vector
// store. One row per message, re-upserted when a thread is re-indexed.
type MessageEmbedding struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ItemID    uint            `gorm:"not null;index" json:"item_id"`
	MessageID uint            `gorm:"uniqueIndex;not null" json:"message_id"`
	Content   string          `gorm:"type:text;not null" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
}
