package models

import (
	"strings"
	"time"
)

// Message rows are hard-deleted; attachment and reaction rows go in the same
// transaction.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ThreadID uint `gorm:"not null;index" json:"thread_id"`
	SenderID uint `gorm:"not null;index" json:"sender_id"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Reply target. Deliberately not a foreign key: replies survive the
	// deletion of their parent with a dangling id.
	ParentID *uint `gorm:"index" json:"parent_id"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender"`

	Attachments []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments"`
	Reactions   []Reaction   `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"reactions"`
}

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVoice AttachmentKind = "voice"
	AttachmentVideo AttachmentKind = "video"
	AttachmentFile  AttachmentKind = "file"
)

// KindFromContentType maps a MIME type to the coarse attachment classification.
func KindFromContentType(contentType string) AttachmentKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return AttachmentImage
	case strings.HasPrefix(ct, "audio/"):
		return AttachmentVoice
	case strings.HasPrefix(ct, "video/"):
		return AttachmentVideo
	default:
		return AttachmentFile
	}
}

type Attachment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MessageID   uint           `gorm:"not null;index" json:"message_id"`
	URL         string         `gorm:"size:512;not null" json:"url"`
	ContentType string         `gorm:"size:100" json:"content_type"`
	Kind        AttachmentKind `gorm:"type:varchar(20);not null" json:"kind"`
}

type MessageResponse struct {
	ID          uint         `json:"id"`
	ThreadID    uint         `json:"thread_id"`
	SenderID    uint         `json:"sender_id"`
	Sender      UserResponse `json:"sender"`
	Content     string       `json:"content"`
	ParentID    *uint        `json:"parent_id"`
	Attachments []Attachment `json:"attachments"`
	Reactions   []Reaction   `json:"reactions"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	reactions := m.Reactions
	if reactions == nil {
		reactions = []Reaction{}
	}
	return MessageResponse{
		ID:          m.ID,
		ThreadID:    m.ThreadID,
		SenderID:    m.SenderID,
		Sender:      m.Sender.ToResponse(),
		Content:     m.Content,
		ParentID:    m.ParentID,
		Attachments: attachments,
		Reactions:   reactions,
		CreatedAt:   m.CreatedAt,
	}
}
