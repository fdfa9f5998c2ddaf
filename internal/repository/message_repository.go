package repository

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").
		Preload("Attachments").
		Preload("Reactions").
		First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindThreadMessages returns messages of a thread newest-first, keyset
// paginated: cursor 0 starts at the newest message.
func (r *MessageRepository) FindThreadMessages(threadID uint, cursor uint, limit int) ([]models.Message, error) {
	q := r.db.Where("thread_id = ?", threadID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var messages []models.Message
	err := q.Order("id DESC").
		Limit(limit).
		Preload("Sender").
		Preload("Attachments").
		Preload("Reactions").
		Find(&messages).Error
	return messages, err
}

// ListByItem returns all messages of an item's thread oldest-first, for
// summarization and vector indexing.
func (r *MessageRepository) ListByItem(itemID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Joins("JOIN threads ON threads.id = messages.thread_id").
		Where("threads.item_id = ?", itemID).
		Order("messages.id ASC").
		Preload("Sender").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) GetAttachments(messageID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.Where("message_id = ?", messageID).Find(&attachments).Error
	return attachments, err
}

func (r *MessageRepository) AddAttachment(attachment *models.Attachment) error {
	return r.db.Create(attachment).Error
}

// DeleteWithAttachments removes the message's attachment rows, reaction rows
// and the message row itself in one transaction.
func (r *MessageRepository) DeleteWithAttachments(messageID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Message{}, messageID).Error
	})
}
