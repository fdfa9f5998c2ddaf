package repository

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Upsert writes one message's embedding, replacing any previous row for the
// same message so re-indexing a thread is idempotent.
func (r *EmbeddingRepository) Upsert(embedding *models.MessageEmbedding) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "embedding"}),
	}).Create(embedding).Error
}

// SearchByItem returns the item's closest indexed messages by cosine distance.
func (r *EmbeddingRepository) SearchByItem(itemID uint, query pgvector.Vector, limit int) ([]models.MessageEmbedding, error) {
	var results []models.MessageEmbedding
	err := r.db.Where("item_id = ?", itemID).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <=> ?",
			Vars: []interface{}{query},
		}}).
		Limit(limit).
		Find(&results).Error
	return results, err
}

func (r *EmbeddingRepository) DeleteByMessage(messageID uint) error {
	return r.db.Where("message_id = ?", messageID).Delete(&models.MessageEmbedding{}).Error
}

func (r *EmbeddingRepository) DeleteByItem(itemID uint) error {
	return r.db.Where("item_id = ?", itemID).Delete(&models.MessageEmbedding{}).Error
}
