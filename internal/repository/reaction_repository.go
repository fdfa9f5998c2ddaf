package repository

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

func (r *ReactionRepository) FindByMessageAndUser(messageID, userID uint) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// Upsert inserts the reaction; when the user already reacted to the message
// the conflict on the (message_id, user_id) unique index rewrites the type
// column only, so id and created_at survive. Atomic under concurrent sets.
func (r *ReactionRepository) Upsert(reaction *models.Reaction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type"}),
	}).Create(reaction).Error
}

func (r *ReactionRepository) Delete(messageID, userID uint) (bool, error) {
	res := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).Delete(&models.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ReactionRepository) ListByMessage(messageID uint) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.Where("message_id = ?", messageID).Find(&reactions).Error
	return reactions, err
}
