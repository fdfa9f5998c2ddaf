package repository

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateWithPoster inserts the group and its creator's poster membership in
// one transaction.
func (r *GroupRepository) CreateWithPoster(group *models.Group) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  group.CreatorID,
			Role:    models.RolePoster,
		}
		return tx.Create(&member).Error
	})
}

func (r *GroupRepository) FindByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.Preload("Creator").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) FindByNameAndCreator(name string, creatorID uint) (*models.Group, error) {
	var group models.Group
	err := r.db.Where("name = ? AND creator_id = ?", name, creatorID).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) GetMembers(groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.Where("group_id = ?", groupID).
		Preload("User").
		Find(&members).Error
	return members, err
}

func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) GetMemberRole(groupID, userID uint) (models.GroupRole, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		return "", err
	}
	return member.Role, nil
}

func (r *GroupRepository) GetUserGroups(userID uint) ([]models.GroupMember, error) {
	var memberships []models.GroupMember
	err := r.db.Where("user_id = ?", userID).
		Preload("Group").
		Preload("Group.Creator").
		Find(&memberships).Error
	return memberships, err
}

func (r *GroupRepository) CountMemberships(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
