package repository

import (
	"errors"
	"time"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupInviteRepository struct {
	db *gorm.DB
}

func NewGroupInviteRepository(db *gorm.DB) *GroupInviteRepository {
	return &GroupInviteRepository{db: db}
}

func (r *GroupInviteRepository) Create(invite *models.GroupInvite) error {
	return r.db.Create(invite).Error
}

func (r *GroupInviteRepository) FindByID(id uint) (*models.GroupInvite, error) {
	var invite models.GroupInvite
	err := r.db.First(&invite, id).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *GroupInviteRepository) FindByToken(token string) (*models.GroupInvite, error) {
	var invite models.GroupInvite
	err := r.db.Where("token = ?", token).First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindOpen returns the unused, unexpired invite issued by inviterID for the
// group, if one exists.
func (r *GroupInviteRepository) FindOpen(groupID, inviterID uint, now time.Time) (*models.GroupInvite, error) {
	var invite models.GroupInvite
	err := r.db.Where("group_id = ? AND inviter_id = ? AND used = false AND (expires_at IS NULL OR expires_at > ?)",
		groupID, inviterID, now).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// Redeem consumes the invite and creates the viewer membership atomically.
// The invite row is locked FOR UPDATE for the duration of the transaction so
// that of two concurrent redemptions exactly one sees used=false; the other
// blocks on the lock and then fails the used check with Conflict.
func (r *GroupInviteRepository) Redeem(token string, userID uint, now time.Time) (*models.GroupInvite, error) {
	var invite models.GroupInvite
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token = ?", token).
			First(&invite).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invite token")
			}
			return err
		}

		if invite.Used {
			return apperr.Conflict("invite already used")
		}
		if invite.Expired(now) {
			return apperr.Expired("invite token")
		}

		// One-group-per-user policy, re-checked under the transaction.
		var memberships int64
		if err := tx.Model(&models.GroupMember{}).
			Where("user_id = ?", userID).
			Count(&memberships).Error; err != nil {
			return err
		}
		if memberships > 0 {
			return apperr.Conflict("user already belongs to a group")
		}

		member := models.GroupMember{
			GroupID: invite.GroupID,
			UserID:  userID,
			Role:    models.RoleViewer,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		invite.Used = true
		invite.UsedAt = &now
		invite.InvitedUserID = &userID
		return tx.Model(&models.GroupInvite{}).
			Where("id = ?", invite.ID).
			Updates(map[string]interface{}{
				"used":            true,
				"used_at":         now,
				"invited_user_id": userID,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *GroupInviteRepository) Delete(id uint) error {
	return r.db.Delete(&models.GroupInvite{}, id).Error
}
