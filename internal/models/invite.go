package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupInvite is a single-use capability token granting viewer membership
// in one group. Once Used is set it can never be redeemed again.
type GroupInvite struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	GroupID   uint       `gorm:"not null;index" json:"group_id"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	InviterID uint       `gorm:"not null" json:"inviter_id"`
	ExpiresAt *time.Time `json:"expires_at"`
	Used      bool       `gorm:"default:false" json:"used"`
	UsedAt    *time.Time `json:"used_at"`
	// Set when the invite is redeemed.
	InvitedUserID *uint `json:"invited_user_id"`

	Group   Group `gorm:"foreignKey:GroupID" json:"-"`
	Inviter User  `gorm:"foreignKey:InviterID" json:"-"`
}

func (i *GroupInvite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}
