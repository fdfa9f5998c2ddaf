package repository

import (
	"time"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/pgvector/pgvector-go"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	Update(user *models.User) error
}

// GroupRepositoryInterface defines the contract for group repository operations
type GroupRepositoryInterface interface {
	CreateWithPoster(group *models.Group) error
	FindByID(id uint) (*models.Group, error)
	FindByNameAndCreator(name string, creatorID uint) (*models.Group, error)
	GetMembers(groupID uint) ([]models.GroupMember, error)
	IsMember(groupID, userID uint) (bool, error)
	GetMemberRole(groupID, userID uint) (models.GroupRole, error)
	GetUserGroups(userID uint) ([]models.GroupMember, error)
	CountMemberships(userID uint) (int64, error)
}

// GroupInviteRepositoryInterface defines the contract for invite operations
type GroupInviteRepositoryInterface interface {
	Create(invite *models.GroupInvite) error
	FindByID(id uint) (*models.GroupInvite, error)
	FindByToken(token string) (*models.GroupInvite, error)
	FindOpen(groupID, inviterID uint, now time.Time) (*models.GroupInvite, error)
	// Redeem consumes the token and creates the viewer membership in one
	// transaction, holding a row lock on the invite.
	Redeem(token string, userID uint, now time.Time) (*models.GroupInvite, error)
	Delete(id uint) error
}

// ItemRepositoryInterface defines the contract for item repository operations
type ItemRepositoryInterface interface {
	// CreateWithThread inserts the item and its discussion thread atomically.
	CreateWithThread(item *models.Item) error
	FindByID(id uint) (*models.Item, error)
	ListByGroup(groupID uint, status models.ItemStatus) ([]models.Item, error)
	GetImages(itemID uint) ([]models.ItemImage, error)
	AddImage(image *models.ItemImage) error
	UpdateStatus(id uint, status models.ItemStatus) error
	// Delete hard-deletes the item row; images and thread follow via DB
	// cascade. Reports whether a row was actually removed.
	Delete(id uint) (bool, error)
	FindThreadByItemID(itemID uint) (*models.Thread, error)
	FindThreadByID(threadID uint) (*models.Thread, error)
}

// MessageRepositoryInterface defines the contract for message repository operations
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindThreadMessages(threadID uint, cursor uint, limit int) ([]models.Message, error)
	ListByItem(itemID uint) ([]models.Message, error)
	GetAttachments(messageID uint) ([]models.Attachment, error)
	AddAttachment(attachment *models.Attachment) error
	// DeleteWithAttachments removes attachment rows, reaction rows and the
	// message row in one transaction.
	DeleteWithAttachments(messageID uint) error
}

// ReactionRepositoryInterface defines the contract for reaction operations
type ReactionRepositoryInterface interface {
	FindByMessageAndUser(messageID, userID uint) (*models.Reaction, error)
	// Upsert inserts the reaction or, on the (message_id, user_id) unique
	// index, rewrites the type in place preserving id and created_at.
	Upsert(reaction *models.Reaction) error
	Delete(messageID, userID uint) (bool, error)
	ListByMessage(messageID uint) ([]models.Reaction, error)
}

// EmbeddingRepositoryInterface defines the contract for the vector index
type EmbeddingRepositoryInterface interface {
	Upsert(embedding *models.MessageEmbedding) error
	SearchByItem(itemID uint, query pgvector.Vector, limit int) ([]models.MessageEmbedding, error)
	DeleteByMessage(messageID uint) error
	DeleteByItem(itemID uint) error
}
