package service

import (
	"errors"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/repository"
	"gorm.io/gorm"
)

type ReactionService struct {
	reactionRepo repository.ReactionRepositoryInterface
	messageRepo  repository.MessageRepositoryInterface
	itemRepo     repository.ItemRepositoryInterface
	groupRepo    repository.GroupRepositoryInterface
}

func NewReactionService(
	reactionRepo repository.ReactionRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	itemRepo repository.ItemRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		messageRepo:  messageRepo,
		itemRepo:     itemRepo,
		groupRepo:    groupRepo,
	}
}

func (s *ReactionService) authorize(messageID, userID uint) (*models.Message, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message")
		}
		return nil, err
	}

	thread, err := s.itemRepo.FindThreadByID(message.ThreadID)
	if err != nil {
		return nil, err
	}
	item, err := s.itemRepo.FindByID(thread.ItemID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.groupRepo.IsMember(item.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return message, nil
}

// Set records the user's reaction on a message with upsert semantics: no
// existing reaction creates one, the same type again is a no-op, and a
// different type overwrites in place so the reaction keeps its id and
// created_at. A user never holds more than one reaction per message.
func (s *ReactionService) Set(messageID, userID uint, reactionType string) (*models.Reaction, error) {
	if reactionType == "" || len(reactionType) > 32 {
		return nil, apperr.Validation("invalid reaction type")
	}
	if _, err := s.authorize(messageID, userID); err != nil {
		return nil, err
	}

	existing, err := s.reactionRepo.FindByMessageAndUser(messageID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && existing.Type == reactionType {
		return existing, nil
	}

	// Insert-or-rewrite in one statement: two concurrent first reactions
	// cannot both insert, the loser lands on the unique index and updates.
	reaction := &models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Type:      reactionType,
	}
	if err := s.reactionRepo.Upsert(reaction); err != nil {
		return nil, err
	}

	// Re-read so the caller sees the surviving id and created_at.
	return s.reactionRepo.FindByMessageAndUser(messageID, userID)
}

// Remove deletes the user's reaction on the message, if any.
func (s *ReactionService) Remove(messageID, userID uint) error {
	if _, err := s.authorize(messageID, userID); err != nil {
		return err
	}

	removed, err := s.reactionRepo.Delete(messageID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("reaction")
	}
	return nil
}

func (s *ReactionService) List(messageID, requesterID uint) ([]models.Reaction, error) {
	if _, err := s.authorize(messageID, requesterID); err != nil {
		return nil, err
	}
	return s.reactionRepo.ListByMessage(messageID)
}
