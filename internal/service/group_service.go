package service

import (
	"errors"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/repository"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/validation"
	"gorm.io/gorm"
)

type GroupService struct {
	groupRepo repository.GroupRepositoryInterface
}

func NewGroupService(groupRepo repository.GroupRepositoryInterface) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// CreateGroup makes the creator the group's poster in the same transaction.
func (s *GroupService) CreateGroup(name, description string, creatorID uint) (*models.Group, error) {
	name = validation.TrimAndLimit(name, 100)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	if _, err := s.groupRepo.FindByNameAndCreator(name, creatorID); err == nil {
		return nil, apperr.Conflict("group name already used by this user")
	}

	group := &models.Group{
		Name:        name,
		Description: validation.TrimAndLimit(description, 255),
		CreatorID:   creatorID,
	}
	if err := s.groupRepo.CreateWithPoster(group); err != nil {
		return nil, err
	}

	return s.groupRepo.FindByID(group.ID)
}

func (s *GroupService) GetGroup(groupID uint) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("group")
		}
		return nil, err
	}
	return group, nil
}

// GetUserGroups returns the user's memberships with group data preloaded.
func (s *GroupService) GetUserGroups(userID uint) ([]models.GroupMember, error) {
	return s.groupRepo.GetUserGroups(userID)
}

func (s *GroupService) GetGroupMembers(groupID, requesterID uint) ([]models.GroupMember, error) {
	isMember, err := s.groupRepo.IsMember(groupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return s.groupRepo.GetMembers(groupID)
}

func (s *GroupService) IsMember(groupID, userID uint) (bool, error) {
	return s.groupRepo.IsMember(groupID, userID)
}

func (s *GroupService) IsPoster(groupID, userID uint) (bool, error) {
	role, err := s.groupRepo.GetMemberRole(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return role == models.RolePoster, nil
}
