package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/repository"
	"gorm.io/gorm"
)

// InviteTTL is how long an issued invite token stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

type InviteService struct {
	inviteRepo repository.GroupInviteRepositoryInterface
	groupRepo  repository.GroupRepositoryInterface
	userRepo   repository.UserRepositoryInterface
}

func NewInviteService(
	inviteRepo repository.GroupInviteRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		groupRepo:  groupRepo,
		userRepo:   userRepo,
	}
}

// Issue returns the inviter's open (unused, unexpired) invite for the group
// if one exists, otherwise creates a fresh one. Only posters may invite.
func (s *InviteService) Issue(groupID, inviterID uint) (*models.GroupInvite, error) {
	role, err := s.groupRepo.GetMemberRole(groupID, inviterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("not a member of this group")
		}
		return nil, err
	}
	if role != models.RolePoster {
		return nil, apperr.Forbidden("only posters can issue invites")
	}

	now := time.Now()
	invite, err := s.inviteRepo.FindOpen(groupID, inviterID, now)
	if err == nil {
		return invite, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	expiresAt := now.Add(InviteTTL)
	invite = &models.GroupInvite{
		GroupID:   groupID,
		Token:     generateInviteToken(),
		InviterID: inviterID,
		ExpiresAt: &expiresAt,
	}
	if err := s.inviteRepo.Create(invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// InvitePreview is what a prospective member sees before accepting.
type InvitePreview struct {
	Group         *models.Group `json:"group"`
	InviterName   string        `json:"inviter_name"`
	AlreadyMember bool          `json:"already_member"`
}

// Preview resolves a token for display without consuming it. AlreadyMember
// reports whether the requesting user belongs to any group at all, since
// membership is currently limited to one group per user.
func (s *InviteService) Preview(token string, userID uint) (*InvitePreview, error) {
	invite, err := s.inviteRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invite token")
		}
		return nil, err
	}
	if invite.Expired(time.Now()) {
		return nil, apperr.Expired("invite token")
	}

	group, err := s.groupRepo.FindByID(invite.GroupID)
	if err != nil {
		return nil, err
	}

	inviterName := ""
	if inviter, err := s.userRepo.FindByID(invite.InviterID); err == nil {
		inviterName = inviter.Username
	}

	memberships, err := s.groupRepo.CountMemberships(userID)
	if err != nil {
		return nil, err
	}

	return &InvitePreview{
		Group:         group,
		InviterName:   inviterName,
		AlreadyMember: memberships > 0,
	}, nil
}

// Accept redeems the token for the requesting user. The membership insert and
// the invite consumption happen in one transaction (with a row lock on the
// invite), so a token can never be double-spent: of two concurrent
// redemptions one commits and the other observes Conflict.
func (s *InviteService) Accept(token string, userID uint) (*models.Group, error) {
	// Fast-path policy check; re-checked inside the redemption transaction.
	memberships, err := s.groupRepo.CountMemberships(userID)
	if err != nil {
		return nil, err
	}
	if memberships > 0 {
		return nil, apperr.Conflict("user already belongs to a group")
	}

	invite, err := s.inviteRepo.Redeem(token, userID, time.Now())
	if err != nil {
		return nil, err
	}

	return s.groupRepo.FindByID(invite.GroupID)
}

// Revoke deletes an unredeemed invite. Only the group's poster may revoke.
func (s *InviteService) Revoke(inviteID, requesterID uint) error {
	invite, err := s.findByID(inviteID)
	if err != nil {
		return err
	}

	role, err := s.groupRepo.GetMemberRole(invite.GroupID, requesterID)
	if err != nil || role != models.RolePoster {
		return apperr.Forbidden("only posters can revoke invites")
	}

	return s.inviteRepo.Delete(invite.ID)
}

func (s *InviteService) findByID(inviteID uint) (*models.GroupInvite, error) {
	invite, err := s.inviteRepo.FindByID(inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invite")
		}
		return nil, err
	}
	return invite, nil
}

// generateInviteToken returns a URL-safe token with 192 bits of entropy.
// Collisions are left to the unique index; at this entropy they are not a
// practical concern.
func generateInviteToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().String()))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
