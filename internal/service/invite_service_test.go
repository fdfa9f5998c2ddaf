package service

import (
	"errors"
	"testing"
	"time"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
)

func newInviteFixture(t *testing.T) (*InviteService, *MockGroupRepository, *MockGroupInviteRepository, *MockUserRepository) {
	t.Helper()
	userRepo := NewMockUserRepository()
	groupRepo := NewMockGroupRepository()
	inviteRepo := NewMockGroupInviteRepository(groupRepo)
	svc := NewInviteService(inviteRepo, groupRepo, userRepo)

	userRepo.Create(&models.User{ID: 1, Username: "alice", Email: "alice@example.com"})
	userRepo.Create(&models.User{ID: 2, Username: "bob", Email: "bob@example.com"})
	groupRepo.CreateWithPoster(&models.Group{ID: 1, Name: "Family", CreatorID: 1})

	return svc, groupRepo, inviteRepo, userRepo
}

func TestIssueInvite(t *testing.T) {
	svc, groupRepo, _, _ := newInviteFixture(t)

	t.Run("Non-member cannot issue", func(t *testing.T) {
		_, err := svc.Issue(1, 99)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Issue error = %v, want forbidden", err)
		}
	})

	t.Run("Viewer cannot issue", func(t *testing.T) {
		groupRepo.AddMember(1, 2, models.RoleViewer)
		_, err := svc.Issue(1, 2)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Issue error = %v, want forbidden", err)
		}
	})

	t.Run("Poster gets a token with expiry", func(t *testing.T) {
		invite, err := svc.Issue(1, 1)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if invite.Token == "" {
			t.Error("Issue returned empty token")
		}
		if invite.ExpiresAt == nil {
			t.Fatal("Issue returned nil expiry")
		}
		remaining := time.Until(*invite.ExpiresAt)
		if remaining < InviteTTL-time.Minute || remaining > InviteTTL {
			t.Errorf("expiry %v from now, want about %v", remaining, InviteTTL)
		}
	})

	t.Run("Re-issue returns the open invite", func(t *testing.T) {
		first, err := svc.Issue(1, 1)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		second, err := svc.Issue(1, 1)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if first.Token != second.Token {
			t.Errorf("re-issue minted a new token: %q vs %q", first.Token, second.Token)
		}
	})

	t.Run("Lookup failure does not mint a token", func(t *testing.T) {
		svc, _, inviteRepo, _ := newInviteFixture(t)
		inviteRepo.findOpenErr = errors.New("connection reset")

		if _, err := svc.Issue(1, 1); err == nil {
			t.Fatal("Issue succeeded despite failing lookup")
		}
		if len(inviteRepo.invites) != 0 {
			t.Errorf("invites = %d after failed lookup, want 0", len(inviteRepo.invites))
		}
	})
}

func TestPreviewInvite(t *testing.T) {
	svc, _, inviteRepo, _ := newInviteFixture(t)

	invite, err := svc.Issue(1, 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("Unknown token", func(t *testing.T) {
		_, err := svc.Preview("no-such-token", 2)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Preview error = %v, want not found", err)
		}
	})

	t.Run("Valid token shows group without consuming", func(t *testing.T) {
		preview, err := svc.Preview(invite.Token, 2)
		if err != nil {
			t.Fatalf("Preview: %v", err)
		}
		if preview.Group == nil || preview.Group.Name != "Family" {
			t.Errorf("preview group = %+v, want Family", preview.Group)
		}
		if preview.InviterName != "alice" {
			t.Errorf("inviter = %q, want alice", preview.InviterName)
		}
		if preview.AlreadyMember {
			t.Error("AlreadyMember = true for fresh user")
		}

		stored, _ := inviteRepo.FindByToken(invite.Token)
		if stored.Used {
			t.Error("Preview consumed the invite")
		}
	})

	t.Run("Expired token", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		expired := &models.GroupInvite{GroupID: 1, Token: "expired-token", InviterID: 1, ExpiresAt: &past}
		inviteRepo.Create(expired)

		_, err := svc.Preview("expired-token", 2)
		if !errors.Is(err, apperr.ErrExpired) {
			t.Errorf("Preview error = %v, want expired", err)
		}
	})
}

func TestAcceptInvite(t *testing.T) {
	t.Run("Redemption grants viewer membership once", func(t *testing.T) {
		svc, groupRepo, inviteRepo, _ := newInviteFixture(t)
		invite, err := svc.Issue(1, 1)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		group, err := svc.Accept(invite.Token, 2)
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if group.ID != 1 {
			t.Errorf("joined group %d, want 1", group.ID)
		}

		role, err := groupRepo.GetMemberRole(1, 2)
		if err != nil || role != models.RoleViewer {
			t.Errorf("member role = %q (%v), want viewer", role, err)
		}

		stored, _ := inviteRepo.FindByToken(invite.Token)
		if !stored.Used || stored.InvitedUserID == nil || *stored.InvitedUserID != 2 {
			t.Errorf("invite not marked consumed: %+v", stored)
		}

		// The token is spent: a third user observes a conflict and no
		// membership is created.
		_, err = svc.Accept(invite.Token, 3)
		if !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("second Accept error = %v, want conflict", err)
		}
		if ok, _ := groupRepo.IsMember(1, 3); ok {
			t.Error("second redemption created a membership")
		}
	})

	t.Run("Expired token", func(t *testing.T) {
		svc, groupRepo, inviteRepo, _ := newInviteFixture(t)
		past := time.Now().Add(-time.Minute)
		inviteRepo.Create(&models.GroupInvite{GroupID: 1, Token: "stale", InviterID: 1, ExpiresAt: &past})

		_, err := svc.Accept("stale", 2)
		if !errors.Is(err, apperr.ErrExpired) {
			t.Errorf("Accept error = %v, want expired", err)
		}
		if ok, _ := groupRepo.IsMember(1, 2); ok {
			t.Error("expired redemption created a membership")
		}
	})

	t.Run("Existing member cannot redeem", func(t *testing.T) {
		svc, groupRepo, _, _ := newInviteFixture(t)
		invite, _ := svc.Issue(1, 1)
		groupRepo.AddMember(1, 2, models.RoleViewer)

		_, err := svc.Accept(invite.Token, 2)
		if !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("Accept error = %v, want conflict", err)
		}
	})

	t.Run("Unknown token", func(t *testing.T) {
		svc, _, _, _ := newInviteFixture(t)
		_, err := svc.Accept("missing", 2)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Accept error = %v, want not found", err)
		}
	})
}

func TestRevokeInvite(t *testing.T) {
	svc, groupRepo, _, _ := newInviteFixture(t)
	invite, err := svc.Issue(1, 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("Viewer cannot revoke", func(t *testing.T) {
		groupRepo.AddMember(1, 2, models.RoleViewer)
		err := svc.Revoke(invite.ID, 2)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Revoke error = %v, want forbidden", err)
		}
	})

	t.Run("Poster revokes and the token dies", func(t *testing.T) {
		if err := svc.Revoke(invite.ID, 1); err != nil {
			t.Fatalf("Revoke: %v", err)
		}

		_, err := svc.Accept(invite.Token, 3)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Accept after revoke error = %v, want not found", err)
		}
	})

	t.Run("Unknown invite", func(t *testing.T) {
		err := svc.Revoke(999, 1)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Revoke error = %v, want not found", err)
		}
	})
}
