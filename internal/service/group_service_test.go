package service

import (
	"errors"
	"testing"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
)

func TestCreateGroup(t *testing.T) {
	groupRepo := NewMockGroupRepository()
	svc := NewGroupService(groupRepo)

	t.Run("Creator becomes poster", func(t *testing.T) {
		group, err := svc.CreateGroup("Family", "our things", 1)
		if err != nil {
			t.Fatalf("CreateGroup: %v", err)
		}
		role, err := groupRepo.GetMemberRole(group.ID, 1)
		if err != nil || role != models.RolePoster {
			t.Errorf("creator role = %q (%v), want poster", role, err)
		}
	})

	t.Run("Name required", func(t *testing.T) {
		_, err := svc.CreateGroup("   ", "", 1)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("CreateGroup error = %v, want validation", err)
		}
	})

	t.Run("Duplicate name per creator", func(t *testing.T) {
		_, err := svc.CreateGroup("Family", "", 1)
		if !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("CreateGroup error = %v, want conflict", err)
		}
		// Another user can reuse the name.
		if _, err := svc.CreateGroup("Family", "", 2); err != nil {
			t.Errorf("CreateGroup by other user: %v", err)
		}
	})
}

func TestGetGroupMembers(t *testing.T) {
	groupRepo := NewMockGroupRepository()
	svc := NewGroupService(groupRepo)

	group, err := svc.CreateGroup("Family", "", 1)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	groupRepo.AddMember(group.ID, 2, models.RoleViewer)

	members, err := svc.GetGroupMembers(group.ID, 2)
	if err != nil {
		t.Fatalf("GetGroupMembers: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("members = %d, want 2", len(members))
	}

	if _, err := svc.GetGroupMembers(group.ID, 99); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider error = %v, want forbidden", err)
	}
}

func TestGetGroup(t *testing.T) {
	groupRepo := NewMockGroupRepository()
	svc := NewGroupService(groupRepo)

	if _, err := svc.GetGroup(404); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetGroup error = %v, want not found", err)
	}
}
