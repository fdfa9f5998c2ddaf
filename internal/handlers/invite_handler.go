package handlers

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type InviteHandler struct {
	inviteService *service.InviteService
}

func NewInviteHandler(inviteService *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// IssueInvite hands out the group's share link token. POST /groups/:id/invites
func (h *InviteHandler) IssueInvite(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid group ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	invite, err := h.inviteService.Issue(groupID, userID)
	if err != nil {
		return httpx.FromError(c, "invite_issue_failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":      invite.Token,
		"expires_at": invite.ExpiresAt,
	})
}

// PreviewInvite shows the group behind a token without consuming it.
// GET /join/:token
func (h *InviteHandler) PreviewInvite(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	preview, err := h.inviteService.Preview(c.Params("token"), userID)
	if err != nil {
		return httpx.FromError(c, "invite_preview_failed", err)
	}
	return c.JSON(preview)
}

// AcceptInvite consumes the token and joins the group as a viewer.
// POST /join/:token
func (h *InviteHandler) AcceptInvite(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	group, err := h.inviteService.Accept(c.Params("token"), userID)
	if err != nil {
		return httpx.FromError(c, "invite_accept_failed", err)
	}
	return c.JSON(group)
}

// RevokeInvite deletes an unredeemed invite. DELETE /invites/:id
func (h *InviteHandler) RevokeInvite(c *fiber.Ctx) error {
	inviteID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid invite ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.inviteService.Revoke(inviteID, userID); err != nil {
		return httpx.FromError(c, "invite_revoke_failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
