package handlers

import (
	"strconv"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	group, err := h.groupService.CreateGroup(req.Name, req.Description, userID)
	if err != nil {
		return httpx.FromError(c, "group_create_failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(group)
}

func (h *GroupHandler) GetMyGroups(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	memberships, err := h.groupService.GetUserGroups(userID)
	if err != nil {
		return httpx.FromError(c, "groups_fetch_failed", err)
	}
	return c.JSON(memberships)
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid group ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	isMember, err := h.groupService.IsMember(groupID, userID)
	if err != nil {
		return httpx.FromError(c, "group_fetch_failed", err)
	}
	if !isMember {
		return httpx.Forbidden(c, "not_a_member", "Not a member of this group")
	}

	group, err := h.groupService.GetGroup(groupID)
	if err != nil {
		return httpx.FromError(c, "group_fetch_failed", err)
	}
	return c.JSON(group)
}

func (h *GroupHandler) GetGroupMembers(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid group ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	members, err := h.groupService.GetGroupMembers(groupID, userID)
	if err != nil {
		return httpx.FromError(c, "members_fetch_failed", err)
	}
	return c.JSON(members)
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
