package handlers

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/handlers/ws"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ReactionHandler struct {
	reactionService *service.ReactionService
	messageService  *service.MessageService
	hub             *ws.Hub
}

func NewReactionHandler(reactionService *service.ReactionService, messageService *service.MessageService, hub *ws.Hub) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
		messageService:  messageService,
		hub:             hub,
	}
}

type SetReactionRequest struct {
	Type string `json:"type"`
}

// SetReaction records or replaces the caller's reaction on a message.
// PUT /messages/:id/reaction
func (h *ReactionHandler) SetReaction(c *fiber.Ctx) error {
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid message ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req SetReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	reaction, err := h.reactionService.Set(messageID, userID, req.Type)
	if err != nil {
		return httpx.FromError(c, "reaction_set_failed", err)
	}

	if h.hub != nil {
		if message, err := h.messageService.GetMessage(messageID, userID); err == nil {
			h.hub.BroadcastToThread(message.ThreadID, ws.ReactionSetEvent(message.ThreadID, reaction))
		}
	}

	return c.JSON(reaction)
}

// RemoveReaction deletes the caller's reaction on a message.
// DELETE /messages/:id/reaction
func (h *ReactionHandler) RemoveReaction(c *fiber.Ctx) error {
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid message ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.reactionService.Remove(messageID, userID); err != nil {
		return httpx.FromError(c, "reaction_remove_failed", err)
	}

	if h.hub != nil {
		if message, err := h.messageService.GetMessage(messageID, userID); err == nil {
			h.hub.BroadcastToThread(message.ThreadID, ws.ReactionRemovedEvent(message.ThreadID, messageID, userID))
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListReactions returns all reactions on a message. GET /messages/:id/reactions
func (h *ReactionHandler) ListReactions(c *fiber.Ctx) error {
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid message ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	reactions, err := h.reactionService.List(messageID, userID)
	if err != nil {
		return httpx.FromError(c, "reactions_fetch_failed", err)
	}
	return c.JSON(reactions)
}
