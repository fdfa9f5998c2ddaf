package handlers

import (
	"mime/multipart"
	"strconv"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/handlers/ws"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messageService *service.MessageService
	hub            *ws.Hub
}

func NewMessageHandler(messageService *service.MessageService, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{messageService: messageService, hub: hub}
}

// PostMessage appends a message to a thread. Multipart form: content,
// optional parent_id, zero or more "attachments" files.
// POST /threads/:id/messages
func (h *MessageHandler) PostMessage(c *fiber.Ctx) error {
	threadID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid thread ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	content := c.FormValue("content")

	var parentID *uint
	if raw := c.FormValue("parent_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return httpx.BadRequest(c, "invalid_parent_id", "parent_id must be a number")
		}
		id := uint(parsed)
		parentID = &id
	}

	var fileHeaders []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		fileHeaders = form.File["attachments"]
	}

	files, closers, err := openUploads(fileHeaders)
	if err != nil {
		return httpx.BadRequest(c, "invalid_file", "Could not read uploaded file")
	}
	defer closers()

	message, err := h.messageService.PostMessage(c.Context(), threadID, userID, content, parentID, files)
	if err != nil {
		return httpx.FromError(c, "message_post_failed", err)
	}

	if h.hub != nil {
		h.hub.BroadcastToThread(threadID, ws.MessageCreatedEvent(message))
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

// GetThreadMessages returns a page of thread history, newest first.
// GET /threads/:id/messages?cursor=&limit=
func (h *MessageHandler) GetThreadMessages(c *fiber.Ctx) error {
	threadID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid thread ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	cursor := uint(c.QueryInt("cursor", 0))
	limit := c.QueryInt("limit", service.DefaultMessageWindow)

	messages, err := h.messageService.GetThreadMessages(threadID, userID, cursor, limit)
	if err != nil {
		return httpx.FromError(c, "messages_fetch_failed", err)
	}

	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}

	var nextCursor uint
	if len(messages) == limit && limit > 0 {
		nextCursor = messages[len(messages)-1].ID
	}

	return c.JSON(fiber.Map{
		"messages":    responses,
		"next_cursor": nextCursor,
	})
}

// DeleteMessage removes one message. DELETE /messages/:id
func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid message ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	// Resolve the thread before the row disappears.
	message, err := h.messageService.GetMessage(messageID, userID)
	if err != nil {
		return httpx.FromError(c, "message_delete_failed", err)
	}

	if err := h.messageService.DeleteMessage(c.Context(), messageID, userID); err != nil {
		return httpx.FromError(c, "message_delete_failed", err)
	}

	if h.hub != nil {
		h.hub.BroadcastToThread(message.ThreadID, ws.MessageDeletedEvent(message.ThreadID, messageID))
	}

	return c.SendStatus(fiber.StatusNoContent)
}
