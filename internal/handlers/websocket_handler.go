package handlers

import (
	"log"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/handlers/ws"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	messageService *service.MessageService
	hub            *ws.Hub
}

func NewWebSocketHandler(messageService *service.MessageService) *WebSocketHandler {
	return &WebSocketHandler{
		messageService: messageService,
		hub:            ws.NewHub(),
	}
}

// GetHub returns the hub instance (useful for sending events from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

// HandleWebSocket runs one client's read loop: subscribe/unsubscribe commands
// come in, thread events go out via the hub.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)

	client := h.hub.Register(userID, c)
	defer h.hub.UnregisterClient(client)

	log.Printf("User %d connected via WebSocket", userID)

	for {
		_, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}

		cmd, err := ws.ParseCommand(messageBytes)
		if err != nil {
			ws.SendError(c, "invalid_command", "Invalid command", err.Error())
			continue
		}

		switch cmd.Action {
		case ws.ActionSubscribe:
			if err := h.messageService.CanAccessThread(cmd.ThreadID, userID); err != nil {
				ws.SendError(c, "subscribe_denied", "Cannot subscribe to thread", err.Error())
				continue
			}
			h.hub.Subscribe(userID, cmd.ThreadID)
		case ws.ActionUnsubscribe:
			h.hub.Unsubscribe(userID, cmd.ThreadID)
		}

		if err := ws.SendAck(c, cmd); err != nil {
			log.Printf("Error acking command for user %d: %v", userID, err)
			break
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
