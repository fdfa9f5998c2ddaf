package ws

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/websocket/v2"
)

// Client-to-server command actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Command is the client wire format: pick a thread to follow or drop.
type Command struct {
	Action   string `json:"action"`
	ThreadID uint   `json:"thread_id"`
}

func ParseCommand(jsonBytes []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(jsonBytes, &cmd); err != nil {
		return nil, err
	}
	if cmd.Action != ActionSubscribe && cmd.Action != ActionUnsubscribe {
		return nil, fmt.Errorf("unknown action: %s", cmd.Action)
	}
	if cmd.ThreadID == 0 {
		return nil, fmt.Errorf("thread_id is required")
	}
	return &cmd, nil
}

// ErrorResponse is sent when command processing fails
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// SendError sends an error response to the client
func SendError(conn *websocket.Conn, code, message, details string) error {
	errResp := ErrorResponse{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	}
	return conn.WriteJSON(errResp)
}

// Ack confirms a processed command.
type Ack struct {
	Type     string `json:"type"`
	Action   string `json:"action"`
	ThreadID uint   `json:"thread_id"`
}

func SendAck(conn *websocket.Conn, cmd *Command) error {
	return conn.WriteJSON(Ack{Type: "ack", Action: cmd.Action, ThreadID: cmd.ThreadID})
}
