package ws

import "github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"

// Event types pushed to thread subscribers.
const (
	EventMessageCreated  = "message_created"
	EventMessageDeleted  = "message_deleted"
	EventReactionSet     = "reaction_set"
	EventReactionRemoved = "reaction_removed"
)

type Event struct {
	Type     string      `json:"type"`
	ThreadID uint        `json:"thread_id"`
	Payload  interface{} `json:"payload,omitempty"`
}

func MessageCreatedEvent(message *models.Message) Event {
	return Event{
		Type:     EventMessageCreated,
		ThreadID: message.ThreadID,
		Payload:  message.ToResponse(),
	}
}

func MessageDeletedEvent(threadID, messageID uint) Event {
	return Event{
		Type:     EventMessageDeleted,
		ThreadID: threadID,
		Payload:  map[string]uint{"message_id": messageID},
	}
}

func ReactionSetEvent(threadID uint, reaction *models.Reaction) Event {
	return Event{
		Type:     EventReactionSet,
		ThreadID: threadID,
		Payload:  reaction,
	}
}

func ReactionRemovedEvent(threadID, messageID, userID uint) Event {
	return Event{
		Type:     EventReactionRemoved,
		ThreadID: threadID,
		Payload:  map[string]uint{"message_id": messageID, "user_id": userID},
	}
}
