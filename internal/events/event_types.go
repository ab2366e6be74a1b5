package events

import (
	"time"

	"github.com/spec-kit/chat-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageCreated EventType = "message-created"
	EventMessageUpdated EventType = "message-updated"
	EventMessageDeleted EventType = "message-deleted"
	EventTaskCreated    EventType = "task-created"
	EventTaskUpdated    EventType = "task-updated"
	EventTaskDeleted    EventType = "task-deleted"
	EventChatCreated    EventType = "chat-created"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ChatID    string      `json:"chat_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageCreatedPayload payload.
type MessageCreatedPayload struct {
	MessageID   string            `json:"message_id"`
	SenderID    string            `json:"sender_id"`
	SenderName  string            `json:"sender_name"`
	Visibility  domain.Visibility `json:"visibility"`
	Body        string            `json:"body"`
	Attachments int               `json:"attachments"`
}

// MessageUpdatedPayload payload.
type MessageUpdatedPayload struct {
	MessageID string `json:"message_id"`
}

// MessageDeletedPayload payload.
type MessageDeletedPayload struct {
	MessageID string `json:"message_id"`
}

// TaskChangedPayload payload shared by task events.
type TaskChangedPayload struct {
	TaskID string            `json:"task_id"`
	Status domain.TaskStatus `json:"status,omitempty"`
}
