package realtime

import "encoding/json"

// Signal event types delivered to viewers.
const (
	SignalMessageCreated  = "message-created"
	SignalMessageUpdated  = "message-updated"
	SignalMessageDeleted  = "message-deleted"
	SignalChatListUpdated = "chat-list-updated"
	SignalTaskCreated     = "task-created"
	SignalTaskUpdated     = "task-updated"
	SignalTaskDeleted     = "task-deleted"
)

// Signal is the full wire shape of a fanout event. It carries only the event
// type and the chat id, never a message payload: every receiver, the sender's
// own connection included, reacts by re-fetching canonical state for the chat.
type Signal struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id"`
}

// Encode renders the signal for the wire.
func (s Signal) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// ScopeChat is the per-chat broadcast scope for message change signals.
func ScopeChat(chatID string) string { return "chat:" + chatID }

// ScopeBoard is the per-chat broadcast scope for task board signals.
func ScopeBoard(chatID string) string { return "board:" + chatID }

// ScopeChatList is the global scope used to refresh chat-list previews
// without every list viewer subscribing to every chat.
const ScopeChatList = "chats"
