package dto

import (
	"time"

	"github.com/spec-kit/chat-service/internal/domain"
)

// CreateChatRequest payload.
type CreateChatRequest struct {
	Subject   string   `json:"subject"`
	MemberIDs []string `json:"member_ids"`
}

// ChatResponse represents a chat.
type ChatResponse struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatSummary is a chat-list entry with the viewer-visible preview.
type ChatSummary struct {
	ChatResponse
	LastMessageBody *string    `json:"last_message_body"`
	LastMessageAt   *time.Time `json:"last_message_at"`
}

// NewChatResponse maps a domain chat.
func NewChatResponse(chat *domain.Chat) ChatResponse {
	return ChatResponse{
		ID:        chat.ID,
		Subject:   chat.Subject,
		CreatedBy: chat.CreatedBy,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
}

// NewChatSummary maps a preview row.
func NewChatSummary(preview *domain.ChatPreview) ChatSummary {
	return ChatSummary{
		ChatResponse:    NewChatResponse(&preview.Chat),
		LastMessageBody: preview.LastMessageBody,
		LastMessageAt:   preview.LastMessageAt,
	}
}
