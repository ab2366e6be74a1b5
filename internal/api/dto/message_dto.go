package dto

import (
	"time"

	"github.com/spec-kit/chat-service/internal/domain"
)

// SendMessageRequest is the JSON body for attachment-free sends. Sends with
// files use multipart form fields of the same names.
type SendMessageRequest struct {
	Body      string `json:"body"`
	StaffOnly bool   `json:"staff_only"`
}

// EditMessageRequest payload.
type EditMessageRequest struct {
	Body string `json:"body"`
}

// AttachmentResponse carries attachment metadata plus the signed access
// handle, freshly resolved per response.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url"`
}

// MessageResponse represents one thread entry.
type MessageResponse struct {
	ID          string               `json:"id"`
	ChatID      string               `json:"chat_id"`
	SenderID    string               `json:"sender_id"`
	Body        string               `json:"body"`
	Visibility  domain.Visibility    `json:"visibility"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
	EditedAt    *time.Time           `json:"edited_at"`
}

// NewMessageResponse maps a domain message.
func NewMessageResponse(msg *domain.Message) MessageResponse {
	attachments := make([]AttachmentResponse, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
			URL:       att.URL,
		})
	}
	return MessageResponse{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		SenderID:    msg.SenderID,
		Body:        msg.Body,
		Visibility:  msg.Visibility,
		Attachments: attachments,
		CreatedAt:   msg.CreatedAt,
		EditedAt:    msg.EditedAt,
	}
}
