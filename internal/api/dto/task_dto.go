package dto

import (
	"time"

	"github.com/spec-kit/chat-service/internal/domain"
)

// TaskRequest payload for create/update.
type TaskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	Position    int               `json:"position"`
	AssigneeID  *string           `json:"assignee_id"`
}

// TaskResponse represents a board card.
type TaskResponse struct {
	ID          string            `json:"id"`
	ChatID      string            `json:"chat_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	Position    int               `json:"position"`
	AssigneeID  *string           `json:"assignee_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewTaskResponse maps a domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		ChatID:      task.ChatID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Position:    task.Position,
		AssigneeID:  task.AssigneeID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
