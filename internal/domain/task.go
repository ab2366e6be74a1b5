package domain

import "time"

// TaskStatus enumerates board columns.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// Task is one card on a chat's board.
type Task struct {
	ID          string
	ChatID      string
	Title       string
	Description string
	Status      TaskStatus
	Position    int
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
