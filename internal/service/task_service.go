package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/events"
	"github.com/spec-kit/chat-service/internal/repository"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

// TaskService is thin data access over board cards. Every change publishes
// a board signal so all connected board viewers reconcile to the same state.
type TaskService struct {
	tasks       repository.TaskRepository
	memberships repository.MembershipRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TaskInput describes card creation/update fields.
type TaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Position    int
	AssigneeID  *string
}

// NewTaskService constructs the service.
func NewTaskService(tasks repository.TaskRepository, memberships repository.MembershipRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, memberships: memberships, dispatcher: dispatcher, logger: logger}
}

// Create adds a card to a chat's board.
func (s *TaskService) Create(ctx context.Context, actor *domain.User, chatID string, input TaskInput) (*domain.Task, error) {
	if err := s.requireMember(ctx, chatID, actor.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	status := input.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}

	task := &domain.Task{
		ChatID:      chatID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      status,
		Position:    input.Position,
		AssigneeID:  input.AssigneeID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTaskCreated, task, actor.ID)
	return task, nil
}

// Update replaces the card's fields, including board column moves.
func (s *TaskService) Update(ctx context.Context, actor *domain.User, taskID string, input TaskInput) (*domain.Task, error) {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, task.ChatID, actor.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	task.Title = strings.TrimSpace(input.Title)
	task.Description = input.Description
	if input.Status != "" {
		task.Status = input.Status
	}
	task.Position = input.Position
	task.AssigneeID = input.AssigneeID

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTaskUpdated, task, actor.ID)
	return task, nil
}

// Delete removes a card.
func (s *TaskService) Delete(ctx context.Context, actor *domain.User, taskID string) error {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, task.ChatID, actor.ID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	s.publish(ctx, events.EventTaskDeleted, task, actor.ID)
	return nil
}

// List returns the chat's board.
func (s *TaskService) List(ctx context.Context, viewer *domain.User, chatID string) ([]domain.Task, error) {
	if err := s.requireMember(ctx, chatID, viewer.ID); err != nil {
		return nil, err
	}
	return s.tasks.ListByChat(ctx, chatID)
}

func (s *TaskService) load(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", nil)
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) requireMember(ctx context.Context, chatID, userID string) error {
	member, err := s.memberships.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.NewNotFound("chat", nil)
	}
	return nil
}

func (s *TaskService) publish(ctx context.Context, eventType events.EventType, task *domain.Task, actorID string) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.Event{
		Type:    eventType,
		ChatID:  task.ChatID,
		ActorID: actorID,
		Payload: events.TaskChangedPayload{TaskID: task.ID, Status: task.Status},
	}); err != nil {
		s.logger.Warn("publish task event", zap.Error(err))
	}
}
