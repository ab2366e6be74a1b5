package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chat-service/internal/domain"
)

// TaskRepository manages board cards. Plain data access: board consistency
// across viewers comes from the fanout signals, not from locking here.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByChat(ctx context.Context, chatID string) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository builds repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (chat_id, title, description, status, position, assignee_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.ChatID,
		task.Title,
		task.Description,
		task.Status,
		task.Position,
		task.AssigneeID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
        SELECT id, chat_id, title, description, status, position, assignee_id, created_at, updated_at
        FROM tasks WHERE id=$1`
	var task domain.Task
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.ChatID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Position,
		&task.AssigneeID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByChat(ctx context.Context, chatID string) ([]domain.Task, error) {
	const query = `
        SELECT id, chat_id, title, description, status, position, assignee_id, created_at, updated_at
        FROM tasks WHERE chat_id=$1 ORDER BY status, position, created_at`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.ChatID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Position,
			&task.AssigneeID,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks
        SET title=$2, description=$3, status=$4, position=$5, assignee_id=$6, updated_at=now()
        WHERE id=$1
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Position,
		task.AssigneeID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
