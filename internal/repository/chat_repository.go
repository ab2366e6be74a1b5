package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chat-service/internal/domain"
)

// ChatRepository manages chat aggregates.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat, memberIDs []string) error
	GetByID(ctx context.Context, id string) (*domain.Chat, error)
	// ListForUser returns the viewer's chats with the most recent message
	// from the streams visible to the viewer as preview. Staff-only notes
	// never surface in a client member's preview.
	ListForUser(ctx context.Context, userID string, viewerIsStaff bool) ([]domain.ChatPreview, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository builds repository.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat, memberIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertChat = `
        INSERT INTO chats (subject, created_by)
        VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertChat, chat.Subject, chat.CreatedBy).
		Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
		return err
	}

	const insertMember = `
        INSERT INTO chat_members (chat_id, user_id)
        VALUES ($1,$2) ON CONFLICT DO NOTHING`
	for _, memberID := range memberIDs {
		if _, err := tx.Exec(ctx, insertMember, chat.ID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	const query = `
        SELECT id, subject, created_by, created_at, updated_at
        FROM chats WHERE id=$1`
	var chat domain.Chat
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&chat.ID,
		&chat.Subject,
		&chat.CreatedBy,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) ListForUser(ctx context.Context, userID string, viewerIsStaff bool) ([]domain.ChatPreview, error) {
	const query = `
        SELECT c.id, c.subject, c.created_by, c.created_at, c.updated_at,
               m.body, m.created_at
        FROM chats c
        JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = $1
        LEFT JOIN LATERAL (
            SELECT body, created_at
            FROM messages
            WHERE chat_id = c.id AND ($2 OR visibility = 'client')
            ORDER BY created_at DESC
            LIMIT 1
        ) m ON TRUE
        ORDER BY COALESCE(m.created_at, c.created_at) DESC`
	rows, err := r.pool.Query(ctx, query, userID, viewerIsStaff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatPreview
	for rows.Next() {
		var preview domain.ChatPreview
		if err := rows.Scan(
			&preview.ID,
			&preview.Subject,
			&preview.CreatedBy,
			&preview.CreatedAt,
			&preview.UpdatedAt,
			&preview.LastMessageBody,
			&preview.LastMessageAt,
		); err != nil {
			return nil, err
		}
		result = append(result, preview)
	}
	return result, rows.Err()
}
