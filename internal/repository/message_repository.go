package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chat-service/internal/domain"
)

// MessageRepository manages chat thread messages and their attachment rows.
type MessageRepository interface {
	// Create persists the message and all attachment rows in one
	// transaction: a message is never stored with a partial attachment set.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListByChat(ctx context.Context, chatID string) ([]domain.Message, error)
	UpdateBody(ctx context.Context, id, body string) (*domain.Message, error)
	// Delete hard-deletes the message and returns the orphaned blob keys so
	// the caller can clean up the blob store.
	Delete(ctx context.Context, id string) ([]string, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertMessage = `
        INSERT INTO messages (chat_id, sender_id, body, visibility)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertMessage,
		msg.ChatID,
		msg.SenderID,
		msg.Body,
		msg.Visibility,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return err
	}

	const insertAttachment = `
        INSERT INTO attachments (message_id, file_name, mime_type, size_bytes, storage_key)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	for i := range msg.Attachments {
		att := &msg.Attachments[i]
		att.MessageID = msg.ID
		if err := tx.QueryRow(ctx, insertAttachment,
			att.MessageID,
			att.FileName,
			att.MimeType,
			att.SizeBytes,
			att.StorageKey,
		).Scan(&att.ID, &att.CreatedAt); err != nil {
			return err
		}
	}

	const touchChat = `UPDATE chats SET updated_at=now() WHERE id=$1`
	if _, err := tx.Exec(ctx, touchChat, msg.ChatID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = `
        SELECT id, chat_id, sender_id, body, visibility, created_at, edited_at
        FROM messages WHERE id=$1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.SenderID,
		&msg.Body,
		&msg.Visibility,
		&msg.CreatedAt,
		&msg.EditedAt,
	)
	if err != nil {
		return nil, err
	}

	attachments, err := r.attachmentsFor(ctx, []string{msg.ID})
	if err != nil {
		return nil, err
	}
	msg.Attachments = attachments[msg.ID]
	return &msg, nil
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	const query = `
        SELECT id, chat_id, sender_id, body, visibility, created_at, edited_at
        FROM messages WHERE chat_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	var ids []string
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.Body,
			&msg.Visibility,
			&msg.CreatedAt,
			&msg.EditedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
		ids = append(ids, msg.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		attachments, err := r.attachmentsFor(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range result {
			result[i].Attachments = attachments[result[i].ID]
		}
	}
	return result, nil
}

func (r *messageRepository) UpdateBody(ctx context.Context, id, body string) (*domain.Message, error) {
	const query = `
        UPDATE messages SET body=$2, edited_at=now()
        WHERE id=$1
        RETURNING id, chat_id, sender_id, body, visibility, created_at, edited_at`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id, body).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.SenderID,
		&msg.Body,
		&msg.Visibility,
		&msg.CreatedAt,
		&msg.EditedAt,
	)
	if err != nil {
		return nil, err
	}

	attachments, err := r.attachmentsFor(ctx, []string{msg.ID})
	if err != nil {
		return nil, err
	}
	msg.Attachments = attachments[msg.ID]
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const selectKeys = `SELECT storage_key FROM attachments WHERE message_id=$1`
	rows, err := tx.Query(ctx, selectKeys, id)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// attachment rows cascade
	const deleteMessage = `DELETE FROM messages WHERE id=$1`
	if _, err := tx.Exec(ctx, deleteMessage, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *messageRepository) attachmentsFor(ctx context.Context, messageIDs []string) (map[string][]domain.Attachment, error) {
	const query = `
        SELECT id, message_id, file_name, mime_type, size_bytes, storage_key, created_at
        FROM attachments WHERE message_id = ANY($1) ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, messageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.Attachment)
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(
			&att.ID,
			&att.MessageID,
			&att.FileName,
			&att.MimeType,
			&att.SizeBytes,
			&att.StorageKey,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[att.MessageID] = append(result[att.MessageID], att)
	}
	return result, rows.Err()
}
