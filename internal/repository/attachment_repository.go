package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chat-service/internal/domain"
)

// AttachmentRepository looks up attachment metadata by blob key. Rows are
// written through MessageRepository.Create so they always move atomically
// with their owning message.
type AttachmentRepository interface {
	GetByStorageKey(ctx context.Context, storageKey string) (*domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) GetByStorageKey(ctx context.Context, storageKey string) (*domain.Attachment, error) {
	const query = `
        SELECT id, message_id, file_name, mime_type, size_bytes, storage_key, created_at
        FROM attachments WHERE storage_key=$1`
	var att domain.Attachment
	err := r.pool.QueryRow(ctx, query, storageKey).Scan(
		&att.ID,
		&att.MessageID,
		&att.FileName,
		&att.MimeType,
		&att.SizeBytes,
		&att.StorageKey,
		&att.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &att, nil
}
