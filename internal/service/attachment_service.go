package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/storage"
)

// FileUpload describes one file to be attached to a message. Open is called
// at most once, when the blob is streamed to storage.
type FileUpload struct {
	FileName string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadError reports which file failed so the sender can retry the send.
type UploadError struct {
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.FileName, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// StagedBatch holds attachments whose blobs are stored but not yet owned by
// a persisted message. Exactly one of two things must happen to it: the
// owning message is persisted, or Discard releases the blobs. Discard is
// safe to call after a successful persist too (it becomes a no-op once
// Commit marks the batch as owned).
type StagedBatch struct {
	attachments []domain.Attachment
	blobs       storage.BlobStore
	logger      *zap.Logger
	owned       bool
}

// Attachments returns the resolved attachment metadata for persistence.
func (b *StagedBatch) Attachments() []domain.Attachment {
	if b == nil {
		return nil
	}
	return b.attachments
}

// Commit marks the batch as owned by a persisted message.
func (b *StagedBatch) Commit() {
	if b != nil {
		b.owned = true
	}
}

// Discard releases the staged blobs. Best-effort: a leaked blob is storage
// garbage, not a correctness problem.
func (b *StagedBatch) Discard(ctx context.Context) {
	if b == nil || b.owned {
		return
	}
	b.owned = true
	for _, att := range b.attachments {
		if err := b.blobs.Delete(ctx, att.StorageKey); err != nil {
			b.logger.Warn("discard staged blob", zap.String("key", att.StorageKey), zap.Error(err))
		}
	}
}

// AttachmentService uploads message attachments and resolves their access
// handles.
type AttachmentService struct {
	blobs  storage.BlobStore
	signer *storage.URLSigner
	logger *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(blobs storage.BlobStore, signer *storage.URLSigner, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{blobs: blobs, signer: signer, logger: logger}
}

// UploadBatch stores every file concurrently. All files must resolve: a
// single failure discards the blobs already stored for this batch and
// returns an UploadError naming the failed file, so no message is ever
// persisted with a partial attachment set.
func (s *AttachmentService) UploadBatch(ctx context.Context, files []FileUpload) (*StagedBatch, error) {
	batch := &StagedBatch{
		attachments: make([]domain.Attachment, len(files)),
		blobs:       s.blobs,
		logger:      s.logger,
	}
	if len(files) == 0 {
		return batch, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	stored := make([]bool, len(files))

	for i, file := range files {
		g.Go(func() error {
			r, err := file.Open()
			if err != nil {
				return &UploadError{FileName: file.FileName, Err: err}
			}
			defer r.Close()

			key := storageKey(file.FileName)
			size, err := s.blobs.Save(gctx, key, r)
			if err != nil {
				return &UploadError{FileName: file.FileName, Err: err}
			}
			stored[i] = true

			mimeType := file.MimeType
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}
			batch.attachments[i] = domain.Attachment{
				FileName:   file.FileName,
				MimeType:   mimeType,
				SizeBytes:  size,
				StorageKey: key,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		bg := context.WithoutCancel(ctx)
		for i, ok := range stored {
			if !ok {
				continue
			}
			if derr := s.blobs.Delete(bg, batch.attachments[i].StorageKey); derr != nil {
				s.logger.Warn("discard blob after failed batch",
					zap.String("key", batch.attachments[i].StorageKey), zap.Error(derr))
			}
		}
		return nil, err
	}
	return batch, nil
}

// ResolveURLs refreshes the signed access handles on a message's
// attachments. Handles are time-bounded and re-resolved at every read,
// never stored.
func (s *AttachmentService) ResolveURLs(msgs []domain.Message) {
	for i := range msgs {
		for j := range msgs[i].Attachments {
			att := &msgs[i].Attachments[j]
			att.URL = s.signer.SignedPath(att.StorageKey)
		}
	}
}

var keyExtPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// storageKey derives an opaque blob key, keeping a sane file extension so
// downloads get a usable name.
func storageKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !keyExtPattern.MatchString(ext) {
		ext = ""
	}
	return uuid.New().String() + ext
}
