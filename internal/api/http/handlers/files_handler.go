package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/chat-service/internal/repository"
	"github.com/spec-kit/chat-service/internal/storage"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

// FilesHandler streams attachment blobs behind signed, time-bounded URLs.
// The signature is the only access control here: a valid handle was issued
// to someone who could read the owning message.
type FilesHandler struct {
	attachments repository.AttachmentRepository
	blobs       storage.BlobStore
	signer      *storage.URLSigner
}

// NewFilesHandler constructs handler.
func NewFilesHandler(attachments repository.AttachmentRepository, blobs storage.BlobStore, signer *storage.URLSigner) *FilesHandler {
	return &FilesHandler{attachments: attachments, blobs: blobs, signer: signer}
}

// Get GET /files/:key?exp=&sig=.
func (h *FilesHandler) Get(c *fiber.Ctx) error {
	key := c.Params("key")
	if err := h.signer.Verify(key, c.Query("exp"), c.Query("sig")); err != nil {
		return apperrors.NewForbidden("invalid or expired link")
	}

	att, err := h.attachments.GetByStorageKey(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("file", nil)
		}
		return err
	}

	blob, err := h.blobs.Open(c.UserContext(), key)
	if err != nil {
		return apperrors.NewNotFound("file", nil)
	}
	defer blob.Close()

	c.Set(fiber.HeaderContentType, att.MimeType)
	c.Set(fiber.HeaderContentDisposition, "inline; filename="+strconv.Quote(att.FileName))
	data, err := io.ReadAll(blob)
	if err != nil {
		return err
	}
	return c.Send(data)
}
