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
	"github.com/spec-kit/chat-service/internal/storage"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

// MessageService coordinates the send/edit/delete/list workflows. The
// user-facing operation completes as soon as persistence succeeds; realtime
// fanout and push dispatch are triggered through the event dispatcher and
// never block or fail the operation.
type MessageService struct {
	messages    repository.MessageRepository
	memberships repository.MembershipRepository
	attachments *AttachmentService
	blobs       storage.BlobStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// MessageDependencies bundles collaborators for the message service.
type MessageDependencies struct {
	MessageRepo    repository.MessageRepository
	MembershipRepo repository.MembershipRepository
	Attachments    *AttachmentService
	Blobs          storage.BlobStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// SendInput describes a send operation.
type SendInput struct {
	ChatID    string
	Body      string
	StaffOnly bool
	Files     []FileUpload
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	return &MessageService{
		messages:    deps.MessageRepo,
		memberships: deps.MembershipRepo,
		attachments: deps.Attachments,
		blobs:       deps.Blobs,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Send validates, uploads attachments, persists the message with all
// attachment references atomically, and emits the created event.
func (s *MessageService) Send(ctx context.Context, sender *domain.User, input SendInput) (*domain.Message, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" && len(input.Files) == 0 {
		return nil, apperrors.NewValidationError("message requires text or attachments", nil)
	}
	if input.StaffOnly && !sender.IsStaff {
		return nil, apperrors.NewForbidden("staff-only messages require a staff account")
	}
	if err := s.requireMember(ctx, input.ChatID, sender.ID); err != nil {
		return nil, err
	}

	batch, err := s.attachments.UploadBatch(ctx, input.Files)
	if err != nil {
		var uploadErr *UploadError
		if errors.As(err, &uploadErr) {
			return nil, apperrors.NewValidationError("attachment upload failed",
				map[string]any{"file_name": uploadErr.FileName})
		}
		return nil, err
	}

	msg := &domain.Message{
		ChatID:      input.ChatID,
		SenderID:    sender.ID,
		Body:        body,
		Visibility:  domain.ClassifyVisibility(sender.IsStaff, input.StaffOnly),
		Attachments: batch.Attachments(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		batch.Discard(context.WithoutCancel(ctx))
		return nil, err
	}
	batch.Commit()

	s.publish(ctx, events.Event{
		Type:    events.EventMessageCreated,
		ChatID:  msg.ChatID,
		ActorID: sender.ID,
		Payload: events.MessageCreatedPayload{
			MessageID:   msg.ID,
			SenderID:    sender.ID,
			SenderName:  sender.Name,
			Visibility:  msg.Visibility,
			Body:        msg.Body,
			Attachments: len(msg.Attachments),
		},
	})

	s.attachments.ResolveURLs([]domain.Message{*msg})
	return msg, nil
}

// Edit replaces the body of the sender's own message. Visibility is fixed at
// creation and is not touched.
func (s *MessageService) Edit(ctx context.Context, actor *domain.User, messageID, body string) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("message", nil)
		}
		return nil, err
	}
	if msg.SenderID != actor.ID {
		return nil, apperrors.NewForbidden("only the sender can edit a message")
	}

	body = strings.TrimSpace(body)
	if body == "" && len(msg.Attachments) == 0 {
		return nil, apperrors.NewValidationError("message requires text or attachments", nil)
	}

	updated, err := s.messages.UpdateBody(ctx, messageID, body)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventMessageUpdated,
		ChatID:  updated.ChatID,
		ActorID: actor.ID,
		Payload: events.MessageUpdatedPayload{MessageID: updated.ID},
	})

	s.attachments.ResolveURLs([]domain.Message{*updated})
	return updated, nil
}

// Delete hard-deletes a message: the row is gone from all future reads and
// every cached stream reconciles away from it on the deleted signal. Blob
// cleanup is best-effort.
func (s *MessageService) Delete(ctx context.Context, actor *domain.User, messageID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("message", nil)
		}
		return err
	}
	if msg.SenderID != actor.ID && !actor.IsStaff {
		return apperrors.NewForbidden("only the sender or staff can delete a message")
	}

	keys, err := s.messages.Delete(ctx, messageID)
	if err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	for _, key := range keys {
		if derr := s.blobs.Delete(bg, key); derr != nil {
			s.logger.Warn("delete orphaned blob", zap.String("key", key), zap.Error(derr))
		}
	}

	s.publish(ctx, events.Event{
		Type:    events.EventMessageDeleted,
		ChatID:  msg.ChatID,
		ActorID: actor.ID,
		Payload: events.MessageDeletedPayload{MessageID: messageID},
	})
	return nil
}

// List returns the chat's messages for the requested stream. An empty
// stream means "whatever the viewer may see": both streams for staff, the
// client stream for clients. Explicit stream requests behave as a strict
// partition filter.
func (s *MessageService) List(ctx context.Context, viewer *domain.User, chatID, stream string) ([]domain.Message, error) {
	if err := s.requireMember(ctx, chatID, viewer.ID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	switch stream {
	case "":
		if !viewer.IsStaff {
			msgs = domain.FilterVisibility(msgs, domain.VisibilityClient)
		}
	case string(domain.VisibilityClient):
		msgs = domain.FilterVisibility(msgs, domain.VisibilityClient)
	case string(domain.VisibilityStaff):
		if !viewer.IsStaff {
			return nil, apperrors.NewForbidden("staff stream requires a staff account")
		}
		msgs = domain.FilterVisibility(msgs, domain.VisibilityStaff)
	default:
		return nil, apperrors.NewValidationError("stream must be client or staff", nil)
	}

	s.attachments.ResolveURLs(msgs)
	return msgs, nil
}

func (s *MessageService) requireMember(ctx context.Context, chatID, userID string) error {
	member, err := s.memberships.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.NewNotFound("chat", nil)
	}
	return nil
}

func (s *MessageService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
