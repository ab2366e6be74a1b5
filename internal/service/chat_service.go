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

// ChatService manages chat lifecycles and list views.
type ChatService struct {
	chats       repository.ChatRepository
	memberships repository.MembershipRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(chats repository.ChatRepository, memberships repository.MembershipRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ChatService {
	return &ChatService{chats: chats, memberships: memberships, dispatcher: dispatcher, logger: logger}
}

// Create opens a chat with the given member set. The creator is always a
// member.
func (s *ChatService) Create(ctx context.Context, creator *domain.User, subject string, memberIDs []string) (*domain.Chat, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}

	members := append([]string{creator.ID}, memberIDs...)
	chat := &domain.Chat{Subject: subject, CreatedBy: creator.ID}
	if err := s.chats.Create(ctx, chat, members); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Publish(ctx, events.Event{
			Type:    events.EventChatCreated,
			ChatID:  chat.ID,
			ActorID: creator.ID,
		}); err != nil {
			s.logger.Warn("publish chat created", zap.Error(err))
		}
	}
	return chat, nil
}

// Get returns a chat the viewer belongs to.
func (s *ChatService) Get(ctx context.Context, viewer *domain.User, chatID string) (*domain.Chat, error) {
	member, err := s.memberships.IsMember(ctx, chatID, viewer.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperrors.NewNotFound("chat", nil)
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat", nil)
		}
		return nil, err
	}
	return chat, nil
}

// List returns the viewer's chats with last-message previews drawn only
// from the streams the viewer may see.
func (s *ChatService) List(ctx context.Context, viewer *domain.User) ([]domain.ChatPreview, error) {
	return s.chats.ListForUser(ctx, viewer.ID, viewer.IsStaff)
}
