package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/chat-service/internal/config"
	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/events"
	"github.com/spec-kit/chat-service/internal/observability"
	"github.com/spec-kit/chat-service/internal/repository"
)

const dispatchTimeout = 30 * time.Second

// PushSender delivers one encrypted notification to one endpoint and
// reports the delivery status code.
type PushSender interface {
	Send(ctx context.Context, sub domain.PushSubscription, payload []byte) (int, error)
}

// DispatchResult is the per-dispatch outcome tally.
type DispatchResult struct {
	Attempted int
	Succeeded int
	Pruned    int
}

// notificationPayload is the wire shape consumed by the receiving client.
// The tag collapses notifications per chat instead of stacking them.
type notificationPayload struct {
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Icon  string           `json:"icon"`
	Badge string           `json:"badge"`
	Tag   string           `json:"tag"`
	Data  notificationData `json:"data"`
}

type notificationData struct {
	URL         string `json:"url"`
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"message_id"`
	SenderID    string `json:"sender_id"`
	IsStaffOnly bool   `json:"is_staff_only"`
}

// PushService resolves recipients for a new message and delivers push
// notifications, pruning endpoints the push provider reports as gone. It is
// fire-and-forget: failures are logged, never surfaced to the sender.
type PushService struct {
	memberships   repository.MembershipRepository
	subscriptions repository.PushSubscriptionRepository
	sender        PushSender
	cfg           config.PushConfig
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// PushDependencies bundles collaborators for the push service.
type PushDependencies struct {
	MembershipRepo   repository.MembershipRepository
	SubscriptionRepo repository.PushSubscriptionRepository
	Sender           PushSender
	Config           config.PushConfig
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// NewPushService constructs the service.
func NewPushService(deps PushDependencies) *PushService {
	return &PushService{
		memberships:   deps.MembershipRepo,
		subscriptions: deps.SubscriptionRepo,
		sender:        deps.Sender,
		cfg:           deps.Config,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
	}
}

// RegisterHandlers subscribes to the events that trigger notifications.
func (s *PushService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventMessageCreated, s.handleMessageCreated)
}

// handleMessageCreated detaches from the request so push delivery can never
// delay or fail the send.
func (s *PushService) handleMessageCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageCreatedPayload)
	if !ok {
		s.logger.Warn("push: unexpected payload type", zap.String("event_id", event.ID))
		return nil
	}
	if !s.cfg.Configured() {
		return nil
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		dctx, cancel := context.WithTimeout(bg, dispatchTimeout)
		defer cancel()
		s.Dispatch(dctx, event.ChatID, payload)
	}()
	return nil
}

// Dispatch notifies every member of the chat except the sender. Endpoints
// are handled independently: a failure on one never aborts delivery to the
// rest. A "gone" status deletes that endpoint record immediately.
func (s *PushService) Dispatch(ctx context.Context, chatID string, msg events.MessageCreatedPayload) DispatchResult {
	var result DispatchResult

	recipients, err := s.memberships.ResolveRecipients(ctx, chatID, msg.SenderID)
	if err != nil {
		s.logger.Error("push: resolve recipients", zap.String("chat_id", chatID), zap.Error(err))
		return result
	}

	data, err := json.Marshal(s.shape(chatID, msg))
	if err != nil {
		s.logger.Error("push: marshal payload", zap.Error(err))
		return result
	}

	for _, recipient := range recipients {
		// staff-only notes only notify staff members
		if msg.Visibility == domain.VisibilityStaff && !recipient.IsStaff {
			continue
		}
		for _, sub := range recipient.Subscriptions {
			result.Attempted++
			status, err := s.sender.Send(ctx, sub, data)
			switch {
			case err != nil:
				s.logger.Warn("push: delivery error",
					zap.String("endpoint", sub.Endpoint), zap.Error(err))
			case status == http.StatusNotFound || status == http.StatusGone:
				// stale endpoint: self-heal the registry
				if _, derr := s.subscriptions.DeleteByEndpoint(ctx, sub.Endpoint); derr != nil {
					s.logger.Warn("push: prune endpoint",
						zap.String("endpoint", sub.Endpoint), zap.Error(derr))
				} else {
					result.Pruned++
				}
			case status >= http.StatusBadRequest:
				s.logger.Warn("push: delivery rejected",
					zap.String("endpoint", sub.Endpoint), zap.Int("status", status))
			default:
				result.Succeeded++
			}
		}
	}

	s.metrics.RecordPushDispatch(result.Attempted, result.Succeeded, result.Pruned)
	s.logger.Info("push dispatched",
		zap.String("chat_id", chatID),
		zap.String("message_id", msg.MessageID),
		zap.Int("attempted", result.Attempted),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("pruned", result.Pruned))
	return result
}

func (s *PushService) shape(chatID string, msg events.MessageCreatedPayload) notificationPayload {
	body := previewText(msg.Body, s.cfg.PreviewMaxRunes)
	if body == "" {
		body = "Sent an attachment"
	}
	return notificationPayload{
		Title: msg.SenderName,
		Body:  body,
		Icon:  "/icons/icon-192.png",
		Badge: "/icons/badge-72.png",
		Tag:   "chat-" + chatID,
		Data: notificationData{
			URL:         "/chats/" + chatID,
			ChatID:      chatID,
			MessageID:   msg.MessageID,
			SenderID:    msg.SenderID,
			IsStaffOnly: msg.Visibility == domain.VisibilityStaff,
		},
	}
}

// previewText bounds the notification body, marking truncation with an
// ellipsis.
func previewText(text string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 120
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}
