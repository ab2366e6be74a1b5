package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/chat-service/internal/config"
	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/repository"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

// EnableResult is the discriminated outcome of an enable request.
// PermissionDenied and Unsupported are decided browser-side and echoed back
// through this type for the wire contract.
type EnableResult string

const (
	EnableOK               EnableResult = "ok"
	EnableAlreadyEnabled   EnableResult = "already-enabled"
	EnablePermissionDenied EnableResult = "permission-denied"
	EnableUnsupported      EnableResult = "unsupported"
	EnableMisconfigured    EnableResult = "misconfigured"
)

// EnableInput carries a browser push subscription.
type EnableInput struct {
	Endpoint  string
	P256dh    string
	Auth      string
	UserAgent string
}

// SubscriptionService maintains the durable identity → endpoint registry.
type SubscriptionService struct {
	subscriptions repository.PushSubscriptionRepository
	cfg           config.PushConfig
	logger        *zap.Logger
}

// NewSubscriptionService constructs the service.
func NewSubscriptionService(subscriptions repository.PushSubscriptionRepository, cfg config.PushConfig, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{subscriptions: subscriptions, cfg: cfg, logger: logger}
}

// VAPIDPublicKey exposes the application server key for the client's
// pushManager.subscribe call.
func (s *SubscriptionService) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Enable upserts the subscription keyed by endpoint. Re-registering an
// existing endpoint overwrites its keys and reports already-enabled, never
// duplicates.
func (s *SubscriptionService) Enable(ctx context.Context, userID string, input EnableInput) (EnableResult, error) {
	if !s.cfg.Configured() {
		return EnableMisconfigured, nil
	}
	if strings.TrimSpace(input.Endpoint) == "" || input.P256dh == "" || input.Auth == "" {
		return "", apperrors.NewValidationError("endpoint, p256dh and auth are required", nil)
	}

	sub := &domain.PushSubscription{
		Endpoint:  input.Endpoint,
		UserID:    userID,
		P256dh:    input.P256dh,
		Auth:      input.Auth,
		UserAgent: input.UserAgent,
	}
	created, err := s.subscriptions.Upsert(ctx, sub)
	if err != nil {
		return "", err
	}
	if !created {
		return EnableAlreadyEnabled, nil
	}
	s.logger.Info("push subscription enabled", zap.String("user_id", userID))
	return EnableOK, nil
}

// Disable removes exactly the current device's endpoint, leaving the user's
// other registrations intact. Removing a missing endpoint is a no-op.
func (s *SubscriptionService) Disable(ctx context.Context, userID, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return apperrors.NewValidationError("endpoint is required", nil)
	}
	existing, err := s.subscriptions.GetByEndpoint(ctx, endpoint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if existing.UserID != userID {
		return apperrors.NewForbidden("endpoint belongs to another account")
	}

	if _, err := s.subscriptions.DeleteByEndpoint(ctx, endpoint); err != nil {
		return err
	}
	return nil
}
