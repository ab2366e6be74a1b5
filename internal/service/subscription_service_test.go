package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/chat-service/internal/config"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

func newTestSubscriptionService(repo *fakeSubscriptionRepo, configured bool) *SubscriptionService {
	cfg := config.PushConfig{}
	if configured {
		cfg.VAPIDPublicKey = "pub"
		cfg.VAPIDPrivateKey = "priv"
	}
	return NewSubscriptionService(repo, cfg, zap.NewNop())
}

func enableInput() EnableInput {
	return EnableInput{Endpoint: "https://push.example/ep1", P256dh: "p", Auth: "a"}
}

func TestEnableCreatesSubscription(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newTestSubscriptionService(repo, true)

	result, err := svc.Enable(context.Background(), "u1", enableInput())
	require.NoError(t, err)
	assert.Equal(t, EnableOK, result)

	sub, err := repo.GetByEndpoint(context.Background(), "https://push.example/ep1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sub.UserID)
}

func TestEnableSameEndpointReportsAlreadyEnabled(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newTestSubscriptionService(repo, true)
	ctx := context.Background()

	_, err := svc.Enable(ctx, "u1", enableInput())
	require.NoError(t, err)

	// re-registering overwrites keys, never duplicates
	input := enableInput()
	input.Auth = "rotated"
	result, err := svc.Enable(ctx, "u1", input)
	require.NoError(t, err)
	assert.Equal(t, EnableAlreadyEnabled, result)

	sub, err := repo.GetByEndpoint(ctx, input.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "rotated", sub.Auth)
}

func TestEnableWithoutVAPIDKeysIsMisconfigured(t *testing.T) {
	svc := newTestSubscriptionService(newFakeSubscriptionRepo(), false)

	result, err := svc.Enable(context.Background(), "u1", enableInput())
	require.NoError(t, err)
	assert.Equal(t, EnableMisconfigured, result)
}

func TestEnableRejectsIncompleteSubscription(t *testing.T) {
	svc := newTestSubscriptionService(newFakeSubscriptionRepo(), true)

	_, err := svc.Enable(context.Background(), "u1", EnableInput{Endpoint: "x"})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestDisableRemovesOnlyThatEndpoint(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newTestSubscriptionService(repo, true)
	ctx := context.Background()

	_, err := svc.Enable(ctx, "u1", enableInput())
	require.NoError(t, err)
	other := EnableInput{Endpoint: "https://push.example/ep2", P256dh: "p", Auth: "a"}
	_, err = svc.Enable(ctx, "u1", other)
	require.NoError(t, err)

	require.NoError(t, svc.Disable(ctx, "u1", "https://push.example/ep1"))

	remaining, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "https://push.example/ep2", remaining[0].Endpoint)
}

func TestDisableMissingEndpointIsNoop(t *testing.T) {
	svc := newTestSubscriptionService(newFakeSubscriptionRepo(), true)
	assert.NoError(t, svc.Disable(context.Background(), "u1", "https://push.example/never"))
}

func TestDisableForeignEndpointForbidden(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	svc := newTestSubscriptionService(repo, true)
	ctx := context.Background()

	_, err := svc.Enable(ctx, "u1", enableInput())
	require.NoError(t, err)

	err = svc.Disable(ctx, "u2", "https://push.example/ep1")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}
