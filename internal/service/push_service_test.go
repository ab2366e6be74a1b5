package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/chat-service/internal/config"
	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/events"
	"github.com/spec-kit/chat-service/internal/observability"
)

func newTestPushService(memberships *fakeMembershipRepo, subs *fakeSubscriptionRepo, sender *fakeSender) *PushService {
	return NewPushService(PushDependencies{
		MembershipRepo:   memberships,
		SubscriptionRepo: subs,
		Sender:           sender,
		Config: config.PushConfig{
			VAPIDPublicKey:  "pub",
			VAPIDPrivateKey: "priv",
			PreviewMaxRunes: 120,
		},
		Metrics: observability.NewMetrics(),
		Logger:  zap.NewNop(),
	})
}

func sub(endpoint, userID string) domain.PushSubscription {
	return domain.PushSubscription{Endpoint: endpoint, UserID: userID, P256dh: "p", Auth: "a"}
}

func TestDispatchSkipsSenderAndCountsOutcomes(t *testing.T) {
	memberships := &fakeMembershipRepo{
		recipients: []domain.Recipient{
			{UserID: "sender", Subscriptions: []domain.PushSubscription{sub("ep-sender", "sender")}},
			{UserID: "u2", Subscriptions: []domain.PushSubscription{sub("ep-ok", "u2")}},
			{UserID: "u3", Subscriptions: []domain.PushSubscription{sub("ep-gone", "u3")}},
		},
	}
	subs := newFakeSubscriptionRepo()
	_, err := subs.Upsert(context.Background(), &domain.PushSubscription{Endpoint: "ep-gone", UserID: "u3"})
	require.NoError(t, err)

	sender := &fakeSender{statuses: map[string]int{"ep-gone": http.StatusGone}}
	svc := newTestPushService(memberships, subs, sender)

	result := svc.Dispatch(context.Background(), "c1", events.MessageCreatedPayload{
		MessageID: "m1", SenderID: "sender", SenderName: "Alice", Body: "hello",
		Visibility: domain.VisibilityClient,
	})

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Pruned)
	assert.NotContains(t, sender.sent, "ep-sender")

	// the gone endpoint is removed so the next dispatch never attempts it
	assert.Contains(t, subs.deleted, "ep-gone")
}

func TestDispatchAfterPruneExcludesDeadEndpoint(t *testing.T) {
	memberships := &fakeMembershipRepo{
		recipients: []domain.Recipient{
			{UserID: "u2", Subscriptions: []domain.PushSubscription{sub("ep-live", "u2"), sub("ep-dead", "u2")}},
		},
	}
	subs := newFakeSubscriptionRepo()
	sender := &fakeSender{statuses: map[string]int{"ep-dead": http.StatusNotFound}}
	svc := newTestPushService(memberships, subs, sender)

	payload := events.MessageCreatedPayload{MessageID: "m1", SenderID: "sender", Body: "hi"}
	first := svc.Dispatch(context.Background(), "c1", payload)
	assert.Equal(t, 2, first.Attempted)
	assert.Equal(t, 1, first.Pruned)

	// simulate the registry reflecting the prune
	memberships.recipients[0].Subscriptions = []domain.PushSubscription{sub("ep-live", "u2")}

	second := svc.Dispatch(context.Background(), "c1", payload)
	assert.Equal(t, 1, second.Attempted)
	assert.Equal(t, 1, second.Succeeded)
	assert.Equal(t, 0, second.Pruned)
}

func TestDispatchStaffOnlyNotifiesStaffOnly(t *testing.T) {
	memberships := &fakeMembershipRepo{
		recipients: []domain.Recipient{
			{UserID: "client", IsStaff: false, Subscriptions: []domain.PushSubscription{sub("ep-client", "client")}},
			{UserID: "agent", IsStaff: true, Subscriptions: []domain.PushSubscription{sub("ep-agent", "agent")}},
		},
	}
	sender := &fakeSender{}
	svc := newTestPushService(memberships, newFakeSubscriptionRepo(), sender)

	result := svc.Dispatch(context.Background(), "c1", events.MessageCreatedPayload{
		MessageID: "m1", SenderID: "other", Body: "internal note",
		Visibility: domain.VisibilityStaff,
	})

	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, []string{"ep-agent"}, sender.sent)
}

func TestDispatchDeliveryErrorDoesNotAbortRest(t *testing.T) {
	memberships := &fakeMembershipRepo{
		recipients: []domain.Recipient{
			{UserID: "u2", Subscriptions: []domain.PushSubscription{sub("ep-bad", "u2")}},
			{UserID: "u3", Subscriptions: []domain.PushSubscription{sub("ep-good", "u3")}},
		},
	}
	sender := &fakeSender{errs: map[string]error{"ep-bad": assert.AnError}}
	svc := newTestPushService(memberships, newFakeSubscriptionRepo(), sender)

	result := svc.Dispatch(context.Background(), "c1", events.MessageCreatedPayload{
		MessageID: "m1", SenderID: "sender", Body: "hi",
	})

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Contains(t, sender.sent, "ep-good")
}

func TestNotificationPayloadShape(t *testing.T) {
	memberships := &fakeMembershipRepo{
		recipients: []domain.Recipient{
			{UserID: "u2", Subscriptions: []domain.PushSubscription{sub("ep", "u2")}},
		},
	}
	sender := &fakeSender{}
	svc := newTestPushService(memberships, newFakeSubscriptionRepo(), sender)

	svc.Dispatch(context.Background(), "c1", events.MessageCreatedPayload{
		MessageID: "m1", SenderID: "sender", SenderName: "Alice",
		Body: "", Attachments: 2,
	})

	require.Len(t, sender.payloads, 1)
	var payload notificationPayload
	require.NoError(t, json.Unmarshal(sender.payloads[0], &payload))

	assert.Equal(t, "Alice", payload.Title)
	assert.Equal(t, "Sent an attachment", payload.Body)
	assert.Equal(t, "chat-c1", payload.Tag)
	assert.Equal(t, "/chats/c1", payload.Data.URL)
	assert.Equal(t, "m1", payload.Data.MessageID)
}

func TestPreviewTextTruncation(t *testing.T) {
	assert.Equal(t, "short", previewText("short", 120))

	long := strings.Repeat("é", 130)
	got := previewText(long, 120)
	assert.Equal(t, strings.Repeat("é", 120)+"…", got)

	// zero falls back to the default bound
	assert.Equal(t, "short", previewText("short", 0))
}
