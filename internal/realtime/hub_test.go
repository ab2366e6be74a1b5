package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, userID string) *Client {
	return NewClient(hub, nil, userID, func(string, string) bool { return true }, zap.NewNop())
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.send:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for signal")
		return nil
	}
}

func assertNoSignal(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected signal delivered: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastReachesScopeSubscribersOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	subscriber := newTestClient(hub, "u1")
	subscriber.Subscribe(ScopeChat("c1"))
	other := newTestClient(hub, "u2")
	other.Subscribe(ScopeChat("c2"))

	subscriber.Register()
	other.Register()

	hub.Broadcast(ScopeChat("c1"), []byte(`{"type":"message-created","chat_id":"c1"}`))

	assert.Equal(t, `{"type":"message-created","chat_id":"c1"}`, string(recv(t, subscriber)))
	assertNoSignal(t, other)
}

func TestHubBroadcastIncludesSendersOwnConnection(t *testing.T) {
	// every subscriber receives the signal; there is no sender exclusion
	hub := NewHub(zap.NewNop())
	go hub.Run()

	a := newTestClient(hub, "u1")
	b := newTestClient(hub, "u1")
	a.Subscribe(ScopeChat("c1"))
	b.Subscribe(ScopeChat("c1"))
	a.Register()
	b.Register()

	hub.Broadcast(ScopeChat("c1"), []byte("x"))

	recv(t, a)
	recv(t, b)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	c := newTestClient(hub, "u1")
	c.Subscribe(ScopeChat("c1"))
	c.Register()

	hub.Broadcast(ScopeChat("c1"), []byte("first"))
	recv(t, c)

	c.Unsubscribe(ScopeChat("c1"))
	hub.Broadcast(ScopeChat("c1"), []byte("second"))
	assertNoSignal(t, c)
}

func TestHubDuplicateSubscribeDeliversOnce(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	c := newTestClient(hub, "u1")
	c.Subscribe(ScopeChat("c1"))
	c.Subscribe(ScopeChat("c1"))
	c.Register()

	hub.Broadcast(ScopeChat("c1"), []byte("once"))
	recv(t, c)
	assertNoSignal(t, c)
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	c := newTestClient(hub, "u1")
	c.Register()
	hub.unregister <- c

	select {
	case _, ok := <-c.send:
		require.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestClientAllowedGatesChatScopesOnMembership(t *testing.T) {
	hub := NewHub(zap.NewNop())
	members := map[string]bool{"c1": true}
	c := NewClient(hub, nil, "u1", func(userID, chatID string) bool {
		return userID == "u1" && members[chatID]
	}, zap.NewNop())

	assert.True(t, c.allowed(ScopeChat("c1")))
	assert.True(t, c.allowed(ScopeBoard("c1")))
	assert.False(t, c.allowed(ScopeChat("c2")))
	assert.False(t, c.allowed("bogus:scope"))

	// the chat-list scope is open to any authenticated viewer
	assert.True(t, c.allowed(ScopeChatList))
}
