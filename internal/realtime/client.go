package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	maxFrameSize = 1024
	sendBufSize  = 64
	actionSub    = "subscribe"
	actionUnsub  = "unsubscribe"
	actionPing   = "ping"
)

// SubscribeAuthorizer decides whether a user may subscribe to a chat's
// scopes. Implemented by the membership repository at wiring time.
type SubscribeAuthorizer func(userID, chatID string) bool

// Client represents a single WebSocket viewer connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	authorize SubscribeAuthorizer

	// scopes tracks this viewer's active subscriptions.
	scopes map[string]struct{}
	mu     sync.RWMutex

	send   chan []byte
	logger *zap.Logger
}

// clientFrame is the viewer-to-server control protocol.
type clientFrame struct {
	Action string `json:"action"`
	Scope  string `json:"scope,omitempty"`
}

// NewClient wraps an upgraded connection. Register it on the hub before
// starting the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, authorize SubscribeAuthorizer, logger *zap.Logger) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		userID:    userID,
		authorize: authorize,
		scopes:    make(map[string]struct{}),
		send:      make(chan []byte, sendBufSize),
		logger:    logger,
	}
}

// Register attaches the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// IsSubscribed checks whether this viewer listens on a scope.
func (c *Client) IsSubscribed(scope string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.scopes[scope]
	return ok
}

// Subscribe adds a scope subscription.
func (c *Client) Subscribe(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes[scope] = struct{}{}
}

// Unsubscribe removes a scope subscription.
func (c *Client) Unsubscribe(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scopes, scope)
}

// ReadPump consumes control frames until the connection drops, then
// unregisters from the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Debug("realtime: bad frame", zap.String("user_id", c.userID))
			continue
		}
		c.handleFrame(frame)
	}
}

// WritePump flushes queued signals and keeps the connection alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(frame clientFrame) {
	switch frame.Action {
	case actionSub:
		if !c.allowed(frame.Scope) {
			c.logger.Debug("realtime: subscribe denied",
				zap.String("user_id", c.userID),
				zap.String("scope", frame.Scope))
			return
		}
		c.Subscribe(frame.Scope)
	case actionUnsub:
		c.Unsubscribe(frame.Scope)
	case actionPing:
		// read deadline already refreshed by the read itself
	}
}

// allowed gates chat-scoped subscriptions on membership. The chat-list scope
// is open to every authenticated viewer: its signals carry no chat content
// and each viewer re-fetches only their own list.
func (c *Client) allowed(scope string) bool {
	switch {
	case scope == ScopeChatList:
		return true
	case strings.HasPrefix(scope, "chat:"):
		return c.authorize(c.userID, strings.TrimPrefix(scope, "chat:"))
	case strings.HasPrefix(scope, "board:"):
		return c.authorize(c.userID, strings.TrimPrefix(scope, "board:"))
	default:
		return false
	}
}
