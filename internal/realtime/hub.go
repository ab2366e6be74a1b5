package realtime

import (
	"go.uber.org/zap"
)

// Hub tracks all connected viewers in this process and fans broadcast
// signals out to the subset subscribed to a scope. Multiple viewers of the
// same chat multiplex onto the same scope; duplicate subscriptions are
// harmless because signals are idempotent re-fetch triggers.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg

	logger *zap.Logger
}

type broadcastMsg struct {
	scope string
	data  []byte
}

// NewHub creates an empty hub. Call Run in a goroutine.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 256),
		logger:     logger,
	}
}

// Run is the hub's main event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug("realtime client connected",
				zap.String("user_id", client.userID),
				zap.Int("total", len(h.clients)))

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.IsSubscribed(msg.scope) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// slow consumer: drop the connection, the viewer
					// reconciles on reconnect
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Debug("realtime client disconnected",
		zap.String("user_id", client.userID),
		zap.Int("total", len(h.clients)))
}

// Broadcast queues a raw signal for every subscriber of scope. A signal
// racing an unsubscribe is simply not delivered; that is fine because the
// viewer no longer cares.
func (h *Hub) Broadcast(scope string, data []byte) {
	select {
	case h.broadcast <- broadcastMsg{scope: scope, data: data}:
	default:
		h.logger.Warn("realtime broadcast buffer full, signal dropped",
			zap.String("scope", scope))
	}
}
