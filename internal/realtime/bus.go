package realtime

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisChannelPrefix namespaces fanout traffic on the shared Redis.
const redisChannelPrefix = "rt."

// Bus publishes fanout signals. With Redis available, signals travel through
// pub/sub so every process's hub sees them; without it, delivery degrades to
// the local hub only. Publishing never returns an error to callers: realtime
// is a soft dependency and failures only cost liveness, not correctness.
type Bus struct {
	hub    *Hub
	client *redis.Client
	logger *zap.Logger
}

// NewBus wires the bus to a hub and an optional Redis client.
func NewBus(hub *Hub, client *redis.Client, logger *zap.Logger) *Bus {
	return &Bus{hub: hub, client: client, logger: logger}
}

// Publish fans a signal out to every subscriber of scope.
func (b *Bus) Publish(ctx context.Context, scope string, sig Signal) {
	data, err := sig.Encode()
	if err != nil {
		b.logger.Error("realtime: encode signal", zap.Error(err))
		return
	}

	if b.client == nil {
		b.hub.Broadcast(scope, data)
		return
	}

	if err := b.client.Publish(ctx, redisChannelPrefix+scope, data).Err(); err != nil {
		b.logger.Warn("realtime: redis publish failed, local delivery only",
			zap.String("scope", scope), zap.Error(err))
		b.hub.Broadcast(scope, data)
	}
}

// Run relays signals arriving over Redis pub/sub into the local hub. It
// returns when ctx is cancelled. Without Redis it is a no-op: Publish
// already broadcasts locally.
func (b *Bus) Run(ctx context.Context) {
	if b.client == nil {
		return
	}

	pubsub := b.client.PSubscribe(ctx, redisChannelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("realtime: redis subscription closed")
				return
			}
			scope := strings.TrimPrefix(msg.Channel, redisChannelPrefix)
			b.hub.Broadcast(scope, []byte(msg.Payload))
		}
	}
}
