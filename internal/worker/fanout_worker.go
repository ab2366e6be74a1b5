package worker

import (
	"context"

	"github.com/spec-kit/chat-service/internal/events"
	"github.com/spec-kit/chat-service/internal/realtime"
	"github.com/spec-kit/chat-service/internal/service"
)

// StartFanoutWorkers attaches the realtime publisher and the push
// dispatcher to the event stream and starts the Redis relay. Both consume
// events asynchronously so the send path never waits on them.
func StartFanoutWorkers(ctx context.Context, dispatcher events.Dispatcher, publisher *realtime.Publisher, pushService *service.PushService, bus *realtime.Bus) {
	if publisher != nil {
		publisher.RegisterHandlers(dispatcher)
	}
	if pushService != nil {
		pushService.RegisterHandlers(dispatcher)
	}
	if bus != nil {
		go bus.Run(ctx)
	}
}
