package realtime

import (
	"context"

	"github.com/spec-kit/chat-service/internal/events"
)

// Publisher translates domain events into fanout signals. It runs off the
// event dispatcher so the send path never waits on signal delivery.
type Publisher struct {
	bus *Bus
}

// NewPublisher creates the publisher.
func NewPublisher(bus *Bus) *Publisher {
	return &Publisher{bus: bus}
}

// RegisterHandlers subscribes to the events that produce signals.
func (p *Publisher) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventMessageCreated, p.handleMessageEvent)
	dispatcher.Subscribe(events.EventMessageUpdated, p.handleMessageEvent)
	dispatcher.Subscribe(events.EventMessageDeleted, p.handleMessageEvent)
	dispatcher.Subscribe(events.EventTaskCreated, p.handleTaskEvent)
	dispatcher.Subscribe(events.EventTaskUpdated, p.handleTaskEvent)
	dispatcher.Subscribe(events.EventTaskDeleted, p.handleTaskEvent)
	dispatcher.Subscribe(events.EventChatCreated, p.handleChatEvent)
}

func (p *Publisher) handleMessageEvent(ctx context.Context, event events.Event) error {
	sig := Signal{Type: string(event.Type), ChatID: event.ChatID}
	listSig := Signal{Type: SignalChatListUpdated, ChatID: event.ChatID}

	// detach from the request: signal delivery must not delay the sender
	bg := context.WithoutCancel(ctx)
	go func() {
		p.bus.Publish(bg, ScopeChat(event.ChatID), sig)
		p.bus.Publish(bg, ScopeChatList, listSig)
	}()
	return nil
}

func (p *Publisher) handleTaskEvent(ctx context.Context, event events.Event) error {
	sig := Signal{Type: string(event.Type), ChatID: event.ChatID}

	bg := context.WithoutCancel(ctx)
	go p.bus.Publish(bg, ScopeBoard(event.ChatID), sig)
	return nil
}

func (p *Publisher) handleChatEvent(ctx context.Context, event events.Event) error {
	sig := Signal{Type: SignalChatListUpdated, ChatID: event.ChatID}

	bg := context.WithoutCancel(ctx)
	go p.bus.Publish(bg, ScopeChatList, sig)
	return nil
}
