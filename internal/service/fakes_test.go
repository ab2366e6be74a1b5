package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/events"
)

type fakeMembershipRepo struct {
	members    map[string]map[string]bool // chatID -> userID -> member
	recipients []domain.Recipient
	resolveErr error
}

func (f *fakeMembershipRepo) IsMember(_ context.Context, chatID, userID string) (bool, error) {
	return f.members[chatID][userID], nil
}

func (f *fakeMembershipRepo) ListMembers(context.Context, string) ([]domain.ChatMembership, error) {
	return nil, nil
}

func (f *fakeMembershipRepo) ResolveRecipients(_ context.Context, _, excludeUserID string) ([]domain.Recipient, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	var out []domain.Recipient
	for _, r := range f.recipients {
		if r.UserID != excludeUserID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSubscriptionRepo struct {
	mu      sync.Mutex
	subs    map[string]*domain.PushSubscription
	deleted []string
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[string]*domain.PushSubscription)}
}

func (f *fakeSubscriptionRepo) Upsert(_ context.Context, sub *domain.PushSubscription) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, existed := f.subs[sub.Endpoint]
	copied := *sub
	f.subs[sub.Endpoint] = &copied
	return !existed, nil
}

func (f *fakeSubscriptionRepo) GetByEndpoint(_ context.Context, endpoint string) (*domain.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[endpoint]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return sub, nil
}

func (f *fakeSubscriptionRepo) ListByUser(_ context.Context, userID string) ([]domain.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PushSubscription
	for _, sub := range f.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) DeleteByEndpoint(_ context.Context, endpoint string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subs[endpoint]
	delete(f.subs, endpoint)
	f.deleted = append(f.deleted, endpoint)
	return ok, nil
}

// fakeSender maps endpoints to delivery outcomes.
type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	errs     map[string]error
	sent     []string
	payloads [][]byte
}

func (f *fakeSender) Send(_ context.Context, sub domain.PushSubscription, payload []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sub.Endpoint)
	f.payloads = append(f.payloads, payload)
	if err := f.errs[sub.Endpoint]; err != nil {
		return 0, err
	}
	if status, ok := f.statuses[sub.Endpoint]; ok {
		return status, nil
	}
	return 201, nil
}

// memBlobStore is an in-memory blob store for exercising upload flows.
type memBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saveErr map[string]error // keyed by a marker read from the blob content
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Save(_ context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr[string(data)]; err != nil {
		return 0, err
	}
	s.blobs[key] = data
	return int64(len(data)), nil
}

func (s *memBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

type fakeMessageRepo struct {
	created   []*domain.Message
	createErr error
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	msg.ID = uuid.New().String()
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	for _, m := range f.created {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessageRepo) ListByChat(_ context.Context, chatID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range f.created {
		if m.ChatID == chatID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) UpdateBody(_ context.Context, id, body string) (*domain.Message, error) {
	for _, m := range f.created {
		if m.ID == id {
			m.Body = body
			return m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) ([]string, error) {
	for i, m := range f.created {
		if m.ID == id {
			var keys []string
			for _, att := range m.Attachments {
				keys = append(keys, att.StorageKey)
			}
			f.created = append(f.created[:i], f.created[i+1:]...)
			return keys, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// recordingDispatcher captures published events synchronously.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}
