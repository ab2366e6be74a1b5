package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/events"
	"github.com/spec-kit/chat-service/internal/storage"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

type messageServiceFixture struct {
	svc        *MessageService
	messages   *fakeMessageRepo
	blobs      *memBlobStore
	dispatcher *recordingDispatcher
}

func newMessageServiceFixture(t *testing.T) *messageServiceFixture {
	t.Helper()
	blobs := newMemBlobStore()
	signer := storage.NewURLSigner("test-secret", time.Hour)
	messages := &fakeMessageRepo{}
	dispatcher := &recordingDispatcher{}
	memberships := &fakeMembershipRepo{
		members: map[string]map[string]bool{
			"c1": {"client-1": true, "agent-1": true},
		},
	}

	svc := NewMessageService(MessageDependencies{
		MessageRepo:    messages,
		MembershipRepo: memberships,
		Attachments:    NewAttachmentService(blobs, signer, zap.NewNop()),
		Blobs:          blobs,
		Dispatcher:     dispatcher,
		Logger:         zap.NewNop(),
	})
	return &messageServiceFixture{svc: svc, messages: messages, blobs: blobs, dispatcher: dispatcher}
}

func client() *domain.User { return &domain.User{ID: "client-1", Name: "Cleo", IsStaff: false} }
func agent() *domain.User  { return &domain.User{ID: "agent-1", Name: "Avery", IsStaff: true} }

func upload(name, content string) FileUpload {
	return FileUpload{
		FileName: name,
		MimeType: "text/plain",
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestSendPersistsAndPublishes(t *testing.T) {
	f := newMessageServiceFixture(t)

	msg, err := f.svc.Send(context.Background(), client(), SendInput{ChatID: "c1", Body: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Body)
	assert.Equal(t, domain.VisibilityClient, msg.Visibility)

	published := f.dispatcher.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventMessageCreated, published[0].Type)
	payload := published[0].Payload.(events.MessageCreatedPayload)
	assert.Equal(t, msg.ID, payload.MessageID)
	assert.Equal(t, "Cleo", payload.SenderName)
}

func TestSendRequiresBodyOrAttachments(t *testing.T) {
	f := newMessageServiceFixture(t)

	_, err := f.svc.Send(context.Background(), client(), SendInput{ChatID: "c1", Body: "   "})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestSendAttachmentOnlyMessage(t *testing.T) {
	f := newMessageServiceFixture(t)

	msg, err := f.svc.Send(context.Background(), client(), SendInput{
		ChatID: "c1",
		Files:  []FileUpload{upload("photo.png", "png-bytes")},
	})
	require.NoError(t, err)
	assert.Empty(t, msg.Body)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "photo.png", msg.Attachments[0].FileName)
	assert.NotEmpty(t, msg.Attachments[0].URL)
	assert.Equal(t, 1, f.blobs.count())
}

func TestSendStaffOnlyRequiresStaff(t *testing.T) {
	f := newMessageServiceFixture(t)

	_, err := f.svc.Send(context.Background(), client(), SendInput{ChatID: "c1", Body: "x", StaffOnly: true})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	msg, err := f.svc.Send(context.Background(), agent(), SendInput{ChatID: "c1", Body: "x", StaffOnly: true})
	require.NoError(t, err)
	assert.Equal(t, domain.VisibilityStaff, msg.Visibility)
}

func TestSendByNonMemberRejected(t *testing.T) {
	f := newMessageServiceFixture(t)

	outsider := &domain.User{ID: "outsider"}
	_, err := f.svc.Send(context.Background(), outsider, SendInput{ChatID: "c1", Body: "x"})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestSendFailedUploadAbortsWholeMessage(t *testing.T) {
	f := newMessageServiceFixture(t)
	f.blobs.saveErr = map[string]error{"poison": assert.AnError}

	_, err := f.svc.Send(context.Background(), client(), SendInput{
		ChatID: "c1",
		Body:   "two files",
		Files:  []FileUpload{upload("ok.txt", "fine"), upload("bad.txt", "poison")},
	})

	// the error names the failing file so the sender can retry
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, "bad.txt", domainErr.Details["file_name"])

	// nothing persisted, no partial blobs left behind
	assert.Empty(t, f.messages.created)
	assert.Equal(t, 0, f.blobs.count())
	assert.Empty(t, f.dispatcher.published())
}

func TestSendPersistFailureDiscardsStagedBlobs(t *testing.T) {
	f := newMessageServiceFixture(t)
	f.messages.createErr = assert.AnError

	_, err := f.svc.Send(context.Background(), client(), SendInput{
		ChatID: "c1",
		Files:  []FileUpload{upload("a.txt", "aaa")},
	})
	require.Error(t, err)
	assert.Equal(t, 0, f.blobs.count())
}

func TestListStreamSemantics(t *testing.T) {
	f := newMessageServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, client(), SendInput{ChatID: "c1", Body: "question"})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, agent(), SendInput{ChatID: "c1", Body: "internal note", StaffOnly: true})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, agent(), SendInput{ChatID: "c1", Body: "answer"})
	require.NoError(t, err)

	// staff default view: both streams
	all, err := f.svc.List(ctx, agent(), "c1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// client default view: client stream only, staff note invisible
	visible, err := f.svc.List(ctx, client(), "c1", "")
	require.NoError(t, err)
	require.Len(t, visible, 2)
	for _, m := range visible {
		assert.Equal(t, domain.VisibilityClient, m.Visibility)
	}

	// explicit streams partition the thread
	staffOnly, err := f.svc.List(ctx, agent(), "c1", "staff")
	require.NoError(t, err)
	require.Len(t, staffOnly, 1)
	assert.Equal(t, "internal note", staffOnly[0].Body)

	// a client may not request the staff stream
	_, err = f.svc.List(ctx, client(), "c1", "staff")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	_, err = f.svc.List(ctx, client(), "c1", "bogus")
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestEditOnlyBySenderAndKeepsVisibility(t *testing.T) {
	f := newMessageServiceFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, agent(), SendInput{ChatID: "c1", Body: "note", StaffOnly: true})
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, client(), msg.ID, "hijacked")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	updated, err := f.svc.Edit(ctx, agent(), msg.ID, "revised note")
	require.NoError(t, err)
	assert.Equal(t, "revised note", updated.Body)
	assert.Equal(t, domain.VisibilityStaff, updated.Visibility)
}

func TestDeleteCleansUpBlobs(t *testing.T) {
	f := newMessageServiceFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, client(), SendInput{
		ChatID: "c1",
		Files:  []FileUpload{upload("a.txt", "aaa")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.blobs.count())

	// staff may delete another user's message
	require.NoError(t, f.svc.Delete(ctx, agent(), msg.ID))
	assert.Equal(t, 0, f.blobs.count())

	published := f.dispatcher.published()
	last := published[len(published)-1]
	assert.Equal(t, "message-deleted", string(last.Type))
}
