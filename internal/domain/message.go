package domain

import "time"

// Visibility classifies which stream a message belongs to. It is fixed at
// creation and never changes on edit.
type Visibility string

const (
	VisibilityClient Visibility = "client"
	VisibilityStaff  Visibility = "staff"
)

// Message captures one entry in a chat thread. Body may be empty when at
// least one attachment is present.
type Message struct {
	ID          string
	ChatID      string
	SenderID    string
	Body        string
	Visibility  Visibility
	Attachments []Attachment
	CreatedAt   time.Time
	EditedAt    *time.Time
}

// HasContent reports whether the message carries anything to show. An
// attachment-only message with an empty body is valid content.
func (m *Message) HasContent() bool {
	return m.Body != "" || len(m.Attachments) > 0
}

// ClassifyVisibility copies the sender's send-time mode into a visibility
// tag. Client accounts always produce client-visible messages; a staff
// sender chooses via staffMode.
func ClassifyVisibility(senderIsStaff, staffMode bool) Visibility {
	if senderIsStaff && staffMode {
		return VisibilityStaff
	}
	return VisibilityClient
}

// FilterVisibility returns the subsequence of msgs whose visibility equals
// mode, preserving creation order. It is a pure predicate over its input:
// filtering a mixed list by both modes yields a disjoint partition of it.
func FilterVisibility(msgs []Message, mode Visibility) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Visibility == mode {
			out = append(out, m)
		}
	}
	return out
}

// VisibleTo reports whether a viewer in the given mode may see the message.
// Staff viewers see both streams; client viewers see the client stream only.
func (m *Message) VisibleTo(viewerIsStaff bool) bool {
	return viewerIsStaff || m.Visibility == VisibilityClient
}
