package domain

import "time"

// Chat is the aggregate for one conversation between a client and the team.
type Chat struct {
	ID        string
	Subject   string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMembership links a user to a chat. It is the resolution set for
// "who can see this chat" and "who gets notified".
type ChatMembership struct {
	ChatID   string
	UserID   string
	JoinedAt time.Time
}

// ChatPreview is a chat plus the most recent message visible to the
// requesting viewer's stream, used by chat-list views.
type ChatPreview struct {
	Chat
	LastMessageBody *string
	LastMessageAt   *time.Time
}

// Recipient is one chat member expanded with their registered push
// endpoints. A recipient may have zero, one, or many subscriptions.
type Recipient struct {
	UserID        string
	Name          string
	IsStaff       bool
	Subscriptions []PushSubscription
}
