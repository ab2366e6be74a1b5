package domain

import "time"

// Attachment stores metadata for one file owned by exactly one message.
// StorageKey addresses the blob; URL is a time-bounded signed handle
// resolved at read time, never persisted.
type Attachment struct {
	ID         string
	MessageID  string
	FileName   string
	MimeType   string
	SizeBytes  int64
	StorageKey string
	URL        string
	CreatedAt  time.Time
}

// IsImage reports whether the attachment should get an inline preview.
func (a *Attachment) IsImage() bool {
	return len(a.MimeType) > 6 && a.MimeType[:6] == "image/"
}
