package domain

import "time"

// PushSubscription maps a user to one push delivery endpoint. The endpoint
// string is the natural key: registering an existing endpoint overwrites the
// stored keys, never duplicates the row.
type PushSubscription struct {
	Endpoint  string
	UserID    string
	P256dh    string
	Auth      string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}
