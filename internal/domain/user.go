package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for everyone who participates in chats.
// Staff accounts can author staff-only messages; client accounts cannot.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsStaff      bool
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
