package models

import "time"

const (
	EventUserSignedUp    = "user.signed_up"
	EventUserSignedIn    = "user.signed_in"
	EventUserSignedOut   = "user.signed_out"
	EventProfilePending  = "profile.pending"
	EventPasswordUpdated = "user.password_updated"
)

// AuthEvent is published for account lifecycle changes.
type AuthEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
