package models

import "time"

// User is the account as returned by the identity backend.
type User struct {
	ID               string       `json:"id"`
	Email            string       `json:"email"`
	EmailConfirmedAt *time.Time   `json:"email_confirmed_at,omitempty"`
	UserMetadata     UserMetadata `json:"user_metadata"`
}

type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Profile is a row of the profiles table, keyed by user id.
type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  *string    `json:"full_name"`
	AvatarURL *string    `json:"avatar_url"`
	Provider  string     `json:"provider"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProfilePatch carries the profile columns a user may change. Nil fields are left untouched.
type ProfilePatch struct {
	FullName  *string   `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tokens is the payload of a successful token grant.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// SignupUser is the public view of a freshly created account.
type SignupUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
}

// SignupResult is returned by a successful signup.
type SignupResult struct {
	Message string     `json:"message"`
	User    SignupUser `json:"user"`
}

// MessageResult is a bare confirmation message.
type MessageResult struct {
	Message string `json:"message"`
}

// Account is the signed-in user together with their profile row, if any.
type Account struct {
	User    *User    `json:"user"`
	Profile *Profile `json:"profile"`
}
