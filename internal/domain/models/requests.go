package models

import "strings"

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullName" validate:"omitempty,min=2"`
}

// Normalize trims the display name so whitespace-only names count as absent.
func (r *SignupRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *SigninRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// ProfileUpdateRequest is the body of PATCH /api/auth/profile.
// RecoverRequest starts a password reset.
type RecoverRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *RecoverRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// PasswordUpdateRequest sets a new password. AccessToken comes from a reset
// link; without it the session cookie is used.
type PasswordUpdateRequest struct {
	Password    string `json:"password" validate:"required,min=6,max=72"`
	AccessToken string `json:"accessToken"`
}

func (r *PasswordUpdateRequest) Normalize() {
	r.AccessToken = strings.TrimSpace(r.AccessToken)
}

type ProfileUpdateRequest struct {
	FullName  *string `json:"fullName" validate:"omitempty,min=2,max=120"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

func (r *ProfileUpdateRequest) Normalize() {
	if r.FullName != nil {
		v := strings.TrimSpace(*r.FullName)
		r.FullName = &v
	}
}

// CandlesRequest is the query of GET /api/charts/candles.
type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

// ChartPageRequest is the query of GET /charts.
type ChartPageRequest struct {
	Symbol string `query:"symbol"`
	Width  int    `query:"w" validate:"gte=0,lte=4096"`
	Height int    `query:"h" validate:"gte=0,lte=4096"`
}
