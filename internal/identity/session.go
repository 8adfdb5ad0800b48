package identity

import (
	"context"
	"errors"
	"net/http"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
)

// Sessions refreshes cookie-held sessions against the identity backend.
type Sessions struct {
	idp     repository.IdentityProvider
	cookies CookieConfig
}

func NewSessions(idp repository.IdentityProvider, cookies CookieConfig) *Sessions {
	return &Sessions{idp: idp, cookies: cookies}
}

// Refresh resolves the requester from its cookies. The access token is tried
// first; when it is missing or rejected the refresh token is exchanged and the
// new pair returned as mutations. A rejected refresh token clears both cookies.
// Transport and server failures are returned as errors.
func (s *Sessions) Refresh(ctx context.Context, cookies []*http.Cookie) (models.Session, error) {
	access := cookieValue(cookies, s.cookies.AccessName())
	refresh := cookieValue(cookies, s.cookies.RefreshName())

	if access == "" && refresh == "" {
		return models.Session{}, nil
	}

	if access != "" {
		user, err := s.idp.GetUser(ctx, access)
		if err == nil {
			return models.Session{Authenticated: true, User: user}, nil
		}
		if !IsRejected(err) {
			return models.Session{}, err
		}
	}

	if refresh == "" {
		return models.Session{Mutations: s.cookies.ClearCookies()}, nil
	}

	tokens, err := s.idp.RefreshSession(ctx, refresh)
	if err != nil {
		if IsRejected(err) {
			return models.Session{Mutations: s.cookies.ClearCookies()}, nil
		}
		return models.Session{}, err
	}

	user := tokens.User
	if user == nil {
		if user, err = s.idp.GetUser(ctx, tokens.AccessToken); err != nil {
			return models.Session{}, err
		}
	}
	return models.Session{
		Authenticated: true,
		User:          user,
		Mutations:     s.cookies.SessionCookies(tokens),
	}, nil
}

// SignIn exchanges credentials for a session and returns the cookies to set.
func (s *Sessions) SignIn(ctx context.Context, email, password string) (*models.User, []*http.Cookie, error) {
	tokens, err := s.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if tokens.User == nil {
		return nil, nil, errors.New("sign in: backend returned no user")
	}
	return tokens.User, s.cookies.SessionCookies(tokens), nil
}

// SignOut revokes the access token if present and always returns deletion cookies.
// The revocation error, if any, is returned alongside.
func (s *Sessions) SignOut(ctx context.Context, cookies []*http.Cookie) ([]*http.Cookie, error) {
	var err error
	if access := cookieValue(cookies, s.cookies.AccessName()); access != "" {
		err = s.idp.SignOut(ctx, access)
	}
	return s.cookies.ClearCookies(), err
}

// AccessToken returns the access token carried by cookies.
func (s *Sessions) AccessToken(cookies []*http.Cookie) string {
	return cookieValue(cookies, s.cookies.AccessName())
}
