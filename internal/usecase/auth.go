package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/internal/identity"
	xhttp "FinDash/pkg/http"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/util"
)

const (
	// SignupMessage is returned once the account exists.
	SignupMessage = "User created successfully. Check your email to confirm your account."
	// RecoverMessage is returned whether or not the email belongs to an account.
	RecoverMessage = "If an account exists for that email, a password reset link is on its way."
	// PasswordResetPath is the page reset links land on.
	PasswordResetPath = "/auth/update-password"
)

// AuthUseCase drives account creation, sign-in and profile maintenance.
type AuthUseCase struct {
	idp      domrepo.IdentityProvider
	sessions *identity.Sessions
	profiles domrepo.ProfileStore
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	now      func() time.Time
}

func NewAuthUseCase(
	idp domrepo.IdentityProvider,
	sessions *identity.Sessions,
	profiles domrepo.ProfileStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		idp:      idp,
		sessions: sessions,
		profiles: profiles,
		events:   events,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup creates the account and then, best-effort, its profile row. A failed
// profile insert is handed to the backfill worker and does not fail the call.
// origin is the public base URL used for the confirmation redirect.
func (uc *AuthUseCase) Signup(ctx context.Context, req *models.SignupRequest, origin string) (*models.SignupResult, error) {
	redirectTo := ""
	if origin != "" {
		redirectTo = strings.TrimRight(origin, "/") + "/charts"
	}

	user, err := uc.idp.SignUp(ctx, req.Email, req.Password, req.FullName, redirectTo)
	if err != nil {
		uc.metrics.RecordSignup("rejected")
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) {
			return nil, xhttp.BadRequestError(apiErr.Message).WithError(err)
		}
		uc.logger.Error("signup backend unreachable", applogger.Error(err))
		return nil, xhttp.InternalError("Failed to create user").WithError(err)
	}
	if user == nil {
		uc.metrics.RecordSignup("no_user")
		return nil, xhttp.InternalError("Failed to create user")
	}

	now := uc.now().UTC()
	profile := &models.Profile{
		ID:        user.ID,
		Email:     req.Email,
		FullName:  util.TrimmedPtr(req.FullName),
		Provider:  "email",
		CreatedAt: &now,
		UpdatedAt: &now,
	}

	result := "created"
	if err := uc.profiles.InsertProfile(ctx, profile); err != nil {
		result = "profile_pending"
		uc.logger.Error("profile creation failed, deferring to backfill",
			applogger.String("user_id", user.ID),
			applogger.Error(err),
		)
		uc.publish(ctx, models.EventProfilePending, user.ID, req.Email, req.FullName)
	}
	uc.publish(ctx, models.EventUserSignedUp, user.ID, req.Email, req.FullName)
	uc.metrics.RecordSignup(result)

	return &models.SignupResult{
		Message: SignupMessage,
		User: models.SignupUser{
			ID:               user.ID,
			Email:            user.Email,
			EmailConfirmedAt: user.EmailConfirmedAt,
		},
	}, nil
}

// Signin exchanges credentials for a session and returns the cookies to set.
func (uc *AuthUseCase) Signin(ctx context.Context, req *models.SigninRequest) (*models.Account, []*http.Cookie, error) {
	user, cookies, err := uc.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) && apiErr.Rejected() {
			return nil, nil, xhttp.UnauthorizedError(apiErr.Message).WithError(err)
		}
		return nil, nil, xhttp.InternalError("Unable to sign in").WithError(err)
	}

	uc.publish(ctx, models.EventUserSignedIn, user.ID, user.Email, user.UserMetadata.FullName)
	return &models.Account{User: user, Profile: uc.profileOf(ctx, user.ID)}, cookies, nil
}

// Signout revokes the session and always returns cookie deletions.
func (uc *AuthUseCase) Signout(ctx context.Context, user *models.User, cookies []*http.Cookie) []*http.Cookie {
	deletions, err := uc.sessions.SignOut(ctx, cookies)
	if err != nil {
		uc.logger.Warn("session revocation failed", applogger.Error(err))
	}
	if user != nil {
		uc.publish(ctx, models.EventUserSignedOut, user.ID, user.Email, "")
	}
	return deletions
}

// Me returns the signed-in account; a profile lookup failure yields a nil profile.
func (uc *AuthUseCase) Me(ctx context.Context, user *models.User) (*models.Account, error) {
	if user == nil {
		return nil, xhttp.UnauthorizedError("Not authenticated")
	}
	return &models.Account{User: user, Profile: uc.profileOf(ctx, user.ID)}, nil
}

// UpdateProfile patches the caller's own profile row and returns it re-read.
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, user *models.User, accessToken string, req *models.ProfileUpdateRequest) (*models.Profile, error) {
	if user == nil || accessToken == "" {
		return nil, xhttp.UnauthorizedError("Not authenticated")
	}
	if req.FullName == nil && req.AvatarURL == nil {
		return nil, xhttp.BadRequestError("nothing to update")
	}

	patch := models.ProfilePatch{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		UpdatedAt: uc.now().UTC(),
	}
	if err := uc.profiles.UpdateProfile(ctx, accessToken, user.ID, patch); err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) {
			if errors.Is(err, identity.ErrUnauthorized) {
				return nil, xhttp.UnauthorizedError(apiErr.Message).WithError(err)
			}
			if apiErr.Rejected() {
				return nil, xhttp.BadRequestError(apiErr.Message).WithError(err)
			}
		}
		return nil, xhttp.InternalError("Failed to update profile").WithError(err)
	}

	profile, err := uc.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, xhttp.InternalError("Failed to load profile").WithError(err)
	}
	return profile, nil
}

// Recover sends a password reset link that lands on PasswordResetPath under origin.
func (uc *AuthUseCase) Recover(ctx context.Context, req *models.RecoverRequest, origin string) (*models.MessageResult, error) {
	redirectTo := ""
	if origin != "" {
		redirectTo = strings.TrimRight(origin, "/") + PasswordResetPath
	}

	if err := uc.idp.Recover(ctx, req.Email, redirectTo); err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusTooManyRequests {
				return nil, xhttp.TooManyRequestsError(apiErr.Message).WithError(err)
			}
			if apiErr.Rejected() {
				return nil, xhttp.BadRequestError(apiErr.Message).WithError(err)
			}
		}
		return nil, xhttp.InternalError("Unable to send reset email").WithError(err)
	}
	return &models.MessageResult{Message: RecoverMessage}, nil
}

// UpdatePassword sets a new password. The reset link token in req wins over
// the session cookie token.
func (uc *AuthUseCase) UpdatePassword(ctx context.Context, cookieToken string, req *models.PasswordUpdateRequest) (*models.User, error) {
	token := req.AccessToken
	if token == "" {
		token = cookieToken
	}
	if token == "" {
		return nil, xhttp.UnauthorizedError("Not authenticated")
	}

	user, err := uc.idp.UpdatePassword(ctx, token, req.Password)
	if err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) {
			if errors.Is(err, identity.ErrUnauthorized) {
				return nil, xhttp.UnauthorizedError(apiErr.Message).WithError(err)
			}
			if apiErr.Rejected() {
				return nil, xhttp.BadRequestError(apiErr.Message).WithError(err)
			}
		}
		return nil, xhttp.InternalError("Failed to update password").WithError(err)
	}

	if user != nil {
		uc.publish(ctx, models.EventPasswordUpdated, user.ID, user.Email, "")
	}
	return user, nil
}

func (uc *AuthUseCase) profileOf(ctx context.Context, id string) *models.Profile {
	p, err := uc.profiles.GetProfile(ctx, id)
	if err != nil {
		uc.logger.Warn("profile lookup failed", applogger.String("user_id", id), applogger.Error(err))
		return nil
	}
	return p
}

func (uc *AuthUseCase) publish(ctx context.Context, kind, userID, email, fullName string) {
	err := uc.events.Publish(ctx, &models.AuthEvent{
		Type:       kind,
		UserID:     userID,
		Email:      email,
		FullName:   strings.TrimSpace(fullName),
		OccurredAt: uc.now().UTC(),
	})
	if err != nil {
		uc.logger.Warn("auth event publish failed",
			applogger.String("type", kind),
			applogger.String("user_id", userID),
			applogger.Error(err),
		)
	}
}
