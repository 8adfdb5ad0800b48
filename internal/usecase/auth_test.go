package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"FinDash/internal/domain/models"
	"FinDash/internal/identity"
	xhttp "FinDash/pkg/http"
	applogger "FinDash/pkg/logger"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

type authFixture struct {
	idp      *fakeIDP
	profiles *fakeProfiles
	events   *recordingEvents
	metrics  *fakeMetrics
	uc       *AuthUseCase
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		idp:      &fakeIDP{signUpUser: &models.User{ID: "u1", Email: "a@b.co"}},
		profiles: newFakeProfiles(),
		events:   &recordingEvents{},
		metrics:  &fakeMetrics{},
	}
	sessions := identity.NewSessions(f.idp, identity.CookieConfig{Prefix: "sb"})
	f.uc = NewAuthUseCase(f.idp, sessions, f.profiles, f.events, f.metrics, applogger.Nop())
	return f
}

func appStatus(t *testing.T, err error) int {
	t.Helper()
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	return appErr.Status
}

func TestSignupCreatesProfile(t *testing.T) {
	f := newAuthFixture()
	res, err := f.uc.Signup(context.Background(), &models.SignupRequest{
		Email: "a@b.co", Password: "secret", FullName: "Ada Lovelace",
	}, "https://dash.example.com/")

	assert.NoError(t, err)
	assert.Equal(t, SignupMessage, res.Message)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "https://dash.example.com/charts", f.idp.redirectTo)

	assert.Equal(t, 1, len(f.profiles.inserted))
	p := f.profiles.inserted[0]
	assert.Equal(t, "email", p.Provider)
	assert.Equal(t, "Ada Lovelace", *p.FullName)
	assert.NotNil(t, p.CreatedAt)

	if diff := cmp.Diff([]string{models.EventUserSignedUp}, f.events.types()); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"created"}, f.metrics.signups)
}

func TestSignupWithoutNameStoresNull(t *testing.T) {
	f := newAuthFixture()
	_, err := f.uc.Signup(context.Background(), &models.SignupRequest{Email: "a@b.co", Password: "x"}, "")
	assert.NoError(t, err)
	assert.Equal(t, "", f.idp.redirectTo)
	assert.Nil(t, f.profiles.inserted[0].FullName)
}

func TestSignupProfileFailureDefersToBackfill(t *testing.T) {
	f := newAuthFixture()
	f.profiles.insertErr = errors.New("postgrest down")

	res, err := f.uc.Signup(context.Background(), &models.SignupRequest{Email: "a@b.co", Password: "x"}, "")
	assert.NoError(t, err)
	assert.Equal(t, SignupMessage, res.Message)

	if diff := cmp.Diff([]string{models.EventProfilePending, models.EventUserSignedUp}, f.events.types()); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"profile_pending"}, f.metrics.signups)
}

func TestSignupBackendRejection(t *testing.T) {
	f := newAuthFixture()
	f.idp.signUpErr = &identity.APIError{Status: 422, Message: "User already registered"}

	_, err := f.uc.Signup(context.Background(), &models.SignupRequest{Email: "a@b.co", Password: "x"}, "")
	assert.Equal(t, http.StatusBadRequest, appStatus(t, err))

	var appErr *xhttp.AppError
	errors.As(err, &appErr)
	assert.Equal(t, "User already registered", appErr.Message)
	assert.Equal(t, 0, len(f.profiles.inserted))
	assert.Equal(t, 0, len(f.events.types()))
}

func TestSignupNoUser(t *testing.T) {
	f := newAuthFixture()
	f.idp.signUpUser = nil

	_, err := f.uc.Signup(context.Background(), &models.SignupRequest{Email: "a@b.co", Password: "x"}, "")
	assert.Equal(t, http.StatusInternalServerError, appStatus(t, err))
	assert.Equal(t, 0, len(f.profiles.inserted))
}

func TestSignupEventFailureIsIgnored(t *testing.T) {
	f := newAuthFixture()
	f.events.err = errors.New("broker down")

	_, err := f.uc.Signup(context.Background(), &models.SignupRequest{Email: "a@b.co", Password: "x"}, "")
	assert.NoError(t, err)
}

func TestSignin(t *testing.T) {
	f := newAuthFixture()
	name := "Ada"
	f.profiles.rows["u1"] = &models.Profile{ID: "u1", FullName: &name}

	acct, cookies, err := f.uc.Signin(context.Background(), &models.SigninRequest{Email: "a@b.co", Password: "x"})
	assert.NoError(t, err)
	assert.Equal(t, "u1", acct.User.ID)
	assert.Equal(t, "Ada", *acct.Profile.FullName)
	assert.Equal(t, 2, len(cookies))
	assert.Equal(t, "sb-access-token", cookies[0].Name)
	assert.Equal(t, []string{models.EventUserSignedIn}, f.events.types())
}

func TestSigninRejected(t *testing.T) {
	f := newAuthFixture()
	f.idp.signInErr = &identity.APIError{Status: 400, Message: "Invalid login credentials"}

	_, _, err := f.uc.Signin(context.Background(), &models.SigninRequest{Email: "a@b.co", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, appStatus(t, err))
}

func TestSigninBackendDown(t *testing.T) {
	f := newAuthFixture()
	f.idp.signInErr = errors.New("dial tcp: refused")

	_, _, err := f.uc.Signin(context.Background(), &models.SigninRequest{Email: "a@b.co", Password: "x"})
	assert.Equal(t, http.StatusInternalServerError, appStatus(t, err))
}

func TestSignoutAlwaysClears(t *testing.T) {
	f := newAuthFixture()
	f.idp.signOutErr = errors.New("revoke failed")

	cookies := f.uc.Signout(context.Background(), &models.User{ID: "u1"},
		[]*http.Cookie{{Name: "sb-access-token", Value: "a"}})
	assert.Equal(t, 2, len(cookies))
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Equal(t, []string{models.EventUserSignedOut}, f.events.types())
}

func TestMe(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Me(context.Background(), nil)
	assert.Equal(t, http.StatusUnauthorized, appStatus(t, err))

	f.profiles.getErr = errors.New("timeout")
	acct, err := f.uc.Me(context.Background(), &models.User{ID: "u1"})
	assert.NoError(t, err)
	assert.Nil(t, acct.Profile)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture()
	user := &models.User{ID: "u1"}
	name := "Grace"

	p, err := f.uc.UpdateProfile(context.Background(), user, "token", &models.ProfileUpdateRequest{FullName: &name})
	assert.NoError(t, err)
	assert.Equal(t, "Grace", *p.FullName)
	assert.Equal(t, 1, len(f.profiles.patches))
	assert.Nil(t, f.profiles.patches[0].AvatarURL)

	_, err = f.uc.UpdateProfile(context.Background(), user, "token", &models.ProfileUpdateRequest{})
	assert.Equal(t, http.StatusBadRequest, appStatus(t, err))

	_, err = f.uc.UpdateProfile(context.Background(), user, "", &models.ProfileUpdateRequest{FullName: &name})
	assert.Equal(t, http.StatusUnauthorized, appStatus(t, err))

	f.profiles.updateErr = &identity.APIError{Status: 401, Message: "JWT expired"}
	_, err = f.uc.UpdateProfile(context.Background(), user, "token", &models.ProfileUpdateRequest{FullName: &name})
	assert.Equal(t, http.StatusUnauthorized, appStatus(t, err))
}

func TestRecoverSendsResetLink(t *testing.T) {
	f := newAuthFixture()
	res, err := f.uc.Recover(context.Background(), &models.RecoverRequest{Email: "a@b.co"}, "https://dash.example.com/")
	assert.NoError(t, err)
	assert.Equal(t, RecoverMessage, res.Message)
	assert.Equal(t, "a@b.co", f.idp.recoverEmail)
	assert.Equal(t, "https://dash.example.com/auth/update-password", f.idp.redirectTo)
}

func TestRecoverErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "throttled", err: &identity.APIError{Status: 429, Message: "too many"}, want: http.StatusTooManyRequests},
		{name: "rejected", err: &identity.APIError{Status: 422, Message: "bad email"}, want: http.StatusBadRequest},
		{name: "transport", err: errors.New("dial tcp: refused"), want: http.StatusInternalServerError},
	}
	for _, test := range tests {
		f := newAuthFixture()
		f.idp.recoverErr = test.err
		_, err := f.uc.Recover(context.Background(), &models.RecoverRequest{Email: "a@b.co"}, "")
		assert.Equal(t, test.want, appStatus(t, err))
	}
}

func TestUpdatePasswordPrefersResetToken(t *testing.T) {
	f := newAuthFixture()
	user, err := f.uc.UpdatePassword(context.Background(), "cookie-token",
		&models.PasswordUpdateRequest{Password: "n3w-secret", AccessToken: "reset-token"})
	assert.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "reset-token", f.idp.passwordToken)
	assert.Equal(t, 1, len(f.events.events))
	assert.Equal(t, models.EventPasswordUpdated, f.events.events[0].Type)

	_, err = f.uc.UpdatePassword(context.Background(), "cookie-token", &models.PasswordUpdateRequest{Password: "n3w-secret"})
	assert.NoError(t, err)
	assert.Equal(t, "cookie-token", f.idp.passwordToken)
}

func TestUpdatePasswordErrors(t *testing.T) {
	f := newAuthFixture()
	_, err := f.uc.UpdatePassword(context.Background(), "", &models.PasswordUpdateRequest{Password: "n3w-secret"})
	assert.Equal(t, http.StatusUnauthorized, appStatus(t, err))

	f.idp.passwordErr = &identity.APIError{Status: 401, Message: "token expired"}
	_, err = f.uc.UpdatePassword(context.Background(), "t", &models.PasswordUpdateRequest{Password: "n3w-secret"})
	assert.Equal(t, http.StatusUnauthorized, appStatus(t, err))

	f.idp.passwordErr = &identity.APIError{Status: 422, Message: "Password should be different"}
	_, err = f.uc.UpdatePassword(context.Background(), "t", &models.PasswordUpdateRequest{Password: "n3w-secret"})
	assert.Equal(t, http.StatusBadRequest, appStatus(t, err))

	f.idp.passwordErr = &identity.APIError{Status: 503, Message: "unavailable"}
	_, err = f.uc.UpdatePassword(context.Background(), "t", &models.PasswordUpdateRequest{Password: "n3w-secret"})
	assert.Equal(t, http.StatusInternalServerError, appStatus(t, err))
}
