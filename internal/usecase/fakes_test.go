package usecase

import (
	"context"
	"sync"

	"FinDash/internal/domain/models"
)

type fakeIDP struct {
	signUpUser  *models.User
	signUpErr   error
	signInErr   error
	signOutErr  error
	redirectTo  string
	signUpCalls int

	recoverErr    error
	recoverEmail  string
	passwordErr   error
	passwordToken string
}

func (f *fakeIDP) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	return &models.User{ID: "u1"}, nil
}

func (f *fakeIDP) RefreshSession(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	return nil, nil
}

func (f *fakeIDP) SignInWithPassword(ctx context.Context, email, password string) (*models.Tokens, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &models.Tokens{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		User:         &models.User{ID: "u1", Email: email},
	}, nil
}

func (f *fakeIDP) SignUp(ctx context.Context, email, password, fullName, redirectTo string) (*models.User, error) {
	f.signUpCalls++
	f.redirectTo = redirectTo
	return f.signUpUser, f.signUpErr
}

func (f *fakeIDP) SignOut(ctx context.Context, accessToken string) error {
	return f.signOutErr
}

func (f *fakeIDP) Recover(ctx context.Context, email, redirectTo string) error {
	f.recoverEmail = email
	f.redirectTo = redirectTo
	return f.recoverErr
}

func (f *fakeIDP) UpdatePassword(ctx context.Context, accessToken, password string) (*models.User, error) {
	f.passwordToken = accessToken
	if f.passwordErr != nil {
		return nil, f.passwordErr
	}
	return &models.User{ID: "u1", Email: "a@b.co"}, nil
}

type fakeProfiles struct {
	mu        sync.Mutex
	rows      map[string]*models.Profile
	insertErr error
	getErr    error
	updateErr error
	inserted  []*models.Profile
	patches   []models.ProfilePatch
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: make(map[string]*models.Profile)}
}

func (f *fakeProfiles) InsertProfile(ctx context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, p)
	f.rows[p.ID] = p
	return nil
}

func (f *fakeProfiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.rows[id], nil
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, accessToken, id string, patch models.ProfilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.patches = append(f.patches, patch)
	p, ok := f.rows[id]
	if !ok {
		p = &models.Profile{ID: id}
		f.rows[id] = p
	}
	if patch.FullName != nil {
		p.FullName = patch.FullName
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = patch.AvatarURL
	}
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []*models.AuthEvent
	err    error
}

func (r *recordingEvents) Publish(ctx context.Context, e *models.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingEvents) Close() error { return nil }

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeMetrics struct {
	mu      sync.Mutex
	signups []string
	mounts  []string
	ops     []string
}

func (m *fakeMetrics) RecordGateDecision(route, action string) {}

func (m *fakeMetrics) RecordRefreshError() {}

func (m *fakeMetrics) RecordSignup(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signups = append(m.signups, result)
}

func (m *fakeMetrics) RecordChartMount(phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mounts = append(m.mounts, phase)
}

func (m *fakeMetrics) RecordLatency(op string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
}
