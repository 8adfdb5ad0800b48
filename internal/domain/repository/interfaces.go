package repository

import (
	"context"
	"time"

	"FinDash/internal/domain/models"
)

// IdentityProvider is the account side of the hosted identity backend.
type IdentityProvider interface {
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Tokens, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Tokens, error)
	SignUp(ctx context.Context, email, password, fullName, redirectTo string) (*models.User, error)
	SignOut(ctx context.Context, accessToken string) error
	Recover(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) (*models.User, error)
}

// ProfileStore reads and writes rows of the profiles table.
// GetProfile returns (nil, nil) when no row exists.
type ProfileStore interface {
	InsertProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, accessToken, id string, patch models.ProfilePatch) error
}

// EventPublisher emits account lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, e *models.AuthEvent) error
	Close() error
}

// CandleStore serves OHLC series in ascending time order.
type CandleStore interface {
	Init(ctx context.Context) error
	Candles(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Candle, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordGateDecision(route, action string)
	RecordRefreshError()
	RecordSignup(result string)
	RecordChartMount(phase string)
	RecordLatency(op string, seconds float64)
}
