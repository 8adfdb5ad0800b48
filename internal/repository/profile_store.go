package repository

import (
	"context"
	"errors"
	"time"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/pkg/cache"
	applogger "FinDash/pkg/logger"
)

const profileKeyPrefix = "profile:"

// CachedProfiles is a read-through cache in front of a ProfileStore.
// Writes go to the store and invalidate the cached row.
type CachedProfiles struct {
	store domrepo.ProfileStore
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedProfiles(store domrepo.ProfileStore, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedProfiles {
	return &CachedProfiles{store: store, cache: c, ttl: ttl, l: l}
}

func (p *CachedProfiles) InsertProfile(ctx context.Context, profile *models.Profile) error {
	if err := p.store.InsertProfile(ctx, profile); err != nil {
		return err
	}
	p.invalidate(ctx, profile.ID)
	return nil
}

func (p *CachedProfiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var cached models.Profile
	err := p.cache.Get(ctx, profileKeyPrefix+id, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		p.l.Warn("profile cache read failed", applogger.String("user_id", id), applogger.Error(err))
	}

	profile, err := p.store.GetProfile(ctx, id)
	if err != nil || profile == nil {
		return profile, err
	}
	if err := p.cache.Set(ctx, profileKeyPrefix+id, profile, p.ttl); err != nil {
		p.l.Warn("profile cache write failed", applogger.String("user_id", id), applogger.Error(err))
	}
	return profile, nil
}

func (p *CachedProfiles) UpdateProfile(ctx context.Context, accessToken, id string, patch models.ProfilePatch) error {
	if err := p.store.UpdateProfile(ctx, accessToken, id, patch); err != nil {
		return err
	}
	p.invalidate(ctx, id)
	return nil
}

func (p *CachedProfiles) invalidate(ctx context.Context, id string) {
	if err := p.cache.Delete(ctx, profileKeyPrefix+id); err != nil {
		p.l.Warn("profile cache invalidation failed", applogger.String("user_id", id), applogger.Error(err))
	}
}
