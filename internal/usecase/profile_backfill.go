package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/internal/identity"
	pkgkafka "FinDash/pkg/kafka"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/queue"
	"FinDash/pkg/util"

	"github.com/tidwall/gjson"
)

// ProfileBackfill consumes profile.pending events, from Kafka or the Redis
// queue, and creates the missing profile rows. An existing row counts as success.
type ProfileBackfill struct {
	topic    string
	profiles domrepo.ProfileStore
	metrics  domrepo.Metrics
	logger   *applogger.Logger
}

func NewProfileBackfill(topic string, profiles domrepo.ProfileStore, metrics domrepo.Metrics, logger *applogger.Logger) *ProfileBackfill {
	return &ProfileBackfill{topic: topic, profiles: profiles, metrics: metrics, logger: logger}
}

func (h *ProfileBackfill) Topic() string { return h.topic }

func (h *ProfileBackfill) Name() string { return "profile_backfill" }

func (h *ProfileBackfill) Type() string { return models.EventProfilePending }

func (h *ProfileBackfill) Handle(ctx context.Context, b []byte) error {
	if kind := gjson.GetBytes(b, "type").String(); kind != models.EventProfilePending {
		h.logger.Debug("backfill skipping event", applogger.String("type", kind))
		return nil
	}

	var e models.AuthEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if e.UserID == "" {
		return errors.New("event has no user_id")
	}

	now := time.Now().UTC()
	created := now
	if !e.OccurredAt.IsZero() {
		created = e.OccurredAt.UTC()
	}
	start := time.Now()
	err := h.profiles.InsertProfile(ctx, &models.Profile{
		ID:        e.UserID,
		Email:     e.Email,
		FullName:  util.TrimmedPtr(e.FullName),
		Provider:  "email",
		CreatedAt: &created,
		UpdatedAt: &now,
	})
	h.metrics.RecordLatency("profile_backfill", time.Since(start).Seconds())

	if errors.Is(err, identity.ErrConflict) {
		h.logger.Info("profile already exists", applogger.String("user_id", e.UserID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert profile %s: %w", e.UserID, err)
	}
	h.logger.Info("profile backfilled", applogger.String("user_id", e.UserID))
	return nil
}

var (
	_ pkgkafka.MessageHandler = (*ProfileBackfill)(nil)
	_ queue.Job               = (*ProfileBackfill)(nil)
)
