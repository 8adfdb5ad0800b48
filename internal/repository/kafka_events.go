package repository

import (
	"context"
	"time"

	"FinDash/internal/domain/models"
	pkgkafka "FinDash/pkg/kafka"
	"FinDash/pkg/queue"

	"github.com/google/uuid"
)

// TopicEvents publishes auth events keyed by user id and routes them by type:
// profile.pending goes to the backfill topic, everything else to the events topic.
type TopicEvents struct {
	producer      *pkgkafka.Producer
	eventsTopic   string
	backfillTopic string
}

func NewTopicEvents(p *pkgkafka.Producer, eventsTopic, backfillTopic string) *TopicEvents {
	return &TopicEvents{producer: p, eventsTopic: eventsTopic, backfillTopic: backfillTopic}
}

func (k *TopicEvents) Publish(ctx context.Context, e *models.AuthEvent) error {
	stamp(e)
	return k.producer.Publish(ctx, k.topicFor(e.Type), []byte(e.UserID), e)
}

func (k *TopicEvents) topicFor(eventType string) string {
	if eventType == models.EventProfilePending {
		return k.backfillTopic
	}
	return k.eventsTopic
}

func (k *TopicEvents) Close() error {
	return k.producer.Close()
}

// QueueEvents hands profile.pending events to a job queue and drops the rest.
// It stands in for TopicEvents when Kafka is disabled.
type QueueEvents struct {
	q queue.Enqueuer
}

func NewQueueEvents(q queue.Enqueuer) *QueueEvents {
	return &QueueEvents{q: q}
}

func (k *QueueEvents) Publish(ctx context.Context, e *models.AuthEvent) error {
	stamp(e)
	if e.Type != models.EventProfilePending {
		return nil
	}
	return k.q.Enqueue(ctx, e.Type, e)
}

// Close is a no-op; the queue is stopped by the application.
func (k *QueueEvents) Close() error { return nil }

// NoopEvents drops events; used when no transport is configured.
type NoopEvents struct{}

func (NoopEvents) Publish(_ context.Context, e *models.AuthEvent) error {
	stamp(e)
	return nil
}

func (NoopEvents) Close() error { return nil }

func stamp(e *models.AuthEvent) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
}
