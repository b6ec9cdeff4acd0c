// Package pubsub publishes sync lifecycle events for downstream
// consumers (freshness monitors, notification fan-out).
package pubsub

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
)

// TopicSyncCompleted receives one event per successful remote sync.
const TopicSyncCompleted = "sync-completed"

// SyncCompletedEvent is the payload published after a refetch commits.
type SyncCompletedEvent struct {
	RunID         string    `json:"run_id"`
	CompletedAt   time.Time `json:"completed_at"`
	Oldest        string    `json:"oldest"`
	ActivityCount int       `json:"activity_count"`
	WellnessCount int       `json:"wellness_count"`
	Dropped       int       `json:"dropped"`
}

// PubSubAdapter provides message publishing using Google Cloud Pub/Sub.
type PubSubAdapter struct {
	Client *pubsub.Client
}

func (a *PubSubAdapter) Publish(ctx context.Context, topicID string, data []byte) (string, error) {
	topic := a.Client.Topic(topicID)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	return res.Get(ctx)
}

// LogPublisher is a publisher for local development that only logs.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) Publish(_ context.Context, topicID string, data []byte) (string, error) {
	if p.Logger != nil {
		p.Logger.Info("mock publish", "topic", topicID, "payload", string(data))
	}
	return "mock-msg-id", nil
}
