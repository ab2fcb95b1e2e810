package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel is the redis pub/sub channel carrying scan status transitions from
// the worker to the API servers.
const Channel = "devtul:scan_events"

// ScanEvent is one scan status transition.
type ScanEvent struct {
	ScanID       uuid.UUID `json:"scan_id"`
	Status       string    `json:"status"`
	ResultsCount int       `json:"results_count"`
	Message      string    `json:"message,omitempty"`
}

// Publisher pushes scan events into redis. A nil Publisher is a no-op so the
// worker still runs without redis in tests.
type Publisher struct {
	redis  *redis.Client
	logger *slog.Logger
}

func NewPublisher(redisClient *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{redis: redisClient, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event ScanEvent) {
	if p == nil || p.redis == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, Channel, data).Err(); err != nil {
		p.logger.Debug("publish scan event failed", "error", err)
	}
}
