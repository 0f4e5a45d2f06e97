package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-booking/pkg/logging"
)

// Sink consumes notification events. Delivery is fire-and-forget from the
// detector's point of view: at-least-once is acceptable, and a failed
// delivery never rolls back the snapshot.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// LogSink writes events to the structured log. Useful as a default and in
// dev environments.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, ev Event) error {
	s.logger.Info("new appointments observed",
		"count", ev.Count,
		"added_ids", ev.AddedIDs,
	)
	return nil
}

// RedisSink publishes events as JSON to a Redis channel, where UI
// gateways subscribe to surface operator toasts.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Deliver(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}

// MultiSink fans an event out to several sinks, delivering to all of
// them even when some fail.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, ev Event) error {
	var firstErr error
	for _, s := range m {
		if err := s.Deliver(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
