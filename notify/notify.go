// Package notify defines the one-way event sink consumed by the matching
// core. Publishing is fire-and-forget: sinks must never block the caller
// or surface errors into the query path.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Event is a single notification.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType string, fields map[string]any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Fields: fields}
}

// Sink receives events.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// LogSink writes events to the log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "notify")}
}

// Publish logs the event.
func (s *LogSink) Publish(_ context.Context, event Event) {
	args := make([]any, 0, 2+2*len(event.Fields))
	args = append(args, "type", event.Type)
	for k, v := range event.Fields {
		args = append(args, k, v)
	}
	s.logger.Info("event", args...)
}

// NoopSink discards every event.
type NoopSink struct{}

// Publish does nothing.
func (NoopSink) Publish(context.Context, Event) {}
