package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent("search.completed", map[string]any{"candidates": 5})
	after := time.Now().UTC()

	assert.Equal(t, "search.completed", event.Type)
	assert.Equal(t, 5, event.Fields["candidates"])
	assert.False(t, event.OccurredAt.Before(before))
	assert.False(t, event.OccurredAt.After(after))
}

func TestLogSinkPublish(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := NewLogSink(logger)

	sink.Publish(context.Background(), NewEvent("search.completed", map[string]any{
		"query_hash": "abc123",
	}))

	output := buf.String()
	require.NotEmpty(t, output)
	assert.Contains(t, output, "search.completed")
	assert.Contains(t, output, "query_hash=abc123")
}

func TestLogSinkNilLogger(t *testing.T) {
	sink := NewLogSink(nil)
	require.NotNil(t, sink)
	sink.Publish(context.Background(), NewEvent("cache.rebuilt", nil))
}

func TestNoopSink(t *testing.T) {
	var sink Sink = NoopSink{}
	sink.Publish(context.Background(), NewEvent("ignored", nil))
}
