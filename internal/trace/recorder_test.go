package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/types"
)

type fakeSink struct {
	rows []Row
}

func (s *fakeSink) Write(row Row) { s.rows = append(s.rows, row) }

func TestOnStageEventForwardsToSink(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(sink)

	r.OnStageEvent(context.Background(), "info", "pipeline", "clear_slot_failed", map[string]interface{}{
		"error": "boom",
	})

	require.Len(t, sink.rows, 1)
	assert.Equal(t, "pipeline", sink.rows[0].Stage)
	assert.Equal(t, "clear_slot_failed", sink.rows[0].Action)
	assert.Equal(t, "info", sink.rows[0].Level)
	assert.Contains(t, sink.rows[0].FieldsJSON, "boom")
}

func TestLastTraceRoundTrips(t *testing.T) {
	r := NewRecorder(nil)

	_, ok := r.LastTrace()
	assert.False(t, ok)

	data := &types.DebugData{Query: "what color is the sword"}
	r.SetLastTrace(data)

	got, ok := r.LastTrace()
	require.True(t, ok)
	assert.Equal(t, "what color is the sword", got.Query)
}

func TestOnStageEventWithNilSinkDoesNotPanic(t *testing.T) {
	r := NewRecorder(nil)
	assert.NotPanics(t, func() {
		r.OnStageEvent(context.Background(), "warn", "sync", "gate_busy", nil)
	})
}
