package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/vecthare/vecthare/internal/types"
)

// Sink receives one durable Row per stage event. ParquetSink is the
// concrete implementation; tests may substitute their own.
type Sink interface {
	Write(Row)
}

// Recorder implements internal/common's StageSink. It is registered once
// at startup via common.RegisterSink(recorder) so every PipelineInfo/
// Warn/Error call across internal/pipeline and internal/sync reaches it
// without either package importing internal/trace directly.
type Recorder struct {
	sink Sink

	mu   sync.Mutex
	last *types.DebugData
}

// NewRecorder builds a Recorder. sink may be nil to skip durable storage
// (span events and LastTrace still work).
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// OnStageEvent implements common.StageSink.
func (r *Recorder) OnStageEvent(ctx context.Context, level, stage, action string, fields map[string]interface{}) {
	if span := oteltrace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(stage+"."+action, oteltrace.WithAttributes(attrsFromFields(fields)...))
	}

	if r.sink != nil {
		r.sink.Write(Row{
			Stage: stage, Action: action, Level: level, FieldsJSON: fieldsJSON(fields),
		})
	}
}

// SetLastTrace records the most recently completed pipeline run's full
// debug record — what GET /debug/last-trace publishes.
func (r *Recorder) SetLastTrace(data *types.DebugData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = data
}

// LastTrace returns the most recently recorded run, if any.
func (r *Recorder) LastTrace() (*types.DebugData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil, false
	}
	return r.last, true
}

func attrsFromFields(fields map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return attrs
}

func fieldsJSON(fields map[string]interface{}) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(b)
}
