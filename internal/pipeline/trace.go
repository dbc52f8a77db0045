package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vecthare/vecthare/internal/common"
	"github.com/vecthare/vecthare/internal/types"
)

// traceCollector assembles the per-query DebugData (spec §4.10) as the
// pipeline runs, in addition to whatever internal/trace's recorder picks
// up via the common.StageSink fan-out. mu guards info/fate since
// queryCollections' ants-pool fan-out (retrieve.go) calls them from
// multiple goroutines for the one in-flight request.
type traceCollector struct {
	mu   sync.Mutex
	data types.DebugData
}

func newTraceCollector(settings types.Settings) *traceCollector {
	return &traceCollector{data: types.DebugData{
		TraceID:    uuid.NewString(),
		Settings:   settings,
		Stats:      map[string]interface{}{},
		ChunkFates: map[types.ContentHash][]types.ChunkFate{},
	}}
}

func (t *traceCollector) info(action, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.Traces = append(t.data.Traces, types.TraceRecord{
		Stage: "pipeline", Phase: action, Message: message,
	})
}

func (t *traceCollector) fate(hash types.ContentHash, stage string, verdict types.Verdict, reason string, data map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.ChunkFates[hash] = append(t.data.ChunkFates[hash], types.ChunkFate{
		Stage: stage, Verdict: verdict, Reason: reason, Data: data,
	})
}

func (t *traceCollector) complete(scoredAfterConditions, injected int) {
	t.data.Stats["scoredAfterConditions"] = scoredAfterConditions
	t.data.Stats["injected"] = injected
	t.data.Traces = append(t.data.Traces, types.TraceRecord{
		Stage: "pipeline", Phase: "complete",
		Message: "PIPELINE COMPLETE",
		Data: map[string]interface{}{
			"scoredAfterConditions": scoredAfterConditions,
			"injected":              injected,
		},
	})
}

func (t *traceCollector) finish() *types.DebugData {
	return &t.data
}

// logStage is a thin adapter so stage files can call through
// common.PipelineInfo/Warn/Error without threading *traceCollector
// everywhere a log call is needed.
func logStage(ctx context.Context, level, stage, action string, fields map[string]interface{}) {
	switch level {
	case "warn":
		common.PipelineWarn(ctx, stage, action, fields)
	case "error":
		common.PipelineError(ctx, stage, action, fields)
	default:
		common.PipelineInfo(ctx, stage, action, fields)
	}
}
