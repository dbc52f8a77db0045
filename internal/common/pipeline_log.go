// Package common holds the stage-logging helpers shared by the retrieval
// pipeline (internal/pipeline) and the sync engine (internal/sync). It is
// adapted from the teacher's chat_pipline logging convention: every stage
// transition logs through pipelineInfo/pipelineWarn/pipelineError keyed by
// (stage, action), and the same calls feed the debug trace recorder.
package common

import (
	"context"

	"github.com/vecthare/vecthare/internal/logger"
)

// StageSink receives every stage log line, in addition to the logger. The
// debug trace recorder (internal/trace) registers itself here so that
// pipeline/sync stage transitions become TraceRecord entries without the
// pipeline importing the trace package directly.
type StageSink interface {
	OnStageEvent(ctx context.Context, level, stage, action string, fields map[string]interface{})
}

var sinks []StageSink

// RegisterSink adds a StageSink that will receive all future stage events.
// Not safe for concurrent registration; call during startup wiring only.
func RegisterSink(s StageSink) {
	sinks = append(sinks, s)
}

// PipelineInfo logs an info-level stage event and fans it out to registered
// sinks (the debug trace recorder, in production wiring).
func PipelineInfo(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(toLogrusFields(fields)).Infof("%s/%s", stage, action)
	dispatch(ctx, "info", stage, action, fields)
}

// PipelineWarn logs a warn-level stage event.
func PipelineWarn(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(toLogrusFields(fields)).Warnf("%s/%s", stage, action)
	dispatch(ctx, "warn", stage, action, fields)
}

// PipelineError logs an error-level stage event.
func PipelineError(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(toLogrusFields(fields)).Errorf("%s/%s", stage, action)
	dispatch(ctx, "error", stage, action, fields)
}

func dispatch(ctx context.Context, level, stage, action string, fields map[string]interface{}) {
	for _, s := range sinks {
		s.OnStageEvent(ctx, level, stage, action, fields)
	}
}

func toLogrusFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return map[string]interface{}{}
	}
	return fields
}
