package pipeline

import (
	"context"
	"strings"

	"github.com/vecthare/vecthare/internal/types"
)

// inject implements spec §4.8 step 11: build the injection body, write it
// to the host's prompt slot, and verify by immediate readback. A mismatch
// is recorded (InjectionRecord.Verified = false) rather than retried,
// per the fire-and-forget framing from the DESIGN.md Open Question
// decision — the host/operator sees it in the debug trace, the pipeline
// doesn't block the turn on it.
func (p *Pipeline) inject(ctx context.Context, settings types.Settings, toInject []types.ScoredChunk, trace *traceCollector) types.InjectionRecord {
	if len(toInject) == 0 {
		if err := p.deps.Host.WriteSlot(ctx, p.deps.Tag, "", settings.Position, settings.Depth); err != nil {
			logStage(ctx, "warn", "inject", "write_empty_slot_failed", map[string]interface{}{"error": err.Error()})
		}
		trace.info("inject", "nothing to inject, empty slot written")
		return types.InjectionRecord{Verified: true, Position: settings.Position, Depth: settings.Depth}
	}

	texts := make([]string, len(toInject))
	for i, sc := range toInject {
		texts[i] = sc.Text
	}
	body := strings.Join(texts, "\n\n")

	rendered := settings.Template
	if rendered == "" {
		rendered = "{{text}}"
	}
	rendered = strings.ReplaceAll(rendered, "{{text}}", body)

	if err := p.deps.Host.WriteSlot(ctx, p.deps.Tag, rendered, settings.Position, settings.Depth); err != nil {
		logStage(ctx, "error", "inject", "write_slot_failed", map[string]interface{}{"error": err.Error()})
		return types.InjectionRecord{Verified: false, Text: rendered, Position: settings.Position, Depth: settings.Depth, CharCount: len(rendered)}
	}

	readback, err := p.deps.Host.ReadSlot(ctx, p.deps.Tag)
	verified := err == nil && readback == rendered
	if !verified {
		logStage(ctx, "warn", "inject", "readback_mismatch", map[string]interface{}{
			"expectedLen": len(rendered), "actualLen": len(readback),
		})
	}

	for _, sc := range toInject {
		trace.fate(sc.Hash, "inject", types.VerdictInjected, "", nil)
	}

	return types.InjectionRecord{
		Verified: verified, Text: rendered, Position: settings.Position, Depth: settings.Depth, CharCount: len(rendered),
	}
}
