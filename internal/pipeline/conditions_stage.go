package pipeline

import (
	"context"
	"time"

	"github.com/vecthare/vecthare/internal/condition"
	"github.com/vecthare/vecthare/internal/types"
)

// applyConditions implements spec §4.8 step 9: drop chunks declared
// disabled outright, then evaluate each remaining chunk's ChunkMeta
// condition tree (when conditions.enabled) against the SearchContext,
// dropping failures; activations are recorded for frequency/cooldown
// tracking regardless of which path kept the chunk.
func (p *Pipeline) applyConditions(ctx context.Context, req Request, chunks []types.ScoredChunk, trace *traceCollector) []types.ScoredChunk {
	activeHashes := make(map[types.ContentHash]types.ChunkMetadata, len(chunks))
	for _, sc := range chunks {
		activeHashes[sc.Hash] = sc.Metadata
	}
	condCtx := condition.Context{Search: req.SearchContext, ActiveChunks: activeHashes}

	out := chunks[:0:0]
	for _, sc := range chunks {
		meta, ok, err := p.deps.Registry.Store().GetChunkMeta(ctx, sc.Hash)
		if err == nil && ok && meta.Disabled {
			trace.fate(sc.Hash, "conditions", types.VerdictDropped, "chunk disabled", nil)
			continue
		}
		if ok && meta.Conditions != nil && meta.Conditions.Enabled {
			if !condition.Evaluate(*meta.Conditions, condCtx) {
				trace.fate(sc.Hash, "conditions", types.VerdictDropped, "condition tree evaluated false", nil)
				continue
			}
		}
		out = append(out, sc)
		p.recordActivation(ctx, sc.Hash)
	}
	return out
}

func (p *Pipeline) recordActivation(ctx context.Context, hash types.ContentHash) {
	if p.deps.ActivationStore == nil {
		return
	}
	if err := p.deps.ActivationStore.RecordActivation(ctx, hash, time.Now()); err != nil {
		logStage(ctx, "warn", "conditions", "activation_record_failed", map[string]interface{}{
			"hash": hash, "error": err.Error(),
		})
	}
}
