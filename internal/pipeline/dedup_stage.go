package pipeline

import (
	"github.com/vecthare/vecthare/internal/types"
)

// dedupLiveContext implements spec §4.8 step 10: chunks whose hash
// already matches a non-empty live-context message are skipped (not
// dropped — they're traced as "already present"), since RAG's job is to
// re-surface what isn't already in context.
func (p *Pipeline) dedupLiveContext(messages []types.Message, chunks []types.ScoredChunk, trace *traceCollector) []types.ScoredChunk {
	live := make(map[types.ContentHash]bool, len(messages))
	for _, m := range messages {
		if m.Text == "" {
			continue
		}
		live[p.deps.Hasher.Hash(m.Text)] = true
	}

	out := chunks[:0:0]
	for _, sc := range chunks {
		if live[sc.Hash] {
			trace.fate(sc.Hash, "dedup", types.VerdictSkipped, "already present in live context", nil)
			continue
		}
		out = append(out, sc)
	}
	return out
}
