package pipeline

import (
	"context"

	"github.com/vecthare/vecthare/internal/types"
)

// rerank implements spec §4.8 step 6: call the rerank endpoint with
// (query, texts), then overwrite scores in positional order. OriginalScore
// (the backend score set in step 4, before keyword boost) is left as is,
// and the pre-rerank score survives only in the debug trace's Initial
// stage snapshot — rerank replaces rather than blends, per the DESIGN.md Open Question
// decision, since the rerank model's scale has nothing in common with
// the backend's cosine scores.
func (p *Pipeline) rerank(ctx context.Context, queryText string, chunks []types.ScoredChunk, trace *traceCollector) []types.ScoredChunk {
	if len(chunks) == 0 {
		return chunks
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	results, err := p.deps.Reranker.Rerank(ctx, queryText, texts)
	if err != nil {
		logStage(ctx, "warn", "rerank", "rerank_failed", map[string]interface{}{"error": err.Error()})
		trace.info("rerank_failed", err.Error())
		return chunks
	}

	for _, r := range results {
		if r.Index < 0 || r.Index >= len(chunks) {
			continue
		}
		chunks[r.Index].Score = r.Score
	}
	return chunks
}
