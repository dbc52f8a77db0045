package rerank

import (
	"context"

	"github.com/vecthare/vecthare/internal/pipeline"
)

// PipelineAdapter satisfies internal/pipeline.Reranker by translating
// RankResult (index, relevance_score — the teacher's rerank response
// shape) into pipeline.RerankResult (index, score — the pipeline's own
// vocabulary). Kept as a thin wrapper rather than having Reranker return
// pipeline.RerankResult directly, so this package never has to name
// "pipeline" in its own public API.
type PipelineAdapter struct {
	Reranker
}

// Rerank implements pipeline.Reranker.
func (a PipelineAdapter) Rerank(ctx context.Context, query string, texts []string) ([]pipeline.RerankResult, error) {
	results, err := a.Reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.RerankResult, len(results))
	for i, r := range results {
		out[i] = pipeline.RerankResult{Index: r.Index, Score: r.Score}
	}
	return out, nil
}
