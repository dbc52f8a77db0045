// Package vectorbackend defines the narrow vector-store capability
// surface (spec §4.7, component G) the retrieval pipeline and sync
// engine consume, plus three concrete adapters (qdrant, pgvector,
// elastic) selectable at runtime via settings.vector_backend.
package vectorbackend

import (
	"context"
	"fmt"

	"github.com/vecthare/vecthare/internal/types"
)

// Item is one chunk as handed to Insert — vector is optional when the
// backend computes embeddings server-side (e.g. via a configured model
// reference rather than a client-supplied vector).
type Item struct {
	Hash     types.ContentHash
	Text     string
	Index    int
	Vector   []float32
	Metadata types.ChunkMetadata
}

// Hit is one backend-returned match: a hash plus its score and stored
// metadata — metadata always carries the original text per spec §4.7's
// "implementations MUST preserve per-chunk text in metadata" invariant.
type Hit struct {
	Hash     types.ContentHash
	Score    float64
	Text     string
	Index    int
	Metadata types.ChunkMetadata
	Vector   []float32 // only populated by ListHashesWithMetadata when requested
}

// CollectionResult is one entry of QueryMultiple's per-collection map.
type CollectionResult struct {
	Hits []Hit
	Err  error // per-collection failure; the pipeline traces and continues (spec §4.8 step 4)
}

// Client is the capability surface from spec §4.7. Every method is
// idempotent where the spec says so (Insert on hash, Delete on absence).
type Client interface {
	ListHashes(ctx context.Context, collectionID string) ([]types.ContentHash, error)
	ListHashesWithMetadata(ctx context.Context, collectionID string) ([]Hit, error)
	Insert(ctx context.Context, collectionID string, items []Item) error
	Query(ctx context.Context, collectionID, text string, topK int) ([]Hit, error)
	QueryMultiple(ctx context.Context, collectionIDs []string, text string, topK int, threshold float64) (map[string]CollectionResult, error)
	Delete(ctx context.Context, collectionID string, hashes []types.ContentHash) error
	Purge(ctx context.Context, collectionID string) (bool, error)
	UpdateText(ctx context.Context, collectionID string, hash types.ContentHash, newText string) error
	UpdateMetadata(ctx context.Context, collectionID string, hash types.ContentHash, metadata types.ChunkMetadata) error
}

// ErrCollectionNotFound is returned by ListHashes/Query variants when the
// backend has no record of the collection at all (as distinct from an
// empty, known collection).
var ErrCollectionNotFound = fmt.Errorf("vectorbackend: collection not found")

// QueryMultipleSequential is the shared fallback QueryMultiple
// implementation: it calls Query once per collection via queryOne,
// isolating each collection's failure per spec §4.8 step 4 ("on
// per-collection failure, trace and continue"). Adapters that can issue
// a true fanned-out multi-collection query (e.g. Qdrant's batch search)
// should implement QueryMultiple directly instead of calling this.
func QueryMultipleSequential(ctx context.Context, collectionIDs []string, text string, topK int, threshold float64, queryOne func(context.Context, string, string, int) ([]Hit, error)) map[string]CollectionResult {
	out := make(map[string]CollectionResult, len(collectionIDs))
	for _, id := range collectionIDs {
		hits, err := queryOne(ctx, id, text, topK)
		if err != nil {
			out[id] = CollectionResult{Err: err}
			continue
		}
		filtered := hits[:0:0]
		for _, h := range hits {
			if h.Score >= threshold {
				filtered = append(filtered, h)
			}
		}
		out[id] = CollectionResult{Hits: filtered}
	}
	return out
}
