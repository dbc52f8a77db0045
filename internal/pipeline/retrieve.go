package pipeline

import (
	"context"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vecthare/vecthare/internal/groups"
	"github.com/vecthare/vecthare/internal/keyword"
	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/vectorbackend"
)

// maxCollectionFanOut bounds how many collections are queried
// concurrently, independent of how many a generation event names.
const maxCollectionFanOut = 8

// queryCollections implements spec §4.8 step 4: per-collection query with
// overfetch, keyword boost, and trim to settings.insert, then group/link
// reconciliation (design note §9) before the collections are merged.
// Per-collection failures are traced and the run continues (step 4's
// "on per-collection failure, trace and continue") — the same
// submit-to-a-bounded-pool-and-wait shape the indexing fan-out in
// vvoland-cagent's vector_store.go uses, with an ants.Pool standing in
// for errgroup's own SetLimit so the pool (not the number of in-flight
// goroutines) is what's actually bounded.
func (p *Pipeline) queryCollections(ctx context.Context, collectionIDs []string, queryText string, settings types.Settings, trace *traceCollector) []types.ScoredChunk {
	client, err := p.deps.Backend(settings.VectorBackend)
	if err != nil {
		logStage(ctx, "error", "retrieve", "backend_resolve_failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	if len(collectionIDs) == 0 {
		return nil
	}

	poolSize := len(collectionIDs)
	if poolSize > maxCollectionFanOut {
		poolSize = maxCollectionFanOut
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		logStage(ctx, "warn", "retrieve", "pool_create_failed", map[string]interface{}{"error": err.Error()})
		return p.queryCollectionsSequential(ctx, client, collectionIDs, queryText, settings, trace)
	}
	defer pool.Release()

	results := make([][]types.ScoredChunk, len(collectionIDs))
	g, gctx := errgroup.WithContext(ctx)

	for i, collectionID := range collectionIDs {
		i, collectionID := i, collectionID
		g.Go(func() error {
			done := make(chan struct{})
			submitErr := pool.Submit(func() {
				defer close(done)
				results[i] = p.queryOneCollection(gctx, client, collectionID, queryText, settings, trace)
			})
			if submitErr != nil {
				return submitErr
			}
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		logStage(ctx, "warn", "retrieve", "fan_out_failed", map[string]interface{}{"error": err.Error()})
	}

	var all []types.ScoredChunk
	for _, chunks := range results {
		all = append(all, chunks...)
	}
	return all
}

// queryCollectionsSequential is the fallback path when the pool fails to
// construct (pool size <= 0 never happens here, but ants.NewPool can
// still fail on resource exhaustion).
func (p *Pipeline) queryCollectionsSequential(ctx context.Context, client vectorbackend.Client, collectionIDs []string, queryText string, settings types.Settings, trace *traceCollector) []types.ScoredChunk {
	var all []types.ScoredChunk
	for _, collectionID := range collectionIDs {
		all = append(all, p.queryOneCollection(ctx, client, collectionID, queryText, settings, trace)...)
	}
	return all
}

// queryOneCollection runs the overfetch query, keyword boost, group/link
// reconciliation, and trim-to-insert for a single collection. A query
// failure is traced and yields no chunks rather than aborting the run.
func (p *Pipeline) queryOneCollection(ctx context.Context, client vectorbackend.Client, collectionID, queryText string, settings types.Settings, trace *traceCollector) []types.ScoredChunk {
	overfetch := keyword.Overfetch(settings.Insert)

	hits, err := client.Query(ctx, collectionID, queryText, overfetch)
	if err != nil {
		logStage(ctx, "warn", "retrieve", "collection_query_failed", map[string]interface{}{
			"collection": collectionID, "error": err.Error(),
		})
		trace.info("collection_query_failed", collectionID+": "+err.Error())
		return nil
	}

	chunks := make([]types.ScoredChunk, len(hits))
	for i, h := range hits {
		sc := types.ScoredChunk{
			Hash: h.Hash, Text: h.Text, Metadata: h.Metadata,
			CollectionID:  collectionID,
			OriginalScore: h.Score, Score: h.Score,
		}
		chunks[i] = keyword.ApplyToChunk(queryText, sc)
	}

	fetch := newLazyFetcher(ctx, client, collectionID)

	meta, ok, err := p.deps.Registry.Meta(ctx, types.RegistryKey{CollectionID: mustParseCollectionID(collectionID)})
	if err == nil && ok && len(meta.Groups) > 0 {
		chunks = groups.Join(chunks, meta.Groups, fetch)
	}
	if p.deps.LinkStore != nil {
		linked, err := groups.ApplyLinks(ctx, p.deps.LinkStore, chunks, fetch)
		if err == nil {
			chunks = linked
		}
	}

	sortByScoreDesc(chunks)
	if len(chunks) > settings.Insert && settings.Insert > 0 {
		chunks = chunks[:settings.Insert]
	}
	return chunks
}

// newLazyFetcher builds a groups.ChunkFetcher backed by a lazily-loaded,
// per-collection listing. Group mandatory members and hard-linked chunks
// are occasionally outside the overfetch window, and G's capability
// surface (spec §4.7) has no single-hash lookup, so the fallback is one
// full ListHashesWithMetadata call, loaded at most once and cached for
// the rest of this collection's processing.
func newLazyFetcher(ctx context.Context, client vectorbackend.Client, collectionID string) func(types.ContentHash) (types.ScoredChunk, bool) {
	var loaded bool
	var byHash map[types.ContentHash]types.ScoredChunk

	return func(hash types.ContentHash) (types.ScoredChunk, bool) {
		if !loaded {
			loaded = true
			byHash = map[types.ContentHash]types.ScoredChunk{}
			hits, err := client.ListHashesWithMetadata(ctx, collectionID)
			if err == nil {
				for _, h := range hits {
					byHash[h.Hash] = types.ScoredChunk{
						Hash: h.Hash, Text: h.Text, Metadata: h.Metadata,
						CollectionID: collectionID, OriginalScore: h.Score, Score: h.Score,
					}
				}
			}
		}
		sc, ok := byHash[hash]
		return sc, ok
	}
}

func sortByScoreDesc(chunks []types.ScoredChunk) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j].Score > chunks[j-1].Score; j-- {
			chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
		}
	}
}

func mustParseCollectionID(raw string) types.CollectionID {
	cid, err := types.ParseCollectionID(raw)
	if err != nil {
		return types.CollectionID{Type: types.CollectionTypeChat, SourceID: raw}
	}
	return cid
}
