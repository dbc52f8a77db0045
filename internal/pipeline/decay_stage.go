package pipeline

import (
	"context"

	"github.com/vecthare/vecthare/internal/decay"
	"github.com/vecthare/vecthare/internal/types"
)

// applyDecay implements spec §4.8 step 8: temporal decay per §4.3,
// scene-aware when the collection's config asks for it and scene chunks
// are present, followed by a re-threshold. Decay config is per
// collection (CollectionMeta.TemporalDecay), so each chunk looks up its
// own collection's config rather than assuming one global policy, since
// the merged pool at this point can span collections with different
// configs.
func (p *Pipeline) applyDecay(ctx context.Context, req Request, chunks []types.ScoredChunk, trace *traceCollector) []types.ScoredChunk {
	configFor := p.decayConfigLookup(ctx)
	metaFor := func(hash types.ContentHash) *types.ChunkMeta {
		meta, ok, err := p.deps.Registry.Store().GetChunkMeta(ctx, hash)
		if err != nil || !ok {
			return nil
		}
		return &meta
	}

	byCollection := map[string][]types.ScoredChunk{}
	order := make([]string, 0)
	for _, sc := range chunks {
		if _, ok := byCollection[sc.CollectionID]; !ok {
			order = append(order, sc.CollectionID)
		}
		byCollection[sc.CollectionID] = append(byCollection[sc.CollectionID], sc)
	}

	var out []types.ScoredChunk
	for _, collectionID := range order {
		group := byCollection[collectionID]
		cfg := configFor(collectionID)
		if !cfg.Enabled {
			out = append(out, group...)
			continue
		}
		decayed := make([]types.ScoredChunk, len(group))
		for i, sc := range group {
			meta := metaFor(sc.Hash)
			decayed[i] = decay.Apply(cfg, req.SearchContext.CurrentMessageID, req.Scenes, meta, sc)
		}
		kept := decay.ApplyAndRethreshold(cfg, req.SearchContext.CurrentMessageID, req.Scenes, metaFor, req.Settings.ScoreThreshold, group)

		keptSet := make(map[types.ContentHash]bool, len(kept))
		for _, sc := range kept {
			keptSet[sc.Hash] = true
		}
		for _, sc := range decayed {
			if !keptSet[sc.Hash] {
				trace.fate(sc.Hash, "decay", types.VerdictDropped, "below threshold after decay", map[string]interface{}{"score": sc.Score})
			}
		}
		out = append(out, kept...)
	}
	return out
}

// decayConfigLookup caches per-collection TemporalDecayConfig lookups for
// the lifetime of one pipeline run.
func (p *Pipeline) decayConfigLookup(ctx context.Context) func(collectionID string) types.TemporalDecayConfig {
	cache := map[string]types.TemporalDecayConfig{}
	return func(collectionID string) types.TemporalDecayConfig {
		if cfg, ok := cache[collectionID]; ok {
			return cfg
		}
		cid := mustParseCollectionID(collectionID)
		meta, ok, err := p.deps.Registry.Meta(ctx, types.RegistryKey{CollectionID: cid})
		cfg := types.DefaultTemporalDecayConfig(types.ChunkSourceChat)
		if err == nil && ok {
			cfg = meta.TemporalDecay
		}
		cache[collectionID] = cfg
		return cfg
	}
}
