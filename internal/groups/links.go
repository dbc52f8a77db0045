package groups

import (
	"context"

	"github.com/vecthare/vecthare/internal/types"
)

// LinkStore resolves the outgoing edges of a chunk-link graph
// (sourceHash -> [{target, type, weight}], design note §9). The graph may
// be cyclic (A soft-linked to B and back), so traversal must be
// visited-set bounded rather than assuming a DAG.
type LinkStore interface {
	Links(ctx context.Context, source types.ContentHash) ([]types.ChunkLink, error)
}

// InMemoryLinkStore is the default LinkStore, keyed directly off the
// already-loaded ChunkMeta.Links field — no separate storage round trip
// for the common case where links travel with the chunk's own metadata.
type InMemoryLinkStore struct {
	edges map[types.ContentHash][]types.ChunkLink
}

// NewInMemoryLinkStore builds a store from a hash -> ChunkMeta map,
// pulling each entry's Links field.
func NewInMemoryLinkStore(metaByHash map[types.ContentHash]types.ChunkMeta) *InMemoryLinkStore {
	edges := make(map[types.ContentHash][]types.ChunkLink, len(metaByHash))
	for h, m := range metaByHash {
		if len(m.Links) > 0 {
			edges[h] = m.Links
		}
	}
	return &InMemoryLinkStore{edges: edges}
}

func (s *InMemoryLinkStore) Links(_ context.Context, source types.ContentHash) ([]types.ChunkLink, error) {
	return s.edges[source], nil
}

// SoftBoostDepth is the BFS depth limit for soft-link score boosts — one
// hop is sufficient per design note §9 ("1 is sufficient for soft
// boosts").
const SoftBoostDepth = 1

// SoftBoosts walks soft links up to SoftBoostDepth hops from each seed hash
// already present in the result set, returning an additive boost per
// target hash (the sum of the weights of every soft edge reaching it
// within that depth).
func SoftBoosts(ctx context.Context, store LinkStore, seeds []types.ContentHash) (map[types.ContentHash]float64, error) {
	boosts := make(map[types.ContentHash]float64)
	seen := make(map[types.ContentHash]bool, len(seeds))
	for _, h := range seeds {
		seen[h] = true
	}

	frontier := append([]types.ContentHash(nil), seeds...)
	for depth := 0; depth < SoftBoostDepth; depth++ {
		var next []types.ContentHash
		for _, h := range frontier {
			links, err := store.Links(ctx, h)
			if err != nil {
				return nil, err
			}
			for _, l := range links {
				if l.Type != types.LinkSoft {
					continue
				}
				boosts[l.Target] += l.Weight
				if !seen[l.Target] {
					seen[l.Target] = true
					next = append(next, l.Target)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return boosts, nil
}

// ForceIncludes walks hard links from each seed hash with a visited-set
// guard, so a hard-link cycle (A->B->A) terminates instead of looping, and
// returns the full set of hashes that must be force-included in the
// result set regardless of score.
func ForceIncludes(ctx context.Context, store LinkStore, seeds []types.ContentHash) ([]types.ContentHash, error) {
	visited := make(map[types.ContentHash]bool, len(seeds))
	for _, h := range seeds {
		visited[h] = true
	}

	var out []types.ContentHash
	queue := append([]types.ContentHash(nil), seeds...)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		links, err := store.Links(ctx, h)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if l.Type != types.LinkHard {
				continue
			}
			if visited[l.Target] {
				continue
			}
			visited[l.Target] = true
			out = append(out, l.Target)
			queue = append(queue, l.Target)
		}
	}
	return out, nil
}

// ApplyLinks boosts present chunks via SoftBoosts and force-includes any
// hard-linked chunk absent from results, fetching it via fetch. This runs
// after Join so group reconciliation and link boosting compose rather
// than race each other over the same result set.
func ApplyLinks(ctx context.Context, store LinkStore, results []types.ScoredChunk, fetch ChunkFetcher) ([]types.ScoredChunk, error) {
	if store == nil {
		return results, nil
	}

	byHash := make(map[types.ContentHash]types.ScoredChunk, len(results))
	order := make([]types.ContentHash, 0, len(results))
	seeds := make([]types.ContentHash, 0, len(results))
	for _, sc := range results {
		if _, exists := byHash[sc.Hash]; !exists {
			order = append(order, sc.Hash)
			seeds = append(seeds, sc.Hash)
		}
		byHash[sc.Hash] = sc
	}

	boosts, err := SoftBoosts(ctx, store, seeds)
	if err != nil {
		return nil, err
	}
	for h, b := range boosts {
		if sc, ok := byHash[h]; ok {
			sc.Score += b
			byHash[h] = sc
		}
	}

	forced, err := ForceIncludes(ctx, store, seeds)
	if err != nil {
		return nil, err
	}
	for _, h := range forced {
		if _, ok := byHash[h]; ok {
			continue
		}
		if fetch == nil {
			continue
		}
		sc, ok := fetch(h)
		if !ok {
			continue
		}
		byHash[h] = sc
		order = append(order, h)
	}

	out := make([]types.ScoredChunk, 0, len(order))
	for _, h := range order {
		out = append(out, byHash[h])
	}
	return out, nil
}
