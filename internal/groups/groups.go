// Package groups implements the chunk-group join and chunk-link graph
// design note from spec §9: inclusive/exclusive group reconciliation as
// three sequential passes over a scored result set, and a depth-bounded
// BFS over the (possibly cyclic) chunk-link graph for soft boosts and
// hard force-includes.
package groups

import (
	"github.com/vecthare/vecthare/internal/types"
)

// ChunkFetcher resolves a hash to a ScoredChunk when a group's mandatory
// member must be force-included but isn't already present in the result
// set — e.g. because it scored below the backend's overfetch cutoff.
type ChunkFetcher func(hash types.ContentHash) (types.ScoredChunk, bool)

// Join runs the three-pass group reconciliation from spec §9 over
// results, given the collection's configured groups:
//
//  1. expand inclusive groups into virtual boost edges — any group
//     member present in results has its score boosted once per group it
//     belongs to whose other members are also present.
//  2. collapse exclusive groups to their best-scoring present member.
//  3. force-include each exclusive group's mandatory member if absent.
func Join(results []types.ScoredChunk, groupList []types.ChunkGroup, fetch ChunkFetcher) []types.ScoredChunk {
	byHash := make(map[types.ContentHash]types.ScoredChunk, len(results))
	order := make([]types.ContentHash, 0, len(results))
	for _, sc := range results {
		if _, exists := byHash[sc.Hash]; !exists {
			order = append(order, sc.Hash)
		}
		byHash[sc.Hash] = sc
	}

	expandInclusive(byHash, groupList)
	dropped := collapseExclusive(byHash, groupList)
	forceIncludeMandatory(byHash, &order, groupList, dropped, fetch)

	out := make([]types.ScoredChunk, 0, len(order))
	for _, h := range order {
		if dropped[h] {
			continue
		}
		if sc, ok := byHash[h]; ok {
			out = append(out, sc)
		}
	}
	return out
}

// expandInclusive boosts every present member of an inclusive group by
// (1 + group.BoostWeight) whenever at least one other member of the same
// group is also present — the group acting as a corroborating signal.
func expandInclusive(byHash map[types.ContentHash]types.ScoredChunk, groupList []types.ChunkGroup) {
	for _, g := range groupList {
		if g.Strategy != types.GroupInclusive {
			continue
		}
		present := 0
		for _, h := range g.MemberHashes {
			if _, ok := byHash[h]; ok {
				present++
			}
		}
		if present < 2 {
			continue
		}
		boost := 1 + g.BoostWeight
		for _, h := range g.MemberHashes {
			sc, ok := byHash[h]
			if !ok {
				continue
			}
			sc.Score *= boost
			byHash[h] = sc
		}
	}
}

// collapseExclusive keeps only the best-scoring present member of each
// exclusive group, returning the set of hashes dropped.
func collapseExclusive(byHash map[types.ContentHash]types.ScoredChunk, groupList []types.ChunkGroup) map[types.ContentHash]bool {
	dropped := make(map[types.ContentHash]bool)
	for _, g := range groupList {
		if g.Strategy != types.GroupExclusive {
			continue
		}
		var best types.ContentHash
		bestScore := -1.0
		found := false
		for _, h := range g.MemberHashes {
			sc, ok := byHash[h]
			if !ok {
				continue
			}
			if !found || sc.Score > bestScore {
				best, bestScore, found = h, sc.Score, true
			}
		}
		if !found {
			continue
		}
		for _, h := range g.MemberHashes {
			if h != best {
				dropped[h] = true
			}
		}
	}
	return dropped
}

// forceIncludeMandatory ensures each exclusive group's mandatory member
// is present (and not dropped) in the result set, fetching it via fetch
// if it wasn't already among results.
func forceIncludeMandatory(byHash map[types.ContentHash]types.ScoredChunk, order *[]types.ContentHash, groupList []types.ChunkGroup, dropped map[types.ContentHash]bool, fetch ChunkFetcher) {
	for _, g := range groupList {
		if g.Strategy != types.GroupExclusive || g.MandatoryHash == 0 {
			continue
		}
		h := g.MandatoryHash
		if dropped[h] {
			delete(dropped, h) // mandatory wins over exclusive collapse
		}
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
		*order = append(*order, h)
	}
}
