package groups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/types"
)

func TestSoftBoostsAccumulatesWeightOneHop(t *testing.T) {
	store := NewInMemoryLinkStore(map[types.ContentHash]types.ChunkMeta{
		1: {Links: []types.ChunkLink{
			{Target: 2, Type: types.LinkSoft, Weight: 0.3},
			{Target: 3, Type: types.LinkHard, Weight: 1}, // ignored by SoftBoosts
		}},
	})
	boosts, err := SoftBoosts(context.Background(), store, []types.ContentHash{1})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, boosts[2], 1e-9)
	assert.NotContains(t, boosts, types.ContentHash(3))
}

func TestSoftBoostsDoesNotWalkPastDepthLimit(t *testing.T) {
	store := NewInMemoryLinkStore(map[types.ContentHash]types.ChunkMeta{
		1: {Links: []types.ChunkLink{{Target: 2, Type: types.LinkSoft, Weight: 0.2}}},
		2: {Links: []types.ChunkLink{{Target: 3, Type: types.LinkSoft, Weight: 0.2}}},
	})
	boosts, err := SoftBoosts(context.Background(), store, []types.ContentHash{1})
	require.NoError(t, err)
	assert.Contains(t, boosts, types.ContentHash(2))
	assert.NotContains(t, boosts, types.ContentHash(3), "soft boost depth is bounded to 1 hop")
}

func TestForceIncludesFollowsHardLinkChain(t *testing.T) {
	store := NewInMemoryLinkStore(map[types.ContentHash]types.ChunkMeta{
		1: {Links: []types.ChunkLink{{Target: 2, Type: types.LinkHard, Weight: 1}}},
		2: {Links: []types.ChunkLink{{Target: 3, Type: types.LinkHard, Weight: 1}}},
	})
	forced, err := ForceIncludes(context.Background(), store, []types.ContentHash{1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.ContentHash{2, 3}, forced)
}

func TestForceIncludesTerminatesOnCycle(t *testing.T) {
	store := NewInMemoryLinkStore(map[types.ContentHash]types.ChunkMeta{
		1: {Links: []types.ChunkLink{{Target: 2, Type: types.LinkHard, Weight: 1}}},
		2: {Links: []types.ChunkLink{{Target: 1, Type: types.LinkHard, Weight: 1}}},
	})

	forced, err := ForceIncludes(context.Background(), store, []types.ContentHash{1})
	require.NoError(t, err)
	assert.Equal(t, []types.ContentHash{2}, forced, "the visited set stops the walk from cycling back through 1")
}

func TestApplyLinksForceIncludesAbsentHardLinkedChunk(t *testing.T) {
	store := NewInMemoryLinkStore(map[types.ContentHash]types.ChunkMeta{
		1: {Links: []types.ChunkLink{{Target: 2, Type: types.LinkHard, Weight: 1}}},
	})
	fetch := func(h types.ContentHash) (types.ScoredChunk, bool) {
		if h == 2 {
			return chunk(2, 0.2), true
		}
		return types.ScoredChunk{}, false
	}
	out, err := ApplyLinks(context.Background(), store, []types.ScoredChunk{chunk(1, 0.9)}, fetch)
	require.NoError(t, err)

	hashes := map[types.ContentHash]bool{}
	for _, sc := range out {
		hashes[sc.Hash] = true
	}
	assert.True(t, hashes[2])
}

func TestApplyLinksNilStoreIsNoop(t *testing.T) {
	results := []types.ScoredChunk{chunk(1, 0.5)}
	out, err := ApplyLinks(context.Background(), nil, results, nil)
	require.NoError(t, err)
	assert.Equal(t, results, out)
}
