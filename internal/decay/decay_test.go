package decay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vecthare/vecthare/internal/types"
)

func TestMultiplierDisabledIsNoop(t *testing.T) {
	cfg := types.TemporalDecayConfig{Enabled: false}
	assert.Equal(t, 1.0, Multiplier(cfg, 100))
}

func TestMultiplierExponentialHalfLife(t *testing.T) {
	cfg := types.TemporalDecayConfig{Enabled: true, Mode: types.DecayExponential, HalfLife: 20, MinRelevance: 0}
	assert.InDelta(t, 1.0, Multiplier(cfg, 0), 1e-9)
	assert.InDelta(t, 0.5, Multiplier(cfg, 20), 1e-9)
	assert.InDelta(t, 0.25, Multiplier(cfg, 40), 1e-9)
}

func TestMultiplierLinear(t *testing.T) {
	cfg := types.TemporalDecayConfig{Enabled: true, Mode: types.DecayLinear, LinearRate: 0.1, MinRelevance: 0}
	assert.InDelta(t, 0.5, Multiplier(cfg, 5), 1e-9)
}

func TestMultiplierNeverBelowMinRelevance(t *testing.T) {
	cfg := types.TemporalDecayConfig{Enabled: true, Mode: types.DecayExponential, HalfLife: 1, MinRelevance: 0.3}
	assert.Equal(t, 0.3, Multiplier(cfg, 1000))
}

func TestEffectiveAgeWithoutScenesIsRawGap(t *testing.T) {
	assert.Equal(t, 10, EffectiveAge(50, 40, nil))
}

func TestEffectiveAgeSameSceneIsRawGap(t *testing.T) {
	scenes := types.NewSceneIndex([]types.Scene{{Start: 10, End: 100}})
	assert.Equal(t, 5, EffectiveAge(50, 45, scenes))
}

func TestEffectiveAgeDifferentSceneResetsToSceneStart(t *testing.T) {
	scenes := types.NewSceneIndex([]types.Scene{
		{Start: 0, End: 9},
		{Start: 10, End: 100},
	})
	// current at 50 (scene 2, start 10), chunk at 5 (scene 1): age relative
	// to the current scene's start, not the chunk's own scene or the raw gap.
	assert.Equal(t, 50-10, EffectiveAge(50, 5, scenes))
}

func TestApplySkipsNonChatChunks(t *testing.T) {
	cfg := types.TemporalDecayConfig{Enabled: true, Mode: types.DecayExponential, HalfLife: 5, MinRelevance: 0}
	sc := types.ScoredChunk{Score: 1, Metadata: types.ChunkMetadata{Source: types.ChunkSourceLorebook}}
	out := Apply(cfg, 100, nil, nil, sc)
	assert.False(t, out.DecayApplied)
	assert.Equal(t, 1.0, out.Score)
}

func TestApplyBypassesBlindChunks(t *testing.T) {
	cfg := types.TemporalDecayConfig{Enabled: true, Mode: types.DecayExponential, HalfLife: 5, MinRelevance: 0}
	sc := types.ScoredChunk{Score: 0.9, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat, MessageID: 0}}
	meta := &types.ChunkMeta{TemporallyBlind: true}
	out := Apply(cfg, 100, nil, meta, sc)
	assert.True(t, out.TemporallyBlind)
	assert.False(t, out.DecayApplied)
	assert.Equal(t, 0.9, out.Score)
}

func TestSceneAwareDecayAtBoundary(t *testing.T) {
	// current msgId=40 (scene 2, start=21); chunk msgId=10 (scene 1).
	// effectiveAge = 40-21 = 19; multiplier = max(0.5^(19/10), 0.3) = max(0.267, 0.3) = 0.3.
	scenes := types.NewSceneIndex([]types.Scene{
		{Start: 0, End: 20},
		{Start: 21, End: 1 << 30},
	})
	cfg := types.TemporalDecayConfig{
		Enabled: true, Mode: types.DecayExponential, HalfLife: 10, MinRelevance: 0.3, SceneAware: true,
	}
	age := EffectiveAge(40, 10, scenes)
	assert.Equal(t, 19, age)
	mult := Multiplier(cfg, age)
	assert.InDelta(t, 0.3, mult, 1e-3)

	sc := types.ScoredChunk{Score: 0.8, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat, MessageID: 10}}
	out := Apply(cfg, 40, scenes, nil, sc)
	assert.InDelta(t, 0.24, out.Score, 1e-3)

	kept := ApplyAndRethreshold(cfg, 40, scenes, nil, 0.25, []types.ScoredChunk{sc})
	assert.Empty(t, kept, "0.24 fails a 0.25 threshold")
}

func TestApplyAndRethresholdDropsBelowThreshold(t *testing.T) {
	cfg := types.TemporalDecayConfig{Enabled: true, Mode: types.DecayExponential, HalfLife: 1, MinRelevance: 0}
	chunks := []types.ScoredChunk{
		{Hash: 1, Score: 1.0, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat, MessageID: 0}},
		{Hash: 2, Score: 1.0, Metadata: types.ChunkMetadata{Source: types.ChunkSourceChat, MessageID: 100}},
	}
	out := ApplyAndRethreshold(cfg, 100, nil, nil, 0.1, chunks)
	// hash 1 ages 100 half-lives -> effectively 0, dropped; hash 2 ages 0 -> stays at 1.0
	assert := assert.New(t)
	assert.Len(out, 1)
	assert.Equal(types.ContentHash(2), out[0].Hash)
}
