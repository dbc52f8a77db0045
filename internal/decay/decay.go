// Package decay implements temporal score decay for chat-source chunks
// (spec component C): score falls off with message-age, with exponential
// or linear modes, a scene-aware age computation, and a bypass for
// chunks flagged temporallyBlind.
package decay

import (
	"math"

	"github.com/vecthare/vecthare/internal/types"
)

// EffectiveAge computes the age used by the decay multiplier. With scene
// boundaries present it resets at scene transitions (spec §4.3): a chunk
// in the current scene ages against the current message; a chunk from an
// earlier scene ages against the *current* scene's start rather than the
// raw message-id gap, so every chunk from before the last scene change
// decays by the same amount — the age of the current scene itself — no
// matter how far back its own scene began.
func EffectiveAge(currentMessageID int, chunkMessageID int, scenes *types.SceneIndex) int {
	if scenes == nil {
		return currentMessageID - chunkMessageID
	}
	currentScene, curOK := scenes.SceneFor(currentMessageID)
	chunkScene, chunkOK := scenes.SceneFor(chunkMessageID)
	switch {
	case curOK && chunkOK && currentScene.Start == chunkScene.Start:
		return currentMessageID - chunkMessageID
	case curOK && chunkOK:
		return currentMessageID - currentScene.Start
	default:
		return currentMessageID - chunkMessageID
	}
}

// Multiplier computes the decay multiplier for a given age under cfg.
// The result is always clamped to [cfg.MinRelevance, 1].
func Multiplier(cfg types.TemporalDecayConfig, age int) float64 {
	if !cfg.Enabled {
		return 1
	}
	var m float64
	switch cfg.Mode {
	case types.DecayLinear:
		rate := cfg.LinearRate
		if rate <= 0 {
			rate = 0.01
		}
		m = 1 - float64(age)*rate
	default: // exponential
		halfLife := cfg.HalfLife
		if halfLife <= 0 {
			halfLife = 20
		}
		m = math.Pow(0.5, float64(age)/halfLife)
	}
	if m < cfg.MinRelevance {
		m = cfg.MinRelevance
	}
	if m > 1 {
		m = 1
	}
	return m
}

// Apply decays one chunk and returns the updated copy. currentMessageID
// is the id of the message the query is being built from. chunkMeta may be
// nil when no per-chunk metadata is on record, in which case
// temporallyBlind defaults to false.
func Apply(cfg types.TemporalDecayConfig, currentMessageID int, scenes *types.SceneIndex, chunkMeta *types.ChunkMeta, sc types.ScoredChunk) types.ScoredChunk {
	if sc.Metadata.Source != types.ChunkSourceChat {
		return sc
	}
	if chunkMeta != nil && chunkMeta.TemporallyBlind {
		sc.TemporallyBlind = true
		return sc
	}
	if !cfg.Enabled {
		return sc
	}

	var scenes2 *types.SceneIndex
	if cfg.SceneAware {
		scenes2 = scenes
	}
	age := EffectiveAge(currentMessageID, sc.Metadata.MessageID, scenes2)
	mult := Multiplier(cfg, age)

	sc.DecayApplied = true
	sc.DecayMultiplier = mult
	sc.Score = sc.Score * mult
	return sc
}

// ApplyAndRethreshold decays every chunk in chunks and drops any whose
// post-decay score falls below threshold, except blind chunks which are
// never dropped on decay's account since their score never moved.
func ApplyAndRethreshold(cfg types.TemporalDecayConfig, currentMessageID int, scenes *types.SceneIndex, metaFor func(types.ContentHash) *types.ChunkMeta, threshold float64, chunks []types.ScoredChunk) []types.ScoredChunk {
	out := make([]types.ScoredChunk, 0, len(chunks))
	for _, sc := range chunks {
		var meta *types.ChunkMeta
		if metaFor != nil {
			meta = metaFor(sc.Hash)
		}
		decayed := Apply(cfg, currentMessageID, scenes, meta, sc)
		if decayed.DecayApplied && decayed.Score < threshold {
			continue
		}
		out = append(out, decayed)
	}
	return out
}
