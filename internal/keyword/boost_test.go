package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/types"
)

func TestOverfetchClamps(t *testing.T) {
	cases := []struct {
		k    int
		want int
	}{
		{k: 1, want: OverfetchFloor},
		{k: 5, want: OverfetchFloor},
		{k: 10, want: 20},
		{k: 40, want: 80},
		{k: 60, want: OverfetchCeil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Overfetch(c.k), "k=%d", c.k)
	}
}

func TestMatchNoKeywordsIsNeutral(t *testing.T) {
	boost, matched := Match("anything", nil)
	assert.Equal(t, 1.0, boost)
	assert.Empty(t, matched)
}

func TestMatchIsAdditiveAcrossMultipleKeywords(t *testing.T) {
	kws := []types.Keyword{
		{Text: "dragon", Weight: 2.0},
		{Text: "sword", Weight: 1.5},
	}
	boost, matched := Match("the dragon wields a sword", kws)
	// 1 + (2-1) + (1.5-1) = 2.5
	assert.InDelta(t, 2.5, boost, 1e-9)
	require.Len(t, matched, 2)
}

func TestBoostCompositionLaw(t *testing.T) {
	pair := make([]types.Keyword, 2)
	for i := range pair {
		pair[i] = types.Keyword{Text: "kw" + string(rune('a'+i)), Weight: 1.5}
	}
	boost, _ := Match("kwa kwb", pair)
	assert.InDelta(t, 2.0, boost, 1e-9)

	seven := make([]types.Keyword, 7)
	query := ""
	for i := range seven {
		text := "term" + string(rune('a'+i))
		seven[i] = types.Keyword{Text: text, Weight: 1.5}
		query += text + " "
	}
	boost, matched := Match(query, seven)
	assert.InDelta(t, 4.5, boost, 1e-9)
	assert.Len(t, matched, 7)
}

func TestMatchIsCaseInsensitiveSubstring(t *testing.T) {
	kws := []types.Keyword{{Text: "Dragon", Weight: 2.0}}
	boost, matched := Match("a DRAGONFLY flew by", kws)
	assert.InDelta(t, 2.0, boost, 1e-9)
	assert.Len(t, matched, 1)
}

func TestApplyToChunkPopulatesTraceFields(t *testing.T) {
	sc := types.ScoredChunk{
		OriginalScore: 0.8,
		Metadata: types.ChunkMetadata{
			Keywords: []types.Keyword{{Text: "castle", Weight: 3.0}},
		},
	}
	out := ApplyToChunk("a castle on the hill", sc)
	assert.True(t, out.KeywordBoosted)
	assert.InDelta(t, 3.0, out.KeywordBoost, 1e-9)
	assert.InDelta(t, 2.4, out.Score, 1e-9)
	assert.Equal(t, []string{"castle"}, out.MatchedKeywords)
}

func TestApplyToChunkNoMatchLeavesScoreUnboosted(t *testing.T) {
	sc := types.ScoredChunk{
		OriginalScore: 0.5,
		Metadata:      types.ChunkMetadata{Keywords: []types.Keyword{{Text: "nope", Weight: 5}}},
	}
	out := ApplyToChunk("totally unrelated text", sc)
	assert.False(t, out.KeywordBoosted)
	assert.InDelta(t, 0.5, out.Score, 1e-9)
}
