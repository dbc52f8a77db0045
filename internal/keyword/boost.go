// Package keyword implements the additive keyword-boost transform (spec
// component B): matching a chunk's attached keyword list against the
// query text and rescoring accordingly.
package keyword

import (
	"strings"

	"github.com/vecthare/vecthare/internal/types"
)

// OverfetchFloor and OverfetchCeil bound the backend overfetch: the
// backend is asked for clamp(2*k, floor, ceil) neighbors so there's
// enough headroom for boosting and trimming to reorder the top k without
// querying for an unbounded amount of data.
const (
	OverfetchFloor = 10
	OverfetchCeil  = 100
)

// Overfetch returns the backend query size for a requested top-k.
func Overfetch(k int) int {
	n := 2 * k
	if n < OverfetchFloor {
		return OverfetchFloor
	}
	if n > OverfetchCeil {
		return OverfetchCeil
	}
	return n
}

// Match reports the additive boost a chunk's keyword list produces
// against query, plus the matched keywords themselves. Matching is
// substring containment against the lowercased query (spec §4.2).
//
//	boost = 1 + Σ_{k∈M} (k.weight − 1)
func Match(query string, keywords []types.Keyword) (boost float64, matched []types.Keyword) {
	if len(keywords) == 0 {
		return 1, nil
	}
	lowerQuery := strings.ToLower(query)
	boost = 1
	for _, kw := range keywords {
		if kw.Text == "" {
			continue
		}
		if strings.Contains(lowerQuery, strings.ToLower(kw.Text)) {
			matched = append(matched, kw)
			boost += kw.Weight - 1
		}
	}
	return boost, matched
}

// Apply rescales originalScore by the boost implied by keywords matching
// query, returning the new score alongside the boost factor and matched
// set so callers can populate the ScoredChunk trace fields.
func Apply(query string, originalScore float64, keywords []types.Keyword) (score, boost float64, matched []types.Keyword) {
	boost, matched = Match(query, keywords)
	return originalScore * boost, boost, matched
}

// ApplyToChunk mutates a copy of sc with the boost applied and the trace
// fields (keywordBoost, matchedKeywords, matchedKeywordsWithWeights,
// keywordBoosted) populated, per spec §4.2.
func ApplyToChunk(query string, sc types.ScoredChunk) types.ScoredChunk {
	score, boost, matched := Apply(query, sc.OriginalScore, types.NormalizeKeywords(sc.Metadata.Keywords))
	sc.Score = score
	sc.KeywordBoost = boost
	sc.KeywordBoosted = len(matched) > 0
	sc.MatchedKeywordsWithWeights = matched
	sc.MatchedKeywords = make([]string, len(matched))
	for i, k := range matched {
		sc.MatchedKeywords[i] = k.Text
	}
	return sc
}
