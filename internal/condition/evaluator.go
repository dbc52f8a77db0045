// Package condition evaluates the rule-tree used both at the collection
// level (activation's fallback path) and the chunk level (per-chunk
// conditional filtering): spec component D.
package condition

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/vecthare/vecthare/internal/types"
)

// Context bundles the SearchContext with evaluation-only state the
// chunkActive rule needs: the other chunks already accepted into the
// current result set, keyed by hash, so "another chunk is in the result
// set" can be resolved by section/topic as well as raw hash.
type Context struct {
	Search         types.SearchContext
	ActiveChunks   map[types.ContentHash]types.ChunkMetadata
}

// Evaluate runs a full ConditionTree. A disabled or empty-rule tree is
// vacuously true (spec §4.5 step 4/5: no conditions means fall through to
// include).
func Evaluate(tree types.ConditionTree, ctx Context) bool {
	if !tree.Enabled || len(tree.Rules) == 0 {
		return true
	}
	switch tree.Logic {
	case types.LogicOr:
		for _, r := range tree.Rules {
			if evaluateRule(r, ctx) {
				return true
			}
		}
		return false
	default: // AND
		for _, r := range tree.Rules {
			if !evaluateRule(r, ctx) {
				return false
			}
		}
		return true
	}
}

func evaluateRule(rule types.ConditionRule, ctx Context) bool {
	result := evaluateRuleBody(rule, ctx)
	if rule.Negate {
		return !result
	}
	return result
}

func evaluateRuleBody(rule types.ConditionRule, ctx Context) bool {
	switch rule.Type {
	case types.RuleKeyword:
		return evalKeyword(rule, ctx)
	case types.RuleSpeaker:
		return evalSpeaker(rule, ctx)
	case types.RuleCharacterPresent:
		return evalCharacterPresent(rule, ctx)
	case types.RuleMessageCount:
		return evalMessageCount(rule, ctx)
	case types.RuleEmotion:
		return evalEmotion(rule, ctx)
	case types.RuleIsGroupChat:
		return evalIsGroupChat(rule, ctx)
	case types.RuleGenerationType:
		return evalGenerationType(rule, ctx)
	case types.RuleLorebookActive:
		return evalLorebookActive(rule, ctx)
	case types.RuleSwipeCount:
		return evalSwipeCount(rule, ctx)
	case types.RuleTimeOfDay:
		return evalTimeOfDay(rule, ctx)
	case types.RuleRandomChance:
		return evalRandomChance(rule)
	case types.RuleChunkActive:
		return evalChunkActive(rule, ctx)
	default:
		return false
	}
}

func matchOne(value, candidate string, mode types.MatchMode, caseSensitive bool) bool {
	v, c := value, candidate
	if !caseSensitive {
		v, c = strings.ToLower(v), strings.ToLower(c)
	}
	if strings.HasPrefix(v, "/") && strings.HasSuffix(v, "/") && len(v) > 1 {
		re, err := regexp.Compile(v[1 : len(v)-1])
		if err != nil {
			return false
		}
		return re.MatchString(candidate)
	}
	switch mode {
	case types.MatchExact:
		return wholeWordMatch(c, v)
	case types.MatchStartsWith:
		return strings.HasPrefix(c, v)
	case types.MatchEndsWith:
		return strings.HasSuffix(c, v)
	default:
		return strings.Contains(c, v)
	}
}

func wholeWordMatch(text, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(text)
}

func evalKeyword(rule types.ConditionRule, ctx Context) bool {
	var s types.KeywordRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	window := strings.Join(ctx.Search.RecentMessages, "\n")
	for _, v := range s.Values {
		if matchOne(v, window, s.MatchMode, s.CaseSensitive) {
			return true
		}
	}
	return false
}

func evalSpeaker(rule types.ConditionRule, ctx Context) bool {
	var s types.SpeakerRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	speakers := ctx.Search.MessageSpeakers
	if len(speakers) == 0 && ctx.Search.LastSpeaker != "" {
		speakers = []string{ctx.Search.LastSpeaker}
	}
	set := make(map[string]bool, len(s.Values))
	for _, v := range s.Values {
		set[v] = true
	}
	if s.MatchType == types.MatchAll {
		for _, sp := range speakers {
			if !set[sp] {
				return false
			}
		}
		return len(speakers) > 0
	}
	for _, sp := range speakers {
		if set[sp] {
			return true
		}
	}
	return false
}

func evalCharacterPresent(rule types.ConditionRule, ctx Context) bool {
	var s types.CharacterPresentRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	for _, sp := range ctx.Search.MessageSpeakers {
		if sp == s.Character {
			return true
		}
	}
	return false
}

func compareCount(count int, s types.MessageCountRuleSettings) bool {
	switch s.Operator {
	case types.OpGTE:
		return count >= s.Count
	case types.OpLTE:
		return count <= s.Count
	case types.OpBetween:
		return count >= s.Count && count <= s.UpperBound
	default: // eq
		return count == s.Count
	}
}

func evalMessageCount(rule types.ConditionRule, ctx Context) bool {
	var s types.MessageCountRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	return compareCount(ctx.Search.MessageCount, s)
}

func evalSwipeCount(rule types.ConditionRule, ctx Context) bool {
	var s types.MessageCountRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	return compareCount(ctx.Search.SwipeCount, s)
}

func evalEmotion(rule types.ConditionRule, ctx Context) bool {
	var s types.EmotionRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	character := s.Character
	if character == "" {
		character = ctx.Search.CurrentCharacter
	}
	if s.DetectionMethod != types.DetectionKeywords && ctx.Search.CharacterExpressions != nil {
		if expr, ok := ctx.Search.CharacterExpressions[character]; ok {
			for _, v := range s.Values {
				if strings.EqualFold(expr, v) {
					return true
				}
			}
			return false
		}
	}
	window := strings.ToLower(strings.Join(ctx.Search.RecentMessages, "\n"))
	for _, label := range s.Values {
		for _, kw := range emotionLexicon[strings.ToLower(label)] {
			if strings.Contains(window, kw) {
				return true
			}
		}
	}
	return false
}

func evalIsGroupChat(rule types.ConditionRule, ctx Context) bool {
	var s types.IsGroupChatRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	return ctx.Search.IsGroupChat == s.Value
}

func evalGenerationType(rule types.ConditionRule, ctx Context) bool {
	var s types.GenerationTypeRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	for _, v := range s.Values {
		if v == ctx.Search.GenerationType {
			return true
		}
	}
	return false
}

func evalLorebookActive(rule types.ConditionRule, ctx Context) bool {
	var s types.LorebookActiveRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	matches := func(v string) bool {
		for _, e := range ctx.Search.ActiveLorebookEntries {
			if e.Key == v || e.UID == v {
				return true
			}
		}
		return false
	}
	if s.MatchType == types.MatchAll {
		for _, v := range s.Values {
			if !matches(v) {
				return false
			}
		}
		return len(s.Values) > 0
	}
	for _, v := range s.Values {
		if matches(v) {
			return true
		}
	}
	return false
}

func evalTimeOfDay(rule types.ConditionRule, ctx Context) bool {
	var s types.TimeOfDayRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	start, err1 := time.Parse("15:04", s.Start)
	end, err2 := time.Parse("15:04", s.End)
	if err1 != nil || err2 != nil {
		return false
	}
	now := ctx.Search.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	startMinutes := start.Hour()*60 + start.Minute()
	endMinutes := end.Hour()*60 + end.Minute()
	if startMinutes <= endMinutes {
		return nowMinutes >= startMinutes && nowMinutes <= endMinutes
	}
	// midnight-crossing range, e.g. 22:00-06:00
	return nowMinutes >= startMinutes || nowMinutes <= endMinutes
}

func evalRandomChance(rule types.ConditionRule) bool {
	var s types.RandomChanceRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	return rand.Float64()*100 < s.Probability
}

func evalChunkActive(rule types.ConditionRule, ctx Context) bool {
	var s types.ChunkActiveRuleSettings
	if err := json.Unmarshal(rule.Settings, &s); err != nil {
		return false
	}
	switch s.MatchBy {
	case types.ChunkActiveByHash:
		for h := range ctx.ActiveChunks {
			if fmt.Sprintf("%d", h) == s.Value {
				return true
			}
		}
		return false
	case types.ChunkActiveBySection:
		for _, m := range ctx.ActiveChunks {
			if m.ChunkGroup == s.Value {
				return true
			}
		}
		return false
	case types.ChunkActiveByTopic:
		for _, m := range ctx.ActiveChunks {
			if topic, ok := m.Extras["topic"].(string); ok && topic == s.Value {
				return true
			}
		}
		return false
	default:
		return false
	}
}
