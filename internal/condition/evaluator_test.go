package condition

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecthare/vecthare/internal/types"
)

func rawSettings(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestEvaluateDisabledTreeIsVacuouslyTrue(t *testing.T) {
	tree := types.ConditionTree{Enabled: false, Rules: []types.ConditionRule{{Type: types.RuleIsGroupChat}}}
	assert.True(t, Evaluate(tree, Context{}))
}

func TestEvaluateEmptyRulesIsVacuouslyTrue(t *testing.T) {
	tree := types.ConditionTree{Enabled: true, Logic: types.LogicAnd}
	assert.True(t, Evaluate(tree, Context{}))
}

func TestEvaluateANDRequiresAll(t *testing.T) {
	ctx := Context{Search: types.SearchContext{IsGroupChat: true, MessageCount: 3}}
	tree := types.ConditionTree{
		Enabled: true,
		Logic:   types.LogicAnd,
		Rules: []types.ConditionRule{
			{Type: types.RuleIsGroupChat, Settings: rawSettings(t, types.IsGroupChatRuleSettings{Value: true})},
			{Type: types.RuleMessageCount, Settings: rawSettings(t, types.MessageCountRuleSettings{Count: 5, Operator: types.OpGTE})},
		},
	}
	assert.False(t, Evaluate(tree, ctx))
}

func TestEvaluateORRequiresAny(t *testing.T) {
	ctx := Context{Search: types.SearchContext{IsGroupChat: true, MessageCount: 3}}
	tree := types.ConditionTree{
		Enabled: true,
		Logic:   types.LogicOr,
		Rules: []types.ConditionRule{
			{Type: types.RuleIsGroupChat, Settings: rawSettings(t, types.IsGroupChatRuleSettings{Value: true})},
			{Type: types.RuleMessageCount, Settings: rawSettings(t, types.MessageCountRuleSettings{Count: 5, Operator: types.OpGTE})},
		},
	}
	assert.True(t, Evaluate(tree, ctx))
}

func TestEvaluateNegateInvertsRule(t *testing.T) {
	ctx := Context{Search: types.SearchContext{IsGroupChat: true}}
	tree := types.ConditionTree{
		Enabled: true,
		Logic:   types.LogicAnd,
		Rules: []types.ConditionRule{
			{Type: types.RuleIsGroupChat, Negate: true, Settings: rawSettings(t, types.IsGroupChatRuleSettings{Value: true})},
		},
	}
	assert.False(t, Evaluate(tree, ctx))
}

func TestEvalKeywordContains(t *testing.T) {
	ctx := Context{Search: types.SearchContext{RecentMessages: []string{"the dragon roars"}}}
	rule := types.ConditionRule{Type: types.RuleKeyword, Settings: rawSettings(t, types.KeywordRuleSettings{
		Values: []string{"dragon"}, MatchMode: types.MatchContains,
	})}
	assert.True(t, evalKeyword(rule, ctx))
}

func TestEvalKeywordExactWholeWord(t *testing.T) {
	ctx := Context{Search: types.SearchContext{RecentMessages: []string{"cats and catsuits"}}}
	rule := types.ConditionRule{Type: types.RuleKeyword, Settings: rawSettings(t, types.KeywordRuleSettings{
		Values: []string{"cat"}, MatchMode: types.MatchExact,
	})}
	assert.False(t, evalKeyword(rule, ctx), "exact mode must not match inside catsuits")
}

func TestEvalKeywordRegexForm(t *testing.T) {
	ctx := Context{Search: types.SearchContext{RecentMessages: []string{"roll 20d6 please"}}}
	rule := types.ConditionRule{Type: types.RuleKeyword, Settings: rawSettings(t, types.KeywordRuleSettings{
		Values: []string{"/\\d+d\\d+/"},
	})}
	assert.True(t, evalKeyword(rule, ctx))
}

func TestEvalMessageCountOperators(t *testing.T) {
	cases := []struct {
		op   types.CountOperator
		want bool
	}{
		{types.OpEQ, false},
		{types.OpGTE, true},
		{types.OpLTE, false},
	}
	ctx := Context{Search: types.SearchContext{MessageCount: 10}}
	for _, c := range cases {
		rule := types.ConditionRule{Type: types.RuleMessageCount, Settings: rawSettings(t, types.MessageCountRuleSettings{
			Count: 5, Operator: c.op,
		})}
		assert.Equal(t, c.want, evalMessageCount(rule, ctx), "operator %s", c.op)
	}
}

func TestEvalMessageCountBetween(t *testing.T) {
	ctx := Context{Search: types.SearchContext{MessageCount: 7}}
	rule := types.ConditionRule{Type: types.RuleMessageCount, Settings: rawSettings(t, types.MessageCountRuleSettings{
		Count: 5, UpperBound: 10, Operator: types.OpBetween,
	})}
	assert.True(t, evalMessageCount(rule, ctx))
}

func TestEvalTimeOfDayMidnightCrossing(t *testing.T) {
	rule := types.ConditionRule{Type: types.RuleTimeOfDay, Settings: rawSettings(t, types.TimeOfDayRuleSettings{
		Start: "22:00", End: "06:00",
	})}
	late := Context{Search: types.SearchContext{Timestamp: time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)}}
	midday := Context{Search: types.SearchContext{Timestamp: time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)}}
	assert.True(t, evalTimeOfDay(rule, late))
	assert.False(t, evalTimeOfDay(rule, midday))
}

func TestEvalLorebookActiveMatchesKeyOrUID(t *testing.T) {
	ctx := Context{Search: types.SearchContext{
		ActiveLorebookEntries: []types.LorebookEntryRef{{Key: "castle", UID: "uid-1"}},
	}}
	rule := types.ConditionRule{Type: types.RuleLorebookActive, Settings: rawSettings(t, types.LorebookActiveRuleSettings{
		Values: []string{"uid-1"}, MatchType: types.MatchAny,
	})}
	assert.True(t, evalLorebookActive(rule, ctx))
}

func TestEvalChunkActiveBySection(t *testing.T) {
	ctx := Context{ActiveChunks: map[types.ContentHash]types.ChunkMetadata{
		1: {ChunkGroup: "intro"},
	}}
	rule := types.ConditionRule{Type: types.RuleChunkActive, Settings: rawSettings(t, types.ChunkActiveRuleSettings{
		MatchBy: types.ChunkActiveBySection, Value: "intro",
	})}
	assert.True(t, evalChunkActive(rule, ctx))
}

func TestEvalRandomChanceRespectsProbabilityBounds(t *testing.T) {
	always := types.ConditionRule{Type: types.RuleRandomChance, Settings: rawSettings(t, types.RandomChanceRuleSettings{Probability: 100})}
	never := types.ConditionRule{Type: types.RuleRandomChance, Settings: rawSettings(t, types.RandomChanceRuleSettings{Probability: 0})}
	assert.True(t, evalRandomChance(always))
	assert.False(t, evalRandomChance(never))
}
