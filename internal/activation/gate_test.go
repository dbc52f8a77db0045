package activation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vecthare/vecthare/internal/condition"
	"github.com/vecthare/vecthare/internal/types"
)

func TestDecideDisabledAlwaysSkips(t *testing.T) {
	meta := types.CollectionMeta{Enabled: false, AlwaysActive: true}
	assert.False(t, Decide(meta, nil, condition.Context{}))
}

func TestDecideAlwaysActiveShortCircuits(t *testing.T) {
	meta := types.CollectionMeta{Enabled: true, AlwaysActive: true}
	assert.True(t, Decide(meta, nil, condition.Context{}))
}

func TestDecideTriggerSubstringMatch(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:          true,
		Triggers:         []string{"dragon"},
		TriggerMatchMode: types.TriggerMatchAny,
		TriggerScanDepth: 5,
	}
	window := []string{"a castle", "a dragon appears", "nothing else"}
	assert.True(t, Decide(meta, window, condition.Context{}))
}

func TestDecideTriggerRegexForm(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:          true,
		Triggers:         []string{"/dra.on/"},
		TriggerMatchMode: types.TriggerMatchAny,
		TriggerScanDepth: 5,
	}
	assert.True(t, Decide(meta, []string{"a dragon appears"}, condition.Context{}))
}

func TestDecideTriggerCaseSensitivity(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:              true,
		Triggers:             []string{"Dragon"},
		TriggerMatchMode:     types.TriggerMatchAny,
		TriggerScanDepth:     5,
		TriggerCaseSensitive: true,
	}
	assert.False(t, Decide(meta, []string{"a dragon appears"}, condition.Context{}))
	assert.True(t, Decide(meta, []string{"a Dragon appears"}, condition.Context{}))
}

func TestDecideTriggerMatchAllRequiresEveryTrigger(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:          true,
		Triggers:         []string{"dragon", "castle"},
		TriggerMatchMode: types.TriggerMatchAll,
		TriggerScanDepth: 5,
	}
	assert.False(t, Decide(meta, []string{"a dragon appears"}, condition.Context{}))
	assert.True(t, Decide(meta, []string{"a dragon near the castle"}, condition.Context{}))
}

func TestDecideTriggerScanDepthLimitsWindow(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:          true,
		Triggers:         []string{"dragon"},
		TriggerMatchMode: types.TriggerMatchAny,
		TriggerScanDepth: 1,
	}
	// "dragon" is outside the last-1-message scan window.
	window := []string{"a dragon appears", "something unrelated"}
	assert.False(t, Decide(meta, window, condition.Context{}))
}

func TestDecideFallsThroughToConditionsWhenTriggersMiss(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:          true,
		Triggers:         []string{"dragon"},
		TriggerMatchMode: types.TriggerMatchAny,
		TriggerScanDepth: 5,
		Conditions: types.ConditionTree{
			Enabled: true,
			Logic:   types.LogicAnd,
			Rules: []types.ConditionRule{
				{Type: types.RuleIsGroupChat, Settings: rawJSON(t, types.IsGroupChatRuleSettings{Value: true})},
			},
		},
	}
	ctx := condition.Context{Search: types.SearchContext{IsGroupChat: true}}
	assert.True(t, Decide(meta, []string{"nothing relevant"}, ctx))
}

func TestDecideNoTriggersNoConditionsAutoActivates(t *testing.T) {
	meta := types.CollectionMeta{Enabled: true}
	assert.True(t, Decide(meta, nil, condition.Context{}))
}

func TestDecideTriggersPresentConditionsFailSkips(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:          true,
		Triggers:         []string{"dragon"},
		TriggerMatchMode: types.TriggerMatchAny,
		TriggerScanDepth: 5,
		Conditions: types.ConditionTree{
			Enabled: true,
			Logic:   types.LogicAnd,
			Rules: []types.ConditionRule{
				{Type: types.RuleIsGroupChat, Settings: rawJSON(t, types.IsGroupChatRuleSettings{Value: true})},
			},
		},
	}
	ctx := condition.Context{Search: types.SearchContext{IsGroupChat: false}}
	assert.False(t, Decide(meta, []string{"no match here"}, ctx))
}

func TestDecideTriggerMatchShortCircuitsConditions(t *testing.T) {
	meta := types.CollectionMeta{
		Enabled:          true,
		Triggers:         []string{"/ruin/i"},
		TriggerMatchMode: types.TriggerMatchAny,
		TriggerScanDepth: 3,
		Conditions: types.ConditionTree{
			Enabled: true,
			Logic:   types.LogicAnd,
			Rules: []types.ConditionRule{
				{Type: types.RuleRandomChance, Settings: rawJSON(t, types.RandomChanceRuleSettings{Probability: 0})},
			},
		},
	}
	window := []string{"they walked on", "nothing much happened", "the ruin beyond the hills"}
	assert.True(t, Decide(meta, window, condition.Context{}), "trigger match must win before a zero-probability condition ever runs")
}

func rawJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
