package httpapi

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/vecthare/vecthare/internal/types"
	"github.com/vecthare/vecthare/internal/utils"
)

// ConditionSchemaHandler exposes the JSON schema backing each condition
// rule's settings, so a host building a condition-tree editor can render
// the right fields for a rule type without hardcoding them.
type ConditionSchemaHandler struct{}

func NewConditionSchemaHandler() *ConditionSchemaHandler {
	return &ConditionSchemaHandler{}
}

// ruleSchemas maps each RuleType to its settings schema, generated once at
// package init since the schemas are fixed for the lifetime of the binary.
var ruleSchemas = map[types.RuleType]json.RawMessage{
	types.RuleKeyword:          utils.GenerateSchema[types.KeywordRuleSettings](),
	types.RuleSpeaker:          utils.GenerateSchema[types.SpeakerRuleSettings](),
	types.RuleCharacterPresent: utils.GenerateSchema[types.CharacterPresentRuleSettings](),
	types.RuleMessageCount:     utils.GenerateSchema[types.MessageCountRuleSettings](),
	types.RuleSwipeCount:       utils.GenerateSchema[types.MessageCountRuleSettings](),
	types.RuleEmotion:          utils.GenerateSchema[types.EmotionRuleSettings](),
	types.RuleIsGroupChat:      utils.GenerateSchema[types.IsGroupChatRuleSettings](),
	types.RuleGenerationType:   utils.GenerateSchema[types.GenerationTypeRuleSettings](),
	types.RuleLorebookActive:   utils.GenerateSchema[types.LorebookActiveRuleSettings](),
	types.RuleTimeOfDay:        utils.GenerateSchema[types.TimeOfDayRuleSettings](),
	types.RuleRandomChance:     utils.GenerateSchema[types.RandomChanceRuleSettings](),
	types.RuleChunkActive:      utils.GenerateSchema[types.ChunkActiveRuleSettings](),
}

// List handles GET /condition-rules/schema, returning every rule type's
// settings schema keyed by rule type name.
func (h *ConditionSchemaHandler) List(c *gin.Context) {
	c.JSON(200, gin.H{"rules": ruleSchemas})
}
