package condition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	jsonschema "github.com/google/jsonschema-go/jsonschema"

	"github.com/vecthare/vecthare/internal/types"
)

// validateSchema checks rule.Settings structurally against T's generated
// schema before the per-rule semantic checks run, so a field of the wrong
// JSON type is rejected with a schema error rather than silently zero-valued
// by json.Unmarshal.
func validateSchema[T any](settings json.RawMessage) error {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	var raw any
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &raw); err != nil {
			return err
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// ValidateTree validates every rule in a tree, short-circuiting on the
// first error. A disabled tree is not validated — it's never evaluated.
func ValidateTree(tree types.ConditionTree) error {
	if !tree.Enabled {
		return nil
	}
	if tree.Logic != types.LogicAnd && tree.Logic != types.LogicOr {
		return fmt.Errorf("condition tree: logic must be AND or OR, got %q", tree.Logic)
	}
	for i, r := range tree.Rules {
		if err := ValidateRule(r); err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, r.Type, err)
		}
	}
	return nil
}

// ValidateRule rejects a rule whose settings are structurally or
// semantically nonsensical before it ever reaches evaluation — invalid
// regex, unparseable time-of-day bounds, an out-of-range probability,
// and so on (spec §4.4).
func ValidateRule(rule types.ConditionRule) error {
	switch rule.Type {
	case types.RuleKeyword:
		if err := validateSchema[types.KeywordRuleSettings](rule.Settings); err != nil {
			return err
		}
		var s types.KeywordRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		for _, v := range s.Values {
			if len(v) > 1 && v[0] == '/' && v[len(v)-1] == '/' {
				if _, err := regexp.Compile(v[1 : len(v)-1]); err != nil {
					return fmt.Errorf("invalid regex %q: %w", v, err)
				}
			}
		}
		switch s.MatchMode {
		case types.MatchContains, types.MatchExact, types.MatchStartsWith, types.MatchEndsWith, "":
		default:
			return fmt.Errorf("unknown matchMode %q", s.MatchMode)
		}
	case types.RuleSpeaker:
		if err := validateSchema[types.SpeakerRuleSettings](rule.Settings); err != nil {
			return err
		}
		var s types.SpeakerRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		return validateAnyAll(s.MatchType)
	case types.RuleCharacterPresent:
		var s types.CharacterPresentRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		if s.Character == "" {
			return fmt.Errorf("character must not be empty")
		}
	case types.RuleMessageCount, types.RuleSwipeCount:
		var s types.MessageCountRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		switch s.Operator {
		case types.OpEQ, types.OpGTE, types.OpLTE:
		case types.OpBetween:
			if s.UpperBound < s.Count {
				return fmt.Errorf("upperBound %d must be >= count %d", s.UpperBound, s.Count)
			}
		default:
			return fmt.Errorf("unknown operator %q", s.Operator)
		}
	case types.RuleEmotion:
		var s types.EmotionRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		if s.DetectionMethod != types.DetectionExpressions && s.DetectionMethod != types.DetectionKeywords && s.DetectionMethod != "" {
			return fmt.Errorf("unknown detectionMethod %q", s.DetectionMethod)
		}
	case types.RuleIsGroupChat:
		var s types.IsGroupChatRuleSettings
		return json.Unmarshal(rule.Settings, &s)
	case types.RuleGenerationType:
		var s types.GenerationTypeRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		for _, v := range s.Values {
			switch v {
			case types.GenerationNormal, types.GenerationSwipe, types.GenerationRegenerate,
				types.GenerationContinue, types.GenerationImpersonate, types.GenerationQuiet:
			default:
				return fmt.Errorf("unknown generationType %q", v)
			}
		}
	case types.RuleLorebookActive:
		var s types.LorebookActiveRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		return validateAnyAll(s.MatchType)
	case types.RuleTimeOfDay:
		if err := validateSchema[types.TimeOfDayRuleSettings](rule.Settings); err != nil {
			return err
		}
		var s types.TimeOfDayRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		if _, err := time.Parse("15:04", s.Start); err != nil {
			return fmt.Errorf("start %q: %w", s.Start, err)
		}
		if _, err := time.Parse("15:04", s.End); err != nil {
			return fmt.Errorf("end %q: %w", s.End, err)
		}
	case types.RuleRandomChance:
		if err := validateSchema[types.RandomChanceRuleSettings](rule.Settings); err != nil {
			return err
		}
		var s types.RandomChanceRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		if s.Probability < 0 || s.Probability > 100 {
			return fmt.Errorf("probability %v out of range [0,100]", s.Probability)
		}
	case types.RuleChunkActive:
		var s types.ChunkActiveRuleSettings
		if err := json.Unmarshal(rule.Settings, &s); err != nil {
			return err
		}
		switch s.MatchBy {
		case types.ChunkActiveByHash, types.ChunkActiveBySection, types.ChunkActiveByTopic:
		default:
			return fmt.Errorf("unknown matchBy %q", s.MatchBy)
		}
		if s.Value == "" {
			return fmt.Errorf("value must not be empty")
		}
	default:
		return fmt.Errorf("unknown rule type %q", rule.Type)
	}
	return nil
}

func validateAnyAll(v types.AnyAll) error {
	switch v {
	case types.MatchAny, types.MatchAll, "":
		return nil
	default:
		return fmt.Errorf("unknown matchType %q", v)
	}
}
