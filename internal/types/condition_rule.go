package types

import "encoding/json"

// Logic combines child rule results in a ConditionTree.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// RuleType is the closed set of condition rule types from spec §4.4. It is
// a closed enum by convention (construction is tagged, evaluation is an
// exhaustive switch in internal/condition) rather than by the Go type
// system, since rules arrive over the wire as {type, negate, settings}.
type RuleType string

const (
	RuleKeyword           RuleType = "keyword"
	RuleSpeaker           RuleType = "speaker"
	RuleCharacterPresent   RuleType = "characterPresent"
	RuleMessageCount       RuleType = "messageCount"
	RuleEmotion            RuleType = "emotion"
	RuleIsGroupChat        RuleType = "isGroupChat"
	RuleGenerationType     RuleType = "generationType"
	RuleLorebookActive     RuleType = "lorebookActive"
	RuleSwipeCount         RuleType = "swipeCount"
	RuleTimeOfDay          RuleType = "timeOfDay"
	RuleRandomChance       RuleType = "randomChance"
	RuleChunkActive        RuleType = "chunkActive"
)

// ConditionRule is the tagged record {type, negate, settings} from spec
// §3. Settings is kept as raw JSON and decoded into the type-specific
// struct (KeywordRuleSettings, SpeakerRuleSettings, ...) by
// internal/condition, which also validates it.
type ConditionRule struct {
	Type     RuleType        `json:"type"`
	Negate   bool            `json:"negate"`
	Settings json.RawMessage `json:"settings"`
}

// ConditionTree is the rule-tree evaluated by internal/condition: a logic
// operator combining zero or more rules. Used both at the collection level
// (CollectionMeta.Conditions) and the chunk level (ChunkMeta.Conditions).
type ConditionTree struct {
	Enabled bool            `json:"enabled"`
	Logic   Logic           `json:"logic"`
	Rules   []ConditionRule `json:"rules"`
}

// MatchMode is shared by keyword and speaker rules.
type MatchMode string

const (
	MatchContains   MatchMode = "contains"
	MatchExact      MatchMode = "exact"
	MatchStartsWith MatchMode = "startsWith"
	MatchEndsWith   MatchMode = "endsWith"
)

type AnyAll string

const (
	MatchAny AnyAll = "any"
	MatchAll AnyAll = "all"
)

// KeywordRuleSettings backs RuleKeyword.
type KeywordRuleSettings struct {
	Values        []string  `json:"values"`
	MatchMode     MatchMode `json:"matchMode"`
	CaseSensitive bool      `json:"caseSensitive"`
}

// SpeakerRuleSettings backs RuleSpeaker.
type SpeakerRuleSettings struct {
	Values    []string `json:"values"`
	MatchType AnyAll   `json:"matchType"`
}

// CharacterPresentRuleSettings backs RuleCharacterPresent.
type CharacterPresentRuleSettings struct {
	Character string `json:"character"`
}

// CountOperator is shared by messageCount and swipeCount rules.
type CountOperator string

const (
	OpEQ      CountOperator = "eq"
	OpGTE     CountOperator = "gte"
	OpLTE     CountOperator = "lte"
	OpBetween CountOperator = "between"
)

// MessageCountRuleSettings backs RuleMessageCount and RuleSwipeCount.
type MessageCountRuleSettings struct {
	Count      int           `json:"count"`
	UpperBound int           `json:"upperBound,omitempty"`
	Operator   CountOperator `json:"operator"`
}

// EmotionDetectionMethod selects how the emotion rule resolves a
// character's current expression.
type EmotionDetectionMethod string

const (
	DetectionExpressions EmotionDetectionMethod = "expressions"
	DetectionKeywords    EmotionDetectionMethod = "keywords"
)

// EmotionRuleSettings backs RuleEmotion.
type EmotionRuleSettings struct {
	Values          []string                `json:"values"`
	DetectionMethod EmotionDetectionMethod   `json:"detectionMethod"`
	Character       string                   `json:"character,omitempty"`
}

// IsGroupChatRuleSettings backs RuleIsGroupChat.
type IsGroupChatRuleSettings struct {
	Value bool `json:"value"`
}

// GenerationTypeRuleSettings backs RuleGenerationType.
type GenerationTypeRuleSettings struct {
	Values []GenerationType `json:"values"`
}

// LorebookActiveRuleSettings backs RuleLorebookActive.
type LorebookActiveRuleSettings struct {
	Values    []string `json:"values"`
	MatchType AnyAll   `json:"matchType"`
}

// TimeOfDayRuleSettings backs RuleTimeOfDay. Start/End are "HH:MM" in local
// wall-clock time; a range may cross midnight (start > end).
type TimeOfDayRuleSettings struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RandomChanceRuleSettings backs RuleRandomChance. Probability is 0..100
// and re-rolled on every evaluation (not memoized), per spec §4.4.
type RandomChanceRuleSettings struct {
	Probability float64 `json:"probability"`
}

// ChunkActiveMatchBy selects how chunkActive resolves "another chunk".
type ChunkActiveMatchBy string

const (
	ChunkActiveByHash    ChunkActiveMatchBy = "hash"
	ChunkActiveBySection ChunkActiveMatchBy = "section"
	ChunkActiveByTopic   ChunkActiveMatchBy = "topic"
)

// ChunkActiveRuleSettings backs RuleChunkActive.
type ChunkActiveRuleSettings struct {
	MatchBy ChunkActiveMatchBy `json:"matchBy"`
	Value   string             `json:"value"`
}
