package types

import "time"

// TriggerMatchMode combines multiple trigger matches in the activation gate.
type TriggerMatchMode string

const (
	TriggerMatchAny TriggerMatchMode = "any"
	TriggerMatchAll TriggerMatchMode = "all"
)

// DecayMode selects the temporal decay curve (spec §4.3).
type DecayMode string

const (
	DecayExponential DecayMode = "exponential"
	DecayLinear      DecayMode = "linear"
)

// TemporalDecayConfig is CollectionMeta.temporalDecay from spec §3.
type TemporalDecayConfig struct {
	Enabled      bool      `json:"enabled"`
	Mode         DecayMode `json:"mode"`
	HalfLife     float64   `json:"halfLife"`
	LinearRate   float64   `json:"linearRate"`
	MinRelevance float64   `json:"minRelevance"`
	SceneAware   bool      `json:"sceneAware"`
}

// DefaultTemporalDecayConfig returns the default policy by collection type
// from spec §4.3: chat collections get scene-aware exponential decay;
// everything else gets decay disabled.
func DefaultTemporalDecayConfig(source ChunkSource) TemporalDecayConfig {
	if source == ChunkSourceChat {
		return TemporalDecayConfig{
			Enabled:      true,
			Mode:         DecayExponential,
			HalfLife:     20,
			MinRelevance: 0.3,
			SceneAware:   true,
		}
	}
	return TemporalDecayConfig{Enabled: false}
}

// ChunkGroupStrategy affects how chunk groups are reconciled with boost
// (design note §9): inclusive groups expand into boost edges, exclusive
// groups collapse to their best member, with a mandatory-member force
// include when an exclusive group's mandatory member is otherwise absent.
type ChunkGroupStrategy string

const (
	GroupInclusive ChunkGroupStrategy = "inclusive"
	GroupExclusive ChunkGroupStrategy = "exclusive"
)

// ChunkGroup is CollectionMeta.groups[] from spec §3.
type ChunkGroup struct {
	ID             string             `json:"id"`
	Strategy       ChunkGroupStrategy `json:"strategy"`
	MemberHashes   []ContentHash      `json:"memberHashes"`
	MandatoryHash  ContentHash        `json:"mandatoryHash,omitempty"`
	BoostWeight    float64            `json:"boostWeight,omitempty"`
}

// CollectionMeta is the per-collection record from spec §3.
type CollectionMeta struct {
	Enabled     bool      `json:"enabled"`
	AutoSync    bool      `json:"autoSync"`
	DisplayName string    `json:"displayName"`
	Scope       string    `json:"scope"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUsed    time.Time `json:"lastUsed"`
	QueryCount  int       `json:"queryCount"`

	AlwaysActive          bool             `json:"alwaysActive"`
	Triggers              []string         `json:"triggers"`
	TriggerMatchMode      TriggerMatchMode `json:"triggerMatchMode"`
	TriggerCaseSensitive  bool             `json:"triggerCaseSensitive"`
	TriggerScanDepth      int              `json:"triggerScanDepth"`

	Conditions     ConditionTree       `json:"conditions"`
	TemporalDecay  TemporalDecayConfig `json:"temporalDecay"`
	Groups         []ChunkGroup        `json:"groups"`
	Context        string              `json:"context"`
	XMLTag         string              `json:"xmlTag"`
}

// NewCollectionMeta returns a CollectionMeta with spec-default field values
// (enabled=true, decay per DefaultTemporalDecayConfig) for a freshly
// registered collection of the given source type.
func NewCollectionMeta(source ChunkSource) CollectionMeta {
	return CollectionMeta{
		Enabled:          true,
		TriggerMatchMode: TriggerMatchAny,
		TriggerScanDepth: 10,
		TemporalDecay:    DefaultTemporalDecayConfig(source),
		CreatedAt:        time.Now(),
	}
}
