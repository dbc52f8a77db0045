package types

// VectorBackendKind selects which G implementation settings.vector_backend
// routes to.
type VectorBackendKind string

const (
	BackendQdrant      VectorBackendKind = "qdrant"
	BackendPgvector    VectorBackendKind = "pgvector"
	BackendElastic     VectorBackendKind = "elastic"
)

// Settings is the record supplied by the host, per spec §6: "CLI/config:
// none. All configuration arrives as a settings record supplied by the
// host."
type Settings struct {
	Source   string `mapstructure:"source" yaml:"source"`     // embedding provider id
	Model    string `mapstructure:"model" yaml:"model"`       // provider-dependent

	VectorBackend VectorBackendKind `mapstructure:"vector_backend" yaml:"vector_backend"`
	EnabledChats  []string          `mapstructure:"enabled_chats" yaml:"enabled_chats"`

	Query           int     `mapstructure:"query" yaml:"query"`                     // recency depth
	Insert          int     `mapstructure:"insert" yaml:"insert"`                   // top-K
	ScoreThreshold  float64 `mapstructure:"score_threshold" yaml:"score_threshold"`
	Protect         int     `mapstructure:"protect" yaml:"protect"` // minimum messages before injecting

	Template string `mapstructure:"template" yaml:"template"` // contains {{text}}
	Position string `mapstructure:"position" yaml:"position"`
	Depth    int     `mapstructure:"depth" yaml:"depth"`

	ChunkingStrategy  GroupingStrategy `mapstructure:"chunking_strategy" yaml:"chunking_strategy"`
	BatchSize         int              `mapstructure:"batch_size" yaml:"batch_size"`
	MessageChunkSize  int              `mapstructure:"message_chunk_size" yaml:"message_chunk_size"`

	BananabreadRerank bool `mapstructure:"bananabread_rerank" yaml:"bananabread_rerank"`

	TemporalDecay TemporalDecayConfig `mapstructure:"temporal_decay" yaml:"temporal_decay"`

	APIURLCustom    string `mapstructure:"api_url_custom" yaml:"api_url_custom"`
	UseAltEndpoint  bool   `mapstructure:"use_alt_endpoint" yaml:"use_alt_endpoint"`
	AltEndpointURL  string `mapstructure:"alt_endpoint_url" yaml:"alt_endpoint_url"`
}

// GroupingStrategy is the sync engine's chunking/grouping policy (spec §4.1).
type GroupingStrategy string

const (
	GroupPerMessage       GroupingStrategy = "per_message"
	GroupConversationTurns GroupingStrategy = "conversation_turns"
	GroupMessageBatch      GroupingStrategy = "message_batch"
)

// DefaultSettings returns a Settings populated with the defaults named
// across spec §4.1-§4.9 (overfetch clamp bounds, message_batch size, etc.).
func DefaultSettings() Settings {
	return Settings{
		Query:            10,
		Insert:           5,
		ScoreThreshold:   0.25,
		Protect:          0,
		Template:         "{{text}}",
		Position:         "before_prompt",
		ChunkingStrategy: GroupPerMessage,
		BatchSize:        4,
		MessageChunkSize: 2000,
		VectorBackend:    BackendQdrant,
	}
}
