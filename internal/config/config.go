// Package config loads the one configurable surface spec §6 allows:
// "CLI/config: none; all configuration arrives as a settings record
// supplied by the host." Operators running vecthare as a standalone
// service still need somewhere to put that record, a default, and the
// handful of process-level knobs (addresses, credentials) the settings
// record itself has no room for — this package is that thin shell,
// backed by viper the way the rest of the stack is assembled (logrus,
// yaml.v3, dig): by composing an established library rather than
// hand-rolling a flag/env parser.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/vecthare/vecthare/internal/types"
)

// Process holds the non-settings process configuration: where to listen,
// how to reach the collaborators Settings itself never names (DB DSNs,
// Redis address, embedding/rerank API credentials).
type Process struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`

	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`

	QdrantAddr    string `mapstructure:"qdrant_addr" yaml:"qdrant_addr"`
	ElasticAddrs  []string `mapstructure:"elastic_addrs" yaml:"elastic_addrs"`
	Neo4jURI      string `mapstructure:"neo4j_uri" yaml:"neo4j_uri"`
	Neo4jUser     string `mapstructure:"neo4j_user" yaml:"neo4j_user"`
	Neo4jPassword string `mapstructure:"neo4j_password" yaml:"neo4j_password"`

	EmbeddingBaseURL string `mapstructure:"embedding_base_url" yaml:"embedding_base_url"`
	EmbeddingAPIKey  string `mapstructure:"embedding_api_key" yaml:"embedding_api_key"`
	RerankBaseURL    string `mapstructure:"rerank_base_url" yaml:"rerank_base_url"`
	RerankAPIKey     string `mapstructure:"rerank_api_key" yaml:"rerank_api_key"`

	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	TraceDir     string `mapstructure:"trace_dir" yaml:"trace_dir"`
}

// Config is the full process configuration: Process plus the default
// Settings record new collections start from absent an explicit override
// from the host.
type Config struct {
	Process  Process        `mapstructure:"process" yaml:"process"`
	Defaults types.Settings `mapstructure:"defaults" yaml:"defaults"`
}

// Load reads configFile (if non-empty) into a Config seeded with
// types.DefaultSettings(). Environment variables prefixed VECTHARE_
// (nested keys separated by "_", e.g. VECTHARE_PROCESS_LISTEN_ADDR)
// override a key only when configFile also sets that key; an
// environment variable for a key absent from the file is not read.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("vecthare")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Process: Process{
			ListenAddr: ":8080",
		},
		Defaults: types.DefaultSettings(),
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
