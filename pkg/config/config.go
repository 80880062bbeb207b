// Package config provides configuration file support for the full-disjunction
// integration engine. It handles loading, validation, and environment
// variable interpolation for alite.yaml configuration files.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the full engine configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Clustering  ClusteringConfig  `mapstructure:"clustering"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server settings for cmd/serve.go.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// EmbeddingConfig holds L0 text-encoder settings.
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	BatchSize int    `mapstructure:"batch_size"`
	// SampleSize bounds how many non-null values of a column get encoded
	// before its embedding vector is taken as their mean.
	SampleSize int `mapstructure:"sample_size"`
}

// ClusteringConfig holds L1/L2 settings: the candidate cluster-count range
// the silhouette-driven integration-id assigner searches.
type ClusteringConfig struct {
	KMin             int `mapstructure:"k_min"`
	KMax             int `mapstructure:"k_max"`
	ComplementMaxIter int `mapstructure:"complement_max_iterations"`
}

// VectorStoreConfig holds the embedding-cache backend settings.
type VectorStoreConfig struct {
	Backend   string `mapstructure:"backend"`
	Index     string `mapstructure:"index"`
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
}

// AuthConfig holds authentication settings for the HTTP/MCP surfaces.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Exporter   string  `mapstructure:"exporter"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
	Insecure   bool    `mapstructure:"insecure"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			BatchSize:  100,
			SampleSize: 100,
		},
		Clustering: ClusteringConfig{
			KMin:              1,
			KMax:              0, // 0 means "up to the total column count"
			ComplementMaxIter: 64,
		},
		VectorStore: VectorStoreConfig{
			Backend: "pinecone",
		},
		Auth: AuthConfig{
			APIKeys: []string{},
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "otlp",
				Endpoint:   "localhost:4317",
				SampleRate: 1.0,
				Insecure:   true,
			},
		},
	}
}

// Load reads configuration from the given viper instance and returns
// a validated Config. Environment variables in string values are
// interpolated using ${VAR} syntax.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	interpolateConfig(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads a specific config file and returns a validated Config.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Load(v)
}

// Validate checks the configuration for errors and returns a descriptive
// error if any field is invalid.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 0 and 65535, got %d", cfg.Server.Port))
	}
	if cfg.Server.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout: must be non-negative")
	}
	if cfg.Server.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout: must be non-negative")
	}

	validProviders := map[string]bool{"openai": true, "": true}
	if !validProviders[cfg.Embedding.Provider] {
		errs = append(errs, fmt.Sprintf("embedding.provider: unsupported provider %q (supported: openai)", cfg.Embedding.Provider))
	}
	if cfg.Embedding.BatchSize < 0 {
		errs = append(errs, "embedding.batch_size: must be non-negative")
	}
	if cfg.Embedding.SampleSize < 0 {
		errs = append(errs, "embedding.sample_size: must be non-negative")
	}

	if cfg.Clustering.KMin < 0 {
		errs = append(errs, "clustering.k_min: must be non-negative")
	}
	if cfg.Clustering.KMax < 0 {
		errs = append(errs, "clustering.k_max: must be non-negative")
	}
	if cfg.Clustering.KMax > 0 && cfg.Clustering.KMin > cfg.Clustering.KMax {
		errs = append(errs, "clustering.k_min: must not exceed k_max")
	}
	if cfg.Clustering.ComplementMaxIter < 1 {
		errs = append(errs, "clustering.complement_max_iterations: must be at least 1")
	}

	validBackends := map[string]bool{"pinecone": true, "qdrant": true, "": true}
	if !validBackends[cfg.VectorStore.Backend] {
		errs = append(errs, fmt.Sprintf("vector_store.backend: unsupported backend %q (supported: pinecone, qdrant)", cfg.VectorStore.Backend))
	}

	validExporters := map[string]bool{"otlp": true, "stdout": true, "none": true, "": true}
	if !validExporters[cfg.Telemetry.Tracing.Exporter] {
		errs = append(errs, fmt.Sprintf("telemetry.tracing.exporter: unsupported exporter %q (supported: otlp, stdout, none)", cfg.Telemetry.Tracing.Exporter))
	}
	if cfg.Telemetry.Tracing.SampleRate < 0 || cfg.Telemetry.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("telemetry.tracing.sample_rate: must be between 0 and 1, got %f", cfg.Telemetry.Tracing.SampleRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnv replaces ${VAR} and ${VAR:-default} patterns in a string
// with the corresponding environment variable values.
func InterpolateEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		if defaultVal != "" {
			return defaultVal
		}
		return match
	})
}

// interpolateConfig applies environment variable interpolation to all
// string fields in the config.
func interpolateConfig(cfg *Config) {
	cfg.Server.Host = InterpolateEnv(cfg.Server.Host)
	cfg.Embedding.Provider = InterpolateEnv(cfg.Embedding.Provider)
	cfg.Embedding.Model = InterpolateEnv(cfg.Embedding.Model)
	cfg.VectorStore.Backend = InterpolateEnv(cfg.VectorStore.Backend)
	cfg.VectorStore.Index = InterpolateEnv(cfg.VectorStore.Index)
	cfg.VectorStore.Host = InterpolateEnv(cfg.VectorStore.Host)
	cfg.VectorStore.Namespace = InterpolateEnv(cfg.VectorStore.Namespace)

	for i, key := range cfg.Auth.APIKeys {
		cfg.Auth.APIKeys[i] = InterpolateEnv(key)
	}

	cfg.Telemetry.Tracing.Exporter = InterpolateEnv(cfg.Telemetry.Tracing.Exporter)
	cfg.Telemetry.Tracing.Endpoint = InterpolateEnv(cfg.Telemetry.Tracing.Endpoint)
}

// GenerateTemplate returns a YAML template string with all available
// configuration options and their defaults, suitable for writing to
// an alite.yaml file.
func GenerateTemplate() string {
	return `# alite engine configuration

server:
  port: 8080
  host: 0.0.0.0
  read_timeout: 30s
  write_timeout: 60s

embedding:
  provider: openai
  model: text-embedding-3-small
  batch_size: 100
  sample_size: 100

clustering:
  k_min: 1
  k_max: 0     # 0 means "up to the total column count"
  complement_max_iterations: 64

vector_store:
  backend: pinecone    # pinecone or qdrant (embedding cache)
  index: ""
  host: ""             # required for qdrant
  namespace: ""

auth:
  api_keys:
    # - ${ALITE_API_KEY}

telemetry:
  tracing:
    enabled: false
    exporter: otlp       # otlp, stdout, or none
    endpoint: localhost:4317
    sample_rate: 1.0     # 0.0 to 1.0
    insecure: true
`
}
