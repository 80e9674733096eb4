// Package config loads voicedb configuration from a YAML file and
// VOICEDB_-prefixed environment variables, with sane defaults for a
// local single-node deployment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultDataDir is the default directory name for voicedb data.
	DefaultDataDir = ".voicedb"
	// DefaultConfigFile is the default config filename.
	DefaultConfigFile = "config.yaml"
	// DefaultDimensions is the embedding dimensionality of the speaker encoder.
	DefaultDimensions = 192
)

// Config holds the application configuration.
type Config struct {
	// DataDir is the directory where voicedb stores its data.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`

	Store      StoreConfig      `mapstructure:"store" yaml:"store,omitempty"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding" yaml:"embedding,omitempty"`
	STT        STTConfig        `mapstructure:"stt" yaml:"stt,omitempty"`
	Extract    ExtractConfig    `mapstructure:"extract" yaml:"extract,omitempty"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server,omitempty"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds,omitempty"`
}

// StoreConfig selects the vector index and profile store backends.
type StoreConfig struct {
	// Backend is the vector index backend: "memory", "veclite", "qdrant".
	Backend string `mapstructure:"backend" yaml:"backend,omitempty"`
	// ProfileBackend is the metadata store backend: "memory", "badger".
	ProfileBackend string `mapstructure:"profile_backend" yaml:"profile_backend,omitempty"`

	Qdrant QdrantConfig `mapstructure:"qdrant" yaml:"qdrant,omitempty"`
}

// QdrantConfig holds connection settings for a Qdrant cluster.
type QdrantConfig struct {
	Host       string `mapstructure:"host" yaml:"host,omitempty"`
	Port       int    `mapstructure:"port" yaml:"port,omitempty"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	UseTLS     bool   `mapstructure:"use_tls" yaml:"use_tls,omitempty"`
	Collection string `mapstructure:"collection" yaml:"collection,omitempty"`
}

// EmbeddingConfig holds speaker-encoder sidecar settings.
type EmbeddingConfig struct {
	// URL is the base URL of the encoder sidecar.
	URL string `mapstructure:"url" yaml:"url,omitempty"`
	// Dimensions is the embedding vector dimensionality.
	Dimensions int `mapstructure:"dimensions" yaml:"dimensions,omitempty"`
	// Timeout bounds a single embedding request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// STTConfig holds speech-to-text settings.
type STTConfig struct {
	URL      string `mapstructure:"url" yaml:"url,omitempty"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model    string `mapstructure:"model" yaml:"model,omitempty"`
	Language string `mapstructure:"language" yaml:"language,omitempty"`
}

// ExtractConfig selects the transaction-info extractor.
type ExtractConfig struct {
	// Provider is "gemini" or "rules".
	Provider     string `mapstructure:"provider" yaml:"provider,omitempty"`
	GeminiAPIKey string `mapstructure:"gemini_api_key" yaml:"gemini_api_key,omitempty"`
	Model        string `mapstructure:"model" yaml:"model,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host,omitempty"`
	Port int    `mapstructure:"port" yaml:"port,omitempty"`
}

// ThresholdsConfig holds the similarity cutoffs for decisions.
type ThresholdsConfig struct {
	// Match is the minimum similarity for a confident identification.
	Match float32 `mapstructure:"match" yaml:"match,omitempty"`
	// Transaction is the minimum similarity to authorize a transaction.
	Transaction float32 `mapstructure:"transaction" yaml:"transaction,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Store: StoreConfig{
			Backend:        "veclite",
			ProfileBackend: "badger",
			Qdrant: QdrantConfig{
				Host:       "localhost",
				Port:       6334,
				Collection: "voice_embeddings",
			},
		},
		Embedding: EmbeddingConfig{
			URL:        "http://localhost:8561",
			Dimensions: DefaultDimensions,
			Timeout:    30 * time.Second,
		},
		STT: STTConfig{
			Model:    "saaras:v3",
			Language: "en-IN",
		},
		Extract: ExtractConfig{
			Provider: "rules",
			Model:    "gemini-2.5-flash",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Thresholds: ThresholdsConfig{
			Match:       0.45,
			Transaction: 0.5,
		},
	}
}

// Load reads configuration from baseDir/.voicedb/config.yaml (if present)
// and the environment, layered over the defaults.
func Load(baseDir string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(baseDir, DefaultDataDir))
	v.AddConfigPath(".")

	v.SetEnvPrefix("VOICEDB")
	v.AutomaticEnv()

	_ = v.BindEnv("store.backend", "VOICEDB_STORE_BACKEND")
	_ = v.BindEnv("store.profile_backend", "VOICEDB_PROFILE_BACKEND")
	_ = v.BindEnv("store.qdrant.host", "VOICEDB_QDRANT_HOST")
	_ = v.BindEnv("store.qdrant.api_key", "VOICEDB_QDRANT_API_KEY")
	_ = v.BindEnv("embedding.url", "VOICEDB_EMBEDDING_URL")
	_ = v.BindEnv("stt.api_key", "VOICEDB_SARVAM_API_KEY")
	_ = v.BindEnv("extract.provider", "VOICEDB_EXTRACT_PROVIDER")
	_ = v.BindEnv("extract.gemini_api_key", "VOICEDB_GEMINI_API_KEY")
	_ = v.BindEnv("server.host", "VOICEDB_HOST")
	_ = v.BindEnv("server.port", "VOICEDB_PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(baseDir, cfg.DataDir)
	}
	return cfg, nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// WriteDefaultConfig writes a starter config file to the data directory.
// An existing config file is left untouched.
func (c *Config) WriteDefaultConfig() error {
	configPath := filepath.Join(c.DataDir, DefaultConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	v := viper.New()
	v.Set("store.backend", c.Store.Backend)
	v.Set("store.profile_backend", c.Store.ProfileBackend)
	v.Set("store.qdrant.host", c.Store.Qdrant.Host)
	v.Set("store.qdrant.port", c.Store.Qdrant.Port)
	v.Set("store.qdrant.collection", c.Store.Qdrant.Collection)
	v.Set("embedding.url", c.Embedding.URL)
	v.Set("embedding.dimensions", c.Embedding.Dimensions)
	v.Set("stt.model", c.STT.Model)
	v.Set("stt.language", c.STT.Language)
	v.Set("extract.provider", c.Extract.Provider)
	v.Set("extract.model", c.Extract.Model)
	v.Set("server.host", c.Server.Host)
	v.Set("server.port", c.Server.Port)
	v.Set("thresholds.match", c.Thresholds.Match)
	v.Set("thresholds.transaction", c.Thresholds.Transaction)

	return v.WriteConfigAs(configPath)
}
