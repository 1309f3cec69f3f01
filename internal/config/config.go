// Package config provides configuration management for Tidescan.
// Settings come from three layers, lowest precedence first: built-in
// defaults, an optional YAML file, and environment variables with the
// TIDESCAN_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Tidescan application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Security  SecurityConfig  `yaml:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port              int     `yaml:"port"`                // Server port (default: 7373)
	Host              string  `yaml:"host"`                // Server host (default: 127.0.0.1)
	RequestsPerSecond float64 `yaml:"requests_per_second"` // Per-client API rate limit (default: 10)
	RateBurst         int     `yaml:"rate_burst"`          // Rate limiter burst size (default: 20)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	ResultsPath  string `yaml:"results_path"`  // SQLite file for analysis history (default: ./data/tidescan.db)
	PostgresDSN  string `yaml:"postgres_dsn"`  // Content corpus DSN; empty disables corpus retrieval
	EmbeddingDim int    `yaml:"embedding_dim"` // Embedding width of the corpus (default: 768)
}

// EmbeddingConfig contains embedding provider configuration.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"`            // Provider: ollama, openai (default: ollama)
	OllamaURL         string  `yaml:"ollama_url"`          // Ollama API URL (default: http://localhost:11434)
	Model             string  `yaml:"model"`               // Model name (default: nomic-embed-text)
	OpenAIAPIKey      string  `yaml:"openai_api_key"`      // OpenAI API key
	Workers           int     `yaml:"workers"`             // Batch embedding workers (default: 4)
	RequestsPerSecond float64 `yaml:"requests_per_second"` // Provider request rate limit (default: 10)
}

// AnalysisConfig tunes the saturation analysis pipeline.
type AnalysisConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // Cluster membership threshold (default: 0.7)
	MinNeighbors        int     `yaml:"min_neighbors"`        // Density minimum for a cluster core (default: 3)
	TrendWindowDays     int     `yaml:"trend_window_days"`    // Engagement trend lookback (default: 90)
	CandidateLimit      int     `yaml:"candidate_limit"`      // Max corpus candidates per analysis (default: 200)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string `yaml:"security_mode"` // Security mode: development, production (default: development)
	APIToken     string `yaml:"api_token"`     // API authentication token
}

// LoadConfig loads configuration from defaults, the optional YAML file named
// by TIDESCAN_CONFIG, and TIDESCAN_ environment variables, in that order.
func LoadConfig() (*Config, error) {
	return LoadConfigFromFile(os.Getenv("TIDESCAN_CONFIG"))
}

// LoadConfigFromFile loads configuration with an explicit YAML file path.
// An empty path skips the file layer. Environment variables still override
// file values.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Analysis.SimilarityThreshold <= 0 || c.Analysis.SimilarityThreshold >= 1 {
		return fmt.Errorf("config: similarity threshold must be in (0, 1), got %g", c.Analysis.SimilarityThreshold)
	}
	if c.Analysis.MinNeighbors < 1 {
		return fmt.Errorf("config: min neighbors must be positive, got %d", c.Analysis.MinNeighbors)
	}
	if c.Analysis.TrendWindowDays < 1 {
		return fmt.Errorf("config: trend window must be positive, got %d", c.Analysis.TrendWindowDays)
	}
	if c.Storage.EmbeddingDim < 1 {
		return fmt.Errorf("config: embedding dimension must be positive, got %d", c.Storage.EmbeddingDim)
	}
	if c.Security.SecurityMode == "production" && c.Security.APIToken == "" {
		return fmt.Errorf("config: TIDESCAN_API_TOKEN is required in production mode")
	}
	return nil
}

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              7373,
			Host:              "127.0.0.1",
			RequestsPerSecond: 10,
			RateBurst:         20,
		},
		Storage: StorageConfig{
			ResultsPath:  "./data/tidescan.db",
			PostgresDSN:  "",
			EmbeddingDim: 768,
		},
		Embedding: EmbeddingConfig{
			Provider:          "ollama",
			OllamaURL:         "http://localhost:11434",
			Model:             "nomic-embed-text",
			Workers:           4,
			RequestsPerSecond: 10,
		},
		Analysis: AnalysisConfig{
			SimilarityThreshold: 0.7,
			MinNeighbors:        3,
			TrendWindowDays:     90,
			CandidateLimit:      200,
		},
		Security: SecurityConfig{
			SecurityMode: "development",
			APIToken:     "",
		},
	}
}

// applyEnv overlays TIDESCAN_ environment variables on top of cfg.
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("TIDESCAN_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("TIDESCAN_HOST", cfg.Server.Host)
	cfg.Server.RequestsPerSecond = getEnvFloat("TIDESCAN_RATE_LIMIT", cfg.Server.RequestsPerSecond)
	cfg.Server.RateBurst = getEnvInt("TIDESCAN_RATE_BURST", cfg.Server.RateBurst)

	cfg.Storage.ResultsPath = getEnv("TIDESCAN_RESULTS_PATH", cfg.Storage.ResultsPath)
	cfg.Storage.PostgresDSN = getEnv("TIDESCAN_POSTGRES_DSN", cfg.Storage.PostgresDSN)
	cfg.Storage.EmbeddingDim = getEnvInt("TIDESCAN_EMBEDDING_DIM", cfg.Storage.EmbeddingDim)

	cfg.Embedding.Provider = getEnv("TIDESCAN_EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.OllamaURL = getEnv("TIDESCAN_OLLAMA_URL", cfg.Embedding.OllamaURL)
	cfg.Embedding.Model = getEnv("TIDESCAN_EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.OpenAIAPIKey = getEnv("TIDESCAN_OPENAI_API_KEY", cfg.Embedding.OpenAIAPIKey)
	cfg.Embedding.Workers = getEnvInt("TIDESCAN_EMBEDDING_WORKERS", cfg.Embedding.Workers)
	cfg.Embedding.RequestsPerSecond = getEnvFloat("TIDESCAN_EMBEDDING_RATE_LIMIT", cfg.Embedding.RequestsPerSecond)

	cfg.Analysis.SimilarityThreshold = getEnvFloat("TIDESCAN_SIMILARITY_THRESHOLD", cfg.Analysis.SimilarityThreshold)
	cfg.Analysis.MinNeighbors = getEnvInt("TIDESCAN_MIN_NEIGHBORS", cfg.Analysis.MinNeighbors)
	cfg.Analysis.TrendWindowDays = getEnvInt("TIDESCAN_TREND_WINDOW_DAYS", cfg.Analysis.TrendWindowDays)
	cfg.Analysis.CandidateLimit = getEnvInt("TIDESCAN_CANDIDATE_LIMIT", cfg.Analysis.CandidateLimit)

	cfg.Security.SecurityMode = getEnv("TIDESCAN_SECURITY_MODE", cfg.Security.SecurityMode)
	cfg.Security.APIToken = getEnv("TIDESCAN_API_TOKEN", cfg.Security.APIToken)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
