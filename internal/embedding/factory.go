package embedding

import (
	"fmt"
	"time"
)

// ProviderConfig selects and configures the embedding provider.
type ProviderConfig struct {
	Provider string        // "ollama" (default) or "openai"
	BaseURL  string        // provider base URL, defaults per provider
	APIKey   string        // API key for hosted providers
	Model    string        // embedding model name, defaults per provider
	Timeout  time.Duration // per-request timeout, defaults per provider
}

// NewProvider creates the embedding provider named by the configuration.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}
