package llm

import (
	"fmt"
	"strings"

	"orgdesk/pkg/config"
)

type Config struct {
	Provider string
	Model    string
	APIKey   string
	APIURL   string
}

// LoadConfig loads chat provider configuration from LLM_* env vars.
func LoadConfig() Config {
	return Config{
		Provider: config.GetEnv("LLM_PROVIDER", "cohere"),
		Model:    config.GetEnv("LLM_MODEL", "command-r-plus"),
		APIKey:   config.GetEnv("LLM_API_KEY", config.GetEnv("COHERE_API_KEY", "")),
		APIURL:   config.GetEnv("LLM_API_URL", ""),
	}
}

// LoadEmbeddingConfig loads embedding-specific configuration from EMBEDDING_*
// env vars, falling back to their LLM_* counterparts when unset.
func LoadEmbeddingConfig() Config {
	return Config{
		Provider: config.GetEnv("EMBEDDING_PROVIDER", config.GetEnv("LLM_PROVIDER", "cohere")),
		Model:    config.GetEnv("EMBEDDING_MODEL", "embed-english-v3.0"),
		APIKey:   config.GetEnv("EMBEDDING_API_KEY", config.GetEnv("LLM_API_KEY", config.GetEnv("COHERE_API_KEY", ""))),
		APIURL:   config.GetEnv("EMBEDDING_API_URL", config.GetEnv("LLM_API_URL", "")),
	}
}

func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "cohere", "":
		return NewCohereProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
