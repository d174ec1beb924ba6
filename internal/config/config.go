package config

import (
	"time"

	"orgdesk/pkg/config"
	"orgdesk/pkg/llm"
)

// Config stores environment configuration for the assistant service.
type Config struct {
	Port                 string
	DatabaseURL          string
	JWTSecret            string
	LLM                  llm.Config
	Embedding            llm.Config
	EmbeddingDimensions  int
	AgentMaxSteps        int
	ChatHistoryWindow    int
	RAGTopK              int
	ChunkMaxChars        int
	ChunkOverlap         int
	DocumentFetchTimeout time.Duration
}

// LoadConfig loads the assistant configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port:                 config.GetEnv("PORT", "8000"),
		DatabaseURL:          config.RequireEnv("DATABASE_URL"),
		JWTSecret:            config.RequireEnv("JWT_SECRET"),
		LLM:                  llm.LoadConfig(),
		Embedding:            llm.LoadEmbeddingConfig(),
		EmbeddingDimensions:  config.GetEnvInt("EMBEDDING_DIMENSIONS", 1024),
		AgentMaxSteps:        config.GetEnvInt("AI_AGENT_MAX_STEPS", 8),
		ChatHistoryWindow:    config.GetEnvInt("CHAT_HISTORY_WINDOW", 20),
		RAGTopK:              config.GetEnvInt("RAG_TOP_K", 5),
		ChunkMaxChars:        config.GetEnvInt("CHUNK_MAX_CHARS", 1200),
		ChunkOverlap:         config.GetEnvInt("CHUNK_OVERLAP", 200),
		DocumentFetchTimeout: parseDuration(config.GetEnv("DOCUMENT_FETCH_TIMEOUT", "20s"), 20*time.Second),
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
