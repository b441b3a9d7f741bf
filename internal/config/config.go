package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DatabasePath string

	// Vector stores
	PersistDir             string // Base directory for vector store collections
	NarrativeCollection    string // Collection name for chapter/section content
	DialogueCollection     string // Collection name for dialogue and profiles
	NarrativeEmbedProvider string // "default", "ollama", or "openai"
	DialogueEmbedProvider  string // "default", "ollama", or "openai"

	// Completion provider: "claude" or "openai"
	CompletionProvider string
	CompletionModel    string

	// Anthropic API
	AnthropicAPIKey string

	// OpenAI API (completions and embeddings)
	OpenAIAPIKey string

	// Ollama
	OllamaHost  string
	OllamaModel string // Ollama model for embeddings (default: nomic-embed-text)

	// Chunking
	MinSectionTokens int

	// Character profiling
	TopCharacters      int // Characters profiled per chapter, ranked by dialogue count
	MaxSampleDialogues int // Sampled dialogues per profile, 0 means no limit
	FuzzyThreshold     int // Token-sort similarity needed to merge name variants

	// Completion request budgets
	ChapterTimeout  time.Duration
	DialogueTimeout time.Duration

	// Query defaults
	NarrativeResults int
	DialogueResults  int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:           getEnv("DATABASE_PATH", "data/booksouls.db"),
		PersistDir:             getEnv("PERSIST_DIR", "data/vector_stores"),
		NarrativeCollection:    getEnv("NARRATIVE_COLLECTION", "narrative"),
		DialogueCollection:     getEnv("DIALOGUE_COLLECTION", "dialogue"),
		NarrativeEmbedProvider: getEnv("NARRATIVE_EMBED_PROVIDER", "default"),
		DialogueEmbedProvider:  getEnv("DIALOGUE_EMBED_PROVIDER", "default"),
		CompletionProvider:     getEnv("COMPLETION_PROVIDER", "claude"),
		CompletionModel:        getEnv("COMPLETION_MODEL", ""),
		AnthropicAPIKey:        getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		OllamaHost:             normalizeOllamaHost(getEnv("OLLAMA_HOST", "http://localhost:11434")),
		OllamaModel:            getEnv("OLLAMA_MODEL", "nomic-embed-text"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	// Parse integers
	var err error
	cfg.MinSectionTokens, err = getEnvInt("MIN_SECTION_TOKENS", 100)
	if err != nil {
		return nil, err
	}
	cfg.TopCharacters, err = getEnvInt("TOP_CHARACTERS", 4)
	if err != nil {
		return nil, err
	}
	cfg.MaxSampleDialogues, err = getEnvInt("MAX_SAMPLE_DIALOGUES", 7)
	if err != nil {
		return nil, err
	}
	cfg.FuzzyThreshold, err = getEnvInt("FUZZY_THRESHOLD", 85)
	if err != nil {
		return nil, err
	}
	cfg.NarrativeResults, err = getEnvInt("NARRATIVE_RESULTS", 5)
	if err != nil {
		return nil, err
	}
	cfg.DialogueResults, err = getEnvInt("DIALOGUE_RESULTS", 5)
	if err != nil {
		return nil, err
	}

	// Parse durations
	cfg.ChapterTimeout, err = time.ParseDuration(getEnv("CHAPTER_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAPTER_TIMEOUT: %w", err)
	}
	cfg.DialogueTimeout, err = time.ParseDuration(getEnv("DIALOGUE_TIMEOUT", "180s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIALOGUE_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.PersistDir == "" {
		return fmt.Errorf("PERSIST_DIR is required")
	}
	if c.MinSectionTokens < 0 {
		return fmt.Errorf("MIN_SECTION_TOKENS must not be negative")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("FUZZY_THRESHOLD must be between 0 and 100")
	}
	return nil
}

// ValidateForCompletion checks configuration needed for LLM analysis.
func (c *Config) ValidateForCompletion() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.CompletionProvider {
	case "claude", "":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when COMPLETION_PROVIDER is claude")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when COMPLETION_PROVIDER is openai")
		}
	default:
		return fmt.Errorf("invalid COMPLETION_PROVIDER: %s (must be 'claude' or 'openai')", c.CompletionProvider)
	}
	return nil
}

// ValidateForEmbedding checks configuration needed for embedding generation.
func (c *Config) ValidateForEmbedding() error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, provider := range []string{c.NarrativeEmbedProvider, c.DialogueEmbedProvider} {
		switch provider {
		case "openai":
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required when an embed provider is openai")
			}
		case "ollama":
			if c.OllamaHost == "" {
				return fmt.Errorf("OLLAMA_HOST is required when an embed provider is ollama")
			}
		case "default", "":
		default:
			return fmt.Errorf("invalid embed provider: %s (must be 'default', 'ollama', or 'openai')", provider)
		}
	}
	return nil
}

// ValidateForIndexing checks all configuration needed to build indexes.
func (c *Config) ValidateForIndexing() error {
	if err := c.ValidateForCompletion(); err != nil {
		return err
	}
	if err := c.ValidateForEmbedding(); err != nil {
		return err
	}
	if c.TopCharacters < 1 {
		return fmt.Errorf("TOP_CHARACTERS must be at least 1")
	}
	if c.MaxSampleDialogues < 0 {
		return fmt.Errorf("MAX_SAMPLE_DIALOGUES must not be negative")
	}
	return nil
}

// ValidateForQuery checks configuration needed for retrieval.
func (c *Config) ValidateForQuery() error {
	if err := c.ValidateForEmbedding(); err != nil {
		return err
	}
	if c.NarrativeResults < 1 || c.DialogueResults < 1 {
		return fmt.Errorf("result counts must be at least 1")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// normalizeOllamaHost ensures the Ollama host has a proper URL scheme.
// This handles cases where OLLAMA_HOST is set to a bind address like "0.0.0.0"
// (used by Ollama server) instead of a client URL like "http://localhost:11434".
func normalizeOllamaHost(host string) string {
	if host == "" {
		return "http://localhost:11434"
	}

	// If it's just a bind address (0.0.0.0 or similar), use localhost instead
	if host == "0.0.0.0" || host == "0.0.0.0:11434" {
		return "http://localhost:11434"
	}

	// If it doesn't have a scheme, add http://
	if len(host) > 0 && host[0] != 'h' {
		// Check if it starts with http
		if len(host) < 4 || host[:4] != "http" {
			return "http://" + host
		}
	}

	return host
}
