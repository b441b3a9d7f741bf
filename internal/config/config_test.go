package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env and restore after test
	origEnv := os.Environ()
	t.Cleanup(func() {
		os.Clearenv()
		for _, e := range origEnv {
			for i := 0; i < len(e); i++ {
				if e[i] == '=' {
					os.Setenv(e[:i], e[i+1:])
					break
				}
			}
		}
	})

	t.Run("defaults", func(t *testing.T) {
		os.Clearenv()
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "data/booksouls.db", cfg.DatabasePath)
		assert.Equal(t, "data/vector_stores", cfg.PersistDir)
		assert.Equal(t, "narrative", cfg.NarrativeCollection)
		assert.Equal(t, "dialogue", cfg.DialogueCollection)
		assert.Equal(t, "claude", cfg.CompletionProvider)
		assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 100, cfg.MinSectionTokens)
		assert.Equal(t, 4, cfg.TopCharacters)
		assert.Equal(t, 7, cfg.MaxSampleDialogues)
		assert.Equal(t, 85, cfg.FuzzyThreshold)
		assert.Equal(t, 5, cfg.NarrativeResults)
		assert.Equal(t, 5, cfg.DialogueResults)
		assert.Equal(t, 30*time.Second, cfg.ChapterTimeout)
		assert.Equal(t, 180*time.Second, cfg.DialogueTimeout)
	})

	t.Run("custom values", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("DATABASE_PATH", "/custom/path.db")
		os.Setenv("PERSIST_DIR", "/custom/stores")
		os.Setenv("ANTHROPIC_API_KEY", "sk-test")
		os.Setenv("TOP_CHARACTERS", "6")
		os.Setenv("MAX_SAMPLE_DIALOGUES", "0")
		os.Setenv("CHAPTER_TIMEOUT", "1m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "/custom/path.db", cfg.DatabasePath)
		assert.Equal(t, "/custom/stores", cfg.PersistDir)
		assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)
		assert.Equal(t, 6, cfg.TopCharacters)
		assert.Equal(t, 0, cfg.MaxSampleDialogues)
		assert.Equal(t, time.Minute, cfg.ChapterTimeout)
	})

	t.Run("invalid duration", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("CHAPTER_TIMEOUT", "invalid")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "CHAPTER_TIMEOUT")
	})

	t.Run("invalid integer", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("TOP_CHARACTERS", "notanumber")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "TOP_CHARACTERS")
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:   "test.db",
			PersistDir:     "stores",
			FuzzyThreshold: 85,
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing database path", func(t *testing.T) {
		cfg := &Config{PersistDir: "stores"}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_PATH")
	})

	t.Run("missing persist dir", func(t *testing.T) {
		cfg := &Config{DatabasePath: "test.db"}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "PERSIST_DIR")
	})

	t.Run("fuzzy threshold out of range", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:   "test.db",
			PersistDir:     "stores",
			FuzzyThreshold: 150,
		}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "FUZZY_THRESHOLD")
	})
}

func TestConfig_ValidateForCompletion(t *testing.T) {
	t.Run("claude with key", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:       "test.db",
			PersistDir:         "stores",
			CompletionProvider: "claude",
			AnthropicAPIKey:    "sk-test",
		}
		assert.NoError(t, cfg.ValidateForCompletion())
	})

	t.Run("claude missing key", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:       "test.db",
			PersistDir:         "stores",
			CompletionProvider: "claude",
		}
		err := cfg.ValidateForCompletion()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
	})

	t.Run("openai missing key", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:       "test.db",
			PersistDir:         "stores",
			CompletionProvider: "openai",
		}
		err := cfg.ValidateForCompletion()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:       "test.db",
			PersistDir:         "stores",
			CompletionProvider: "gemini",
		}
		err := cfg.ValidateForCompletion()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "COMPLETION_PROVIDER")
	})
}

func TestConfig_ValidateForEmbedding(t *testing.T) {
	t.Run("default providers", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:           "test.db",
			PersistDir:             "stores",
			NarrativeEmbedProvider: "default",
			DialogueEmbedProvider:  "default",
		}
		assert.NoError(t, cfg.ValidateForEmbedding())
	})

	t.Run("ollama missing host", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:           "test.db",
			PersistDir:             "stores",
			NarrativeEmbedProvider: "ollama",
		}
		err := cfg.ValidateForEmbedding()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "OLLAMA_HOST")
	})

	t.Run("openai missing key", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:          "test.db",
			PersistDir:            "stores",
			DialogueEmbedProvider: "openai",
		}
		err := cfg.ValidateForEmbedding()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &Config{
			DatabasePath:           "test.db",
			PersistDir:             "stores",
			NarrativeEmbedProvider: "cohere",
		}
		err := cfg.ValidateForEmbedding()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid embed provider")
	})
}

func TestConfig_ValidateForIndexing(t *testing.T) {
	base := func() *Config {
		return &Config{
			DatabasePath:       "test.db",
			PersistDir:         "stores",
			CompletionProvider: "claude",
			AnthropicAPIKey:    "sk-test",
			TopCharacters:      4,
			MaxSampleDialogues: 7,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().ValidateForIndexing())
	})

	t.Run("zero top characters", func(t *testing.T) {
		cfg := base()
		cfg.TopCharacters = 0
		err := cfg.ValidateForIndexing()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "TOP_CHARACTERS")
	})

	t.Run("negative sample limit", func(t *testing.T) {
		cfg := base()
		cfg.MaxSampleDialogues = -1
		err := cfg.ValidateForIndexing()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MAX_SAMPLE_DIALOGUES")
	})
}

func TestNormalizeOllamaHost(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "http://localhost:11434"},
		{"bind address", "0.0.0.0", "http://localhost:11434"},
		{"bind address with port", "0.0.0.0:11434", "http://localhost:11434"},
		{"no scheme", "myhost:11434", "http://myhost:11434"},
		{"with scheme", "http://myhost:11434", "http://myhost:11434"},
		{"https", "https://ollama.internal", "https://ollama.internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeOllamaHost(tt.in))
		})
	}
}
