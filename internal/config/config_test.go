package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		PostgresURL:         "postgres://localhost/test",
		EmbedProvider:       "mock",
		LLMProvider:         "mock",
		ChunkSize:           1000,
		ChunkOverlap:        150,
		SearchLimit:         10,
		SimilarityThreshold: 0.15,
		EmbedDim:            768,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, 1000, cfg.ChunkSize)
	require.Equal(t, 150, cfg.ChunkOverlap)
	require.Equal(t, 10, cfg.SearchLimit)
	require.InDelta(t, 0.15, cfg.SimilarityThreshold, 1e-9)
	require.Equal(t, 768, cfg.EmbedDim)
	require.NotEmpty(t, cfg.FallbackAnswer)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOCCHAT_CHUNK_SIZE", "500")
	t.Setenv("DOCCHAT_SIMILARITY_THRESHOLD", "0.4")
	t.Setenv("DOCCHAT_EMBED_PROVIDER", "ollama")

	cfg := Load()
	require.Equal(t, 500, cfg.ChunkSize)
	require.InDelta(t, 0.4, cfg.SimilarityThreshold, 1e-9)
	require.Equal(t, "ollama", cfg.EmbedProvider)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("DOCCHAT_CHUNK_SIZE", "not-a-number")
	cfg := Load()
	require.Equal(t, 1000, cfg.ChunkSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "chunk size"},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, "non-negative"},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, "less than chunk size"},
		{"zero search limit", func(c *Config) { c.SearchLimit = 0 }, "search limit"},
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }, "similarity threshold"},
		{"zero embed dim", func(c *Config) { c.EmbedDim = 0 }, "embedding dimension"},
		{"empty postgres url", func(c *Config) { c.PostgresURL = "  " }, "postgres url"},
		{"openai without key", func(c *Config) { c.LLMProvider = "openai" }, "OPENAI_API_KEY"},
		{"google without key", func(c *Config) { c.EmbedProvider = "google" }, "GOOGLE_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblemsAtOnce(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkSize = 0
	cfg.SearchLimit = 0
	cfg.EmbedDim = -1

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "chunk size")
	require.Contains(t, err.Error(), "search limit")
	require.Contains(t, err.Error(), "embedding dimension")
}
