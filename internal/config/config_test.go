package config

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AZURE_KEYVAULT_URL", "")
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MONGO_URI", "mongodb://db.internal:27017")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.internal:27017", cfg.MongoURI)
	assert.Equal(t, "tucsfe_ai", cfg.MongoDB)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 24, cfg.SessionTTLHours)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadOverridesAndListSplitting(t *testing.T) {
	t.Setenv("AZURE_KEYVAULT_URL", "")
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CHUNK_SIZE", "512")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoadMissingGeminiKey(t *testing.T) {
	t.Setenv("AZURE_KEYVAULT_URL", "")
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("GEMINI_API_KEY", "restore-me") // register cleanup, then unset
	os.Unsetenv("GEMINI_API_KEY")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
