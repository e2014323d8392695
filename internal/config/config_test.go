package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[llm]
provider = "openai"
model = "gpt-4o-mini"

[canonical]
threshold = 0.9

[canonical.aliases]
k8s = "kubernetes"

[search]
seed_limit = 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 0.9, cfg.Canonical.Threshold)
	assert.True(t, cfg.Canonical.Fuzzy, "unset keys keep defaults")
	assert.Equal(t, "kubernetes", cfg.Canonical.Aliases["k8s"])
	assert.Equal(t, 3, cfg.Search.SeedLimit)
	assert.Equal(t, 10, cfg.Search.EvidenceLimit)
	assert.Equal(t, 1800, cfg.Ingest.ChunkSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm\nprovider="), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MEMGRAPH_URI", "bolt://graph:7687")
	t.Setenv("SQLITE_PATH", "/tmp/kg.db")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Default()
	FromEnv(cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "bolt://graph:7687", cfg.Memgraph.URI)
	assert.Equal(t, "/tmp/kg.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Canonical.Threshold = 1.5
	cfg.Search.EvidenceLimit = 0
	cfg.Ingest.ChunkOverlap = cfg.Ingest.ChunkSize
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canonical.threshold")
	assert.Contains(t, err.Error(), "search.evidence_limit")
	assert.Contains(t, err.Error(), "ingest.chunk_overlap")
}

func TestValidate_CORSOrigins(t *testing.T) {
	cfg := Default()
	cfg.Server.CORSOrigins = []string{}
	assert.ErrorContains(t, cfg.Validate(), "server.cors_origins")

	cfg.Server.CORSOrigins = []string{"http://localhost:3000", " "}
	assert.ErrorContains(t, cfg.Validate(), "server.cors_origins entries")

	cfg.Server.CORSOrigins = []string{"localhost:3000"}
	assert.ErrorContains(t, cfg.Validate(), `"localhost:3000"`)

	cfg.Server.CORSOrigins = []string{"*"}
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyCORSOriginsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\ncors_origins = []\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.ErrorContains(t, cfg.Validate(), "server.cors_origins")
}
