package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laithdarras/universal-kg/internal/config"
	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/logger"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kg.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\nseed_limit = 7\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.SeedLimit)
	assert.Equal(t, "9999", cfg.Server.Port)

	require.NoError(t, os.WriteFile(path, []byte("[search]\nseed_limit = 0\n"), 0o644))
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestNew_InMemory(t *testing.T) {
	app, err := New(context.Background(), config.Default(), logger.Nop())
	require.NoError(t, err)
	defer app.Close(context.Background())

	assert.Nil(t, app.Engine.Persister)
	assert.Nil(t, app.Engine.Mirror)
}

func TestNew_RestoresFromSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "kg.db")

	first, err := New(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	res := first.Engine.ApplyTriples(ctx, []model.Triple{
		{Subject: "Redis", Relation: "is_a", Object: "cache", Source: "doc", Confidence: 0.8},
	})
	require.Equal(t, 1, res.Created)
	snap := first.Engine.Snapshot()
	require.NoError(t, first.Close(ctx))

	second, err := New(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer second.Close(ctx)
	assert.Equal(t, snap, second.Engine.Snapshot())
}

func TestNew_UnreachableSinks(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Addr = "127.0.0.1:1"
	_, err := New(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)

	cfg = config.Default()
	cfg.LLM.Provider = "carrier-pigeon"
	_, err = New(context.Background(), cfg, logger.Nop())
	assert.ErrorContains(t, err, "unsupported llm provider")
}
