package app

import (
	"context"
	"path/filepath"
	"testing"

	"studybuddy/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithLocalModelAndSQLite(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_PROVIDER", "none")
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("SESSION_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "sessions.db"))
	t.Setenv("MEMORY_MAX_TURNS", "4")

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	a, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.Nil(t, a.Deps.Embedder)
	assert.Nil(t, a.Deps.Stores)
	assert.NotNil(t, a.Deps.Repo)
	assert.Equal(t, 4, a.Deps.MaxTurns)
	assert.Contains(t, a.Deps.LLM.Name(), "ollama")

	s, err := a.Session(ctx, "cli")
	require.NoError(t, err)
	assert.Equal(t, "cli", s.ID())

	ended := s.NewSession(ctx)
	sessions, err := a.Deps.Repo.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, ended.SessionID, sessions[0].SessionID)
}

func TestNewWithoutSessionStore(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_PROVIDER", "none")
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("SESSION_STORE", "none")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, a.Deps.Repo)
	assert.NoError(t, a.Close())
	assert.Zero(t, a.Sessions().Len())
}
