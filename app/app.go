// Package app builds the shared dependencies of the studybuddy binaries
// from configuration.
package app

import (
	"context"
	"fmt"

	"studybuddy/config"
	"studybuddy/db"
	"studybuddy/prompts"
	"studybuddy/services/agent"
	"studybuddy/services/llm"
	"studybuddy/services/pinecone"
	"studybuddy/services/retriever"
	"studybuddy/services/session"

	"go.uber.org/zap"
)

type App struct {
	Config *config.Config
	Deps   session.Deps

	repo db.SessionRepository
}

// New constructs the language model, embedder, vector store and session
// archive named by cfg. Missing embeddings degrade to raw-text documents
// rather than failing.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	client, err := llm.New(ctx, cfg.LLM, store.Text(prompts.System))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}

	embedder, err := retriever.NewEmbedder(ctx, cfg)
	if err != nil {
		zap.S().Warnf("Failed to initialize embedder, documents will be used as raw text: %v", err)
	}

	a := &App{
		Config: cfg,
		Deps: session.Deps{
			LLM:      client,
			Prompts:  store,
			Embedder: embedder,
			MaxTurns: cfg.MemoryMaxTurns,
			Agent: agent.Options{
				Reflect:          cfg.AgentReflect,
				Reason:           cfg.AgentReason,
				Recover:          cfg.AgentRecover,
				ModelSuggestions: cfg.AgentSuggest,
			},
		},
	}

	if cfg.VectorStore == config.VectorStorePinecone {
		svc, err := pinecone.NewService(ctx, cfg.Pinecone)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Pinecone: %w", err)
		}
		a.Deps.Stores = func(_ context.Context, sessionID string) (retriever.VectorStore, error) {
			return svc.ForNamespace(sessionID)
		}
	}

	repo, err := newRepository(cfg)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		a.repo = repo
		a.Deps.Repo = repo
	}

	return a, nil
}

func newRepository(cfg *config.Config) (db.SessionRepository, error) {
	switch cfg.SessionStore {
	case config.SessionStoreSQLite:
		repo, err := db.NewSQLiteSessionRepository(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session database: %w", err)
		}
		return repo, nil
	case config.SessionStorePostgres:
		repo, err := db.NewPostgresSessionRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session database: %w", err)
		}
		return repo, nil
	}
	return nil, nil
}

// Session opens a standalone session, as used by the CLI and MCP server.
func (a *App) Session(ctx context.Context, id string) (*session.Session, error) {
	return session.New(ctx, id, a.Deps)
}

func (a *App) Sessions() *session.Manager {
	return session.NewManager(a.Deps)
}

func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}
