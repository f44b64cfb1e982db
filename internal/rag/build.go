package rag

import (
	"context"
	"fmt"

	"bookrag/internal/composer"
	"bookrag/internal/config"
	"bookrag/internal/embedding"
	"bookrag/internal/rerank"
	"bookrag/internal/vectorstore"
)

// Build constructs a pipeline with every collaborator wired from config:
// vector store backend, embedder, optional reranker, and the composer. The
// caller owns the returned pipeline and must Close it.
func Build(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reranker := rerank.Disabled()
	if cfg.Rerank.Enabled {
		reranker = rerank.Enabled(rerank.NewClient(&cfg.Rerank))
	}

	llm, err := composer.NewChatModel(&cfg.ChatLLM)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("initializing chat model: %w", err)
	}
	comp := composer.New(llm, &cfg.ChatLLM, cfg.RAG.PromptCharBudget)

	return New(store, embedder, reranker, comp, cfg), nil
}

func openStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	identity := embedding.Identity(&cfg.EmbedLLM)
	switch cfg.Store.Backend {
	case "chromem":
		store, err := vectorstore.NewChromemStore(cfg.Store.Path, cfg.Store.Collection, false, identity)
		if err != nil {
			return nil, fmt.Errorf("opening chromem store: %w", err)
		}
		return store, nil
	case "postgres":
		// pgvector column width follows the embedding model; 768 covers the
		// nomic/bge family this service is deployed with.
		store, err := vectorstore.NewPgStore(ctx, &cfg.Store, identity, 768)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
