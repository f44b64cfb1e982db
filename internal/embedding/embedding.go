package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"bookrag/internal/config"
	"bookrag/internal/models"
)

// ChunkVector pairs a chunk with its embedding, ready for upsert.
type ChunkVector struct {
	Chunk  models.Chunk
	Vector []float32
}

// Identity names the embedding space. Vectors from different identities are
// never comparable; the vector store records this string and refuses to open
// under a different one.
func Identity(cfg *config.LLMConfig) string {
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return provider + "/" + cfg.Model
}

// NewEmbedder builds a langchaingo embedder for the configured provider.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case "", "openai":
		return newOpenAIEmbedder(cfg)
	case "ollama":
		return newOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

func newOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedQuery embeds one piece of text, bounded by the configured timeout.
func EmbedQuery(ctx context.Context, embedder embeddings.Embedder, cfg *config.LLMConfig, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	vec, err := embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedder returned an empty vector")
	}
	return vec, nil
}

// EmbedChunks embeds every chunk in order. Any failure aborts the batch; a
// partially embedded corpus must not be upserted. The optional progress
// callback fires once per embedded chunk.
func EmbedChunks(ctx context.Context, embedder embeddings.Embedder, cfg *config.LLMConfig, chunks []models.Chunk, progress func()) ([]ChunkVector, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	vectors := make([]ChunkVector, 0, len(chunks))
	dim := 0
	for _, chunk := range chunks {
		vec, err := EmbedQuery(ctx, embedder, cfg, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %s: %w", chunk.ID, err)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, fmt.Errorf("embedding dimension changed mid-batch: got %d, want %d", len(vec), dim)
		}
		vectors = append(vectors, ChunkVector{Chunk: chunk, Vector: vec})
		if progress != nil {
			progress()
		}
	}
	return vectors, nil
}
