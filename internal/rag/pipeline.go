package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"bookrag/internal/citation"
	"bookrag/internal/composer"
	"bookrag/internal/config"
	"bookrag/internal/embedding"
	"bookrag/internal/models"
	"bookrag/internal/rerank"
	"bookrag/internal/retriever"
	"bookrag/internal/vectorstore"
)

// Pipeline wires the retrieval stages together. Every collaborator is an
// explicit injected dependency with its own lifecycle; the pipeline holds no
// global state and requests share nothing but the vector store.
type Pipeline struct {
	store     vectorstore.Store
	embedder  embeddings.Embedder
	retriever *retriever.Retriever
	reranker  rerank.Stage
	composer  *composer.Composer
	cfg       *config.Config
}

func New(store vectorstore.Store, embedder embeddings.Embedder, reranker rerank.Stage, comp *composer.Composer, cfg *config.Config) *Pipeline {
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		retriever: retriever.New(store),
		reranker:  reranker,
		composer:  comp,
		cfg:       cfg,
	}
}

// Close releases the vector store.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Ask answers one question: embed, retrieve the pool, optionally rerank,
// map citations, compose. Any stage failure before the answer surfaces as a
// typed error and no partial response is returned.
func (p *Pipeline) Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	topK, poolSize, err := p.validate(&req)
	if err != nil {
		return nil, err
	}

	queryVector, err := p.embedQuery(ctx, req.Question)
	if err != nil {
		return nil, err
	}

	pool, err := p.retriever.Retrieve(ctx, queryVector, poolSize)
	if err != nil {
		if errors.Is(err, retriever.ErrEmptyIndex) {
			return nil, newError(KindRetrieval, "no relevant context", err)
		}
		return nil, newError(KindRetrieval, "retrieving candidate pool", err)
	}

	ranked, degraded := p.selectTopK(ctx, req, pool, topK)

	chunks := make([]models.Chunk, 0, len(ranked))
	for _, c := range ranked {
		chunks = append(chunks, c.Chunk)
	}
	sources := citation.MapChunks(chunks, p.cfg.RAG.ViewerBaseURL)

	answer, citations, err := p.composer.Compose(ctx, req.Question, req.AdditionalContext, sources, req.Temperature)
	if err != nil {
		return nil, newError(KindComposition, "generating answer", err)
	}

	return &models.AskResponse{
		Answer:    answer,
		Citations: citations,
		Sources:   sources,
		Degraded:  degraded,
	}, nil
}

func (p *Pipeline) validate(req *models.AskRequest) (topK, poolSize int, err error) {
	if strings.TrimSpace(req.Question) == "" {
		return 0, 0, newError(KindValidation, "question must not be empty", nil)
	}
	topK = req.TopK
	if topK == 0 {
		topK = p.cfg.RAG.TopK
	}
	poolSize = req.PoolSize
	if poolSize == 0 {
		poolSize = p.cfg.RAG.PoolSize
	}
	if topK < 1 {
		return 0, 0, newError(KindValidation, fmt.Sprintf("top_k must be positive, got %d", topK), nil)
	}
	if poolSize < topK {
		return 0, 0, newError(KindValidation, fmt.Sprintf("pool_size (%d) must be at least top_k (%d)", poolSize, topK), nil)
	}
	if t := req.Temperature; t != nil && (*t < 0 || *t > models.MaxTemperature) {
		return 0, 0, newError(KindValidation, fmt.Sprintf("temperature must be in [0, %g], got %g", models.MaxTemperature, *t), nil)
	}
	return topK, poolSize, nil
}

func (p *Pipeline) embedQuery(ctx context.Context, question string) ([]float32, error) {
	vec, err := embedding.EmbedQuery(ctx, p.embedder, &p.cfg.EmbedLLM, question)
	if err != nil {
		return nil, newError(KindEmbedding, "embedding query", err)
	}
	return vec, nil
}

// selectTopK applies the active ranking stage. A reranker failure degrades
// to the retriever's distance order; the request still succeeds with the
// degradation recorded on the response.
func (p *Pipeline) selectTopK(ctx context.Context, req models.AskRequest, pool []retriever.Candidate, topK int) ([]retriever.Candidate, bool) {
	stage := p.reranker
	if !req.RerankEnabled() {
		stage = rerank.Disabled()
	}

	ranked, err := stage.Select(ctx, req.Question, pool, topK)
	if err == nil {
		return ranked, false
	}

	rerr := newError(KindRerank, "reranker unavailable, using retriever order", err)
	log.Warn().Err(rerr).Msg("rerank stage degraded")
	ranked, _ = rerank.Disabled().Select(ctx, req.Question, pool, topK)
	return ranked, true
}
