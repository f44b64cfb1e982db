package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"bookrag/internal/models"
	"bookrag/internal/vectorstore"
)

// ErrEmptyIndex signals that the corpus has no indexed chunks. It is never
// masked: an empty corpus must surface as "no relevant context", not as an
// answer from model knowledge alone.
var ErrEmptyIndex = errors.New("vector index is empty")

// Candidate is one first-stage retrieval result. Transient, per query.
type Candidate struct {
	Chunk    models.Chunk
	Distance float32
}

// Retriever pulls the candidate pool for a query vector from the injected
// vector store.
type Retriever struct {
	store vectorstore.Store
}

func New(store vectorstore.Store) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns up to poolSize candidates, closest first. Failures are
// not retried here; callers decide whether a request dies or degrades.
func (r *Retriever) Retrieve(ctx context.Context, queryVector []float32, poolSize int) ([]Candidate, error) {
	if poolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", poolSize)
	}

	hits, err := r.store.Query(ctx, queryVector, poolSize)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrEmptyIndex
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, Candidate{Chunk: h.Chunk, Distance: h.Distance})
	}
	log.Debug().Int("pool", len(candidates)).Msg("retrieved candidate pool")
	return candidates, nil
}
