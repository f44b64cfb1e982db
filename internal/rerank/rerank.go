package rerank

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"bookrag/internal/retriever"
)

// Stage is the optional second ranking pass. It is either Disabled or
// Enabled with a scoring client; there is no nil in-between. Reranker scores
// and retriever distances are never compared: whichever stage is active owns
// the final ordering outright.
type Stage interface {
	// Active reports whether a second-stage model re-scores candidates.
	Active() bool
	// Select returns the final top-k ordering drawn from the pool. The
	// result is always a subset of pool.
	Select(ctx context.Context, query string, pool []retriever.Candidate, topK int) ([]retriever.Candidate, error)
}

type disabled struct{}

// Disabled returns the pass-through stage: the first top-k candidates in
// retriever distance order.
func Disabled() Stage { return disabled{} }

func (disabled) Active() bool { return false }

func (disabled) Select(_ context.Context, _ string, pool []retriever.Candidate, topK int) ([]retriever.Candidate, error) {
	if topK > len(pool) {
		topK = len(pool)
	}
	return pool[:topK], nil
}

type enabled struct {
	client *Client
}

// Enabled returns a stage that re-scores the pool against the raw query text
// with a cross-encoder endpoint.
func Enabled(client *Client) Stage { return enabled{client: client} }

func (enabled) Active() bool { return true }

func (e enabled) Select(ctx context.Context, query string, pool []retriever.Candidate, topK int) ([]retriever.Candidate, error) {
	if len(pool) == 0 {
		return nil, nil
	}
	texts := make([]string, len(pool))
	for i, c := range pool {
		texts[i] = c.Chunk.Text
	}

	scores, err := e.client.Score(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	// Descending score; equal scores keep the retriever's relative order.
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	if topK > len(pool) {
		topK = len(pool)
	}
	out := make([]retriever.Candidate, 0, topK)
	for _, i := range idx[:topK] {
		out = append(out, pool[i])
	}
	log.Debug().Int("pool", len(pool)).Int("top_k", len(out)).Msg("reranked candidate pool")
	return out, nil
}
