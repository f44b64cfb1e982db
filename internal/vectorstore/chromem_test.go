package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrag/internal/models"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	s, err := NewChromemStore("", "test_collection", true, "openai/test-model")
	require.NoError(t, err)
	return s
}

func record(id string, vec []float32) Record {
	return Record{
		ID:     id,
		Vector: vec,
		Chunk: models.Chunk{
			ID:         id,
			Text:       "text " + id,
			PageNumber: 1,
			FileName:   "f.pdf",
		},
	}
}

func TestChromemUpsertAndQueryOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []Record{
		record("far", []float32{0, 1, 0}),
		record("near", []float32{1, 0, 0}),
		record("mid", []float32{0.9, 0.1, 0}),
	}))

	hits, err := s.Query(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].Chunk.ID)
	assert.Equal(t, "mid", hits[1].Chunk.ID)
	assert.Equal(t, "far", hits[2].Chunk.ID)
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
	assert.LessOrEqual(t, hits[1].Distance, hits[2].Distance)
}

func TestChromemQueryTieBreaksByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Identical vectors produce identical distances; order must fall back
	// to chunk ID.
	require.NoError(t, s.Upsert(ctx, []Record{
		record("zeta", []float32{0, 1, 0}),
		record("alpha", []float32{0, 1, 0}),
		record("query-match", []float32{1, 0, 0}),
	}))

	hits, err := s.Query(ctx, []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "alpha", hits[0].Chunk.ID)
	assert.Equal(t, "zeta", hits[1].Chunk.ID)
}

func TestChromemQueryDeterministic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Record{
		record("a", []float32{0.4, 0.6, 0}),
		record("b", []float32{0.5, 0.5, 0}),
		record("c", []float32{0.6, 0.4, 0}),
	}))

	first, err := s.Query(ctx, []float32{1, 0.2, 0}, 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Query(ctx, []float32{1, 0.2, 0}, 3)
		require.NoError(t, err)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Chunk.ID, again[j].Chunk.ID)
		}
	}
}

func TestChromemUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []Record{record("a", []float32{1, 0, 0})}))
	require.NoError(t, s.Upsert(ctx, []Record{record("a", []float32{1, 0, 0})}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChromemQueryEmptyIndex(t *testing.T) {
	s := newTestStore(t)
	hits, err := s.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestChromemQueryClampsTopN(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Record{record("only", []float32{1, 0, 0})}))

	hits, err := s.Query(ctx, []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestChromemReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Record{record("a", []float32{1, 0, 0})}))
	require.NoError(t, s.Reset(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestChunkMetadataRoundTrip(t *testing.T) {
	in := models.Chunk{
		ID:         "id1",
		Text:       "body",
		PageNumber: 7,
		Ordinal:    2,
		FileName:   "b.pdf",
		SourcePath: "/data/b.pdf",
		BookTitle:  "B",
		Chapter:    "Three",
	}
	out := chunkFromMetadata(in.ID, in.Text, chunkMetadata(in))
	assert.Equal(t, in, out)
}

func TestChromemIdentityMismatchFails(t *testing.T) {
	dir := t.TempDir()
	s, err := NewChromemStore(dir, "c", false, "openai/model-a")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewChromemStore(dir, "c", false, "openai/model-b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rebuild the index")
}
