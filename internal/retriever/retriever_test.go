package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrag/internal/models"
	"bookrag/internal/vectorstore"
)

type fakeStore struct {
	hits []vectorstore.Hit
	err  error
}

func (f *fakeStore) Upsert(ctx context.Context, records []vectorstore.Record) error { return nil }

func (f *fakeStore) Query(ctx context.Context, vector []float32, topN int) ([]vectorstore.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topN > len(f.hits) {
		topN = len(f.hits)
	}
	return f.hits[:topN], nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.hits), nil }
func (f *fakeStore) Reset(ctx context.Context) error        { return nil }
func (f *fakeStore) Close() error                           { return nil }

func hit(id string, distance float32) vectorstore.Hit {
	return vectorstore.Hit{Chunk: models.Chunk{ID: id, Text: "text " + id}, Distance: distance}
}

func TestRetrieveClosestFirst(t *testing.T) {
	store := &fakeStore{hits: []vectorstore.Hit{hit("a", 0.1), hit("b", 0.2), hit("c", 0.3)}}
	r := New(store)

	got, err := r.Retrieve(context.Background(), []float32{1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Chunk.ID)
	assert.Equal(t, float32(0.1), got[0].Distance)
	assert.Equal(t, "b", got[1].Chunk.ID)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := New(&fakeStore{})
	_, err := r.Retrieve(context.Background(), []float32{1}, 5)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestRetrieveStoreFailure(t *testing.T) {
	r := New(&fakeStore{err: errors.New("connection refused")})
	_, err := r.Retrieve(context.Background(), []float32{1}, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyIndex)
}

func TestRetrieveRejectsNonPositivePool(t *testing.T) {
	r := New(&fakeStore{hits: []vectorstore.Hit{hit("a", 0.1)}})
	_, err := r.Retrieve(context.Background(), []float32{1}, 0)
	assert.Error(t, err)
}
