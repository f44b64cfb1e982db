package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrag/internal/composer"
	"bookrag/internal/rerank"
)

func writeCorpusFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newIngestPipeline(store *fakeStore) *Pipeline {
	cfg := testConfig()
	comp := composer.New(&fakeLLM{answer: "x"}, &cfg.ChatLLM, 0)
	return New(store, &fakeEmbedder{}, rerank.Disabled(), comp, cfg)
}

func TestIngestBuildsCorpus(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "one.txt", "The first book has some content worth indexing.")
	writeCorpusFile(t, dir, "two.txt", "The second book has different content entirely.")
	writeCorpusFile(t, dir, "ignored.bin", "not a supported format")

	store := &fakeStore{}
	p := newIngestPipeline(store)

	report, err := p.Ingest(context.Background(), dir, IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)
	assert.Greater(t, report.Chunks, 0)
	assert.Empty(t, report.Skipped)

	// Full rebuild: wipe, then upsert every chunk.
	assert.Equal(t, 1, store.resets)
	assert.Len(t, store.upserted, report.Chunks)
	for _, r := range store.upserted {
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Vector)
	}
}

func TestIngestSkipsMalformedDocuments(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "good.txt", "readable content")
	writeCorpusFile(t, dir, "bad.pdf", "this is not a real pdf")

	store := &fakeStore{}
	p := newIngestPipeline(store)

	report, err := p.Ingest(context.Background(), dir, IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Documents)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0].Path, "bad.pdf")
}

func TestIngestDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "one.txt", "content to parse")

	store := &fakeStore{}
	p := newIngestPipeline(store)

	report, err := p.Ingest(context.Background(), dir, IngestOptions{DryRun: true})
	require.NoError(t, err)
	assert.Greater(t, report.Chunks, 0)
	assert.Zero(t, store.resets)
	assert.Empty(t, store.upserted)
}

func TestIngestIdempotentChunkIDs(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "one.txt", "The same document ingested twice must produce the same ids.")

	first := &fakeStore{}
	_, err := newIngestPipeline(first).Ingest(context.Background(), dir, IngestOptions{})
	require.NoError(t, err)

	second := &fakeStore{}
	_, err = newIngestPipeline(second).Ingest(context.Background(), dir, IngestOptions{})
	require.NoError(t, err)

	require.Equal(t, len(first.upserted), len(second.upserted))
	for i := range first.upserted {
		assert.Equal(t, first.upserted[i].ID, second.upserted[i].ID)
		assert.Equal(t, first.upserted[i].Vector, second.upserted[i].Vector)
	}
}

func TestIngestProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "one.txt", "short content")

	store := &fakeStore{}
	p := newIngestPipeline(store)

	total, ticks := 0, 0
	opts := IngestOptions{Progress: func(n int) func() {
		total = n
		return func() { ticks++ }
	}}
	report, err := p.Ingest(context.Background(), dir, opts)
	require.NoError(t, err)
	assert.Equal(t, report.Chunks, total)
	assert.Equal(t, report.Chunks, ticks)
}
