package rag

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"bookrag/internal/chunker"
	"bookrag/internal/embedding"
	"bookrag/internal/models"
	"bookrag/internal/parser"
	"bookrag/internal/vectorstore"
)

// SkippedFile records one document dropped during corpus build.
type SkippedFile struct {
	Path   string
	Reason string
}

// IngestReport summarizes a corpus build.
type IngestReport struct {
	Documents int
	Chunks    int
	Skipped   []SkippedFile
}

// IngestOptions tunes one ingestion run.
type IngestOptions struct {
	// DryRun parses and chunks but neither embeds nor writes the store.
	DryRun bool
	// Progress, if set, is called with the total chunk count and returns a
	// per-chunk tick callback (used for the CLI progress bar).
	Progress func(total int) func()
}

// Ingest rebuilds the corpus from every supported file under dir: parse,
// chunk, embed, then wipe the store and batch-upsert the replacement chunks.
// Rebuild is always full; there is no incremental diff. Malformed documents
// are skipped and reported; an embedding failure aborts the whole run so a
// half-embedded corpus never reaches the store.
//
// Ingestion is a maintenance-window operation: it must not run concurrently
// with serving traffic.
func (p *Pipeline) Ingest(ctx context.Context, dir string, opts IngestOptions) (*IngestReport, error) {
	report := &IngestReport{}

	paths, err := collectFiles(dir)
	if err != nil {
		return nil, newError(KindIngestion, "scanning corpus directory", err)
	}

	var docs []models.Document
	for _, path := range paths {
		parsed, err := parser.Parse(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping document")
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			continue
		}
		docs = append(docs, parsed...)
	}
	report.Documents = len(docs)

	var chunks []models.Chunk
	for i := range docs {
		split, err := chunker.Split(&docs[i], p.cfg.RAG.ChunkSize, p.cfg.RAG.ChunkOverlap)
		if err != nil {
			return nil, newError(KindIngestion, "chunking "+docs[i].SourcePath, err)
		}
		chunks = append(chunks, split...)
	}
	report.Chunks = len(chunks)

	log.Info().
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Int("skipped", len(report.Skipped)).
		Msg("corpus parsed")

	if opts.DryRun {
		return report, nil
	}

	var tick func()
	if opts.Progress != nil {
		tick = opts.Progress(len(chunks))
	}
	vectors, err := embedding.EmbedChunks(ctx, p.embedder, &p.cfg.EmbedLLM, chunks, tick)
	if err != nil {
		return nil, newError(KindEmbedding, "embedding corpus", err)
	}

	if err := p.store.Reset(ctx); err != nil {
		return nil, newError(KindIngestion, "wiping vector store", err)
	}
	records := make([]vectorstore.Record, 0, len(vectors))
	for _, v := range vectors {
		records = append(records, vectorstore.Record{ID: v.Chunk.ID, Vector: v.Vector, Chunk: v.Chunk})
	}
	if err := p.store.Upsert(ctx, records); err != nil {
		return nil, newError(KindIngestion, "storing embeddings", err)
	}

	log.Info().Int("chunks", len(records)).Msg("corpus indexed")
	return report, nil
}

// collectFiles lists supported files under dir in a stable order.
func collectFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if parser.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
