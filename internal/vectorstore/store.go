package vectorstore

import (
	"context"
	"strconv"

	"bookrag/internal/models"
)

// Record is one persisted embedding keyed by chunk ID. The chunk snapshot
// travels with the vector so hits map straight back to citation metadata.
type Record struct {
	ID     string
	Vector []float32
	Chunk  models.Chunk
}

// Hit is one nearest-neighbor result. Distance is ascending-better; the
// store guarantees hits come back ordered by (distance, chunk ID).
type Hit struct {
	Chunk    models.Chunk
	Distance float32
}

// Store is the nearest-neighbor index over chunk embeddings. Reads are safe
// for concurrent use; writes (Upsert, Reset) belong to the ingestion
// maintenance window. Upsert is idempotent, last-write-wins by ID. A full
// corpus rebuild is Reset followed by re-upserting every chunk.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topN int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	Close() error
}

func chunkMetadata(c models.Chunk) map[string]string {
	return map[string]string{
		"file_name":   c.FileName,
		"source_path": c.SourcePath,
		"book_title":  c.BookTitle,
		"chapter":     c.Chapter,
		"page_number": strconv.Itoa(c.PageNumber),
		"ordinal":     strconv.Itoa(c.Ordinal),
	}
}

func chunkFromMetadata(id, text string, meta map[string]string) models.Chunk {
	page, _ := strconv.Atoi(meta["page_number"])
	ordinal, _ := strconv.Atoi(meta["ordinal"])
	return models.Chunk{
		ID:         id,
		Text:       text,
		PageNumber: page,
		Ordinal:    ordinal,
		FileName:   meta["file_name"],
		SourcePath: meta["source_path"],
		BookTitle:  meta["book_title"],
		Chapter:    meta["chapter"],
	}
}
