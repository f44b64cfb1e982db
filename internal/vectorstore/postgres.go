package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"bookrag/internal/config"
	"bookrag/internal/models"
)

type pgChunk struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            string  `bun:"id,pk"`
	Text          string  `bun:"text,notnull"`
	FileName      string  `bun:"file_name"`
	SourcePath    string  `bun:"source_path"`
	BookTitle     string  `bun:"book_title"`
	Chapter       string  `bun:"chapter"`
	PageNumber    int     `bun:"page_number"`
	Ordinal       int     `bun:"ordinal"`
	Embedding     string  `bun:"embedding,notnull"`
	Distance      float32 `bun:"distance,scanonly"`
}

type pgMeta struct {
	bun.BaseModel `bun:"table:index_meta,alias:m"`
	Key           string `bun:"key,pk"`
	Value         string `bun:"value,notnull"`
}

// PgStore is the pgvector-backed Store for deployments that already run
// postgres (e.g. supabase). Same contract as ChromemStore.
type PgStore struct {
	db       *bun.DB
	identity string
	dim      int
}

// NewPgStore connects, ensures the schema, and verifies the recorded
// embedding identity.
func NewPgStore(ctx context.Context, cfg *config.StoreConfig, identity string, dim int) (*PgStore, error) {
	dsn := appendSSLMode(cfg.DSN)
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &PgStore{db: db, identity: identity, dim: dim}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.checkIdentity(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enabling pgvector: %w", err)
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
		id text PRIMARY KEY,
		text text NOT NULL,
		file_name text,
		source_path text,
		book_title text,
		chapter text,
		page_number int,
		ordinal int,
		embedding vector(%d) NOT NULL
	)`, s.dim)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating chunks table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*pgMeta)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating meta table: %w", err)
	}
	return nil
}

func (s *PgStore) checkIdentity(ctx context.Context) error {
	var meta pgMeta
	err := s.db.NewSelect().Model(&meta).Where("key = ?", "embedding_identity").Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return s.writeIdentity(ctx)
	}
	if err != nil {
		return fmt.Errorf("reading embedding identity: %w", err)
	}
	if meta.Value != s.identity {
		return fmt.Errorf("index was built with embedding model %q but %q is configured; rebuild the index", meta.Value, s.identity)
	}
	return nil
}

func (s *PgStore) writeIdentity(ctx context.Context) error {
	meta := &pgMeta{Key: "embedding_identity", Value: s.identity}
	_, err := s.db.NewInsert().Model(meta).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}

func (s *PgStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]pgChunk, 0, len(records))
	for _, r := range records {
		c := r.Chunk
		rows = append(rows, pgChunk{
			ID:         r.ID,
			Text:       c.Text,
			FileName:   c.FileName,
			SourcePath: c.SourcePath,
			BookTitle:  c.BookTitle,
			Chapter:    c.Chapter,
			PageNumber: c.PageNumber,
			Ordinal:    c.Ordinal,
			Embedding:  vectorLiteral(r.Vector),
		})
	}
	_, err := s.db.NewInsert().Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("text = EXCLUDED.text").
		Set("file_name = EXCLUDED.file_name").
		Set("source_path = EXCLUDED.source_path").
		Set("book_title = EXCLUDED.book_title").
		Set("chapter = EXCLUDED.chapter").
		Set("page_number = EXCLUDED.page_number").
		Set("ordinal = EXCLUDED.ordinal").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upserting chunks: %w", err)
	}
	return nil
}

func (s *PgStore) Query(ctx context.Context, vector []float32, topN int) ([]Hit, error) {
	lit := vectorLiteral(vector)
	var rows []pgChunk
	err := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("c.*").
		ColumnExpr("embedding <-> ?::vector AS distance", lit).
		OrderExpr("embedding <-> ?::vector ASC, id ASC", lit).
		Limit(topN).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, Hit{
			Chunk: models.Chunk{
				ID:         row.ID,
				Text:       row.Text,
				PageNumber: row.PageNumber,
				Ordinal:    row.Ordinal,
				FileName:   row.FileName,
				SourcePath: row.SourcePath,
				BookTitle:  row.BookTitle,
				Chapter:    row.Chapter,
			},
			Distance: row.Distance,
		})
	}
	return hits, nil
}

func (s *PgStore) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*pgChunk)(nil)).Count(ctx)
}

func (s *PgStore) Reset(ctx context.Context) error {
	if _, err := s.db.NewTruncateTable().Model((*pgChunk)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("truncating chunks: %w", err)
	}
	return s.writeIdentity(ctx)
}

func (s *PgStore) Close() error {
	return s.db.Close()
}

// appendSSLMode defaults sslmode=disable without clobbering a DSN that
// already carries query parameters or its own sslmode.
func appendSSLMode(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=disable"
	}
	return dsn + "?sslmode=disable"
}

// vectorLiteral renders a pgvector input literal: [0.1,0.2,...].
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
