package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

const compress = false

// identityFile records which embedding model produced the persisted vectors.
const identityFile = "EMBEDDING_IDENTITY"

// ChromemStore is the default Store backend: an embedded chromem-go database
// persisted to a local directory.
type ChromemStore struct {
	db             *chromem.DB
	collection     *chromem.Collection
	dbPath         string
	collectionName string
	identity       string
	inMemory       bool
}

// NewChromemStore opens or creates the persistent index at dbPath. identity
// names the embedding model the index vectors belong to; opening an index
// recorded under a different identity fails instead of silently mixing
// embedding spaces.
func NewChromemStore(dbPath, collectionName string, inMemory bool, identity string) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	s := &ChromemStore{
		db:             db,
		dbPath:         dbPath,
		collectionName: collectionName,
		identity:       identity,
		inMemory:       inMemory,
	}
	if err := s.checkIdentity(); err != nil {
		return nil, err
	}
	if err := s.openCollection(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) openCollection() error {
	c, err := s.db.GetOrCreateCollection(s.collectionName, map[string]string{"embedding_identity": s.identity}, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	return nil
}

// checkIdentity compares the configured embedding identity against the one
// recorded next to the persisted index. Distances across embedding models
// are meaningless, so a mismatch is fatal.
func (s *ChromemStore) checkIdentity() error {
	if s.inMemory {
		return nil
	}
	path := filepath.Join(s.dbPath, identityFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return os.WriteFile(path, []byte(s.identity), 0o644)
	}
	if err != nil {
		return fmt.Errorf("reading identity marker: %w", err)
	}
	recorded := strings.TrimSpace(string(data))
	if recorded != s.identity {
		return fmt.Errorf("index was built with embedding model %q but %q is configured; rebuild the index", recorded, s.identity)
	}
	return nil
}

func (s *ChromemStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Content:   r.Chunk.Text,
			Metadata:  chunkMetadata(r.Chunk),
			Embedding: r.Vector,
		})
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, topN int) ([]Hit, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topN > count {
		topN = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, topN, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			Chunk: chunkFromMetadata(r.ID, r.Content, r.Metadata),
			// chromem reports cosine similarity, higher better.
			Distance: 1 - r.Similarity,
		})
	}
	// Ascending distance, ties broken by chunk ID for reproducible ranking.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	return hits, nil
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Reset wipes the collection for a full rebuild and re-records the identity
// marker for the currently configured embedding model.
func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if !s.inMemory {
		path := filepath.Join(s.dbPath, identityFile)
		if err := os.WriteFile(path, []byte(s.identity), 0o644); err != nil {
			return fmt.Errorf("writing identity marker: %w", err)
		}
	}
	log.Debug().Str("collection", s.collectionName).Msg("collection reset")
	return s.openCollection()
}

func (s *ChromemStore) Close() error {
	// chromem persists on write; nothing to flush.
	return nil
}
