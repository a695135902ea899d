package retrieval

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// DBPool is an interface for database operations
// This allows us to use both real pgxpool.Pool and mocks in tests
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var collectionName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// chunks embedded and inserted per transaction
const ingestBatchSize = 64

// PGStore keeps the corpus in a Postgres table with a pgvector column
// searched by cosine distance and a tsvector column for keyword search
type PGStore struct {
	pool       DBPool
	collection string
	dimension  int
	embedder   Embedder
}

// NewPGStore creates a store over the named collection table
func NewPGStore(pool DBPool, collection string, dimension int, embedder Embedder) (*PGStore, error) {
	if !collectionName.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	return &PGStore{
		pool:       pool,
		collection: collection,
		dimension:  dimension,
		embedder:   embedder,
	}, nil
}

// Collection returns the backing table name
func (s *PGStore) Collection() string {
	return s.collection
}

// Exists reports whether the collection table exists. Any error is a
// CollectionLookupError.
func (s *PGStore) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, s.collection).Scan(&exists)
	if err != nil {
		return false, &CollectionLookupError{Collection: s.collection, Err: err}
	}
	return exists, nil
}

// Create creates the collection table with a vector column of the
// configured dimension, an HNSW cosine index and a full-text index
func (s *PGStore) Create(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			chunk INTEGER NOT NULL DEFAULT 0,
			embedding vector(%d) NOT NULL,
			tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', content)) STORED
		)`, s.collection, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`, s.collection, s.collection),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_tsv_idx ON %s USING gin (tsv)`, s.collection, s.collection),
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
		}
	}

	log.Info().
		Str("collection", s.collection).
		Int("dimension", s.dimension).
		Msg("Created vector collection")
	return nil
}

// Drop removes the collection table
func (s *PGStore) Drop(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.collection)); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
	}
	return nil
}

// EnsureCollection creates and populates the collection from dir when it
// does not exist yet. It reports whether the collection was created. A
// failed load drops the table again so the next start retries it.
func (s *PGStore) EnsureCollection(ctx context.Context, dir string, chunker Chunker) (bool, error) {
	exists, err := s.Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		log.Info().Str("collection", s.collection).Msg("Using existing vector collection")
		return false, nil
	}

	if err := s.Create(ctx); err != nil {
		return false, err
	}

	chunks, err := LoadDirectory(dir, chunker)
	if err == nil {
		err = s.Ingest(ctx, chunks)
	}
	if err != nil {
		if dropErr := s.Drop(context.WithoutCancel(ctx)); dropErr != nil {
			log.Error().Err(dropErr).Str("collection", s.collection).Msg("Failed to drop partially loaded collection")
		}
		return false, err
	}
	return true, nil
}

// Ingest embeds chunks and inserts them in batches. Chunks already
// present are left untouched.
func (s *PGStore) Ingest(ctx context.Context, chunks []Chunk) error {
	if s.embedder == nil {
		return fmt.Errorf("no embedder configured for collection %s", s.collection)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (id, content, source, chunk, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`, s.collection)

	for start := 0; start < len(chunks); start += ingestBatchSize {
		end := min(start+ingestBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		embeddings, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(batch))
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin ingest transaction: %w", err)
		}
		for i, c := range batch {
			if _, err := tx.Exec(ctx, insert, c.ID, c.Content, c.Source, c.Index, pgvector.NewVector(embeddings[i])); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit ingest transaction: %w", err)
		}
	}

	log.Info().
		Str("collection", s.collection).
		Int("chunks", len(chunks)).
		Msg("Ingested documents")
	return nil
}

// SearchVector returns the topK chunks closest to the query embedding.
// Score is the cosine similarity.
func (s *PGStore) SearchVector(ctx context.Context, query string, topK int) ([]Document, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured for collection %s", s.collection)
	}
	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 || len(embeddings[0]) != s.dimension {
		return nil, fmt.Errorf("query embedding must have %d dimensions", s.dimension)
	}

	sql := fmt.Sprintf(`
		SELECT id, content, source, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.collection)

	return s.query(ctx, sql, pgvector.NewVector(embeddings[0]), topK)
}

// SearchKeyword returns the topK chunks by full-text rank. Score is the
// rank normalized into [0, 1).
func (s *PGStore) SearchKeyword(ctx context.Context, query string, topK int) ([]Document, error) {
	sql := fmt.Sprintf(`
		SELECT id, content, source, ts_rank(tsv, plainto_tsquery('english', $1), 32) AS score
		FROM %s
		WHERE tsv @@ plainto_tsquery('english', $1)
		ORDER BY score DESC
		LIMIT $2
	`, s.collection)

	return s.query(ctx, sql, query, topK)
}

func (s *PGStore) query(ctx context.Context, sql string, args ...interface{}) ([]Document, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", s.collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var source string
		if err := rows.Scan(&doc.ID, &doc.Content, &source, &doc.Score); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Metadata = map[string]string{"source": source}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}
