// Package retrieval answers queries from the indexed degen-trading corpus
// with vector search, optional keyword search, a relevance cutoff and
// optional reranking.
package retrieval

import (
	"context"
	"errors"
	"fmt"
)

// Document is one retrieved chunk of the corpus. ID is unique across the
// collection; Score is a relevance in [0, 1] whose meaning depends on the
// stage that produced it.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// VectorSearcher ranks documents by embedding similarity to the query
type VectorSearcher interface {
	SearchVector(ctx context.Context, query string, topK int) ([]Document, error)
}

// KeywordSearcher ranks documents by lexical match
type KeywordSearcher interface {
	SearchKeyword(ctx context.Context, query string, topK int) ([]Document, error)
}

// Reranker reorders documents for a query and may prune to topN
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []Document, topN int) ([]Document, error)
}

// Embedder turns texts into embedding vectors
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// CollectionLookupError reports a backing-store failure other than the
// collection not existing. It is never recovered.
type CollectionLookupError struct {
	Collection string
	Err        error
}

func (e *CollectionLookupError) Error() string {
	return fmt.Sprintf("collection %q lookup failed: %v", e.Collection, e.Err)
}

func (e *CollectionLookupError) Unwrap() error {
	return e.Err
}

// IsCollectionLookupError reports whether err wraps a CollectionLookupError
func IsCollectionLookupError(err error) bool {
	var cle *CollectionLookupError
	return errors.As(err, &cle)
}
