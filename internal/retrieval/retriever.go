package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/metrics"
)

// Retriever combines the search stages. Vector is required; the other
// stages are skipped when unset.
type Retriever struct {
	Vector  VectorSearcher
	Keyword KeywordSearcher

	// Cutoff drops merged documents scoring below it; 0 disables the cutoff
	Cutoff float64

	Reranker Reranker
	TopN     int
}

// Retrieve returns up to topK documents per search, merged, filtered and
// optionally reranked
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Document, error) {
	if r.Vector == nil {
		return nil, errors.New("retriever has no vector search configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is empty")
	}

	vector, err := r.Vector.SearchVector(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	metrics.RecordRetrieval("vector", len(vector))

	var keyword []Document
	if r.Keyword != nil {
		keyword, err = r.Keyword.SearchKeyword(ctx, query, topK)
		if err != nil {
			return nil, fmt.Errorf("keyword search failed: %w", err)
		}
		metrics.RecordRetrieval("keyword", len(keyword))
	}

	docs := Merge(keyword, vector)
	metrics.RecordRetrieval("merged", len(docs))

	if r.Cutoff > 0 {
		docs = ApplyCutoff(docs, r.Cutoff)
		metrics.RecordRetrieval("cutoff", len(docs))
	}

	if r.Reranker != nil && len(docs) > 0 {
		topN := r.TopN
		if topN <= 0 {
			topN = len(docs)
		}
		docs, err = r.Reranker.Rerank(ctx, query, docs, topN)
		if err != nil {
			return nil, fmt.Errorf("rerank failed: %w", err)
		}
		metrics.RecordRetrieval("reranked", len(docs))
	}

	log.Debug().
		Str("query", query).
		Int("vector", len(vector)).
		Int("keyword", len(keyword)).
		Int("returned", len(docs)).
		Msg("Retrieved documents")

	return docs, nil
}
