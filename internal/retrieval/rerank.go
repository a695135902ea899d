package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/metrics"
)

const (
	DefaultCohereURL   = "https://api.cohere.ai/v1/rerank"
	DefaultCohereModel = "rerank-english-v2.0"
)

// CohereReranker reorders documents with the Cohere rerank API
type CohereReranker struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
}

// NewCohereReranker creates a reranker; empty url and model use the defaults
func NewCohereReranker(apiKey, url, model string, httpClient *http.Client) *CohereReranker {
	if url == "" {
		url = DefaultCohereURL
	}
	if model == "" {
		model = DefaultCohereModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CohereReranker{
		apiKey:     apiKey,
		url:        url,
		model:      model,
		httpClient: httpClient,
	}
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank returns at most topN documents in the service's relevance order,
// with Score replaced by the relevance score
func (r *CohereReranker) Rerank(ctx context.Context, query string, docs []Document, topN int) ([]Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: texts,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	start := time.Now()
	result, err := r.do(req)
	metrics.RecordOutboundCall("cohere", "/rerank", float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(result.Results))
	for _, res := range result.Results {
		if res.Index < 0 || res.Index >= len(docs) {
			return nil, fmt.Errorf("rerank result index %d out of range", res.Index)
		}
		doc := docs[res.Index]
		doc.Score = res.RelevanceScore
		out = append(out, doc)
		if len(out) == topN {
			break
		}
	}

	log.Debug().
		Int("input", len(docs)).
		Int("output", len(out)).
		Msg("Reranked documents")

	return out, nil
}

func (r *CohereReranker) do(req *http.Request) (*rerankResponse, error) {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API returned status %d", resp.StatusCode)
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	return &result, nil
}
