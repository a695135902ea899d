package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ajitpratap0/degenbots/internal/market"
	"github.com/ajitpratap0/degenbots/internal/metrics"
	"github.com/ajitpratap0/degenbots/internal/news"
	"github.com/ajitpratap0/degenbots/internal/retrieval"
)

// Kind identifies one of the fixed tool variants
type Kind int

const (
	KindMarketData Kind = iota + 1
	KindNewsProcessing
	KindRetrieval
)

// Tool names exposed to the reasoning engine
const (
	MarketDataToolName     = "fetch_coingecko_market_data"
	NewsProcessingToolName = "process_news_articles"
	RetrievalToolName      = "degen_trader_query_engine"
)

// NoPassages is returned by the retrieval tool when nothing matches
const NoPassages = "No relevant passages found in the degen trading corpus."

func (k Kind) String() string {
	switch k {
	case KindMarketData:
		return "market_data"
	case KindNewsProcessing:
		return "news_processing"
	case KindRetrieval:
		return "retrieval"
	default:
		return "unknown"
	}
}

// MarketFetcher fetches CoinGecko market data
type MarketFetcher interface {
	FetchMarketData(ctx context.Context, coinID string) ([]market.MarketRecord, error)
}

// NewsCollector returns processed news articles
type NewsCollector interface {
	Collect(ctx context.Context, limit int) ([]news.Article, error)
}

// DocumentRetriever answers a query from the indexed corpus
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.Document, error)
}

// ArgumentError reports tool arguments that do not match the tool schema
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Tool is one member of the closed tool set. The reasoning engine only
// sees its name, description and input schema; invocation goes through
// Invoke, which validates arguments before running.
type Tool struct {
	kind        Kind
	name        string
	description string
	schema      map[string]interface{}
	validator   *jsonschema.Schema
	run         func(ctx context.Context, args map[string]interface{}) (string, error)
}

// Kind returns the tool variant
func (t *Tool) Kind() Kind { return t.kind }

// Name returns the name the reasoning engine calls the tool by
func (t *Tool) Name() string { return t.name }

// Description returns the usage description shown to the reasoning engine
func (t *Tool) Description() string { return t.description }

// InputSchema returns the JSON schema of the tool arguments
func (t *Tool) InputSchema() map[string]interface{} { return t.schema }

// Invoke validates argsJSON against the input schema and runs the tool
func (t *Tool) Invoke(ctx context.Context, argsJSON string) (string, error) {
	start := time.Now()

	args, err := t.decodeArgs(argsJSON)
	if err != nil {
		metrics.RecordToolCall(t.name, float64(time.Since(start).Milliseconds()), err)
		return "", err
	}

	log.Debug().
		Str("tool", t.name).
		Interface("args", args).
		Msg("Invoking tool")

	result, err := t.run(ctx, args)
	metrics.RecordToolCall(t.name, float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		log.Error().Err(err).Str("tool", t.name).Msg("Tool call failed")
		return "", fmt.Errorf("%s failed: %w", t.name, err)
	}
	return result, nil
}

func (t *Tool) decodeArgs(argsJSON string) (map[string]interface{}, error) {
	if strings.TrimSpace(argsJSON) == "" {
		argsJSON = "{}"
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(argsJSON), &raw); err != nil {
		return nil, &ArgumentError{Tool: t.name, Err: err}
	}
	if err := t.validator.Validate(raw); err != nil {
		return nil, &ArgumentError{Tool: t.name, Err: err}
	}

	args, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &ArgumentError{Tool: t.name, Err: errors.New("arguments must be an object")}
	}
	return args, nil
}

func newTool(kind Kind, name, description string, schema map[string]interface{}, run func(context.Context, map[string]interface{}) (string, error)) (*Tool, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s schema: %w", name, err)
	}
	validator, err := jsonschema.CompileString(name+".json", string(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
	}

	return &Tool{
		kind:        kind,
		name:        name,
		description: description,
		schema:      schema,
		validator:   validator,
		run:         run,
	}, nil
}

// NewMarketDataTool wraps CoinGecko market data. Provider failures are
// logged and reported to the reasoning engine as the result "null".
func NewMarketDataTool(fetcher MarketFetcher) (*Tool, error) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"coin_id": map[string]interface{}{
				"type":        "string",
				"minLength":   1,
				"description": "CoinGecko coin identifier (e.g., bitcoin, dogecoin, pepe)",
			},
		},
		"required": []string{"coin_id"},
	}

	return newTool(KindMarketData, MarketDataToolName,
		"Fetch USD market data (price, volume, market cap, 24h change) for a coin from CoinGecko. Use it to spot liquidity and volume surges.",
		schema,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			coinID := args["coin_id"].(string)

			records, err := fetcher.FetchMarketData(ctx, coinID)
			if err != nil {
				if status, ok := market.AsStatusError(err); ok {
					log.Warn().Int("status", status.StatusCode).Str("coin_id", coinID).Msg("Market data unavailable")
				} else {
					log.Warn().Err(err).Str("coin_id", coinID).Msg("Market data unavailable")
				}
				return "null", nil
			}

			encoded, err := json.Marshal(records)
			if err != nil {
				return "", fmt.Errorf("failed to encode market data: %w", err)
			}
			return string(encoded), nil
		})
}

// NewNewsProcessingTool wraps the news aggregator
func NewNewsProcessingTool(collector NewsCollector) (*Tool, error) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"maximum":     100,
				"description": "Maximum number of articles to return (default 20)",
			},
		},
	}

	return newTool(KindNewsProcessing, NewsProcessingToolName,
		"Collect trending crypto news and RSS headlines tagged with bullish, bearish or neutral sentiment. Use it to find trending meme coins and potential breakouts.",
		schema,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			limit := 20
			if v, ok := args["limit"].(float64); ok {
				limit = int(v)
			}

			articles, err := collector.Collect(ctx, limit)
			if err != nil {
				return "", err
			}

			encoded, err := json.Marshal(articles)
			if err != nil {
				return "", fmt.Errorf("failed to encode articles: %w", err)
			}
			return string(encoded), nil
		})
}

// NewRetrievalTool wraps the degen trading corpus retriever
func NewRetrievalTool(retriever DocumentRetriever, topK int) (*Tool, error) {
	if topK <= 0 {
		topK = 8
	}

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"minLength":   1,
				"description": "Question about meme coins, viral trends or degen trading",
			},
		},
		"required": []string{"query"},
	}

	return newTool(KindRetrieval, RetrievalToolName,
		"Answer questions about meme coins, viral trends, FOMO metrics and degen trading from the indexed corpus. Returns the most relevant passages.",
		schema,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			docs, err := retriever.Retrieve(ctx, args["query"].(string), topK)
			if err != nil {
				return "", err
			}
			return FormatPassages(docs), nil
		})
}

// FormatPassages renders retrieved documents as numbered passages
func FormatPassages(docs []retrieval.Document) string {
	if len(docs) == 0 {
		return NoPassages
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d] (score %.2f", i+1, doc.Score))
		if source := doc.Metadata["source"]; source != "" {
			sb.WriteString(", ")
			sb.WriteString(source)
		}
		sb.WriteString(") ")
		sb.WriteString(strings.TrimSpace(doc.Content))
	}
	return sb.String()
}
