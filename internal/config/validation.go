package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Validate performs configuration validation
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateLLM()...)
	errors = append(errors, c.validateMarket()...)
	errors = append(errors, c.validateNews()...)
	errors = append(errors, c.validateRetrieval()...)
	errors = append(errors, c.validateBots()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Message: "Application name is required",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if c.App.LogFormat != "" && !validFormats[c.App.LogFormat] {
		errors = append(errors, ValidationError{
			Field:   "app.log_format",
			Message: fmt.Sprintf("Invalid log format '%s'. Must be one of: json, console", c.App.LogFormat),
		})
	}

	return errors
}

func (c *Config) validateLLM() ValidationErrors {
	var errors ValidationErrors

	if c.LLM.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Message: "Model name is required",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: fmt.Sprintf("Temperature must be between 0 and 2, got %.2f", c.LLM.Temperature),
		})
	}

	if c.LLM.MaxTokens <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "Max tokens must be positive",
		})
	}

	return errors
}

func (c *Config) validateMarket() ValidationErrors {
	var errors ValidationErrors

	for field, value := range map[string]string{
		"market.coingecko_url":   c.Market.CoinGeckoURL,
		"market.binance_url":     c.Market.BinanceURL,
		"market.cryptopanic_url": c.Market.CryptoPanicURL,
	} {
		if value == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "Endpoint URL is required",
			})
		}
	}

	if c.Market.RequestsPerMinute < 0 {
		errors = append(errors, ValidationError{
			Field:   "market.requests_per_minute",
			Message: "Requests per minute cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateNews() ValidationErrors {
	var errors ValidationErrors

	switch c.News.ParsePolicy {
	case "", "abort", "skip":
	default:
		errors = append(errors, ValidationError{
			Field:   "news.parse_policy",
			Message: fmt.Sprintf("Invalid parse policy '%s'. Must be one of: abort, skip", c.News.ParsePolicy),
		})
	}

	return errors
}

func (c *Config) validateRetrieval() ValidationErrors {
	var errors ValidationErrors
	r := c.Retrieval

	if r.Collection == "" {
		errors = append(errors, ValidationError{
			Field:   "retrieval.collection",
			Message: "Collection name is required",
		})
	}

	if r.Dimension <= 0 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.dimension",
			Message: "Embedding dimension must be positive",
		})
	}

	if r.ChunkSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.chunk_size",
			Message: "Chunk size must be positive",
		})
	} else if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "retrieval.chunk_overlap",
			Message: fmt.Sprintf("Chunk overlap must be in [0, %d), got %d", r.ChunkSize, r.ChunkOverlap),
		})
	}

	if r.TopK <= 0 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.top_k",
			Message: "Top-k must be positive",
		})
	}

	if r.Cutoff < 0 || r.Cutoff > 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.cutoff",
			Message: fmt.Sprintf("Similarity cutoff must be between 0 and 1, got %.2f", r.Cutoff),
		})
	}

	if r.RerankEnabled && r.RerankTopN <= 0 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.rerank_top_n",
			Message: "Rerank top-n must be positive when reranking is enabled",
		})
	}

	return errors
}

func (c *Config) validateBots() ValidationErrors {
	var errors ValidationErrors

	if c.Bots.ReplyDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "bots.reply_delay",
			Message: "Reply delay cannot be negative",
		})
	}

	if c.Bots.OpenerDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "bots.opener_delay",
			Message: "Opener delay cannot be negative",
		})
	}

	return errors
}
