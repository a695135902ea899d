// Package app wires configuration, credentials and components into the
// tool sets, sessions and servers the commands run.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ajitpratap0/degenbots/internal/agent"
	"github.com/ajitpratap0/degenbots/internal/api"
	"github.com/ajitpratap0/degenbots/internal/config"
	"github.com/ajitpratap0/degenbots/internal/db"
	"github.com/ajitpratap0/degenbots/internal/llm"
	"github.com/ajitpratap0/degenbots/internal/market"
	"github.com/ajitpratap0/degenbots/internal/memory"
	"github.com/ajitpratap0/degenbots/internal/news"
	"github.com/ajitpratap0/degenbots/internal/retrieval"
)

// Needs selects which components a command requires. Only the
// credentials of selected components are demanded at startup.
type Needs struct {
	Reasoner  bool
	Retrieval bool
	News      bool
}

// RequiredEnv returns the credential variables the selection needs
func (n Needs) RequiredEnv(cfg *config.Config) []string {
	var names []string
	if n.Reasoner || n.Retrieval {
		names = append(names, config.EnvOpenAIKey)
	}
	if n.Retrieval {
		names = append(names, config.EnvDatabaseURL)
		if cfg.Retrieval.RerankEnabled {
			names = append(names, config.EnvCohereKey)
		}
	}
	return names
}

// Toolkit holds the built components shared by the bots of one process
type Toolkit struct {
	Config    *config.Config
	Market    *market.Client
	News      *news.Aggregator
	Retriever *retrieval.Retriever
	Reasoner  agent.Reasoner
	DB        *db.DB

	tools []*agent.Tool
}

// Build creates the components selected by needs. Missing credentials
// fail with a *config.MissingCredentialError before anything connects.
func Build(ctx context.Context, cfg *config.Config, needs Needs) (*Toolkit, error) {
	creds, err := config.RequireEnv(needs.RequiredEnv(cfg)...)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Market.GetTimeout()}
	marketClient := market.NewClient(market.ClientConfig{
		CoinGeckoURL:      cfg.Market.CoinGeckoURL,
		BinanceURL:        cfg.Market.BinanceURL,
		CryptoPanicURL:    cfg.Market.CryptoPanicURL,
		CryptoPanicToken:  config.OptionalEnv(config.EnvCryptoPanicKey),
		HTTPClient:        httpClient,
		RequestsPerMinute: cfg.Market.RequestsPerMinute,
	})

	tk := &Toolkit{
		Config: cfg,
		Market: marketClient,
	}

	marketTool, err := agent.NewMarketDataTool(marketClient)
	if err != nil {
		return nil, err
	}
	tk.tools = append(tk.tools, marketTool)

	if needs.News {
		aggregator, err := NewsAggregator(cfg, marketClient)
		if err != nil {
			return nil, err
		}
		tk.News = aggregator

		newsTool, err := agent.NewNewsProcessingTool(aggregator)
		if err != nil {
			return nil, err
		}
		tk.tools = append(tk.tools, newsTool)
	}

	if needs.Retrieval {
		if err := tk.buildRetrieval(ctx, creds); err != nil {
			tk.Close()
			return nil, err
		}
		ragTool, err := agent.NewRetrievalTool(tk.Retriever, cfg.Retrieval.TopK)
		if err != nil {
			tk.Close()
			return nil, err
		}
		tk.tools = append(tk.tools, ragTool)
	}

	if needs.Reasoner {
		chatModel, err := llm.NewChatModel(ctx, llm.ChatConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      creds[config.EnvOpenAIKey],
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.GetTimeout(),
		})
		if err != nil {
			tk.Close()
			return nil, err
		}
		tk.Reasoner = agent.NewEinoReasoner(chatModel, cfg.LLM.MaxSteps)
	}

	names := make([]string, len(tk.tools))
	for i, t := range tk.tools {
		names[i] = t.Name()
	}
	config.NewLogger("app").Info().
		Str("tools", strings.Join(names, ",")).
		Msg("Toolkit built")

	return tk, nil
}

// NewsAggregator builds the news aggregator over the market client
func NewsAggregator(cfg *config.Config, source news.Source) (*news.Aggregator, error) {
	policy, err := news.ParsePolicy(cfg.News.ParsePolicy)
	if err != nil {
		return nil, err
	}
	return news.NewAggregator(source, cfg.News.Feeds, news.NewNormalizer(policy)), nil
}

func (tk *Toolkit) buildRetrieval(ctx context.Context, creds map[string]string) error {
	cfg := tk.Config.Retrieval

	database, err := db.New(ctx, creds[config.EnvDatabaseURL], cfg.DatabasePoolMax)
	if err != nil {
		return fmt.Errorf("vector store init failed: %w", err)
	}
	tk.DB = database

	embedder := llm.NewEmbeddingClient(llm.EmbeddingConfig{
		BaseURL: tk.Config.LLM.BaseURL,
		APIKey:  creds[config.EnvOpenAIKey],
		Model:   tk.Config.LLM.EmbeddingModel,
		Timeout: tk.Config.LLM.GetTimeout(),
	})

	store, err := retrieval.NewPGStore(database.Pool(), cfg.Collection, cfg.Dimension, embedder)
	if err != nil {
		return err
	}

	chunker := retrieval.Chunker{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	created, err := store.EnsureCollection(ctx, cfg.DataDir, chunker)
	if err != nil {
		return fmt.Errorf("failed to prepare collection %s: %w", cfg.Collection, err)
	}
	config.NewLogger("retrieval").Info().
		Str("collection", cfg.Collection).
		Bool("created", created).
		Msg("Vector collection ready")

	r := &retrieval.Retriever{Vector: store, TopN: cfg.RerankTopN}
	if cfg.Hybrid {
		r.Keyword = store
	}
	if cfg.CutoffEnabled {
		r.Cutoff = cfg.Cutoff
	}
	if cfg.RerankEnabled {
		r.Reranker = retrieval.NewCohereReranker(creds[config.EnvCohereKey], cfg.RerankURL, cfg.RerankModel, nil)
	}
	tk.Retriever = r
	return nil
}

// Tools returns every built tool
func (tk *Toolkit) Tools() []*agent.Tool {
	out := make([]*agent.Tool, len(tk.tools))
	copy(out, tk.tools)
	return out
}

// NewSession creates a session for a built-in persona with the tools the
// persona names
func (tk *Toolkit) NewSession(name, persona string) (*agent.Session, error) {
	if tk.Reasoner == nil {
		return nil, fmt.Errorf("session %s needs a reasoner", name)
	}

	p, err := agent.BuiltinPersona(persona)
	if err != nil {
		return nil, err
	}
	tools, err := p.SelectTools(tk.tools)
	if err != nil {
		return nil, err
	}
	return agent.NewSession(name, p, tools, memory.NewStore(), tk.Reasoner)
}

// NewAPIServer creates the ops server over the toolkit
func (tk *Toolkit) NewAPIServer(bots map[string]api.BotStatus) *api.Server {
	apiConfig := api.Config{
		Host:    tk.Config.Monitoring.Host,
		Port:    tk.Config.Monitoring.Port,
		Version: tk.Config.App.Version,
		Market:  tk.Market,
		Bots:    bots,
	}
	if tk.News != nil {
		apiConfig.News = tk.News
	}
	if tk.DB != nil {
		apiConfig.DB = tk.DB
	}
	return api.NewServer(apiConfig)
}

// Close releases the database pool
func (tk *Toolkit) Close() {
	if tk.DB != nil {
		tk.DB.Close()
	}
}
