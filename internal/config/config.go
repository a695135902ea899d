package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Market     MarketConfig     `mapstructure:"market"`
	News       NewsConfig       `mapstructure:"news"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Bots       BotsConfig       `mapstructure:"bots"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // "json" or "console"
}

// LLMConfig contains reasoning engine and embedding settings
type LLMConfig struct {
	BaseURL        string  `mapstructure:"base_url"`        // OpenAI-compatible API root
	Model          string  `mapstructure:"model"`           // "gpt-4-1106-preview"
	Temperature    float64 `mapstructure:"temperature"`     // 0.2
	MaxTokens      int     `mapstructure:"max_tokens"`      // 1000
	MaxSteps       int     `mapstructure:"max_steps"`       // ReAct step budget
	EmbeddingModel string  `mapstructure:"embedding_model"` // "text-embedding-ada-002"
	Timeout        int     `mapstructure:"timeout"`         // 60000 (ms)
}

// MarketConfig contains market-data and news provider endpoints
type MarketConfig struct {
	CoinGeckoURL      string `mapstructure:"coingecko_url"`
	BinanceURL        string `mapstructure:"binance_url"`
	CryptoPanicURL    string `mapstructure:"cryptopanic_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"` // CoinGecko public tier budget
	Timeout           int    `mapstructure:"timeout"`             // 10000 (ms)
}

// NewsConfig contains RSS feed and digest settings
type NewsConfig struct {
	Feeds       []string `mapstructure:"feeds"`
	ParsePolicy string   `mapstructure:"parse_policy"` // "abort" or "skip"
	OutputFile  string   `mapstructure:"output_file"`
}

// RetrievalConfig contains vector collection and retrieval settings
type RetrievalConfig struct {
	Collection      string  `mapstructure:"collection"`
	Dimension       int     `mapstructure:"dimension"`
	DataDir         string  `mapstructure:"data_dir"`
	ChunkSize       int     `mapstructure:"chunk_size"`
	ChunkOverlap    int     `mapstructure:"chunk_overlap"`
	TopK            int     `mapstructure:"top_k"`
	Hybrid          bool    `mapstructure:"hybrid"` // enable keyword search next to vector search
	CutoffEnabled   bool    `mapstructure:"cutoff_enabled"`
	Cutoff          float64 `mapstructure:"cutoff"`
	RerankEnabled   bool    `mapstructure:"rerank_enabled"`
	RerankURL       string  `mapstructure:"rerank_url"`
	RerankModel     string  `mapstructure:"rerank_model"`
	RerankTopN      int     `mapstructure:"rerank_top_n"`
	DatabasePoolMax int     `mapstructure:"database_pool_max"`
}

// BotsConfig contains chat bot behaviour settings
type BotsConfig struct {
	ReplyDelay  int    `mapstructure:"reply_delay"`  // simulated think-time (ms)
	OpenerDelay int    `mapstructure:"opener_delay"` // wait after Ready before opening (ms)
	Opener      string `mapstructure:"opener"`       // first message of the two-bot conversation
}

// TelegramConfig contains the optional Telegram mirror of the Q&A agent
type TelegramConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PollingTimeout int  `mapstructure:"polling_timeout"`
	Debug          bool `mapstructure:"debug"`
}

// MonitoringConfig contains the ops server settings
type MonitoringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("DEGENBOTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "degenbots")
	v.SetDefault("app.version", Version)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4-1106-preview")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.max_steps", 12)
	v.SetDefault("llm.embedding_model", "text-embedding-ada-002")
	v.SetDefault("llm.timeout", 60000)

	// Market defaults
	v.SetDefault("market.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.binance_url", "https://api.binance.com")
	v.SetDefault("market.cryptopanic_url", "https://cryptopanic.com/api/v1/posts/")
	v.SetDefault("market.requests_per_minute", 30)
	v.SetDefault("market.timeout", 10000)

	// News defaults
	v.SetDefault("news.feeds", DefaultFeeds)
	v.SetDefault("news.parse_policy", "abort")
	v.SetDefault("news.output_file", "crypto_news.json")

	// Retrieval defaults
	v.SetDefault("retrieval.collection", "degen_trader_index")
	v.SetDefault("retrieval.dimension", 1536)
	v.SetDefault("retrieval.data_dir", "Data")
	v.SetDefault("retrieval.chunk_size", 512)
	v.SetDefault("retrieval.chunk_overlap", 20)
	v.SetDefault("retrieval.top_k", 8)
	v.SetDefault("retrieval.hybrid", false)
	v.SetDefault("retrieval.cutoff_enabled", false)
	v.SetDefault("retrieval.cutoff", 0.5)
	v.SetDefault("retrieval.rerank_enabled", true)
	v.SetDefault("retrieval.rerank_url", "https://api.cohere.ai/v1/rerank")
	v.SetDefault("retrieval.rerank_model", "rerank-english-v2.0")
	v.SetDefault("retrieval.rerank_top_n", 8)
	v.SetDefault("retrieval.database_pool_max", 10)

	// Bot defaults
	v.SetDefault("bots.reply_delay", 10000)
	v.SetDefault("bots.opener_delay", 5000)
	v.SetDefault("bots.opener", "which meme coin i can buy tht is bullish in last 24hrs")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.polling_timeout", 60)
	v.SetDefault("telegram.debug", false)

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.host", "0.0.0.0")
	v.SetDefault("monitoring.port", 9100)
}

// DefaultFeeds are the RSS sources polled for crypto news
var DefaultFeeds = []string{
	"https://cointelegraph.com/rss",
	"https://www.coindesk.com/arc/outboundfeeds/rss/",
	"https://decrypt.co/feed",
}

// GetTimeout returns the LLM timeout as time.Duration
func (c *LLMConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetTimeout returns the market client timeout as time.Duration
func (c *MarketConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetReplyDelay returns the simulated think-time before a reply
func (c *BotsConfig) GetReplyDelay() time.Duration {
	return time.Duration(c.ReplyDelay) * time.Millisecond
}

// GetOpenerDelay returns the wait between Ready and the opening message
func (c *BotsConfig) GetOpenerDelay() time.Duration {
	return time.Duration(c.OpenerDelay) * time.Millisecond
}

// GetAddr returns the ops server address
func (c *MonitoringConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
