package metrics

import (
	"context"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels.
const (
	// Outbound error categories (bounded set)
	OutboundErrorTimeout     = "timeout"
	OutboundErrorRateLimit   = "rate_limit"
	OutboundErrorAuth        = "authentication"
	OutboundErrorNetwork     = "network"
	OutboundErrorInvalidReq  = "invalid_request"
	OutboundErrorServerError = "server_error"
	OutboundErrorOther       = "other"

	// Reasons an inbound chat event is dropped (bounded set)
	DropReasonChannel = "channel"
	DropReasonSelf    = "self"
	DropReasonPeer    = "not_peer"
	DropReasonEmpty   = "empty"
)

// NormalizeOutboundError maps arbitrary error messages to a bounded set
func NormalizeOutboundError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutboundErrorTimeout
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return OutboundErrorTimeout
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit"):
		return OutboundErrorRateLimit
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "403") || strings.Contains(errStr, "unauthorized"):
		return OutboundErrorAuth
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "no such host"):
		return OutboundErrorNetwork
	case strings.Contains(errStr, "400") || strings.Contains(errStr, "404") || strings.Contains(errStr, "invalid"):
		return OutboundErrorInvalidReq
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503"):
		return OutboundErrorServerError
	default:
		return OutboundErrorOther
	}
}

// Conversation Metrics
var (
	ConversationTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_conversation_turns_total",
		Help: "Total number of completed conversation turns",
	}, []string{"bot"})

	ConversationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_conversation_fallbacks_total",
		Help: "Turns answered with the fallback sentence after a reasoning or tool failure",
	}, []string{"bot"})

	ConversationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degenbots_conversation_latency_ms",
		Help:    "Reasoning engine latency per turn in milliseconds",
		Buckets: []float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	}, []string{"bot"})

	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_tool_calls_total",
		Help: "Total number of agent tool invocations",
	}, []string{"tool", "status"})

	ToolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degenbots_tool_call_duration_ms",
		Help:    "Agent tool invocation duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"tool"})
)

// Chat Platform Metrics
var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_events_received_total",
		Help: "Inbound chat message events",
	}, []string{"bot", "platform"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_events_dropped_total",
		Help: "Inbound chat message events dropped by the filter",
	}, []string{"bot", "reason"})

	RepliesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_replies_sent_total",
		Help: "Replies emitted to chat platforms",
	}, []string{"bot", "platform", "status"})

	BotState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "degenbots_bot_state",
		Help: "Bot connection state (0 = disconnected, 1 = connecting, 2 = ready)",
	}, []string{"bot"})
)

// Outbound Data Metrics
var (
	OutboundLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degenbots_outbound_latency_ms",
		Help:    "Latency of calls to market, news and retrieval providers in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"provider", "endpoint"})

	OutboundErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_outbound_errors_total",
		Help: "Failed calls to market, news and retrieval providers by category",
	}, []string{"provider", "category"})

	FeedFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_feed_failures_total",
		Help: "RSS feeds that contributed zero articles because of a fetch or parse failure",
	}, []string{"feed"})

	NewsArticles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "degenbots_news_articles_total",
		Help: "News articles fetched by source kind",
	}, []string{"kind"})

	RetrievalResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degenbots_retrieval_results",
		Help:    "Documents returned per retrieval stage",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	}, []string{"stage"})
)

// RecordTurn records a completed conversation turn
func RecordTurn(bot string, durationMs float64, fallback bool) {
	ConversationTurns.WithLabelValues(bot).Inc()
	ConversationLatency.WithLabelValues(bot).Observe(durationMs)
	if fallback {
		ConversationFallbacks.WithLabelValues(bot).Inc()
	}
}

// RecordToolCall records an agent tool invocation
func RecordToolCall(tool string, durationMs float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ToolCalls.WithLabelValues(tool, status).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(durationMs)
}

// RecordEvent records an inbound chat event
func RecordEvent(bot, platform string) {
	EventsReceived.WithLabelValues(bot, platform).Inc()
}

// RecordDrop records an inbound event dropped for reason
func RecordDrop(bot, reason string) {
	EventsDropped.WithLabelValues(bot, reason).Inc()
}

// RecordReply records an emitted reply
func RecordReply(bot, platform string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RepliesSent.WithLabelValues(bot, platform, status).Inc()
}

// SetBotState records the current connection state of a bot
func SetBotState(bot string, state int) {
	BotState.WithLabelValues(bot).Set(float64(state))
}

// RecordOutboundCall records a provider call with normalized error category
func RecordOutboundCall(provider, endpoint string, durationMs float64, err error) {
	OutboundLatency.WithLabelValues(provider, endpoint).Observe(durationMs)
	if err != nil {
		OutboundErrors.WithLabelValues(provider, NormalizeOutboundError(err)).Inc()
	}
}

// RecordFeedFailure records a feed that contributed no articles
func RecordFeedFailure(feed string) {
	FeedFailures.WithLabelValues(feed).Inc()
}

// RecordNewsArticles records fetched articles by kind ("trending" or "feed")
func RecordNewsArticles(kind string, count int) {
	NewsArticles.WithLabelValues(kind).Add(float64(count))
}

// RecordRetrieval records the number of documents produced by a retrieval stage
func RecordRetrieval(stage string, count int) {
	RetrievalResults.WithLabelValues(stage).Observe(float64(count))
}
