package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeOutboundError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, OutboundErrorTimeout},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), OutboundErrorTimeout},
		{errors.New("coingecko /coins/markets returned status 429"), OutboundErrorRateLimit},
		{errors.New("status 401 unauthorized"), OutboundErrorAuth},
		{errors.New("dial tcp: connection refused"), OutboundErrorNetwork},
		{errors.New("returned status 404"), OutboundErrorInvalidReq},
		{errors.New("returned status 503"), OutboundErrorServerError},
		{errors.New("something odd"), OutboundErrorOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeOutboundError(tt.err))
	}
}

func TestRecordTurn(t *testing.T) {
	before := testutil.ToFloat64(ConversationFallbacks.WithLabelValues("metrics-test"))
	turnsBefore := testutil.ToFloat64(ConversationTurns.WithLabelValues("metrics-test"))

	RecordTurn("metrics-test", 120, false)
	RecordTurn("metrics-test", 80, true)

	assert.Equal(t, turnsBefore+2, testutil.ToFloat64(ConversationTurns.WithLabelValues("metrics-test")))
	assert.Equal(t, before+1, testutil.ToFloat64(ConversationFallbacks.WithLabelValues("metrics-test")))
}

func TestRecordToolCall(t *testing.T) {
	ok := testutil.ToFloat64(ToolCalls.WithLabelValues("metrics_test_tool", "success"))
	failed := testutil.ToFloat64(ToolCalls.WithLabelValues("metrics_test_tool", "error"))

	RecordToolCall("metrics_test_tool", 5, nil)
	RecordToolCall("metrics_test_tool", 5, errors.New("boom"))

	assert.Equal(t, ok+1, testutil.ToFloat64(ToolCalls.WithLabelValues("metrics_test_tool", "success")))
	assert.Equal(t, failed+1, testutil.ToFloat64(ToolCalls.WithLabelValues("metrics_test_tool", "error")))
}

func TestRecordOutboundCall_CountsOnlyErrors(t *testing.T) {
	before := testutil.ToFloat64(OutboundErrors.WithLabelValues("metrics-test", OutboundErrorRateLimit))

	RecordOutboundCall("metrics-test", "/coins/markets", 12, nil)
	RecordOutboundCall("metrics-test", "/coins/markets", 12, errors.New("status 429"))

	assert.Equal(t, before+1, testutil.ToFloat64(OutboundErrors.WithLabelValues("metrics-test", OutboundErrorRateLimit)))
}

func TestRecordDropAndState(t *testing.T) {
	before := testutil.ToFloat64(EventsDropped.WithLabelValues("metrics-test", DropReasonSelf))
	RecordDrop("metrics-test", DropReasonSelf)
	assert.Equal(t, before+1, testutil.ToFloat64(EventsDropped.WithLabelValues("metrics-test", DropReasonSelf)))

	SetBotState("metrics-test", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(BotState.WithLabelValues("metrics-test")))
}
