package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	server := NewServer("127.0.0.1:0", log)
	require.NoError(t, server.Start())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, server.Shutdown(ctx))
	})
	return server
}

func TestNewServer(t *testing.T) {
	server := NewServer("127.0.0.1:9999", zerolog.Nop())

	assert.NotNil(t, server)
	assert.Equal(t, "127.0.0.1:9999", server.Addr())
	assert.Nil(t, server.server)
	assert.NoError(t, server.Shutdown(context.Background()))
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := startTestServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	RecordToolCall("fetch_coingecko_market_data", 12, nil)
	server := startTestServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), "degenbots_tool_calls_total")
}

func TestServer_StartFailsOnBusyAddress(t *testing.T) {
	first := startTestServer(t)

	second := NewServer(first.Addr(), zerolog.Nop())
	assert.Error(t, second.Start())
}

func TestHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "# HELP") && strings.Contains(body, "# TYPE"))
}

func TestNewMux_UnknownPath(t *testing.T) {
	srv := httptest.NewServer(NewMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
