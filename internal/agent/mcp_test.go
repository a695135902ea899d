package agent

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/degenbots/internal/market"
	"github.com/ajitpratap0/degenbots/internal/retrieval"
)

func connectMCP(t *testing.T, tools []*Tool) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewMCPServer("degen-tools", "test", tools)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func TestMCPServer_ListTools(t *testing.T) {
	marketTool, err := NewMarketDataTool(&fakeFetcher{})
	require.NoError(t, err)
	ragTool, err := NewRetrievalTool(&fakeRetriever{}, 4)
	require.NoError(t, err)

	session := connectMCP(t, []*Tool{marketTool, ragTool})

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{MarketDataToolName, RetrievalToolName}, names)
}

func TestMCPServer_CallTool(t *testing.T) {
	fetcher := &fakeFetcher{records: []market.MarketRecord{{ID: "bitcoin", CurrentPrice: 65000}}}
	marketTool, err := NewMarketDataTool(fetcher)
	require.NoError(t, err)

	session := connectMCP(t, []*Tool{marketTool})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      MarketDataToolName,
		Arguments: map[string]interface{}{"coin_id": "bitcoin"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"id":"bitcoin"`)
	assert.Equal(t, []string{"bitcoin"}, fetcher.coinIDs)
}

func TestMCPServer_CallToolFailureIsErrorResult(t *testing.T) {
	retriever := &fakeRetriever{docs: []retrieval.Document{{ID: "x", Content: "y"}}}
	ragTool, err := NewRetrievalTool(retriever, 4)
	require.NoError(t, err)

	session := connectMCP(t, []*Tool{ragTool})

	// a blank query fails schema validation and never reaches the retriever
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      RetrievalToolName,
		Arguments: map[string]interface{}{"query": ""},
	})
	if err == nil {
		assert.True(t, result.IsError)
	}
	assert.Empty(t, retriever.queries)
}
