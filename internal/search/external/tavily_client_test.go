package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, capture *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		*capture = payload

		_ = json.NewEncoder(w).Encode(tavilyResponse{
			Results: []tavilyResult{
				{Title: "Result", URL: "https://example.com", Content: "snippet", Score: 0.8},
			},
		})
	}))
}

func testClient(srv *httptest.Server, defaultMaxResults int) *TavilyClient {
	return &TavilyClient{
		apiKey:            "test-key",
		baseURL:           srv.URL,
		defaultMaxResults: defaultMaxResults,
		httpClient:        srv.Client(),
	}
}

func TestTavilyClient_UsesConfiguredDefaultMaxResults(t *testing.T) {
	var payload map[string]interface{}
	srv := newTestServer(t, &payload)
	defer srv.Close()

	client := testClient(srv, 3)

	resp, err := client.Search(context.Background(), "surcharge rules", SearchOptions{})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, float64(3), payload["max_results"])
	assert.Equal(t, "test-key", payload["api_key"])
}

func TestTavilyClient_PerQueryCapOverridesDefault(t *testing.T) {
	var payload map[string]interface{}
	srv := newTestServer(t, &payload)
	defer srv.Close()

	client := testClient(srv, 3)

	_, err := client.Search(context.Background(), "surcharge rules", SearchOptions{MaxResults: 50})

	require.NoError(t, err)
	assert.Equal(t, float64(tavilyMaxResultsCap), payload["max_results"],
		"requests above the API ceiling are clamped")
}

func TestNewTavilyClient_AppliesFallbackDefaults(t *testing.T) {
	client := NewTavilyClient("k", 0, 0)

	assert.Equal(t, DefaultTavilyTimeout, client.httpClient.Timeout)
	assert.Equal(t, 5, client.defaultMaxResults)
}

func TestNewTavilyClient_TakesTuningFromConfig(t *testing.T) {
	client := NewTavilyClient("k", 12*time.Second, 8)

	assert.Equal(t, 12*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 8, client.defaultMaxResults)
}
