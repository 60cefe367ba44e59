package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTavilyBaseURL is the default Tavily API endpoint
	DefaultTavilyBaseURL = "https://api.tavily.com/search"
	// DefaultTavilyTimeout is the fallback HTTP timeout when the
	// retrieval config doesn't set one
	DefaultTavilyTimeout = 30 * time.Second
	// tavilyMaxResultsCap is Tavily's own per-request ceiling
	tavilyMaxResultsCap = 20
)

// TavilyClient implements SearchClient for Tavily AI.
type TavilyClient struct {
	apiKey            string
	baseURL           string
	defaultMaxResults int
	httpClient        *http.Client
}

// NewTavilyClient creates a Tavily search client. timeout bounds each
// request; defaultMaxResults applies when a query doesn't set its own
// cap. Both usually come from the retrieval tuning config.
func NewTavilyClient(apiKey string, timeout time.Duration, defaultMaxResults int) *TavilyClient {
	if timeout <= 0 {
		timeout = DefaultTavilyTimeout
	}
	if defaultMaxResults <= 0 {
		defaultMaxResults = 5
	}
	return &TavilyClient{
		apiKey:            apiKey,
		baseURL:           DefaultTavilyBaseURL,
		defaultMaxResults: defaultMaxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search implements SearchClient for Tavily.
func (c *TavilyClient) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	if opts.MaxResults == 0 {
		opts.MaxResults = c.defaultMaxResults
	}
	if opts.MaxResults > tavilyMaxResultsCap {
		opts.MaxResults = tavilyMaxResultsCap
	}

	// Tavily expects the API key in the body, not in headers
	payload := map[string]interface{}{
		"api_key":     c.apiKey,
		"query":       query,
		"max_results": opts.MaxResults,
	}

	if opts.SearchType != "" {
		payload["search_depth"] = opts.SearchType // "basic" or "advanced"
	}
	if opts.Topic != "" {
		payload["topic"] = opts.Topic // "general", "news", or "finance"
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var tavilyResp tavilyResponse
	if err := json.Unmarshal(body, &tavilyResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]SearchResult, len(tavilyResp.Results))
	for i, r := range tavilyResp.Results {
		results[i] = SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Score:   r.Score,
		}

		if r.PublishedDate != "" {
			if t, err := time.Parse(time.RFC3339, r.PublishedDate); err == nil {
				results[i].PublishedAt = &t
			}
		}
	}

	return &SearchResponse{
		Results:   results,
		Query:     query,
		Timestamp: time.Now(),
	}, nil
}

// tavilyResponse represents the response from the Tavily API
type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
	Query   string         `json:"query"`
}

// tavilyResult represents a single search result from Tavily
type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}
