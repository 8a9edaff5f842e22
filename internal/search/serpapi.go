// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

// serpAPIBase is the SerpAPI search endpoint. Declared as a var so tests
// can substitute an httptest server.
var serpAPIBase = "https://serpapi.com/search"

// SerpAPIProvider queries SerpAPI's Google engine (R2.3).
type SerpAPIProvider struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the provider identifier.
func (p *SerpAPIProvider) Name() string { return "serpapi" }

// Search queries SerpAPI and returns organic results in ranking order.
func (p *SerpAPIProvider) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{
		"q":       {query},
		"engine":  {"google"},
		"num":     {fmt.Sprintf("%d", maxResults)},
		"api_key": {p.APIKey},
	}
	reqURL := serpAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("SerpAPI request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SerpAPI returned HTTP %d", resp.StatusCode)
	}

	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing SerpAPI response: %w", err)
	}

	var results []types.Document
	for i, r := range sr.OrganicResults {
		if i >= maxResults {
			break
		}
		results = append(results, types.Document{
			Title:    r.Title,
			URL:      r.Link,
			Snippet:  r.Snippet,
			Provider: "serpapi",
			Position: i + 1,
		})
	}
	return results, nil
}

// SerpAPI JSON structures.
type serpResponse struct {
	OrganicResults []serpResult `json:"organic_results"`
}

type serpResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}
