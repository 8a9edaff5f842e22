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

// braveAPIBase is the Brave web search endpoint. Declared as a var so tests
// can substitute an httptest server.
var braveAPIBase = "https://api.search.brave.com/res/v1/web/search"

// BraveProvider queries the Brave Search API (R2.2).
type BraveProvider struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the provider identifier.
func (p *BraveProvider) Name() string { return "brave" }

// Search queries the Brave Search API and returns documents in ranking order.
func (p *BraveProvider) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{
		"q":     {query},
		"count": {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := braveAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("X-Subscription-Token", p.APIKey)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Brave API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Brave API returned HTTP %d", resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing Brave response: %w", err)
	}

	var results []types.Document
	for i, r := range br.Web.Results {
		if i >= maxResults {
			break
		}
		results = append(results, types.Document{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Description,
			Provider: "brave",
			Position: i + 1,
		})
	}
	return results, nil
}

// Brave API JSON structures.
type braveResponse struct {
	Web braveWeb `json:"web"`
}

type braveWeb struct {
	Results []braveResult `json:"results"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
