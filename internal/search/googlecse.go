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

// googleCSEBase is the Google Custom Search endpoint. Declared as a var so
// tests can substitute an httptest server.
var googleCSEBase = "https://www.googleapis.com/customsearch/v1"

// GoogleCSEProvider queries the Google Custom Search JSON API (R2.4). The
// API caps num at 10 per request.
type GoogleCSEProvider struct {
	Client    *http.Client
	APIKey    string
	EngineID  string
	UserAgent string
}

// Name returns the provider identifier.
func (p *GoogleCSEProvider) Name() string { return "google" }

// Search queries Google Custom Search and returns items in ranking order.
func (p *GoogleCSEProvider) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}

	params := url.Values{
		"q":   {query},
		"key": {p.APIKey},
		"cx":  {p.EngineID},
		"num": {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := googleCSEBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Google CSE request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google CSE returned HTTP %d", resp.StatusCode)
	}

	var gr googleCSEResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing Google CSE response: %w", err)
	}

	var results []types.Document
	for i, item := range gr.Items {
		if i >= maxResults {
			break
		}
		results = append(results, types.Document{
			Title:    item.Title,
			URL:      item.Link,
			Snippet:  item.Snippet,
			Provider: "google",
			Position: i + 1,
		})
	}
	return results, nil
}

// Google Custom Search JSON structures.
type googleCSEResponse struct {
	Items []googleCSEItem `json:"items"`
}

type googleCSEItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
