// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

// MockProvider returns deterministic documents derived from the query. It
// backs local development and tests, and serves as the fallback when no
// real provider is configured (R2.1).
type MockProvider struct{}

// Name returns the provider identifier.
func (p *MockProvider) Name() string { return "mock" }

// Search fabricates maxResults documents for the query.
func (p *MockProvider) Search(_ context.Context, query string, maxResults int) ([]types.Document, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	slug := strings.Join(strings.Fields(strings.ToLower(query)), "-")
	results := make([]types.Document, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		results = append(results, types.Document{
			Title:    fmt.Sprintf("%s - overview %d", query, i+1),
			URL:      fmt.Sprintf("https://example.com/%s/%d", slug, i+1),
			Snippet:  fmt.Sprintf("Reference material about %s, part %d of %d.", query, i+1, maxResults),
			Provider: "mock",
			Position: i + 1,
		})
	}
	return results, nil
}
