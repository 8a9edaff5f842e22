// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search APIs and returns unified, deduplicated,
// relevance-ranked documents.
// Implements: prd002-search (R1-R5);
//
//	docs/ARCHITECTURE § Search.
package search

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/research-agent/internal/memostore"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Provider searches a single web search API. Each provider (Brave, SerpAPI,
// Google CSE) implements this interface per the Strategy pattern (R2.5).
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.Document, error)
}

// PIIScreen drops documents whose text carries personal information (R4.3).
type PIIScreen interface {
	DocumentContainsPII(doc types.Document) bool
}

// Output holds the merged documents and per-query failure details.
type Output struct {
	Documents   []types.Document
	DupsRemoved int
	QueryErrors []string
}

// Aggregator fans queries out to a provider, caches raw provider responses,
// merges and deduplicates the results, and ranks them against the original
// question (R3, R4).
type Aggregator struct {
	provider Provider
	cache    *memostore.Store
	screen   PIIScreen
	cfg      types.SearchConfig
	w        io.Writer
}

// NewAggregator returns an Aggregator. cache and screen may be nil, which
// disables response caching and PII screening respectively.
func NewAggregator(provider Provider, cache *memostore.Store, screen PIIScreen, cfg types.SearchConfig, w io.Writer) *Aggregator {
	return &Aggregator{provider: provider, cache: cache, screen: screen, cfg: cfg, w: w}
}

// SearchMany runs every query concurrently against the provider and returns
// the merged ranking. Documents are deduplicated by URL, first occurrence
// wins, and merge order follows query order so dedup is deterministic
// (R3.1-R3.3). A failed query is reported in QueryErrors and skipped; the
// remaining queries still produce results (R5.1).
func (a *Aggregator) SearchMany(ctx context.Context, question string, queries []string) (Output, error) {
	if len(queries) == 0 {
		return Output{}, fmt.Errorf("no search queries provided")
	}

	perQuery := a.cfg.ResultsPerQuery
	if perQuery <= 0 {
		perQuery = 5
	}

	batches := make([][]types.Document, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			batches[i], errs[i] = a.searchOne(ctx, q, perQuery)
		}(i, q)
	}
	wg.Wait()

	var queryErrors []string
	for i, err := range errs {
		if err != nil {
			queryErrors = append(queryErrors, fmt.Sprintf("%q: %v", queries[i], err))
			fmt.Fprintf(a.w, "warning: search query %q failed: %v\n", queries[i], err)
		}
	}

	seen := make(map[string]bool)
	var merged []types.Document
	removed := 0
	for _, batch := range batches {
		for _, doc := range batch {
			if doc.URL == "" {
				continue
			}
			if seen[doc.URL] {
				removed++
				continue
			}
			seen[doc.URL] = true
			if a.cfg.FilterPII && a.screen != nil && a.screen.DocumentContainsPII(doc) {
				fmt.Fprintf(a.w, "warning: dropping result with personal data: %s\n", doc.URL)
				continue
			}
			merged = append(merged, doc)
		}
	}

	tokens := questionTokens(question)
	for i := range merged {
		merged[i].RelevanceScore = scoreRelevance(merged[i], tokens)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})

	if a.cfg.MaxResults > 0 && len(merged) > a.cfg.MaxResults {
		merged = merged[:a.cfg.MaxResults]
	}

	return Output{Documents: merged, DupsRemoved: removed, QueryErrors: queryErrors}, nil
}

// searchOne runs a single provider query through the response cache. Raw
// provider output is cached before screening or scoring so a cached reply
// goes through the same merge pipeline as a fresh one (R2.4).
func (a *Aggregator) searchOne(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	ttl := a.cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	key := memostore.Key("search", a.provider.Name(), query, fmt.Sprintf("%d", maxResults))
	return memostore.WithCache(a.cache, key, ttl, func() ([]types.Document, error) {
		return a.provider.Search(ctx, query, maxResults)
	})
}

// questionTokens lowercases and splits the original question; scoring always
// uses the question the user asked, not the expanded queries (R4.1).
func questionTokens(question string) []string {
	return strings.Fields(strings.ToLower(question))
}

// scoreRelevance scores a document against the question tokens: title hits
// count double, snippet hits count once, and each position down the
// provider's ranking costs 0.1. Scores never go negative (R4.2).
func scoreRelevance(doc types.Document, tokens []string) float64 {
	title := strings.ToLower(doc.Title)
	snippet := strings.ToLower(doc.Snippet)

	titleHits, snippetHits := 0, 0
	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			titleHits++
		}
		if strings.Contains(snippet, tok) {
			snippetHits++
		}
	}

	score := 2.0*float64(titleHits) + float64(snippetHits) - 0.1*float64(doc.Position)
	if score < 0 {
		return 0
	}
	return score
}
