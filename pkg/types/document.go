// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-agent pipeline.
// Implements: prd002-search (Document, R3.1-R3.3);
//
//	prd004-synthesis (Citation, R2.1-R2.4);
//	prd005-orchestration (TimelineEntry, Result, R1.1-R1.5).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

// Document is one deduplicated, scored search result consumed by synthesis.
// Per prd002-search R3.1, the URL is the unique key within a run: no two
// documents in an aggregated evidence set share a URL.
type Document struct {
	// URL is the result link and the dedup key.
	URL string `json:"url" yaml:"url"`

	// Title is the result title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Snippet is the short content excerpt from the provider.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Provider identifies which search provider found this result
	// (e.g. "brave", "serpapi", "mock").
	Provider string `json:"provider" yaml:"provider"`

	// Position is the 1-based rank within the result list of the query
	// that produced this document.
	Position int `json:"position" yaml:"position"`

	// RelevanceScore ranks the document against the original question.
	// Computed once by the aggregator; immutable afterwards (R3.3).
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
