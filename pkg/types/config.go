// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-agent/0.1"). Per prd002-search R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderKind selects the web search provider. The provider is resolved
// once at construction time; missing credentials fall back to the mock
// provider with an explicit warning (prd002-search R1.4).
type ProviderKind string

const (
	ProviderMock      ProviderKind = "mock"
	ProviderBrave     ProviderKind = "brave"
	ProviderSerpAPI   ProviderKind = "serpapi"
	ProviderGoogleCSE ProviderKind = "google"
)

// SearchConfig holds settings for the search aggregation stage.
// Per prd002-search R1.1-R1.4, R5.1-R5.4.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the search backend: mock, brave, serpapi, or google.
	Provider ProviderKind `json:"provider" yaml:"provider"`

	// APIKey authenticates against the selected provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// EngineID is the Google Custom Search engine identifier (google only).
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty"`

	// MaxResults caps the merged, ranked result list per search round.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// ResultsPerQuery bounds each expanded query during fan-out (default 5).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// CacheTTL is how long provider responses are memoized (default 1h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// FilterPII drops results whose text matches a PII pattern.
	FilterPII bool `json:"filter_pii" yaml:"filter_pii"`
}

// AIConfig holds shared settings for components that call a language model.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Temperature is the sampling temperature (default 0.7).
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

// CacheConfig holds settings for the memo store.
// Per prd001-cache R1.1, R4.2.
type CacheConfig struct {
	// Path is the sqlite database file backing the store
	// (e.g. "cache/research-agent.db"). Empty disables caching.
	Path string `json:"path" yaml:"path"`

	// Enabled toggles memoization without removing the store.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// RateLimitConfig holds fixed-window quota settings.
// Per prd001-cache R3.1-R3.3.
type RateLimitConfig struct {
	// MaxRequests is the number of runs allowed per identifier per window
	// (default 10).
	MaxRequests int `json:"max_requests" yaml:"max_requests"`

	// Window is the fixed window length (default 1h).
	Window time.Duration `json:"window" yaml:"window"`
}

// ReflectionConfig holds the iteration-control thresholds.
// Per prd003-reflection R1.1-R1.3. Both values are heuristic and tunable.
type ReflectionConfig struct {
	// MinEvidence is the document count considered sufficient (default 3).
	MinEvidence int `json:"min_evidence" yaml:"min_evidence"`

	// MaxIterations bounds the search/reflect loop (default 3).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// QualityConfig selects which answer quality sub-checks run.
// Per prd004-synthesis R4.1-R4.4.
type QualityConfig struct {
	// EnableHallucinationCheck scores the answer's uncertainty markers
	// against its sources.
	EnableHallucinationCheck bool `json:"enable_hallucination_check" yaml:"enable_hallucination_check"`

	// EnableCoverageCheck compares answer length to mean snippet length.
	EnableCoverageCheck bool `json:"enable_coverage_check" yaml:"enable_coverage_check"`

	// EnableBiasCheck scores the answer for slanted language.
	EnableBiasCheck bool `json:"enable_bias_check" yaml:"enable_bias_check"`
}

// PersistConfig holds settings for the run-history store.
type PersistConfig struct {
	// Path is the sqlite database file for run history
	// (e.g. "history/research.db"). Empty disables persistence.
	Path string `json:"path" yaml:"path"`
}

// EngineConfig groups all stage configurations for the orchestration engine.
type EngineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	RateLimit  RateLimitConfig  `json:"rate_limit" yaml:"rate_limit"`
	Reflection ReflectionConfig `json:"reflection" yaml:"reflection"`
	Quality    QualityConfig    `json:"quality" yaml:"quality"`
	Persist    PersistConfig    `json:"persist" yaml:"persist"`

	// NumQueries is how many search queries the planner expands a question
	// into (default 3).
	NumQueries int `json:"num_queries" yaml:"num_queries"`
}
