// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/memostore"
	"github.com/pdiddy/research-agent/internal/persist"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Secret file names recognized under .secrets/.
const (
	secretBraveKey     = "brave-api-key"
	secretSerpAPIKey   = "serpapi-api-key"
	secretGoogleKey    = "google-api-key"
	secretGoogleEngine = "google-engine-id"
	secretOpenAIKey    = "openai-api-key"
)

func init() {
	viper.SetDefault("search.provider", "mock")
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.results_per_query", 5)
	viper.SetDefault("search.cache_ttl", "1h")
	viper.SetDefault("search.filter_pii", true)
	viper.SetDefault("search.timeout", "15s")
	viper.SetDefault("search.user_agent", "research-agent/0.1")

	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.temperature", 0.7)

	viper.SetDefault("cache.path", "cache/research-agent.db")
	viper.SetDefault("cache.enabled", true)

	viper.SetDefault("rate_limit.max_requests", 10)
	viper.SetDefault("rate_limit.window", "1h")

	viper.SetDefault("reflection.min_evidence", 3)
	viper.SetDefault("reflection.max_iterations", 3)

	viper.SetDefault("quality.enable_hallucination_check", true)
	viper.SetDefault("quality.enable_coverage_check", true)
	viper.SetDefault("quality.enable_bias_check", true)

	viper.SetDefault("persist.path", "history/research-agent.db")

	viper.SetDefault("num_queries", 3)
}

// engineConfig assembles the full engine configuration from the config file,
// environment, and loaded secrets.
func engineConfig() types.EngineConfig {
	cfg := types.EngineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			Provider:        types.ProviderKind(viper.GetString("search.provider")),
			APIKey:          viper.GetString("search.api_key"),
			EngineID:        viper.GetString("search.engine_id"),
			MaxResults:      viper.GetInt("search.max_results"),
			ResultsPerQuery: viper.GetInt("search.results_per_query"),
			CacheTTL:        viper.GetDuration("search.cache_ttl"),
			FilterPII:       viper.GetBool("search.filter_pii"),
		},
		AI: types.AIConfig{
			Model:       viper.GetString("ai.model"),
			BaseURL:     viper.GetString("ai.base_url"),
			APIKey:      viper.GetString("ai.api_key"),
			MaxRetries:  viper.GetInt("ai.max_retries"),
			Temperature: float32(viper.GetFloat64("ai.temperature")),
		},
		Cache: types.CacheConfig{
			Path:    viper.GetString("cache.path"),
			Enabled: viper.GetBool("cache.enabled"),
		},
		RateLimit: types.RateLimitConfig{
			MaxRequests: viper.GetInt("rate_limit.max_requests"),
			Window:      viper.GetDuration("rate_limit.window"),
		},
		Reflection: types.ReflectionConfig{
			MinEvidence:   viper.GetInt("reflection.min_evidence"),
			MaxIterations: viper.GetInt("reflection.max_iterations"),
		},
		Quality: types.QualityConfig{
			EnableHallucinationCheck: viper.GetBool("quality.enable_hallucination_check"),
			EnableCoverageCheck:      viper.GetBool("quality.enable_coverage_check"),
			EnableBiasCheck:          viper.GetBool("quality.enable_bias_check"),
		},
		Persist: types.PersistConfig{
			Path: viper.GetString("persist.path"),
		},
		NumQueries: viper.GetInt("num_queries"),
	}

	// Secrets fill credentials the config file left empty.
	switch cfg.Search.Provider {
	case types.ProviderBrave:
		cfg.Search.APIKey = secretDefault(secretBraveKey, cfg.Search.APIKey)
	case types.ProviderSerpAPI:
		cfg.Search.APIKey = secretDefault(secretSerpAPIKey, cfg.Search.APIKey)
	case types.ProviderGoogleCSE:
		cfg.Search.APIKey = secretDefault(secretGoogleKey, cfg.Search.APIKey)
		cfg.Search.EngineID = secretDefault(secretGoogleEngine, cfg.Search.EngineID)
	}
	cfg.AI.APIKey = secretDefault(secretOpenAIKey, cfg.AI.APIKey)

	return cfg
}

// openStore opens the memo store, or returns nil when caching is disabled.
// A nil store degrades every consumer to uncached operation.
func openStore(cfg types.CacheConfig, w io.Writer) *memostore.Store {
	if !cfg.Enabled || cfg.Path == "" {
		return nil
	}
	store, err := memostore.Open(cfg.Path, w)
	if err != nil {
		fmt.Fprintf(w, "warning: opening cache: %v (continuing without cache)\n", err)
		return nil
	}
	return store
}

// openSink opens the run-history sink, or returns nil when disabled.
func openSink(cfg types.PersistConfig, w io.Writer) *persist.Sink {
	if cfg.Path == "" {
		return nil
	}
	sink, err := persist.Open(cfg.Path, w)
	if err != nil {
		fmt.Fprintf(w, "warning: opening run history: %v (continuing without history)\n", err)
		return nil
	}
	return sink
}
