// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Resolve builds the provider named by cfg.Provider. A real provider that
// is missing its credentials degrades to the mock provider with a warning
// instead of failing, so a misconfigured agent still answers (R2.6). An
// unknown provider name is an error.
func Resolve(cfg types.SearchConfig, client *http.Client, w io.Writer) (Provider, error) {
	switch cfg.Provider {
	case types.ProviderMock, "":
		return &MockProvider{}, nil
	case types.ProviderBrave:
		if cfg.APIKey == "" {
			fmt.Fprintf(w, "warning: brave provider selected without an API key, using mock results\n")
			return &MockProvider{}, nil
		}
		return &BraveProvider{Client: client, APIKey: cfg.APIKey, UserAgent: cfg.UserAgent}, nil
	case types.ProviderSerpAPI:
		if cfg.APIKey == "" {
			fmt.Fprintf(w, "warning: serpapi provider selected without an API key, using mock results\n")
			return &MockProvider{}, nil
		}
		return &SerpAPIProvider{Client: client, APIKey: cfg.APIKey, UserAgent: cfg.UserAgent}, nil
	case types.ProviderGoogleCSE:
		if cfg.APIKey == "" || cfg.EngineID == "" {
			fmt.Fprintf(w, "warning: google provider needs both an API key and an engine ID, using mock results\n")
			return &MockProvider{}, nil
		}
		return &GoogleCSEProvider{Client: client, APIKey: cfg.APIKey, EngineID: cfg.EngineID, UserAgent: cfg.UserAgent}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}
