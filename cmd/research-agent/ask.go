// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/internal/engine"
	"github.com/pdiddy/research-agent/internal/filters"
	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/planner"
	"github.com/pdiddy/research-agent/internal/quality"
	"github.com/pdiddy/research-agent/internal/ratelimit"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/internal/synthesis"
	"github.com/pdiddy/research-agent/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a research question with cited web evidence",
	Long: `Ask expands the question into web search queries, gathers evidence
across one or more search rounds, synthesizes a cited answer, and scores
its quality. The full run, including its stage timeline, is recorded in
the run history.

Without a search provider API key the agent falls back to mock search
results; without a model API key it falls back to canned model output.
Both fallbacks are announced on stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	cfg := engineConfig()
	applyAskFlags(cmd, &cfg)

	outputFormat, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")
	identifier, _ := cmd.Flags().GetString("identifier")

	stderr := os.Stderr
	store := openStore(cfg.Cache, stderr)
	defer store.Close()
	sink := openSink(cfg.Persist, stderr)
	defer sink.Close()

	// Quota check before any network work.
	limiter := ratelimit.New(store, stderr)
	decision := limiter.CheckAndConsume(identifier, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	if !decision.Allowed {
		fmt.Printf("Request limit reached. Try again in %v.\n", decision.Reset.Round(time.Second))
		return nil
	}

	var model llm.Model
	if cfg.AI.APIKey == "" {
		fmt.Fprintln(stderr, "warning: no model API key configured, using canned model output")
		model = &llm.Mock{}
	} else {
		m, err := llm.NewOpenAIModel(cfg.AI)
		if err != nil {
			return err
		}
		model = m
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	provider, err := search.Resolve(cfg.Search, client, stderr)
	if err != nil {
		return err
	}

	filter := filters.New()
	eng := engine.New(engine.Options{
		Planner:     planner.New(model, stderr),
		Searcher:    search.NewAggregator(provider, store, filter, cfg.Search, stderr),
		Synthesizer: synthesis.New(model, stderr),
		Assessor:    quality.New(filter, cfg.Quality, stderr),
		Reflection:  cfg.Reflection,
		NumQueries:  cfg.NumQueries,
		Sink:        sink,
		Log:         stderr,
	})

	result, err := eng.Run(cmd.Context(), question, "cli")
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			return fmt.Errorf("provide a non-empty question")
		}
		return err
	}

	return formatResult(result, outputFormat, verbose)
}

// applyAskFlags overlays command-line flags onto the loaded configuration.
func applyAskFlags(cmd *cobra.Command, cfg *types.EngineConfig) {
	if cmd.Flags().Changed("provider") {
		p, _ := cmd.Flags().GetString("provider")
		cfg.Search.Provider = types.ProviderKind(p)
	}
	if cmd.Flags().Changed("results") {
		cfg.Search.MaxResults, _ = cmd.Flags().GetInt("results")
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.Reflection.MaxIterations, _ = cmd.Flags().GetInt("max-iterations")
	}
	if cmd.Flags().Changed("min-evidence") {
		cfg.Reflection.MinEvidence, _ = cmd.Flags().GetInt("min-evidence")
	}
	if cmd.Flags().Changed("num-queries") {
		cfg.NumQueries, _ = cmd.Flags().GetInt("num-queries")
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
}

func formatResult(result types.Result, format string, verbose bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		return nil
	case "sms":
		fmt.Println(synthesis.FormatSMS(result.Answer, result.Citations))
		return nil
	case "text", "":
		formatText(result, verbose)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q: use text, json, yaml, or sms", format)
	}
}

func formatText(result types.Result, verbose bool) {
	fmt.Println(result.Answer)
	fmt.Println()

	if len(result.Citations) > 0 {
		fmt.Printf("%-4s  %-60s  %-6s  %s\n", "Rank", "Title", "Score", "URL")
		fmt.Println(strings.Repeat("-", 100))
		for i, c := range result.Citations {
			fmt.Printf("%-4d  %-60s  %-6.2f  %s\n", i+1, truncate(c.Title, 60), c.RelevanceScore, c.URL)
		}
		fmt.Println()
	}

	m := result.Metadata
	fmt.Printf("confidence %.2f | %d sources | %d round(s) | %dms | run %s\n",
		m.Confidence, m.SourcesFound, m.Iterations, result.DurationMs, m.RunID)

	for _, msg := range m.Errors {
		fmt.Printf("degraded: %s\n", msg)
	}

	if verbose {
		fmt.Println()
		formatTimeline(result.Timeline)
	}
}

// truncate shortens s to at most max bytes for table display, backing up
// to a rune boundary so multi-byte text stays valid.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func formatTimeline(timeline []types.TimelineEntry) {
	fmt.Printf("%-18s  %-8s  %-8s  %s\n", "Step", "Status", "ms", "Description")
	fmt.Println(strings.Repeat("-", 80))
	for _, entry := range timeline {
		fmt.Printf("%-18s  %-8s  %-8d  %s\n",
			entry.Step, entry.Status, entry.DurationMs, entry.Description)
	}
}

func init() {
	askCmd.Flags().String("provider", "", "search provider: mock, brave, serpapi, or google")
	askCmd.Flags().Int("results", 0, "maximum merged results per search round")
	askCmd.Flags().Int("max-iterations", 0, "maximum search rounds")
	askCmd.Flags().Int("min-evidence", 0, "sources considered sufficient")
	askCmd.Flags().Int("num-queries", 0, "queries per expansion")
	askCmd.Flags().String("output", "text", "output format: text, json, yaml, or sms")
	askCmd.Flags().String("identifier", "cli", "rate-limit identifier")
	askCmd.Flags().Bool("no-cache", false, "bypass the response cache")
	askCmd.Flags().Bool("verbose", false, "print the stage timeline")

	rootCmd.AddCommand(askCmd)
}
