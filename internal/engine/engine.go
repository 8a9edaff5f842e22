// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs the research pipeline: query expansion, iterative web
// search with reflection, answer synthesis, and quality scoring. Every run
// produces a Result with an answer and a stage-by-stage timeline, even when
// individual stages degrade.
// Implements: prd005-orchestration (R1-R6);
//
//	docs/ARCHITECTURE § Orchestration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-agent/internal/persist"
	"github.com/pdiddy/research-agent/internal/quality"
	"github.com/pdiddy/research-agent/internal/reflect"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/internal/synthesis"
	"github.com/pdiddy/research-agent/pkg/types"
)

// ErrInvalidInput is returned for questions that are empty after trimming.
// It is the only error Run returns; every other failure degrades into the
// Result instead (R5.1).
var ErrInvalidInput = errors.New("question is empty")

// QueryPlanner expands a question into search queries.
type QueryPlanner interface {
	Expand(ctx context.Context, question string, n int) ([]string, error)
}

// Searcher runs expanded queries and returns merged, ranked documents.
type Searcher interface {
	SearchMany(ctx context.Context, question string, queries []string) (search.Output, error)
}

// AnswerSynthesizer produces a cited answer from evidence.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, docs []types.Document) (string, []types.Citation, error)
}

// QualityAssessor scores an answer against its evidence.
type QualityAssessor interface {
	Assess(answer string, sources []types.Document) quality.Assessment
}

// Options wires an Engine's collaborators.
type Options struct {
	Planner     QueryPlanner
	Searcher    Searcher
	Synthesizer AnswerSynthesizer
	Assessor    QualityAssessor
	Reflection  types.ReflectionConfig

	// NumQueries is how many queries each expansion produces (default 3).
	NumQueries int

	// Sink records completed runs; nil disables history.
	Sink *persist.Sink

	// Log receives stage warnings.
	Log io.Writer
}

// Engine orchestrates one research run at a time. It is stateless between
// runs and safe for concurrent use when its collaborators are.
type Engine struct {
	opts Options
}

// New returns an Engine.
func New(opts Options) *Engine {
	if opts.NumQueries <= 0 {
		opts.NumQueries = 3
	}
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	return &Engine{opts: opts}
}

// Run answers question. source labels where the request came from (e.g.
// "cli") and is carried into the run metadata. The returned Result always
// has a non-empty answer; stage failures are recorded in Metadata.Errors
// and in the timeline rather than surfaced as errors (R5.1-R5.3).
func (e *Engine) Run(ctx context.Context, question, source string) (result types.Result, err error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return types.Result{}, ErrInvalidInput
	}

	start := time.Now()
	result = types.Result{
		Question: question,
		Metadata: types.RunMetadata{RunID: uuid.NewString(), Source: source},
	}

	var evidence []types.Document

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(e.opts.Log, "warning: run %s panicked: %v\n", result.Metadata.RunID, r)
			result.Metadata.Errors = append(result.Metadata.Errors, fmt.Sprintf("internal: %v", r))
			if result.Answer == "" {
				result.Answer = synthesis.ErrorAnswer
			}
		}
		result.Metadata.SourcesFound = len(evidence)
		result.CompletedAt = time.Now()
		result.DurationMs = time.Since(start).Milliseconds()
		e.opts.Sink.Save(ctx, result)
	}()

	// Queries are planned once; the search/reflect loop re-runs the same
	// list, folding newly seen documents into the cumulative evidence and
	// asking reflection whether to go again (R2.1-R2.4).
	queries := e.expandQueries(ctx, &result, question)

	seen := make(map[string]bool)
	iteration := 0
	for {
		iteration++
		result.Metadata.Iterations = iteration

		e.searchRound(ctx, &result, question, queries, seen, &evidence)

		decision := reflect.Evaluate(len(evidence), iteration, e.opts.Reflection)
		result.Timeline = append(result.Timeline, types.TimelineEntry{
			Step:        "reflection",
			Description: decision.Reason,
			Details: map[string]any{
				"outcome":  string(decision.Outcome),
				"continue": decision.Continue,
			},
			StartedAt: time.Now(),
			Status:    types.StepSuccess,
		})
		if !decision.Continue {
			break
		}
	}

	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].RelevanceScore > evidence[j].RelevanceScore
	})

	e.synthesize(ctx, &result, question, evidence)
	e.assess(&result, evidence)

	return result, nil
}

// expandQueries runs the planner once per run; every search round reuses
// the resulting list. Planner failures degrade to searching the question
// verbatim (R1.2).
func (e *Engine) expandQueries(ctx context.Context, result *types.Result, question string) []string {
	ts := time.Now()

	queries, err := e.opts.Planner.Expand(ctx, question, e.opts.NumQueries)
	status := types.StepSuccess
	if err != nil {
		status = types.StepError
		result.Metadata.Errors = append(result.Metadata.Errors, fmt.Sprintf("query_generation: %v", err))
		fmt.Fprintf(e.opts.Log, "warning: query expansion failed, searching the question directly: %v\n", err)
	}

	result.Timeline = append(result.Timeline, types.TimelineEntry{
		Step:        "query_generation",
		Description: fmt.Sprintf("expanded into %d queries", len(queries)),
		Details:     map[string]any{"queries": queries},
		StartedAt:   ts,
		DurationMs:  time.Since(ts).Milliseconds(),
		Status:      status,
	})
	return queries
}

// searchRound runs one search round and folds previously unseen documents
// into the cumulative evidence (R2.2).
func (e *Engine) searchRound(ctx context.Context, result *types.Result, question string, queries []string, seen map[string]bool, evidence *[]types.Document) {
	ts := time.Now()

	out, err := e.opts.Searcher.SearchMany(ctx, question, queries)
	status := types.StepSuccess
	if err != nil {
		status = types.StepError
		result.Metadata.Errors = append(result.Metadata.Errors, fmt.Sprintf("web_search: %v", err))
		fmt.Fprintf(e.opts.Log, "warning: search round failed: %v\n", err)
	}
	for _, qerr := range out.QueryErrors {
		result.Metadata.Errors = append(result.Metadata.Errors, "web_search: "+qerr)
	}

	added := 0
	for _, doc := range out.Documents {
		if seen[doc.URL] {
			continue
		}
		seen[doc.URL] = true
		*evidence = append(*evidence, doc)
		added++
	}

	result.Timeline = append(result.Timeline, types.TimelineEntry{
		Step:        "web_search",
		Description: fmt.Sprintf("found %d new sources (%d total)", added, len(*evidence)),
		Details: map[string]any{
			"queries":       len(queries),
			"new_sources":   added,
			"total_sources": len(*evidence),
		},
		StartedAt:  ts,
		DurationMs: time.Since(ts).Milliseconds(),
		Status:     status,
	})
}

// synthesize produces the answer and citations (R4.1, R4.2).
func (e *Engine) synthesize(ctx context.Context, result *types.Result, question string, evidence []types.Document) {
	ts := time.Now()

	answer, citations, err := e.opts.Synthesizer.Synthesize(ctx, question, evidence)
	status := types.StepSuccess
	desc := fmt.Sprintf("synthesized answer from %d sources", len(evidence))
	if err != nil {
		status = types.StepError
		desc = "synthesis failed, returning fallback answer"
		result.Metadata.Errors = append(result.Metadata.Errors, fmt.Sprintf("synthesis: %v", err))
	}

	result.Answer = answer
	result.Citations = citations
	result.Timeline = append(result.Timeline, types.TimelineEntry{
		Step:        "synthesis",
		Description: desc,
		Details:     map[string]any{"citations": len(citations)},
		StartedAt:   ts,
		DurationMs:  time.Since(ts).Milliseconds(),
		Status:      status,
	})
}

// assess scores the answer and sets the run confidence. With no evidence
// the check is skipped and confidence is zero (R4.3); an assessor panic
// degrades to a 0.5 confidence rather than losing the run (R5.2).
func (e *Engine) assess(result *types.Result, evidence []types.Document) {
	ts := time.Now()

	if len(evidence) == 0 {
		result.Metadata.Confidence = 0
		result.Timeline = append(result.Timeline, types.TimelineEntry{
			Step:        "quality_check",
			Description: "skipped: no evidence to score against",
			StartedAt:   ts,
			Status:      types.StepSkipped,
		})
		return
	}

	assessment, err := e.safeAssess(result.Answer, evidence)
	if err != nil {
		result.Metadata.Confidence = 0.5
		result.Metadata.Errors = append(result.Metadata.Errors, fmt.Sprintf("quality_check: %v", err))
		result.Timeline = append(result.Timeline, types.TimelineEntry{
			Step:        "quality_check",
			Description: "quality check failed",
			StartedAt:   ts,
			DurationMs:  time.Since(ts).Milliseconds(),
			Status:      types.StepError,
		})
		return
	}

	confidence := assessment.Overall
	if h, ok := assessment.SubScores["hallucination"]; ok {
		confidence = h
	}
	result.Metadata.Confidence = confidence

	details := map[string]any{"overall": assessment.Overall}
	for name, score := range assessment.SubScores {
		details[name] = score
	}
	result.Timeline = append(result.Timeline, types.TimelineEntry{
		Step:        "quality_check",
		Description: fmt.Sprintf("overall quality %.2f", assessment.Overall),
		Details:     details,
		StartedAt:   ts,
		DurationMs:  time.Since(ts).Milliseconds(),
		Status:      types.StepSuccess,
	})
}

// safeAssess contains assessor panics.
func (e *Engine) safeAssess(answer string, evidence []types.Document) (assessment quality.Assessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("assessor panicked: %v", r)
		}
	}()
	return e.opts.Assessor.Assess(answer, evidence), nil
}
