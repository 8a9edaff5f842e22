// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Citation is a direct projection of a Document for display alongside the
// synthesized answer. Snippets are truncated to 200 characters at projection
// time (prd004-synthesis R2.2); no additional lookup is performed.
type Citation struct {
	Title          string  `json:"title" yaml:"title"`
	URL            string  `json:"url" yaml:"url"`
	Snippet        string  `json:"snippet" yaml:"snippet"`
	Provider       string  `json:"provider" yaml:"provider"`
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// StepStatus classifies one pipeline stage execution.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
	StepSkipped StepStatus = "skipped"
)

// TimelineEntry is an audit record of one pipeline stage execution.
// Entries are append-only and ordered by actual execution; one entry is
// emitted per stage invocation, including repeated search and reflection
// rounds (prd005-orchestration R3.2).
type TimelineEntry struct {
	// Step is the stage name (e.g. "query_generation", "web_search",
	// "reflection", "synthesis", "quality_check").
	Step string `json:"step" yaml:"step"`

	// Description is a one-line human-readable summary.
	Description string `json:"description" yaml:"description"`

	// Details carries stage-specific structured values (counts, decisions).
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`

	// StartedAt is when the stage began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// DurationMs is the stage's wall-clock duration in milliseconds.
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`

	// Status records whether the stage succeeded, errored, or was skipped.
	Status StepStatus `json:"status" yaml:"status"`
}

// RunMetadata summarizes an orchestration run.
type RunMetadata struct {
	RunID        string  `json:"run_id" yaml:"run_id"`
	Source       string  `json:"source" yaml:"source"`
	Iterations   int     `json:"iterations" yaml:"iterations"`
	SourcesFound int     `json:"sources_found" yaml:"sources_found"`
	Confidence   float64 `json:"confidence" yaml:"confidence"`

	// Errors lists stage-local failures, each prefixed with the stage name.
	// A run with a non-empty error list still carries a usable answer;
	// callers distinguish degraded runs by inspecting this list, not by
	// catching errors (prd005-orchestration R5.3).
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Result is the structured outcome of one research run. Run always returns
// a Result with a non-empty answer, even when every stage degraded.
type Result struct {
	Question    string          `json:"question" yaml:"question"`
	Answer      string          `json:"answer" yaml:"answer"`
	Citations   []Citation      `json:"citations" yaml:"citations"`
	Timeline    []TimelineEntry `json:"timeline" yaml:"timeline"`
	CompletedAt time.Time       `json:"completed_at" yaml:"completed_at"`
	DurationMs  int64           `json:"total_duration_ms" yaml:"total_duration_ms"`
	Metadata    RunMetadata     `json:"metadata" yaml:"metadata"`
}
