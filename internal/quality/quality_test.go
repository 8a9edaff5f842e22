// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/pdiddy/research-agent/internal/filters"
	"github.com/pdiddy/research-agent/pkg/types"
)

// stubChecker returns fixed reports, or errors when broken.
type stubChecker struct {
	hallucination filters.HallucinationReport
	bias          filters.BiasReport
	broken        bool
}

func (c *stubChecker) AssessHallucination(string, []types.Document) (filters.HallucinationReport, error) {
	if c.broken {
		return filters.HallucinationReport{}, fmt.Errorf("checker down")
	}
	return c.hallucination, nil
}

func (c *stubChecker) AssessBias(string) (filters.BiasReport, error) {
	if c.broken {
		return filters.BiasReport{}, fmt.Errorf("checker down")
	}
	return c.bias, nil
}

func allChecks() types.QualityConfig {
	return types.QualityConfig{
		EnableHallucinationCheck: true,
		EnableCoverageCheck:      true,
		EnableBiasCheck:          true,
	}
}

func docsWithSnippet(n, snippetLen int) []types.Document {
	docs := make([]types.Document, n)
	for i := range docs {
		docs[i] = types.Document{Snippet: strings.Repeat("s", snippetLen)}
	}
	return docs
}

func TestAssessAveragesEnabledChecks(t *testing.T) {
	checker := &stubChecker{hallucination: filters.HallucinationReport{Confidence: 1.0}}
	a := New(checker, allChecks(), io.Discard)

	// Answer length 100 vs average snippet 100: coverage 0.9. No bias: 0.95.
	got := a.Assess(strings.Repeat("a", 100), docsWithSnippet(3, 100))

	want := (1.0 + 0.9 + 0.95) / 3
	if math.Abs(got.Overall-want) > 1e-9 {
		t.Errorf("Overall = %v, want %v", got.Overall, want)
	}
	if len(got.SubScores) != 3 {
		t.Errorf("SubScores = %v, want three entries", got.SubScores)
	}
}

func TestAssessNoChecksEnabled(t *testing.T) {
	a := New(&stubChecker{}, types.QualityConfig{}, io.Discard)
	got := a.Assess("answer", docsWithSnippet(1, 10))
	if got.Overall != neutralScore {
		t.Errorf("Overall = %v, want %v", got.Overall, neutralScore)
	}
}

func TestAssessCheckerFailureIsNeutral(t *testing.T) {
	var buf bytes.Buffer
	cfg := types.QualityConfig{EnableHallucinationCheck: true, EnableBiasCheck: true}
	a := New(&stubChecker{broken: true}, cfg, &buf)

	got := a.Assess("answer", docsWithSnippet(1, 10))
	if got.Overall != neutralScore {
		t.Errorf("Overall = %v, want %v", got.Overall, neutralScore)
	}
	if !strings.Contains(buf.String(), "warning") {
		t.Errorf("expected warnings, got %q", buf.String())
	}
}

func TestCoverageScore(t *testing.T) {
	tests := []struct {
		name      string
		answerLen int
		want      float64
	}{
		{"much shorter than evidence", 40, 0.6},
		{"balanced", 150, 0.9},
		{"much longer than evidence", 600, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coverageScore(strings.Repeat("a", tt.answerLen), docsWithSnippet(4, 100))
			if got != tt.want {
				t.Errorf("coverageScore(len %d) = %v, want %v", tt.answerLen, got, tt.want)
			}
		})
	}
}

func TestCoverageScoreNoEvidence(t *testing.T) {
	if got := coverageScore("answer", nil); got != neutralScore {
		t.Errorf("coverageScore = %v, want %v", got, neutralScore)
	}
	if got := coverageScore("answer", docsWithSnippet(2, 0)); got != neutralScore {
		t.Errorf("coverageScore with empty snippets = %v, want %v", got, neutralScore)
	}
}

func TestBiasScore(t *testing.T) {
	tests := []struct {
		name string
		rep  filters.BiasReport
		want float64
	}{
		{"no bias", filters.BiasReport{}, 0.95},
		{"low-confidence flag", filters.BiasReport{HasBias: true, Confidence: 0.3}, 0.7},
		{"high-confidence flag floored", filters.BiasReport{HasBias: true, Confidence: 0.9}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&stubChecker{bias: tt.rep}, types.QualityConfig{EnableBiasCheck: true}, io.Discard)
			got := a.Assess("answer", nil)
			if math.Abs(got.SubScores["bias"]-tt.want) > 1e-9 {
				t.Errorf("bias score = %v, want %v", got.SubScores["bias"], tt.want)
			}
		})
	}
}

func TestAssessWithRealFilter(t *testing.T) {
	a := New(filters.New(), allChecks(), io.Discard)

	confident := a.Assess(
		strings.Repeat("The standard library covers networking. ", 3),
		docsWithSnippet(3, 40),
	)
	hedged := a.Assess(
		"I think it might be true, maybe, but I'm not sure it could be right.",
		docsWithSnippet(3, 40),
	)
	if hedged.Overall >= confident.Overall {
		t.Errorf("hedged answer scored %v, confident answer %v; want lower", hedged.Overall, confident.Overall)
	}
}
