// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality scores a synthesized answer against its evidence.
// Implements: prd004-synthesis (R5);
//
//	docs/ARCHITECTURE § Quality.
package quality

import (
	"fmt"
	"io"

	"github.com/pdiddy/research-agent/internal/filters"
	"github.com/pdiddy/research-agent/pkg/types"
)

// neutralScore stands in when a sub-check fails or none are enabled (R5.4).
const neutralScore = 0.8

// Checker runs the content heuristics behind the quality sub-scores.
// *filters.Filter satisfies it.
type Checker interface {
	AssessHallucination(answer string, sources []types.Document) (filters.HallucinationReport, error)
	AssessBias(text string) (filters.BiasReport, error)
}

// Assessment is the quality verdict for one answer.
type Assessment struct {
	// Overall is the mean of the enabled sub-scores, in [0, 1].
	Overall float64 `json:"overall"`

	// SubScores maps check name to its score.
	SubScores map[string]float64 `json:"sub_scores"`
}

// Assessor scores answers using the checks enabled in its config.
type Assessor struct {
	checker Checker
	cfg     types.QualityConfig
	w       io.Writer
}

// New returns an Assessor that logs sub-check failures to w.
func New(checker Checker, cfg types.QualityConfig, w io.Writer) *Assessor {
	return &Assessor{checker: checker, cfg: cfg, w: w}
}

// Assess scores answer against sources. Each enabled check contributes one
// sub-score; a failing check contributes the neutral score instead of
// failing the assessment (R5.4). With no checks enabled the overall score
// is neutral (R5.5).
func (a *Assessor) Assess(answer string, sources []types.Document) Assessment {
	sub := make(map[string]float64)

	if a.cfg.EnableHallucinationCheck {
		sub["hallucination"] = a.hallucinationScore(answer, sources)
	}
	if a.cfg.EnableCoverageCheck {
		sub["coverage"] = coverageScore(answer, sources)
	}
	if a.cfg.EnableBiasCheck {
		sub["bias"] = a.biasScore(answer)
	}

	if len(sub) == 0 {
		return Assessment{Overall: neutralScore, SubScores: sub}
	}

	total := 0.0
	for _, s := range sub {
		total += s
	}
	return Assessment{Overall: total / float64(len(sub)), SubScores: sub}
}

// hallucinationScore is the grounding confidence from the hallucination
// heuristic (R5.1).
func (a *Assessor) hallucinationScore(answer string, sources []types.Document) float64 {
	rep, err := a.checker.AssessHallucination(answer, sources)
	if err != nil {
		fmt.Fprintf(a.w, "warning: hallucination check failed: %v\n", err)
		return neutralScore
	}
	return rep.Confidence
}

// coverageScore compares answer length to the average snippet length. An
// answer much shorter than its evidence likely skipped material; one much
// longer likely padded beyond it (R5.2).
func coverageScore(answer string, sources []types.Document) float64 {
	if len(sources) == 0 {
		return neutralScore
	}
	total := 0
	for _, d := range sources {
		total += len(d.Snippet)
	}
	avg := float64(total) / float64(len(sources))
	if avg == 0 {
		return neutralScore
	}

	ratio := float64(len(answer)) / avg
	switch {
	case ratio < 0.5:
		return 0.6
	case ratio > 5:
		return 0.7
	default:
		return 0.9
	}
}

// biasScore penalizes flagged answers in proportion to the detector's
// confidence, floored at 0.5 (R5.3).
func (a *Assessor) biasScore(answer string) float64 {
	rep, err := a.checker.AssessBias(answer)
	if err != nil {
		fmt.Fprintf(a.w, "warning: bias check failed: %v\n", err)
		return neutralScore
	}
	if !rep.HasBias {
		return 0.95
	}
	score := 1 - rep.Confidence
	if score < 0.5 {
		return 0.5
	}
	return score
}
