// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reflect decides whether the evidence gathered so far is enough to
// answer the question or another search round is warranted.
// Implements: prd003-reflection (R1-R3).
package reflect

import (
	"fmt"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Outcome names the reflection verdict.
type Outcome string

const (
	OutcomeSufficient    Outcome = "sufficient_results"
	OutcomeNeedMore      Outcome = "need_more_results"
	OutcomeMaxIterations Outcome = "max_iterations_reached"
)

// Decision is the verdict for one completed search round.
type Decision struct {
	Outcome  Outcome
	Continue bool
	Reason   string
}

// Evaluate inspects the evidence after a completed round. iteration is
// 1-based: the first search round evaluates with iteration 1. Enough
// evidence ends the loop (R1.1); otherwise another round runs unless the
// iteration cap is hit (R1.2, R1.3).
func Evaluate(evidenceCount, iteration int, cfg types.ReflectionConfig) Decision {
	minEvidence := cfg.MinEvidence
	if minEvidence <= 0 {
		minEvidence = 3
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 3
	}

	if evidenceCount >= minEvidence {
		return Decision{
			Outcome: OutcomeSufficient,
			Reason:  fmt.Sprintf("found %d sources, need %d", evidenceCount, minEvidence),
		}
	}
	if iteration >= maxIterations {
		return Decision{
			Outcome: OutcomeMaxIterations,
			Reason:  fmt.Sprintf("only %d sources after %d rounds", evidenceCount, iteration),
		}
	}
	return Decision{
		Outcome:  OutcomeNeedMore,
		Continue: true,
		Reason:   fmt.Sprintf("found %d sources, need %d", evidenceCount, minEvidence),
	}
}
