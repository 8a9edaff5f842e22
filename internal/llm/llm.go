// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language model behind a narrow interface with
// retry, backoff, and structured-output parsing.
// Implements: prd004-synthesis (R1.1-R1.3);
//
//	docs/ARCHITECTURE § Language Model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrUnavailable reports that the model API stayed unreachable after
// exhausting retries. Callers use errors.Is to distinguish connectivity
// failures from malformed output (R1.2).
var ErrUnavailable = errors.New("language model unavailable")

// ErrMalformedOutput reports that the model returned text that could not
// be parsed as the requested structure (R1.3).
var ErrMalformedOutput = errors.New("malformed language model output")

// Model generates text from a prompt. Implementations retry transient
// failures internally and surface ErrUnavailable once retries are spent.
type Model interface {
	// Generate returns the model's text response. systemInstruction may
	// be empty.
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)

	// GenerateStructured asks the model for JSON and decodes it into out.
	GenerateStructured(ctx context.Context, prompt string, out any) error
}

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry invokes call with exponential backoff: the delay before
// attempt n is backoffBase * 2^(n-1). After maxRetries failed attempts the
// last error is wrapped in ErrUnavailable.
func callWithRetry(ctx context.Context, maxRetries int, call func() (string, error)) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := call()
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: after %d attempts: %v", ErrUnavailable, maxRetries, lastErr)
}

// stripFences removes a surrounding markdown code fence from a model
// response. Models routinely wrap JSON in ```json blocks despite being
// told not to.
func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// decodeStructured parses a model response as JSON into out.
func decodeStructured(text string, out any) error {
	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// structuredSuffix is appended to prompts that require JSON output.
const structuredSuffix = "\n\nRespond ONLY with valid JSON. Do not include any explanation, markdown formatting, or additional text.\n"
