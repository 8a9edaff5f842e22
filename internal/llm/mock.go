// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
)

// Mock is an offline Model for development and tests. The function fields,
// when set, override the canned behavior.
type Mock struct {
	GenerateFunc           func(ctx context.Context, prompt, systemInstruction string) (string, error)
	GenerateStructuredFunc func(ctx context.Context, prompt string, out any) error
}

// Generate returns a canned response unless GenerateFunc is set.
func (m *Mock) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, systemInstruction)
	}
	return fmt.Sprintf("Mock response to a %d-character prompt.", len(prompt)), nil
}

// GenerateStructured decodes a canned empty object unless
// GenerateStructuredFunc is set.
func (m *Mock) GenerateStructured(ctx context.Context, prompt string, out any) error {
	if m.GenerateStructuredFunc != nil {
		return m.GenerateStructuredFunc(ctx, prompt, out)
	}
	return decodeStructured("{}", out)
}
