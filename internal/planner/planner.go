// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner expands a research question into targeted search queries
// using the language model. Planner failures are always recoverable: the
// original question is the fallback query set.
// Implements: prd005-orchestration (R2.1-R2.3).
package planner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-agent/internal/llm"
)

// Planner generates search query variants for a question.
type Planner struct {
	model llm.Model
	w     io.Writer
}

// New returns a Planner backed by model. Warnings are written to w.
func New(model llm.Model, w io.Writer) *Planner {
	return &Planner{model: model, w: w}
}

const expandPrompt = `Generate %d diverse search queries to research this question:

Question: %s

Requirements:
- Make queries specific and targeted
- Cover different aspects of the topic
- Use search-engine-friendly language
- Keep each query concise (3-8 words)

Return ONLY a JSON array of query strings under the key "queries".
Example: {"queries": ["query 1", "query 2", "query 3"]}`

// Expand returns up to n search queries for question. On any model or
// parse failure it falls back to [question] and reports the failure
// through the returned error; the query list is always usable (R2.2).
func (p *Planner) Expand(ctx context.Context, question string, n int) ([]string, error) {
	if n <= 0 {
		n = 3
	}

	var resp struct {
		Queries []string `json:"queries"`
	}
	err := p.model.GenerateStructured(ctx, fmt.Sprintf(expandPrompt, n, question), &resp)
	if err != nil {
		p.warnf("query expansion failed, using original question: %v", err)
		return []string{question}, fmt.Errorf("expanding queries: %w", err)
	}

	queries := make([]string, 0, n)
	for _, q := range resp.Queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == n {
			break
		}
	}

	if len(queries) == 0 {
		p.warnf("query expansion returned nothing, using original question")
		return []string{question}, fmt.Errorf("expanding queries: model returned no queries")
	}
	return queries, nil
}

func (p *Planner) warnf(format string, args ...any) {
	if p.w == nil {
		return
	}
	fmt.Fprintf(p.w, "warning: "+format+"\n", args...)
}
