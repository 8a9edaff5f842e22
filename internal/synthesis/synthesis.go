// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns ranked evidence into a cited answer.
// Implements: prd004-synthesis (R1-R4);
//
//	docs/ARCHITECTURE § Synthesis.
package synthesis

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/pkg/types"
)

const (
	// maxPromptDocs bounds how many documents go into the prompt and the
	// citation list (R1.2).
	maxPromptDocs = 10

	// maxCitationSnippet bounds the snippet carried on each citation (R3.2).
	maxCitationSnippet = 200

	// smsBudget is the hard character cap for SMS-formatted answers.
	smsBudget = 1600
)

// InsufficientInfoAnswer is returned when there is no evidence to answer
// from. The model is never called in that case (R2.1).
const InsufficientInfoAnswer = "I couldn't find enough reliable information to answer that. " +
	"Try rephrasing the question or asking about something more specific."

// ErrorAnswer is returned when the model fails after retries (R2.2).
const ErrorAnswer = "I'm sorry, something went wrong while putting together your answer. " +
	"Please try again in a moment."

const systemInstruction = "You are a research assistant. Synthesize a clear, factual answer " +
	"from the provided sources. Cite sources by their number, like [1]. " +
	"If the sources disagree, say so. Do not invent facts."

// Synthesizer produces answers from ranked documents.
type Synthesizer struct {
	model llm.Model
	w     io.Writer
}

// New returns a Synthesizer that logs warnings to w.
func New(model llm.Model, w io.Writer) *Synthesizer {
	return &Synthesizer{model: model, w: w}
}

// Synthesize builds an answer to question from docs, with citations for the
// documents shown to the model. When docs is empty it returns the fixed
// insufficient-information answer without a model call (R2.1). When the
// model fails it returns the fixed error answer with no citations and the
// error so the caller can record the failure (R2.2).
func (s *Synthesizer) Synthesize(ctx context.Context, question string, docs []types.Document) (string, []types.Citation, error) {
	if len(docs) == 0 {
		return InsufficientInfoAnswer, nil, nil
	}

	answer, err := s.model.Generate(ctx, buildPrompt(question, docs), systemInstruction)
	if err != nil {
		fmt.Fprintf(s.w, "warning: answer synthesis failed: %v\n", err)
		return ErrorAnswer, nil, fmt.Errorf("synthesizing answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		fmt.Fprintf(s.w, "warning: model returned an empty answer\n")
		return ErrorAnswer, nil, fmt.Errorf("synthesizing answer: empty model output")
	}

	return answer, Citations(docs), nil
}

// buildPrompt renders the question and the top documents as a numbered
// source list (R1.1, R1.2).
func buildPrompt(question string, docs []types.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nSources:\n", question)
	for i, d := range docs {
		if i >= maxPromptDocs {
			break
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, d.Title, d.URL, d.Snippet)
	}
	b.WriteString("Answer the question using only these sources.")
	return b.String()
}

// Citations projects the top documents into citation records, truncating
// snippets to keep persisted results small (R3.1, R3.2).
func Citations(docs []types.Document) []types.Citation {
	n := len(docs)
	if n > maxPromptDocs {
		n = maxPromptDocs
	}
	citations := make([]types.Citation, 0, n)
	for _, d := range docs[:n] {
		snippet := truncate(d.Snippet, maxCitationSnippet)
		citations = append(citations, types.Citation{
			Title:          d.Title,
			URL:            d.URL,
			Snippet:        snippet,
			Provider:       d.Provider,
			RelevanceScore: d.RelevanceScore,
		})
	}
	return citations
}

// FormatSMS fits the answer and up to two shortened source URLs into a
// single SMS-sized message (R4.1, R4.2).
func FormatSMS(answer string, citations []types.Citation) string {
	sources := ""
	if len(citations) > 0 {
		var urls []string
		for i, c := range citations {
			if i >= 2 {
				break
			}
			urls = append(urls, shortenURL(c.URL))
		}
		sources = "\n\nSources: " + strings.Join(urls, ", ")
	}

	return truncate(answer, smsBudget-len(sources)) + sources
}

// truncate shortens s to at most max bytes, backing up to a rune boundary
// and appending "..." when anything was cut.
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

// shortenURL reduces a URL to its host and a truncated path.
func shortenURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.TrimPrefix(u.Host, "www.")
	path := truncate(u.Path, 20)
	if path == "/" {
		path = ""
	}
	return host + path
}

// CitationSummary renders a short human-readable source list, e.g.
// "3 sources: example.com, docs.test".
func CitationSummary(citations []types.Citation) string {
	if len(citations) == 0 {
		return "no sources"
	}

	seen := make(map[string]bool)
	var hosts []string
	for _, c := range citations {
		u, err := url.Parse(c.URL)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.TrimPrefix(u.Host, "www.")
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}

	label := fmt.Sprintf("%d sources", len(citations))
	if len(citations) == 1 {
		label = "1 source"
	}
	if len(hosts) == 0 {
		return label
	}
	if len(hosts) > 3 {
		hosts = append(hosts[:3], fmt.Sprintf("+%d more", len(hosts)-3))
	}
	return label + ": " + strings.Join(hosts, ", ")
}
