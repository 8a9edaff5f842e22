// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filters provides content safety checks: PII detection and
// redaction, prompt-injection detection, keyword toxicity screening, and
// the hallucination and bias heuristics behind answer quality scoring.
// Implements: prd006-safety (R1-R5).
package filters

import (
	"regexp"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

// piiPatterns maps a PII category to its detection pattern and redaction
// placeholder. The patterns are deliberately broad; false positives drop a
// search result or redact a fragment, never fail a run.
var piiPatterns = []struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}{
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN_REDACTED]"},
	{"credit_card", regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), "[CARD_REDACTED]"},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL_REDACTED]"},
	{"ip_address", regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "[IP_REDACTED]"},
	{"phone", regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}`), "[PHONE_REDACTED]"},
	{"passport", regexp.MustCompile(`\b[A-Z]{1,2}\d{6,9}\b`), "[PASSPORT_REDACTED]"},
}

// injectionPatterns detect attempts to override model instructions.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|all)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(previous|all)\s+instructions?`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|previous)`),
	regexp.MustCompile(`(?i)system\s*:\s*you\s+are`),
	regexp.MustCompile(`(?i)<\|im_start\|>|<\|im_end\|>`),
	regexp.MustCompile(`(?i)\[INST\]|\[/INST\]`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)override\s+your\s+directives`),
}

// toxicityKeywords is a keyword screen, not a classifier. Two or more hits
// are required before a text is flagged, which keeps single incidental
// matches (e.g. "attack" in a security question) from tripping it.
var toxicityKeywords = []string{
	"kill", "murder", "assault", "attack", "harm", "hurt",
	"hate", "discriminate",
	"explicit", "pornographic",
}

// uncertaintyMarkers are hedging phrases that lower answer confidence.
var uncertaintyMarkers = []string{
	"i think", "i believe", "probably", "maybe", "might be",
	"could be", "seems like", "appears to be",
	"not sure", "uncertain", "speculation",
}

var specificClaimPattern = regexp.MustCompile(`\d{4}|\d+%|\$\d+`)

// Filter runs heuristic content safety checks. The zero value is ready to
// use; all methods are safe for concurrent callers.
type Filter struct{}

// New returns a Filter.
func New() *Filter { return &Filter{} }

// ContainsPII reports whether text matches any PII pattern (R1.1).
func (f *Filter) ContainsPII(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range piiPatterns {
		if p.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// DocumentContainsPII reports whether any text field of doc matches a PII
// pattern (R1.2).
func (f *Filter) DocumentContainsPII(doc types.Document) bool {
	return f.ContainsPII(strings.Join([]string{doc.Title, doc.Snippet, doc.URL}, " "))
}

// Sanitize replaces detected PII with redaction placeholders, preserving
// the surrounding text (R1.3).
func (f *Filter) Sanitize(text string) string {
	for _, p := range piiPatterns {
		text = p.pattern.ReplaceAllString(text, p.replacement)
	}
	return text
}

// HasPromptInjection reports whether text looks like an attempt to
// override model instructions (R2.1). Besides the known patterns, a
// special-character ratio above 30% is treated as token smuggling.
func (f *Filter) HasPromptInjection(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}

	special := 0
	for _, r := range text {
		if !isAlnum(r) && r != ' ' && r != '\t' && r != '\n' {
			special++
		}
	}
	return float64(special)/float64(len([]rune(text))) > 0.3
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsToxic reports whether text contains two or more toxicity keywords (R3.1).
func (f *Filter) IsToxic(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range toxicityKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits >= 2
}

// HallucinationReport is the outcome of the hallucination heuristic.
type HallucinationReport struct {
	// Hallucinated is true when confidence falls below 0.6.
	Hallucinated bool

	// Confidence is a 0-1 score; higher means better grounded.
	Confidence float64
}

// AssessHallucination scores answer against its sources (R4.1-R4.3).
// Each uncertainty marker in the answer costs 0.15 confidence; an answer
// with no sources is halved; specific claims (years, percentages, dollar
// amounts) without sources cost a further 40%.
func (f *Filter) AssessHallucination(answer string, sources []types.Document) (HallucinationReport, error) {
	if answer == "" {
		return HallucinationReport{Hallucinated: false, Confidence: 0}, nil
	}

	lower := strings.ToLower(answer)
	uncertain := 0
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lower, marker) {
			uncertain++
		}
	}

	confidence := 1.0 - float64(uncertain)*0.15
	if confidence < 0 {
		confidence = 0
	}

	if len(sources) == 0 {
		confidence *= 0.5
		if specificClaimPattern.MatchString(answer) {
			confidence *= 0.6
		}
	}

	return HallucinationReport{
		Hallucinated: confidence < 0.6,
		Confidence:   confidence,
	}, nil
}

// BiasReport is the outcome of the bias heuristic.
type BiasReport struct {
	HasBias    bool
	BiasTypes  []string
	Confidence float64
}

var genderedTerms = map[string]bool{
	"he": true, "she": true, "him": true, "her": true, "his": true, "hers": true,
}

// AssessBias flags text whose gendered-term density suggests a slanted
// framing (R5.1). This is a placeholder heuristic: more than five gendered
// tokens trips it with low confidence.
func (f *Filter) AssessBias(text string) (BiasReport, error) {
	count := 0
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if genderedTerms[strings.Trim(tok, ".,;:!?")] {
			count++
		}
	}

	if count > 5 {
		return BiasReport{HasBias: true, BiasTypes: []string{"gender"}, Confidence: 0.3}, nil
	}
	return BiasReport{}, nil
}
