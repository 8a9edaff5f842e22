// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/research-agent/pkg/types"
)

func openTestSink(t *testing.T) *Sink {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), io.Discard)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testResult(runID, question string) types.Result {
	return types.Result{
		Question: question,
		Answer:   "the answer",
		Citations: []types.Citation{
			{Title: "Source", URL: "https://example.com/1", Snippet: "snippet"},
		},
		Timeline: []types.TimelineEntry{
			{Step: "query_generation", Description: "generated 3 queries", Status: types.StepSuccess,
				StartedAt: time.Now(), DurationMs: 12, Details: map[string]any{"queries": 3.0}},
			{Step: "web_search", Description: "found 5 sources", Status: types.StepSuccess,
				StartedAt: time.Now(), DurationMs: 80},
		},
		CompletedAt: time.Now(),
		DurationMs:  120,
		Metadata: types.RunMetadata{
			RunID:        runID,
			Source:       "cli",
			Iterations:   1,
			SourcesFound: 5,
			Confidence:   0.9,
			Errors:       []string{"reflection: slow"},
		},
	}
}

func TestSaveAndHistory(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	s.Save(ctx, testResult("run-1", "first question"))
	s.Save(ctx, testResult("run-2", "second question"))

	history, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}

	got := history[0]
	if got.Question != "second question" && got.Question != "first question" {
		t.Errorf("unexpected question %q", got.Question)
	}
	for _, r := range history {
		if r.Answer != "the answer" || r.Confidence != 0.9 || r.SourcesFound != 5 {
			t.Errorf("row = %+v", r)
		}
		if r.CompletedAt.IsZero() {
			t.Error("CompletedAt not restored")
		}
	}
}

func TestSaveIsIdempotentPerRun(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	s.Save(ctx, testResult("run-1", "question"))
	updated := testResult("run-1", "question")
	updated.Answer = "revised answer"
	s.Save(ctx, updated)

	history, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1 (upsert)", len(history))
	}
	if history[0].Answer != "revised answer" {
		t.Errorf("Answer = %q, want the re-saved value", history[0].Answer)
	}

	timeline, err := s.Timeline(ctx, "run-1")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(timeline) != 2 {
		t.Errorf("len(timeline) = %d, want 2 (replaced, not appended)", len(timeline))
	}
}

func TestTimelineRoundTrip(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	s.Save(ctx, testResult("run-1", "question"))

	timeline, err := s.Timeline(ctx, "run-1")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(timeline) != 2 {
		t.Fatalf("len(timeline) = %d, want 2", len(timeline))
	}
	if timeline[0].Step != "query_generation" || timeline[1].Step != "web_search" {
		t.Errorf("steps out of order: %q, %q", timeline[0].Step, timeline[1].Step)
	}
	if timeline[0].Status != types.StepSuccess {
		t.Errorf("Status = %q, want %q", timeline[0].Status, types.StepSuccess)
	}
	if timeline[0].Details["queries"] != 3.0 {
		t.Errorf("Details = %v, want queries=3", timeline[0].Details)
	}
	if timeline[1].Details != nil {
		t.Errorf("Details = %v, want nil for step without details", timeline[1].Details)
	}
}

func TestHistoryLimit(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r := testResult(fmt.Sprintf("run-%d", i), fmt.Sprintf("question %d", i))
		r.CompletedAt = time.Now().Add(time.Duration(i) * time.Minute)
		s.Save(ctx, r)
	}

	history, err := s.History(ctx, 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(history))
	}
	if history[0].RunID != "run-4" {
		t.Errorf("history[0] = %q, want the newest run", history[0].RunID)
	}
}

func TestNilSinkDiscards(t *testing.T) {
	var s *Sink
	s.Save(context.Background(), testResult("run-1", "q"))

	history, err := s.History(context.Background(), 10)
	if err != nil || history != nil {
		t.Errorf("History on nil sink = %v, %v", history, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil sink: %v", err)
	}
}

func TestSaveFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), &buf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.db.Close() // force subsequent writes to fail

	s.Save(context.Background(), testResult("run-1", "q"))
	if !strings.Contains(buf.String(), "warning") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}
