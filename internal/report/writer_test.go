package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

func testSummary() *model.RunSummary {
	summary := model.NewRunSummary("https://site.example/list")
	summary.StartedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	summary.Elapsed = 92 * time.Second
	summary.PagesFetched = 7
	summary.Restaurants = 2
	summary.Reviews = 25
	summary.Duplicates = 3
	summary.Checkpoint = &model.CheckpointRecord{
		CrawlRoot:       "https://site.example/list",
		LastListingPage: 1,
		ReviewPages:     map[string]int{"rA": 2, "rB": 1},
	}
	summary.Dropped = []model.DroppedTask{
		{
			Kind:   model.KindRestaurantDetail,
			URL:    "https://site.example/restaurant/r999",
			Reason: model.DropGone,
			Detail: "status 404",
		},
	}
	return summary
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("counts and checkpoint", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		n, err := NewSimpleWriter(&sb).Write(testSummary())
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != sb.Len() {
			t.Errorf("Write() n = %d, output length = %d", n, sb.Len())
		}

		out := sb.String()
		for _, want := range []string{
			"https://site.example/list",
			"Restaurants:    2",
			"Reviews:        25",
			"Duplicates:     3",
			"listing page 1",
			"Dropped tasks: 1 (gone: 1)",
			"Status:   completed",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		// Without verbose the per-task lines stay out.
		if strings.Contains(out, "r999") {
			t.Errorf("non-verbose output lists individual tasks:\n%s", out)
		}
	})

	t.Run("verbose lists dropped tasks", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		if _, err := NewSimpleWriter(&sb, WithVerbose(true)).Write(testSummary()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(sb.String(), "r999") {
			t.Errorf("verbose output missing dropped URL:\n%s", sb.String())
		}
	})

	t.Run("aborted run shows error", func(t *testing.T) {
		t.Parallel()
		summary := testSummary()
		summary.ErrorMessage = "name resolution failed"

		var sb strings.Builder
		if _, err := NewSimpleWriter(&sb).Write(summary); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(sb.String(), "aborted: name resolution failed") {
			t.Errorf("output missing abort status:\n%s", sb.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output round trips", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		if _, err := NewJSONWriter(&sb).Write(testSummary()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		var decoded model.RunSummary
		if err := json.Unmarshal([]byte(sb.String()), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Restaurants != 2 || decoded.Reviews != 25 {
			t.Errorf("decoded counts = (%d, %d), want (2, 25)", decoded.Restaurants, decoded.Reviews)
		}
		if decoded.Checkpoint == nil || decoded.Checkpoint.ReviewPages["rA"] != 2 {
			t.Errorf("decoded checkpoint = %+v", decoded.Checkpoint)
		}
		if strings.Count(sb.String(), "\n") != 1 {
			t.Errorf("compact output should be a single line:\n%s", sb.String())
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		if _, err := NewJSONWriter(&sb, WithPrettyPrint()).Write(testSummary()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(sb.String(), "\n  \"crawl_root\"") {
			t.Errorf("pretty output not indented:\n%s", sb.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).Write(testSummary()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := sb.String()
	for _, want := range []string{
		"# Crawl Report",
		"## Results",
		"## Checkpoint",
		"## Dropped Tasks",
		"reviews: rA",
		"restaurant-detail",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, jsonOut strings.Builder
	mw := NewMultiWriter(
		NewSimpleWriter(&text),
		NewJSONWriter(&jsonOut),
	)
	n, err := mw.Write(testSummary())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != text.Len()+jsonOut.Len() {
		t.Errorf("total n = %d, want %d", n, text.Len()+jsonOut.Len())
	}
	if text.Len() == 0 || jsonOut.Len() == 0 {
		t.Error("one of the writers received no output")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{name: "short unchanged", in: "abc", maxLen: 10, want: "abc"},
		{name: "exact unchanged", in: "abcde", maxLen: 5, want: "abcde"},
		{name: "long truncated", in: "abcdefghij", maxLen: 8, want: "abcde..."},
		{name: "tiny limit", in: "abcdef", maxLen: 2, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
