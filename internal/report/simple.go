package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// timeRounding trims sub-millisecond noise from elapsed durations.
const timeRounding = time.Millisecond

// SimpleWriter outputs summaries as human-readable text.
// This is the default format for terminal output.
type SimpleWriter struct {
	baseWriter

	// verbose includes the full dropped-task list rather than counts only.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-task detail in the dropped section.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary as plain text.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeCheckpoint(&sb, summary)
	w.writeDropped(&sb, summary)

	return fmt.Fprint(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	fmt.Fprintf(sb, "Crawl summary for %s\n", summary.CrawlRoot)
	fmt.Fprintf(sb, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(sb, "Started:  %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Elapsed:  %s\n", summary.Elapsed.Round(timeRounding))
	if summary.Completed() {
		fmt.Fprintf(sb, "Status:   completed\n")
	} else {
		fmt.Fprintf(sb, "Status:   aborted: %s\n", summary.ErrorMessage)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *model.RunSummary) {
	fmt.Fprintf(sb, "Pages fetched:  %d\n", summary.PagesFetched)
	fmt.Fprintf(sb, "Restaurants:    %d\n", summary.Restaurants)
	fmt.Fprintf(sb, "Reviews:        %d\n", summary.Reviews)
	fmt.Fprintf(sb, "Users:          %d\n", summary.Users)
	fmt.Fprintf(sb, "Duplicates:     %d\n", summary.Duplicates)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCheckpoint(sb *strings.Builder, summary *model.RunSummary) {
	if summary.Checkpoint == nil {
		return
	}
	fmt.Fprintf(sb, "Checkpoint: listing page %d", summary.Checkpoint.LastListingPage)
	if n := len(summary.Checkpoint.ReviewPages); n > 0 {
		fmt.Fprintf(sb, ", review progress for %d restaurant(s)", n)
	}
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeDropped(sb *strings.Builder, summary *model.RunSummary) {
	if len(summary.Dropped) == 0 {
		fmt.Fprintf(sb, "No dropped tasks.\n")
		return
	}

	byReason := make(map[model.DropReason]int)
	for _, d := range summary.Dropped {
		byReason[d.Reason]++
	}
	fmt.Fprintf(sb, "Dropped tasks: %d", len(summary.Dropped))
	var parts []string
	for _, reason := range []model.DropReason{model.DropGone, model.DropFetchFailed, model.DropStructuralMismatch} {
		if n := byReason[reason]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", reason, n))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(sb, " (%s)", strings.Join(parts, ", "))
	}
	sb.WriteString("\n")

	if !w.verbose {
		return
	}
	for _, d := range summary.Dropped {
		fmt.Fprintf(sb, "  [%s] %s %s", d.Reason, d.Kind, d.URL)
		if d.Detail != "" {
			fmt.Fprintf(sb, " (%s)", d.Detail)
		}
		sb.WriteString("\n")
	}
}
