package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeCheckpoint(md, summary)
	w.writeDropped(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Crawl Root", "`" + summary.CrawlRoot + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", summary.Elapsed.Round(timeRounding).String()},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(summary *model.RunSummary) string {
	if !summary.Completed() {
		return "❌ Aborted - " + summary.ErrorMessage
	}
	if len(summary.Dropped) > 0 {
		return "⚠️ Completed with dropped tasks"
	}
	return "✅ Complete"
}

// writeCounts writes the entity count section.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Results")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages fetched", strconv.Itoa(summary.PagesFetched)},
			{"Restaurants", strconv.Itoa(summary.Restaurants)},
			{"Reviews", strconv.Itoa(summary.Reviews)},
			{"Users", strconv.Itoa(summary.Users)},
			{"Duplicates suppressed", strconv.Itoa(summary.Duplicates)},
			{"**Total records**", "**" + strconv.Itoa(summary.EntityTotal()) + "**"},
		},
	})
	md.PlainText("")
}

// writeCheckpoint writes the committed progress section.
func (w *MarkdownWriter) writeCheckpoint(md *markdown.Markdown, summary *model.RunSummary) {
	if summary.Checkpoint == nil {
		return
	}

	md.H2("Checkpoint")
	md.PlainText("")

	rows := [][]string{
		{"listing", strconv.Itoa(summary.Checkpoint.LastListingPage)},
	}
	ids := make([]string, 0, len(summary.Checkpoint.ReviewPages))
	for id := range summary.Checkpoint.ReviewPages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rows = append(rows, []string{"reviews: " + id, strconv.Itoa(summary.Checkpoint.ReviewPages[id])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Scope", "Last completed page"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDropped writes the dropped-task section.
func (w *MarkdownWriter) writeDropped(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Dropped Tasks")
	md.PlainText("")

	if len(summary.Dropped) == 0 {
		md.PlainText("No tasks were dropped.")
		md.PlainText("")
		return
	}

	md.Warningf("%d task(s) were dropped and their pages are missing from the output.", len(summary.Dropped))
	md.PlainText("")

	rows := make([][]string, 0, len(summary.Dropped))
	for _, d := range summary.Dropped {
		rows = append(rows, []string{
			string(d.Reason),
			d.Kind.String(),
			"`" + truncateString(d.URL, 80) + "`",
			truncateString(d.Detail, 60),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Reason", "Kind", "URL", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen, appending "..." when cut.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
