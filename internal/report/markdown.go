package report

import (
	"io"
	"time"

	"github.com/nao1215/hostmap/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MarkdownWriter outputs run reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// printer formats counters with thousands separators.
	printer *message.Printer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, run)

	// Counters for the run kind
	w.writeCounts(md, run)

	// Pipeline steps and staging artifacts
	w.writePipeline(md, run)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Hostmap Run Report")
	md.PlainText("")

	rows := [][]string{
		{"Kind", run.Kind},
	}
	switch run.Kind {
	case model.RunKindLoad:
		if run.Input != "" {
			rows = append(rows, []string{"Input", "`" + run.Input + "`"})
		}
		if run.Table != "" {
			rows = append(rows, []string{"Table", "`" + run.Table + "`"})
		}
	case model.RunKindCrawl:
		if run.Index != "" {
			rows = append(rows, []string{"Index", run.Index})
		}
		if run.Output != "" {
			rows = append(rows, []string{"Output", "`" + run.Output + "`"})
		}
	}
	rows = append(rows,
		[]string{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Duration", run.Duration().Round(time.Millisecond).String()},
		[]string{"Status", w.statusText(run)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status text based on run state.
func (w *MarkdownWriter) statusText(run *model.Run) string {
	if run.Failed() {
		return "❌ Failed - " + run.ErrorMessage
	}
	return "✅ Complete"
}

// writeCounts writes the counter table for the run kind.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, run *model.Run) {
	rows := w.countRows(run)
	if len(rows) == 0 {
		return
	}

	md.H2("Counts")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	// Add pie chart if there is anything to break down
	w.writePieChart(md, run)

	// Add alert based on run outcome
	w.writeAlert(md, run)
}

// countRows returns the counter table rows for the run kind.
func (w *MarkdownWriter) countRows(run *model.Run) [][]string {
	switch run.Kind {
	case model.RunKindLoad:
		return [][]string{
			{"Rows read", w.count(run.RowsRead)},
			{"Domains kept", w.count(run.DomainsKept)},
			{"Duplicates collapsed", w.count(run.DuplicatesCollapsed())},
			{"Rows loaded", w.count(run.RowsLoaded)},
		}
	case model.RunKindCrawl:
		return [][]string{
			{"Host blocks", w.count(run.Pointers)},
			{"Skipped hosts", w.count(run.SkippedHosts)},
			{"Failed blocks", w.count(run.FailedPointers)},
			{"Mappings written", w.count(run.Mappings)},
		}
	}
	return nil
}

// writePieChart writes a mermaid pie chart for the run's outcome split.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.Run) {
	type slice struct {
		label string
		value int64
	}

	var title string
	var slices []slice
	switch run.Kind {
	case model.RunKindLoad:
		if run.RowsRead <= 0 {
			return
		}
		title = "Observation Reduction"
		slices = []slice{
			{"Kept", run.DomainsKept},
			{"Collapsed", run.DuplicatesCollapsed()},
		}
	case model.RunKindCrawl:
		if run.Pointers <= 0 {
			return
		}
		resolved := run.Pointers - run.FailedPointers
		if resolved < 0 {
			resolved = 0
		}
		title = "Host Block Resolution"
		slices = []slice{
			{"Resolved", resolved},
			{"Failed", run.FailedPointers},
		}
	default:
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)
	for _, s := range slices {
		if s.value <= 0 {
			continue
		}
		chart.LabelAndIntValue(s.label, uint64(s.value))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch {
	case run.Failed():
		md.Cautionf("Run failed: %s", run.ErrorMessage)
	case run.FailedPointers > 0:
		md.Warningf(
			"%s of %s host blocks could not be fetched and were skipped.",
			w.count(run.FailedPointers), w.count(run.Pointers),
		)
	default:
		md.Tip("Run completed without errors.")
	}
	md.PlainText("")
}

// writePipeline writes the executed steps and staging artifacts.
func (w *MarkdownWriter) writePipeline(md *markdown.Markdown, run *model.Run) {
	if len(run.Steps) == 0 && run.StagingDigest == "" {
		return
	}

	md.H2("Pipeline")
	md.PlainText("")

	if len(run.Steps) > 0 {
		md.BulletList(run.Steps...)
		md.PlainText("")
	}
	if run.StagingDigest != "" {
		md.PlainTextf("Staging digest (SHA3-256): `%s`", run.StagingDigest)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [hostmap](https://github.com/nao1215/hostmap)*")
}

// count formats a counter with thousands separators.
func (w *MarkdownWriter) count(n int64) string {
	return w.printer.Sprintf("%d", n)
}
