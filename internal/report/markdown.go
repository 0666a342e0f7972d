package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/gopherscan/gopherscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// The nao1215/markdown library provides type-safe generation with
// tables, alerts, and mermaid pie charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	if report.Summary == nil && report.Stats != nil {
		report.Summary = model.NewSummary(report.Stats)
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeExtremes(md, report)
	w.writeExternalServers(md, report)
	w.writeErrors(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Gopherscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Server", "`" + report.Endpoint.Key() + "`"},
			{"Root Selector", "`" + report.RootSelector + "`"},
			{"Crawl Date", report.DateCrawled.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	if !report.Reachable {
		return "⚠️ Unreachable"
	}
	return "✅ Complete"
}

// writeSummary writes the aggregate counter section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil {
		return
	}

	md.H2("Crawl Summary")
	md.PlainText("")

	rows := [][]string{
		{"Directories", strconv.Itoa(stats.Directories)},
		{"Files", strconv.Itoa(stats.Files)},
		{"Text files", strconv.Itoa(len(stats.TextFiles))},
		{"Binary files", strconv.Itoa(len(stats.BinaryFiles))},
		{"Errors", strconv.Itoa(stats.Errors)},
	}
	if report.Summary != nil {
		rows = append(rows, []string{"Total bytes", strconv.FormatInt(report.Summary.TotalBytes, 10)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if stats.Files > 0 {
		w.writePieChart(md, stats)
	}

	switch {
	case stats.Errors > 0:
		md.Warningf(
			"%d error(s) were recorded during the crawl; see the error log below.",
			stats.Errors,
		)
	default:
		md.Tip("The crawl completed without errors.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the text/binary split.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *model.CrawlStatistics) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("File Kind Distribution"),
		piechart.WithShowData(true),
	)

	if n := len(stats.TextFiles); n > 0 {
		chart.LabelAndIntValue("Text", uint64(n))
	}
	if n := len(stats.BinaryFiles); n > 0 {
		chart.LabelAndIntValue("Binary", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeExtremes writes the smallest and largest file section.
func (w *MarkdownWriter) writeExtremes(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil || (len(stats.TextFiles) == 0 && len(stats.BinaryFiles) == 0) {
		return
	}

	md.H2("File Extremes")
	md.PlainText("")

	var rows [][]string
	if len(stats.TextFiles) > 0 {
		rows = append(rows,
			[]string{"Smallest text", "`" + stats.SmallestText.Path + "`", strconv.Itoa(stats.SmallestText.Size)},
			[]string{"Largest text", "`" + stats.LargestText.Path + "`", strconv.Itoa(stats.LargestText.Size)},
		)
	}
	if len(stats.BinaryFiles) > 0 {
		rows = append(rows,
			[]string{"Smallest binary", "`" + stats.SmallestBinary.Path + "`", strconv.Itoa(stats.SmallestBinary.Size)},
			[]string{"Largest binary", "`" + stats.LargestBinary.Path + "`", strconv.Itoa(stats.LargestBinary.Size)},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Extreme", "Path", "Bytes"},
		Rows:   rows,
	})
	md.PlainText("")

	if stats.SmallestTextContent != "" {
		md.H3("Smallest Text File Contents")
		md.CodeBlocks(markdown.SyntaxHighlightText, stats.SmallestTextContent)
		md.PlainText("")
	}
}

// writeExternalServers writes the external server liveness section,
// sorted by server key for stable output.
func (w *MarkdownWriter) writeExternalServers(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil || len(stats.ExternalServers) == 0 {
		return
	}

	md.H2("External Servers")
	md.PlainText("")

	servers := make([]string, 0, len(stats.ExternalServers))
	for server := range stats.ExternalServers {
		servers = append(servers, server)
	}
	sort.Strings(servers)

	rows := make([][]string, 0, len(servers))
	for _, server := range servers {
		state := "🔴 down"
		if stats.ExternalServers[server] {
			state = "🟢 up"
		}
		rows = append(rows, []string{"`" + server + "`", state})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Server", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeErrors writes the error log section.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil || len(stats.ErrorDetails) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")

	rows := make([][]string, 0, len(stats.ErrorDetails))
	for _, rec := range stats.ErrorDetails {
		rows = append(rows, []string{"`" + rec.Selector + "`", rec.Message})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Selector", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}
