package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gopherscan/gopherscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Plain text with ASCII rules is used rather than ANSI colors because it
// works in all terminals and pipes cleanly to files and other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose enables additional detail in the output, such as the full
	// file index.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
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

// Write outputs the full report in human-readable format.
// It generates the Summary from the statistics if not already present.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	if report.Summary == nil && report.Stats != nil {
		report.Summary = model.NewSummary(report.Stats)
	}

	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounts(&sb, report)
	w.writeExtremes(&sb, report)
	w.writeExternalServers(&sb, report)
	w.writeErrors(&sb, report)
	if w.verbose {
		w.writeFileIndex(&sb, report)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        GOPHERSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Server:         %s\n", report.Endpoint.Key()))
	if report.RootSelector != "" {
		sb.WriteString(fmt.Sprintf("Root Selector:  %s\n", report.RootSelector))
	}
	sb.WriteString(fmt.Sprintf("Crawl Date:     %s\n", report.DateCrawled.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", report.Duration))

	switch {
	case report.Error != "":
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.Error))
	case !report.Reachable:
		sb.WriteString("Status:         UNREACHABLE\n")
	default:
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeCounts writes the aggregate counter section.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil {
		return
	}

	w.sectionRule(sb, "CRAWL SUMMARY")

	sb.WriteString(fmt.Sprintf("  Directories:   %d\n", stats.Directories))
	sb.WriteString(fmt.Sprintf("  Files:         %d\n", stats.Files))
	sb.WriteString(fmt.Sprintf("  Text files:    %d\n", len(stats.TextFiles)))
	sb.WriteString(fmt.Sprintf("  Binary files:  %d\n", len(stats.BinaryFiles)))
	sb.WriteString(fmt.Sprintf("  Errors:        %d\n", stats.Errors))
	if report.Summary != nil {
		sb.WriteString(fmt.Sprintf("  Total bytes:   %d\n", report.Summary.TotalBytes))
	}
	sb.WriteString("\n")
}

// writeExtremes writes the smallest and largest file section.
func (w *SimpleWriter) writeExtremes(sb *strings.Builder, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil {
		return
	}
	if len(stats.TextFiles) == 0 && len(stats.BinaryFiles) == 0 && !w.showEmpty {
		return
	}

	w.sectionRule(sb, "FILE EXTREMES")

	if len(stats.TextFiles) > 0 {
		sb.WriteString(fmt.Sprintf("  Smallest text file:   %s (%d bytes)\n", stats.SmallestText.Path, stats.SmallestText.Size))
		sb.WriteString(fmt.Sprintf("  Largest text file:    %s (%d bytes)\n", stats.LargestText.Path, stats.LargestText.Size))
	}
	if len(stats.BinaryFiles) > 0 {
		sb.WriteString(fmt.Sprintf("  Smallest binary file: %s (%d bytes)\n", stats.SmallestBinary.Path, stats.SmallestBinary.Size))
		sb.WriteString(fmt.Sprintf("  Largest binary file:  %s (%d bytes)\n", stats.LargestBinary.Path, stats.LargestBinary.Size))
	}
	if stats.SmallestTextContent != "" {
		sb.WriteString("\n  Smallest text file contents:\n")
		for _, line := range strings.Split(strings.TrimRight(stats.SmallestTextContent, "\n"), "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}
	sb.WriteString("\n")
}

// writeExternalServers writes the external server liveness section,
// sorted by server key for stable output.
func (w *SimpleWriter) writeExternalServers(sb *strings.Builder, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil {
		return
	}
	if len(stats.ExternalServers) == 0 && !w.showEmpty {
		return
	}

	w.sectionRule(sb, "EXTERNAL SERVERS")

	if len(stats.ExternalServers) == 0 {
		sb.WriteString("  No external servers referenced\n")
	} else {
		servers := make([]string, 0, len(stats.ExternalServers))
		for server := range stats.ExternalServers {
			servers = append(servers, server)
		}
		sort.Strings(servers)

		for _, server := range servers {
			state := "down"
			if stats.ExternalServers[server] {
				state = "up"
			}
			sb.WriteString(fmt.Sprintf("  [%-4s] %s\n", state, server))
		}
	}
	sb.WriteString("\n")
}

// writeErrors writes the error log section.
func (w *SimpleWriter) writeErrors(sb *strings.Builder, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil {
		return
	}
	if len(stats.ErrorDetails) == 0 && !w.showEmpty {
		return
	}

	w.sectionRule(sb, "ERRORS")

	if len(stats.ErrorDetails) == 0 {
		sb.WriteString("  No errors\n")
	} else {
		for _, rec := range stats.ErrorDetails {
			sb.WriteString(fmt.Sprintf("  * %s\n", rec.Selector))
			sb.WriteString(fmt.Sprintf("    %s\n", rec.Message))
		}
	}
	sb.WriteString("\n")
}

// writeFileIndex writes the full downloaded-file index.
func (w *SimpleWriter) writeFileIndex(sb *strings.Builder, report *model.CrawlReport) {
	stats := report.Stats
	if stats == nil {
		return
	}
	if len(stats.AllFiles) == 0 && !w.showEmpty {
		return
	}

	w.sectionRule(sb, "DOWNLOADED FILES")

	for _, file := range stats.AllFiles {
		sb.WriteString(fmt.Sprintf("  %8d  %s\n", file.Size, file.Path))
	}
	sb.WriteString("\n")
}

// sectionRule writes a dashed section header.
func (w *SimpleWriter) sectionRule(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by gopherscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
