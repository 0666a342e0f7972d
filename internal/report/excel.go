package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/gopherscan/gopherscan/internal/model"
)

// ExcelWriter outputs reports as an Excel workbook.
// This format is designed for offline analysis of larger crawls: each
// concern gets its own sheet, and the file index can be sorted and
// filtered in any spreadsheet application.
type ExcelWriter struct {
	baseWriter
}

// NewExcelWriter creates an ExcelWriter that outputs to the given writer.
// The destination receives a complete .xlsx workbook; it must be a file
// or buffer, not a terminal.
func NewExcelWriter(output io.Writer) *ExcelWriter {
	return &ExcelWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Sheet names in the generated workbook.
const (
	sheetSummary  = "Summary"
	sheetFiles    = "Files"
	sheetErrors   = "Errors"
	sheetExternal = "External Servers"
)

// Write outputs the full report as an Excel workbook.
func (w *ExcelWriter) Write(report *model.CrawlReport) (int, error) {
	if report.Summary == nil && report.Stats != nil {
		report.Summary = model.NewSummary(report.Stats)
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // Close after WriteTo only releases buffers

	if err := w.writeSummarySheet(f, report); err != nil {
		return 0, err
	}
	if err := w.writeFilesSheet(f, report); err != nil {
		return 0, err
	}
	if err := w.writeErrorsSheet(f, report); err != nil {
		return 0, err
	}
	if err := w.writeExternalSheet(f, report); err != nil {
		return 0, err
	}

	// Replace the default sheet with the summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return 0, fmt.Errorf("failed to locate summary sheet: %w", err)
	}
	f.SetActiveSheet(index)

	n, err := f.WriteTo(w.output)
	if err != nil {
		return int(n), fmt.Errorf("failed to write workbook: %w", err)
	}
	return int(n), nil
}

// writeSummarySheet writes the one-look summary sheet.
func (w *ExcelWriter) writeSummarySheet(f *excelize.File, report *model.CrawlReport) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]any{
		{"Property", "Value"},
		{"Server", report.Endpoint.Key()},
		{"Root Selector", report.RootSelector},
		{"Crawl Date", report.DateCrawled.Format("2006-01-02 15:04:05 MST")},
		{"Duration", report.Duration.String()},
		{"Reachable", report.Reachable},
	}

	if stats := report.Stats; stats != nil {
		rows = append(rows,
			[]any{"Directories", stats.Directories},
			[]any{"Files", stats.Files},
			[]any{"Text files", len(stats.TextFiles)},
			[]any{"Binary files", len(stats.BinaryFiles)},
			[]any{"Errors", stats.Errors},
		)
	}
	if report.Summary != nil {
		rows = append(rows, []any{"Total bytes", report.Summary.TotalBytes})
	}

	return w.writeRows(f, sheetSummary, rows)
}

// writeFilesSheet writes the full downloaded-file index.
func (w *ExcelWriter) writeFilesSheet(f *excelize.File, report *model.CrawlReport) error {
	if _, err := f.NewSheet(sheetFiles); err != nil {
		return fmt.Errorf("failed to create files sheet: %w", err)
	}

	rows := [][]any{{"Path", "Size"}}
	if stats := report.Stats; stats != nil {
		for _, file := range stats.AllFiles {
			rows = append(rows, []any{file.Path, file.Size})
		}
	}

	return w.writeRows(f, sheetFiles, rows)
}

// writeErrorsSheet writes the error log.
func (w *ExcelWriter) writeErrorsSheet(f *excelize.File, report *model.CrawlReport) error {
	if _, err := f.NewSheet(sheetErrors); err != nil {
		return fmt.Errorf("failed to create errors sheet: %w", err)
	}

	rows := [][]any{{"Selector", "Message"}}
	if stats := report.Stats; stats != nil {
		for _, rec := range stats.ErrorDetails {
			rows = append(rows, []any{rec.Selector, rec.Message})
		}
	}

	return w.writeRows(f, sheetErrors, rows)
}

// writeExternalSheet writes external server liveness, sorted by server
// key for stable output.
func (w *ExcelWriter) writeExternalSheet(f *excelize.File, report *model.CrawlReport) error {
	if _, err := f.NewSheet(sheetExternal); err != nil {
		return fmt.Errorf("failed to create external sheet: %w", err)
	}

	rows := [][]any{{"Server", "Alive"}}
	if stats := report.Stats; stats != nil {
		servers := make([]string, 0, len(stats.ExternalServers))
		for server := range stats.ExternalServers {
			servers = append(servers, server)
		}
		sort.Strings(servers)

		for _, server := range servers {
			rows = append(rows, []any{server, stats.ExternalServers[server]})
		}
	}

	return w.writeRows(f, sheetExternal, rows)
}

// writeRows writes rows starting at A1 of the given sheet.
func (w *ExcelWriter) writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
