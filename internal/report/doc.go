// Package report formats crawl results for human and machine consumption.
//
// Four writers implement the same Writer interface: SimpleWriter for
// plain-text terminal output, JSONWriter for tool integration,
// MarkdownWriter for documentation, and ExcelWriter for spreadsheet
// analysis. MultiWriter fans one report out to several destinations.
package report
