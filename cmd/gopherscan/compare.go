package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gopherscan/gopherscan/internal/config"
	"github.com/gopherscan/gopherscan/internal/database"
	"github.com/gopherscan/gopherscan/internal/model"
)

// Constants for content change direction.
const (
	changeDirectionGrew      = "grew"
	changeDirectionShrank    = "shrank"
	changeDirectionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares crawl results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [host[:port]]",
		Short: "Compare crawl results with historical data",
		Long: `Compare displays differences between the current and previous crawl results.

This command retrieves historical crawl data from the database and shows:
- Changes in directory and file counts
- Changes in total downloaded bytes
- External servers that came up or went down between crawls

The comparison requires at least two crawls in the database for the specified
server. Use 'gopherscan crawl' to perform crawls and save results.

Examples:
  # Compare latest two crawls of a server
  gopherscan compare gopher.example.org

  # List all crawl history for a server
  gopherscan compare --list gopher.example.org

  # Output comparison in JSON format
  gopherscan compare --json gopher.example.org

  # List all crawled servers in the database
  gopherscan compare --list-servers`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List crawl history for the specified server")
	cmd.Flags().BoolP("list-servers", "L", false,
		"List all crawled servers in the database")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-servers flag first (requires database but no target)
	listServers, err := cmd.Flags().GetBool("list-servers")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-servers)
	// This prevents database lock issues when validation fails
	var server string
	if !listServers {
		if len(args) == 0 {
			return errors.New("server address is required (use --list-servers to see available servers)")
		}

		endpoint, err := model.ParseTarget(args[0], config.DefaultPort)
		if err != nil {
			return fmt.Errorf("invalid server address: %w", err)
		}
		server = endpoint.Key()
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listServers {
		return listCrawledServers(ctx, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listCrawlHistory(ctx, db, server)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, server, jsonOutput, markdownOutput)
}

// listCrawledServers lists all servers that have crawl records in the database.
func listCrawledServers(ctx context.Context, db *database.CrawlDB) error {
	servers, err := db.ListServers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}

	if len(servers) == 0 {
		fmt.Println("No crawled servers found in the database.")
		fmt.Println("\nUse 'gopherscan crawl <host>' to crawl a server.")
		return nil
	}

	fmt.Printf("Crawled servers (%d):\n\n", len(servers))
	for _, server := range servers {
		fmt.Printf("  • %s\n", server)
	}
	fmt.Println("\nUse 'gopherscan compare --list <host>' to see crawl history for a server.")

	return nil
}

// listCrawlHistory lists all crawl records for a specific server.
func listCrawlHistory(ctx context.Context, db *database.CrawlDB, server string) error {
	history, err := db.GetReportHistory(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(history) == 0 {
		fmt.Printf("No crawl history found for %s\n", server)
		fmt.Println("\nUse 'gopherscan crawl' to crawl this server.")
		return nil
	}

	fmt.Printf("Crawl history for %s (%d crawls):\n\n", server, len(history))
	fmt.Printf("  %-6s  %s\n", "ID", "Date")
	fmt.Println("  " + strings.Repeat("-", 30))

	for _, meta := range history {
		fmt.Printf("  %-6d  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	fmt.Println("\nUse 'gopherscan compare <host>' to compare the latest two crawls.")

	return nil
}

// runComparison performs the actual comparison between crawl reports.
func runComparison(ctx context.Context, db *database.CrawlDB, server string, jsonOutput, markdownOutput bool) error {
	reports, err := db.GetLatestReports(ctx, server, 2)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no crawl history found for %s", server)
	}
	if len(reports) < 2 {
		return fmt.Errorf("at least 2 crawls are required for comparison (found %d)", len(reports))
	}

	// Reports come back newest first.
	comparison := compareReports(reports[1], reports[0])

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two crawl reports.
type ComparisonResult struct {
	// Server is the crawled server in "host:port" format.
	Server string `json:"server"`

	// PreviousCrawl contains metadata about the previous crawl.
	PreviousCrawl CrawlMetadata `json:"previous_crawl"`

	// CurrentCrawl contains metadata about the current crawl.
	CurrentCrawl CrawlMetadata `json:"current_crawl"`

	// ContentChange describes the overall change in crawled content.
	ContentChange ContentChange `json:"content_change"`
}

// CrawlMetadata contains metadata about a crawl for comparison display.
type CrawlMetadata struct {
	// DateCrawled is when the crawl was performed.
	DateCrawled time.Time `json:"date_crawled"`

	// Reachable reports whether the server answered the liveness probe.
	Reachable bool `json:"reachable"`

	// Directories is the number of distinct directory listings visited.
	Directories int `json:"directories"`

	// TextFiles is the number of text files downloaded.
	TextFiles int `json:"text_files"`

	// BinaryFiles is the number of binary files downloaded.
	BinaryFiles int `json:"binary_files"`

	// TotalBytes is the total size of downloaded content in bytes.
	TotalBytes int64 `json:"total_bytes"`

	// Errors is the number of errors recorded during the crawl.
	Errors int `json:"errors"`

	// ExternalAlive is the number of referenced external servers that were up.
	ExternalAlive int `json:"external_alive"`

	// ExternalDead is the number of referenced external servers that were down.
	ExternalDead int `json:"external_dead"`
}

// ContentChange describes the change in crawled content between two crawls.
type ContentChange struct {
	// Direction is "grew", "shrank", or "unchanged" based on file counts.
	Direction string `json:"direction"`

	// DirectoriesDelta is the change in directory count.
	DirectoriesDelta int `json:"directories_delta"`

	// TextFilesDelta is the change in text file count.
	TextFilesDelta int `json:"text_files_delta"`

	// BinaryFilesDelta is the change in binary file count.
	BinaryFilesDelta int `json:"binary_files_delta"`

	// TotalBytesDelta is the change in total downloaded bytes.
	TotalBytesDelta int64 `json:"total_bytes_delta"`

	// ErrorsDelta is the change in error count.
	ErrorsDelta int `json:"errors_delta"`

	// ExternalAliveDelta is the change in live external server count.
	ExternalAliveDelta int `json:"external_alive_delta"`

	// ExternalDeadDelta is the change in dead external server count.
	ExternalDeadDelta int `json:"external_dead_delta"`
}

// compareReports compares two crawl reports and generates a comparison result.
func compareReports(previous, current *model.CrawlReport) *ComparisonResult {
	result := &ComparisonResult{
		Server:        current.Endpoint.Key(),
		PreviousCrawl: crawlMetadata(previous),
		CurrentCrawl:  crawlMetadata(current),
	}

	result.ContentChange = calculateContentChange(result.PreviousCrawl, result.CurrentCrawl)

	return result
}

// crawlMetadata extracts comparison metadata from a stored report.
func crawlMetadata(r *model.CrawlReport) CrawlMetadata {
	meta := CrawlMetadata{
		DateCrawled: r.DateCrawled,
		Reachable:   r.Reachable,
	}

	if r.Summary != nil {
		meta.Directories = r.Summary.Directories
		meta.TextFiles = r.Summary.TextFileCount
		meta.BinaryFiles = r.Summary.BinaryFileCount
		meta.TotalBytes = r.Summary.TotalBytes
		meta.Errors = r.Summary.ErrorCount
		meta.ExternalAlive = r.Summary.ExternalAlive
		meta.ExternalDead = r.Summary.ExternalDead
	}

	return meta
}

// calculateContentChange calculates the change in content between two crawls.
func calculateContentChange(previous, current CrawlMetadata) ContentChange {
	change := ContentChange{
		DirectoriesDelta:   current.Directories - previous.Directories,
		TextFilesDelta:     current.TextFiles - previous.TextFiles,
		BinaryFilesDelta:   current.BinaryFiles - previous.BinaryFiles,
		TotalBytesDelta:    current.TotalBytes - previous.TotalBytes,
		ErrorsDelta:        current.Errors - previous.Errors,
		ExternalAliveDelta: current.ExternalAlive - previous.ExternalAlive,
		ExternalDeadDelta:  current.ExternalDead - previous.ExternalDead,
	}

	previousFiles := previous.TextFiles + previous.BinaryFiles
	currentFiles := current.TextFiles + current.BinaryFiles

	switch {
	case currentFiles > previousFiles:
		change.Direction = changeDirectionGrew
	case currentFiles < previousFiles:
		change.Direction = changeDirectionShrank
	default:
		change.Direction = changeDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Crawl Comparison: %s\n\n", result.Server)

	fmt.Println("## Summary")
	fmt.Printf("\n**Content:** %s\n\n", formatChangeDirection(result.ContentChange.Direction))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousCrawl.DateCrawled.Format("2006-01-02 15:04"),
		result.CurrentCrawl.DateCrawled.Format("2006-01-02 15:04"))
	fmt.Printf("| Directories | %d | %d | %s |\n",
		result.PreviousCrawl.Directories,
		result.CurrentCrawl.Directories,
		formatDelta(result.ContentChange.DirectoriesDelta))
	fmt.Printf("| Text files | %d | %d | %s |\n",
		result.PreviousCrawl.TextFiles,
		result.CurrentCrawl.TextFiles,
		formatDelta(result.ContentChange.TextFilesDelta))
	fmt.Printf("| Binary files | %d | %d | %s |\n",
		result.PreviousCrawl.BinaryFiles,
		result.CurrentCrawl.BinaryFiles,
		formatDelta(result.ContentChange.BinaryFilesDelta))
	fmt.Printf("| Total bytes | %d | %d | %s |\n",
		result.PreviousCrawl.TotalBytes,
		result.CurrentCrawl.TotalBytes,
		formatDelta64(result.ContentChange.TotalBytesDelta))
	fmt.Printf("| Errors | %d | %d | %s |\n",
		result.PreviousCrawl.Errors,
		result.CurrentCrawl.Errors,
		formatDelta(result.ContentChange.ErrorsDelta))
	fmt.Printf("| External up | %d | %d | %s |\n",
		result.PreviousCrawl.ExternalAlive,
		result.CurrentCrawl.ExternalAlive,
		formatDelta(result.ContentChange.ExternalAliveDelta))
	fmt.Printf("| External down | %d | %d | %s |\n",
		result.PreviousCrawl.ExternalDead,
		result.CurrentCrawl.ExternalDead,
		formatDelta(result.ContentChange.ExternalDeadDelta))

	if !result.CurrentCrawl.Reachable {
		fmt.Println("\n> **Warning:** the server was unreachable during the current crawl.")
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Crawl Comparison: %s\n", result.Server)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nContent: %s\n", formatChangeDirection(result.ContentChange.Direction))

	fmt.Printf("\nPrevious crawl: %s\n", result.PreviousCrawl.DateCrawled.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current crawl:  %s\n", result.CurrentCrawl.DateCrawled.Format("2006-01-02 15:04:05"))

	fmt.Println("\nCrawl Summary:")
	fmt.Printf("  %-14s  %-12s  %-12s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 54))
	fmt.Printf("  %-14s  %-12d  %-12d  %-10s\n", "Directories",
		result.PreviousCrawl.Directories, result.CurrentCrawl.Directories,
		formatDelta(result.ContentChange.DirectoriesDelta))
	fmt.Printf("  %-14s  %-12d  %-12d  %-10s\n", "Text files",
		result.PreviousCrawl.TextFiles, result.CurrentCrawl.TextFiles,
		formatDelta(result.ContentChange.TextFilesDelta))
	fmt.Printf("  %-14s  %-12d  %-12d  %-10s\n", "Binary files",
		result.PreviousCrawl.BinaryFiles, result.CurrentCrawl.BinaryFiles,
		formatDelta(result.ContentChange.BinaryFilesDelta))
	fmt.Printf("  %-14s  %-12d  %-12d  %-10s\n", "Total bytes",
		result.PreviousCrawl.TotalBytes, result.CurrentCrawl.TotalBytes,
		formatDelta64(result.ContentChange.TotalBytesDelta))
	fmt.Printf("  %-14s  %-12d  %-12d  %-10s\n", "Errors",
		result.PreviousCrawl.Errors, result.CurrentCrawl.Errors,
		formatDelta(result.ContentChange.ErrorsDelta))
	fmt.Printf("  %-14s  %-12d  %-12d  %-10s\n", "External up",
		result.PreviousCrawl.ExternalAlive, result.CurrentCrawl.ExternalAlive,
		formatDelta(result.ContentChange.ExternalAliveDelta))
	fmt.Printf("  %-14s  %-12d  %-12d  %-10s\n", "External down",
		result.PreviousCrawl.ExternalDead, result.CurrentCrawl.ExternalDead,
		formatDelta(result.ContentChange.ExternalDeadDelta))

	if !result.CurrentCrawl.Reachable {
		fmt.Println("\nWarning: the server was unreachable during the current crawl.")
	}

	return nil
}

// formatChangeDirection formats the content change direction for display.
func formatChangeDirection(direction string) string {
	switch direction {
	case changeDirectionGrew:
		return "GREW (more files than last crawl)"
	case changeDirectionShrank:
		return "SHRANK (fewer files than last crawl)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	return formatDelta64(int64(delta))
}

// formatDelta64 formats a 64-bit numeric delta with sign for display.
func formatDelta64(delta int64) string {
	if delta > 0 {
		return "+" + strconv.FormatInt(delta, 10)
	}
	if delta < 0 {
		return strconv.FormatInt(delta, 10)
	}
	return "0"
}
