// Package model defines the core data structures used throughout gopherscan.
//
// This package contains the following main types:
//   - Endpoint: A (host, port) pair identifying a Gopher server
//   - DirectoryEntry: One parsed line of a Gopher directory listing
//   - CrawlStatistics: The statistics aggregate filled during a crawl
//   - CrawlReport: The full crawl result, persisted and rendered
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (gopher, crawler, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
