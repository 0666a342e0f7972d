package model

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// CrawlReport is the full result of crawling one Gopher server.
// It wraps the statistics aggregate with crawl metadata and a derived
// summary, and is the unit stored in the database and rendered by the
// report writers.
type CrawlReport struct {
	// Endpoint is the origin server the crawl started from.
	Endpoint Endpoint `json:"endpoint"`

	// RootSelector is the selector the crawl started from.
	// The empty string denotes the server root.
	RootSelector string `json:"root_selector"`

	// DateCrawled is when the crawl was performed.
	DateCrawled time.Time `json:"date_crawled"`

	// Duration is the wall-clock time of the whole crawl.
	Duration time.Duration `json:"duration"`

	// Reachable reports the result of the pre-crawl origin probe.
	Reachable bool `json:"reachable"`

	// Stats is the statistics aggregate filled by the crawl.
	Stats *CrawlStatistics `json:"stats"`

	// Summary is the derived roll-up built after the crawl terminates.
	Summary *Summary `json:"summary,omitempty"`

	// Error records a crawl-level failure (e.g. cancellation). Per-entry
	// failures live in Stats.ErrorDetails instead.
	Error string `json:"error,omitempty"`
}

// NewCrawlReport creates a report shell for a crawl of the given origin.
func NewCrawlReport(endpoint Endpoint, rootSelector string) *CrawlReport {
	return &CrawlReport{
		Endpoint:     endpoint,
		RootSelector: rootSelector,
		DateCrawled:  time.Now().UTC(),
		Stats:        NewCrawlStatistics(),
	}
}

// Summary is a derived roll-up of a CrawlStatistics aggregate.
//
// Design decision: We compute a separate summary rather than having the
// writers re-derive totals because every writer (text, markdown, excel)
// and the compare command need the same figures.
type Summary struct {
	// Directories is the distinct directory count.
	Directories int `json:"directories"`

	// TextFileCount and BinaryFileCount are the per-kind file counts.
	TextFileCount   int `json:"text_file_count"`
	BinaryFileCount int `json:"binary_file_count"`

	// TotalBytes is the sum of all fetched file sizes.
	TotalBytes int64 `json:"total_bytes"`

	// ErrorCount is the total number of recorded errors.
	ErrorCount int `json:"error_count"`

	// ExternalAlive and ExternalDead count probed external servers by
	// liveness result.
	ExternalAlive int `json:"external_alive"`
	ExternalDead  int `json:"external_dead"`
}

// NewSummary derives a Summary from a statistics aggregate.
func NewSummary(stats *CrawlStatistics) *Summary {
	s := &Summary{
		Directories:     stats.Directories,
		TextFileCount:   len(stats.TextFiles),
		BinaryFileCount: len(stats.BinaryFiles),
		ErrorCount:      stats.Errors,
	}
	for _, f := range stats.AllFiles {
		s.TotalBytes += int64(f.Size)
	}
	for _, alive := range stats.ExternalServers {
		if alive {
			s.ExternalAlive++
		} else {
			s.ExternalDead++
		}
	}
	return s
}

// Resource describes one persisted file for database storage.
type Resource struct {
	// ID is the database row ID, zero before insertion.
	ID int64 `json:"id"`

	// Server is the "host:port" key of the serving endpoint.
	Server string `json:"server"`

	// Selector is the resource selector on that server.
	Selector string `json:"selector"`

	// Kind is "text" or "binary".
	Kind string `json:"kind"`

	// Size is the content size in bytes.
	Size int `json:"size"`

	// Digest is the hex SHA3-256 digest of the raw content.
	Digest string `json:"digest"`

	// StoredName is the flat on-disk filename the content was written to.
	StoredName string `json:"stored_name"`
}

// ContentDigest returns the hex SHA3-256 digest of raw content.
// Digests let repeated crawls detect changed files without re-reading
// what was written to disk.
func ContentDigest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
