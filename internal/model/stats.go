package model

import "strings"

// FileRecord describes one fetched file as (original path, size in bytes).
// The path is the full "host:port/selector" form, never the truncated
// on-disk name.
type FileRecord struct {
	// Path is the original path of the file on the server.
	Path string `json:"path"`

	// Size is the file size in bytes as received.
	Size int `json:"size"`
}

// ErrorRecord is one entry in the append-only error log.
type ErrorRecord struct {
	// Selector is the selector being processed when the error occurred.
	Selector string `json:"selector"`

	// Message is the human-readable error description.
	Message string `json:"message"`
}

// CrawlStatistics is the aggregate crawl result. It is created once per
// crawl invocation, mutated in place throughout the traversal, and only
// published to readers after the traversal terminates.
//
// Invariants:
//   - Errors always equals len(ErrorDetails); both are only mutated through
//     RecordError.
//   - Every entry in TextFiles/BinaryFiles/AllFiles corresponds to exactly
//     one successful fetch; both are only mutated through RecordFile.
//   - Directories is only incremented through CountDirectory, which is
//     idempotent per canonical path key.
type CrawlStatistics struct {
	// Directories is the number of distinct directories encountered.
	Directories int `json:"directories"`

	// Files is the total number of files fetched and recorded.
	Files int `json:"files"`

	// TextFiles lists fetched text files in discovery order.
	TextFiles []FileRecord `json:"text_files"`

	// BinaryFiles lists fetched binary files in discovery order.
	BinaryFiles []FileRecord `json:"binary_files"`

	// SmallestText and LargestText track the text-file size extrema.
	// Both are zero values until the first text file is recorded.
	SmallestText FileRecord `json:"smallest_text"`
	LargestText  FileRecord `json:"largest_text"`

	// SmallestBinary and LargestBinary track the binary-file size extrema.
	SmallestBinary FileRecord `json:"smallest_binary"`
	LargestBinary  FileRecord `json:"largest_binary"`

	// SmallestTextContent is the decoded content of the smallest text file.
	// Content is retained only for this one extremum.
	SmallestTextContent string `json:"smallest_text_content"`

	// ExternalServers maps "host:port" keys of servers outside the crawl
	// origin to the result of a single liveness probe.
	ExternalServers map[string]bool `json:"external_servers"`

	// Errors is the total error count. Always equals len(ErrorDetails).
	Errors int `json:"errors"`

	// ErrorDetails is the append-only error log in occurrence order.
	ErrorDetails []ErrorRecord `json:"error_details"`

	// AllFiles indexes every fetched file under its separator-restored
	// original path (underscores replaced with "/", matching the on-disk
	// name substitution in reverse).
	AllFiles []FileRecord `json:"all_files"`

	// countedDirs holds canonical path keys of directories already counted.
	// Kept separate from the crawler's visited set: directory counting must
	// be idempotent independent of general visitation ordering.
	countedDirs map[string]struct{}
}

// NewCrawlStatistics creates an empty statistics aggregate with all
// collections initialized.
func NewCrawlStatistics() *CrawlStatistics {
	return &CrawlStatistics{
		TextFiles:       make([]FileRecord, 0),
		BinaryFiles:     make([]FileRecord, 0),
		ExternalServers: make(map[string]bool),
		ErrorDetails:    make([]ErrorRecord, 0),
		AllFiles:        make([]FileRecord, 0),
		countedDirs:     make(map[string]struct{}),
	}
}

// RecordError appends one ErrorRecord and increments the error counter.
// This is the only mutation path for either, so the counter can never
// drift from the log length.
func (s *CrawlStatistics) RecordError(selector, message string) {
	s.ErrorDetails = append(s.ErrorDetails, ErrorRecord{Selector: selector, Message: message})
	s.Errors++
}

// CountDirectory increments the directory counter for the given canonical
// path key if it has not been counted yet. It returns true if the
// directory was counted by this call.
func (s *CrawlStatistics) CountDirectory(pathKey string) bool {
	if s.countedDirs == nil {
		s.countedDirs = make(map[string]struct{})
	}
	if _, ok := s.countedDirs[pathKey]; ok {
		return false
	}
	s.countedDirs[pathKey] = struct{}{}
	s.Directories++
	return true
}

// DirectoryCounted reports whether the canonical path key has already
// been counted as a directory.
func (s *CrawlStatistics) DirectoryCounted(pathKey string) bool {
	_, ok := s.countedDirs[pathKey]
	return ok
}

// ExternalProbed reports whether the external server key has already
// been probed, and if so whether it was alive.
func (s *CrawlStatistics) ExternalProbed(serverKey string) (alive, probed bool) {
	alive, probed = s.ExternalServers[serverKey]
	return alive, probed
}

// RecordExternal stores the liveness probe result for an external server.
func (s *CrawlStatistics) RecordExternal(serverKey string, alive bool) {
	s.ExternalServers[serverKey] = alive
}

// RecordFile folds one successfully fetched file into the aggregate:
// the per-kind record list, the size extrema, the full file index, and
// the total counter. The first file of a kind seeds both extrema; later
// files replace them only on strict comparisons. content is used only
// for text files, to retain the smallest text file's body.
//
// The AllFiles index stores the path with every underscore replaced by
// "/". This restores the separators substituted into on-disk names, at
// the cost of also rewriting underscores that were genuinely part of
// the selector. The report's path-to-file mapping depends on this rule,
// so it is preserved as is.
func (s *CrawlStatistics) RecordFile(path string, size int, binary bool, content string) {
	rec := FileRecord{Path: path, Size: size}

	if binary {
		if len(s.BinaryFiles) == 0 {
			s.SmallestBinary = rec
			s.LargestBinary = rec
		} else {
			if size < s.SmallestBinary.Size {
				s.SmallestBinary = rec
			}
			if size > s.LargestBinary.Size {
				s.LargestBinary = rec
			}
		}
		s.BinaryFiles = append(s.BinaryFiles, rec)
	} else {
		if len(s.TextFiles) == 0 {
			s.SmallestText = rec
			s.LargestText = rec
			s.SmallestTextContent = content
		} else {
			if size < s.SmallestText.Size {
				s.SmallestText = rec
				s.SmallestTextContent = content
			}
			if size > s.LargestText.Size {
				s.LargestText = rec
			}
		}
		s.TextFiles = append(s.TextFiles, rec)
	}

	s.AllFiles = append(s.AllFiles, FileRecord{Path: strings.ReplaceAll(path, "_", "/"), Size: size})
	s.Files++
}
