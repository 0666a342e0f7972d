package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Package-level sentinel errors allow callers to use errors.Is() for
// programmatic handling while still carrying a human-readable message.
var (
	// ErrNoTarget is returned when no target server is specified.
	ErrNoTarget = errors.New("no target specified: provide a server address such as gopher.example.org or host:port")

	// ErrInvalidPort is returned when the default port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidProbeTimeout is returned when the probe timeout is not positive.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")

	// ErrInvalidMaxResponseSize is returned when the response size cap is
	// not positive. A zero cap would reject every response.
	ErrInvalidMaxResponseSize = errors.New("invalid max response size: must be positive")

	// ErrInvalidMaxDepth is returned when the recursion bound is not positive.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown, and --excel is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json, --markdown, and --excel cannot be combined")

	// ErrExcelNeedsReportFile is returned when --excel is used without
	// --output. Excel workbooks are binary and cannot go to stdout.
	ErrExcelNeedsReportFile = errors.New("excel report requires --output: a workbook cannot be written to stdout")
)
