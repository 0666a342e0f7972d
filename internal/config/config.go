package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror typical Gopher server characteristics: the protocol
// is lightweight and servers answer quickly, so timeouts are short.
const (
	// DefaultPort is the IANA-assigned Gopher port.
	DefaultPort = 70

	// DefaultTimeout is the connection and read deadline for one fetch.
	// Gopher responses are small and servers are close to the wire; five
	// seconds is generous for a healthy server.
	DefaultTimeout = 5 * time.Second

	// DefaultProbeTimeout is the connect deadline for liveness probes of
	// external servers. Probes only open and close a TCP connection, so
	// they get a tighter budget than full fetches.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultMaxResponseSize caps how many bytes a single fetch may
	// return. 1MB covers real-world Gopher content comfortably while
	// bounding memory per response.
	DefaultMaxResponseSize = 1 << 20

	// DefaultMaxDepth bounds listing recursion. The visited set already
	// terminates cycles; the depth bound guards the call stack against
	// extremely deep legitimate trees.
	DefaultMaxDepth = 100

	// DefaultBatchSize is the number of concurrent crawls when processing
	// multiple targets. Each crawl is itself strictly sequential.
	DefaultBatchSize = 5

	// AppName is the application name used for XDG directory paths.
	AppName = "gopherscan"

	// DefaultDownloadDirName is the directory name for fetched files
	// under the XDG data directory.
	DefaultDownloadDirName = "downloads"
)

// Config holds all configuration options for gopherscan.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// A single flat struct is used instead of nested sub-structs; the number
// of options is manageable and nesting would add complexity without
// significant benefit.
type Config struct {
	// Targets is the list of servers to crawl, each "host" or "host:port".
	Targets []string

	// Port is the default port applied to targets without an explicit one.
	Port int

	// RootSelector is the selector the crawl starts from. The empty
	// selector addresses a server's root listing.
	RootSelector string

	// Timeout is the connection and read deadline for each fetch.
	Timeout time.Duration

	// ProbeTimeout is the connect deadline for external liveness probes.
	ProbeTimeout time.Duration

	// MaxResponseSize caps the byte size of a single response.
	MaxResponseSize int

	// MaxDepth bounds the listing recursion depth.
	MaxDepth int

	// BatchSize is the number of concurrent crawls for multi-target runs.
	BatchSize int

	// SOCKS5Proxy routes all connections through a SOCKS5 proxy when set,
	// in "host:port" format. Empty means direct connections.
	SOCKS5Proxy string

	// DownloadDir is where fetched files are stored, flat. When empty the
	// XDG data directory is used.
	DownloadDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .gopherscan in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// ServerConfigs holds per-server settings loaded from the config file.
	ServerConfigs *File

	// JSONReport enables JSON report output instead of plain text.
	// Mutually exclusive with MarkdownReport and ExcelReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport and ExcelReport.
	MarkdownReport bool

	// ExcelReport enables Excel workbook report output. Requires
	// ReportFile since a workbook cannot go to stdout.
	ExcelReport bool

	// ReportFile is the output file path for the report. When set, the
	// report is written there instead of stdout. Directories are created
	// automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for the SQLite database. When set,
	// crawl results are saved for historical comparison. When empty,
	// results are not persisted.
	DBDir string

	// SaveToDB indicates whether to save crawl results to the database.
	// Automatically true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// A constructor is used instead of relying on zero values because many
// defaults are non-zero, and it documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Port:            DefaultPort,
		Timeout:         DefaultTimeout,
		ProbeTimeout:    DefaultProbeTimeout,
		MaxResponseSize: DefaultMaxResponseSize,
		MaxDepth:        DefaultMaxDepth,
		BatchSize:       DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for gopherscan.
// On Linux: ~/.local/share/gopherscan
// On macOS: ~/Library/Application Support/gopherscan
// On Windows: %LOCALAPPDATA%\gopherscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for gopherscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for gopherscan.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultDownloadDir returns the default directory for fetched files.
func DefaultDownloadDir() string {
	return filepath.Join(XDGDataDir(), DefaultDownloadDirName)
}

// Validate checks if the configuration is valid.
// It returns the first error found; fixing one error often makes others
// irrelevant. Called once after CLI parsing, before any crawl begins.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}

	if c.MaxResponseSize <= 0 {
		return ErrInvalidMaxResponseSize
	}

	if c.MaxDepth <= 0 {
		return ErrInvalidMaxDepth
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// Report formats are mutually exclusive
	formats := 0
	for _, enabled := range []bool{c.JSONReport, c.MarkdownReport, c.ExcelReport} {
		if enabled {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	// An Excel workbook is a binary file; it cannot go to stdout.
	if c.ExcelReport && c.ReportFile == "" {
		return ErrExcelNeedsReportFile
	}

	return nil
}
