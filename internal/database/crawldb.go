package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gopherscan/gopherscan/internal/model"
)

// CrawlDB provides SQLite-based storage for fetched resources and crawl
// reports. It manages connection pooling and provides methods for CRUD
// operations.
//
// A single database file holds all servers' history. This keeps
// cross-server queries (compare, history) simple and makes backup a
// single-file copy.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "gopherscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; keep the pool at a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Resources store individual fetched files
	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server TEXT NOT NULL,
		selector TEXT NOT NULL,
		kind TEXT NOT NULL,
		size INTEGER NOT NULL,
		digest TEXT NOT NULL,
		stored_name TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(server, selector)
	);

	CREATE INDEX IF NOT EXISTS idx_resources_server ON resources(server);
	CREATE INDEX IF NOT EXISTS idx_resources_digest ON resources(digest);
	CREATE INDEX IF NOT EXISTS idx_resources_timestamp ON resources(timestamp);

	-- Crawl reports store complete crawl results as JSON
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_server ON crawl_reports(server);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON crawl_reports(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertResource inserts or updates a fetched-resource row.
// Uses UPSERT so re-crawling a server refreshes its rows in place.
func (cdb *CrawlDB) InsertResource(ctx context.Context, resource *model.Resource) error {
	query := `
	INSERT INTO resources (server, selector, kind, size, digest, stored_name)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(server, selector) DO UPDATE SET
		kind = excluded.kind,
		size = excluded.size,
		digest = excluded.digest,
		stored_name = excluded.stored_name,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := cdb.db.ExecContext(ctx, query,
		resource.Server,
		resource.Selector,
		resource.Kind,
		resource.Size,
		resource.Digest,
		resource.StoredName,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}

	return nil
}

// GetResource retrieves a resource row by server and selector.
// Returns nil without error when no row exists.
func (cdb *CrawlDB) GetResource(ctx context.Context, server, selector string) (*model.Resource, error) {
	query := `
	SELECT id, server, selector, kind, size, digest, stored_name
	FROM resources
	WHERE server = ? AND selector = ?
	`

	var resource model.Resource
	err := cdb.db.QueryRowContext(ctx, query, server, selector).Scan(
		&resource.ID,
		&resource.Server,
		&resource.Selector,
		&resource.Kind,
		&resource.Size,
		&resource.Digest,
		&resource.StoredName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	return &resource, nil
}

// ListResources returns all resource rows for a server, newest first.
func (cdb *CrawlDB) ListResources(ctx context.Context, server string) ([]model.Resource, error) {
	query := `
	SELECT id, server, selector, kind, size, digest, stored_name
	FROM resources
	WHERE server = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, server)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var results []model.Resource
	for rows.Next() {
		var resource model.Resource
		err := rows.Scan(
			&resource.ID,
			&resource.Server,
			&resource.Selector,
			&resource.Kind,
			&resource.Size,
			&resource.Digest,
			&resource.StoredName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		results = append(results, resource)
	}

	return results, rows.Err()
}

// SaveCrawlReport saves a complete crawl report as JSON.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO crawl_reports (server, report_json)
	VALUES (?, ?)
	`

	_, err = cdb.db.ExecContext(ctx, query,
		report.Endpoint.Key(),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	return nil
}

// GetLatestReports retrieves the most recent crawl reports for a server,
// newest first, up to limit.
func (cdb *CrawlDB) GetLatestReports(ctx context.Context, server string, limit int) ([]*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE server = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, server, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.CrawlReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.CrawlReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ReportMetadata contains summary information about a stored crawl report.
// Used for displaying history without loading the full report.
type ReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64

	// Server is the crawled server in "host:port" format.
	Server string

	// Timestamp is when the crawl finished.
	Timestamp time.Time
}

// GetReportHistory retrieves report metadata for a server, newest first.
func (cdb *CrawlDB) GetReportHistory(ctx context.Context, server string) ([]ReportMetadata, error) {
	query := `
	SELECT id, server, timestamp
	FROM crawl_reports
	WHERE server = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, server)
	if err != nil {
		return nil, fmt.Errorf("failed to get report history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.Server, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListServers returns all servers that have at least one stored report.
func (cdb *CrawlDB) ListServers(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT server FROM crawl_reports
	ORDER BY server
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var servers []string
	for rows.Next() {
		var server string
		if err := rows.Scan(&server); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, server)
	}

	return servers, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
