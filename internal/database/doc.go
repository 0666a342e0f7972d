// Package database provides SQLite-based persistence for crawl results.
//
// Two tables are maintained: resources, one row per fetched file keyed by
// (server, selector) with an upsert on re-crawl, and crawl_reports, one
// JSON-serialized report per finished crawl. Reports are stored whole as
// JSON rather than normalized; the compare command only needs the two
// most recent reports per server, and the schema stays trivial.
//
// The driver is modernc.org/sqlite, a pure-Go SQLite build, so the binary
// needs no cgo.
package database
