// Package log provides logging utilities for gopherscan.
//
// TruncateHandler wraps any slog.Handler and caps string attribute
// values at a fixed rune length. Attribute values in this tool routinely
// carry server-controlled text (selectors, display strings), and the cap
// keeps a misbehaving server from flooding the log.
package log
