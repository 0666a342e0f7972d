// Package main provides the entry point for the gopherscan CLI.
//
// Gopherscan is a recursive content crawler for Gopher servers. It walks
// a server's listing tree depth-first, downloads every text and binary
// file, probes referenced external servers for liveness, and reports
// statistics about what it found.
//
// Usage:
//
//	gopherscan crawl <host[:port]>
//	gopherscan crawl --json gopher.example.org
//
// See --help for all available options.
package main

// main is the entry point for gopherscan.
func main() {
	Execute()
}
