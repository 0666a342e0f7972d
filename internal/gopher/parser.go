package gopher

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/gopherscan/gopherscan/internal/model"
)

// Encoding tags which decoding stage produced a listing's text.
// Gopher has no charset declaration, so decoding is a two-stage attempt:
// UTF-8 first, then Latin-1, which cannot fail on arbitrary bytes.
type Encoding int

const (
	// EncodingUTF8 means the response decoded as valid UTF-8.
	EncodingUTF8 Encoding = iota

	// EncodingLatin1 means the response fell back to ISO 8859-1.
	EncodingLatin1
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingLatin1:
		return "iso-8859-1"
	default:
		return "unknown"
	}
}

// Listing is the parsed form of a directory response: the entries in
// their original order plus the decoding stage that succeeded.
type Listing struct {
	// Entries are the parsed directory entries in order of appearance.
	// No deduplication happens here; that is the orchestrator's job.
	Entries []model.DirectoryEntry

	// Encoding records which decode stage produced the text.
	Encoding Encoding
}

// Parser decodes raw directory responses into typed entries.
// It tolerates partial and garbage listings: malformed lines are
// discarded, never turned into hard failures.
type Parser struct {
	// logger receives diagnostics for discarded lines.
	logger *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithParserLogger sets the logger for line-level diagnostics.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse decodes a raw response into an ordered listing.
//
// Each line is split on tabs into <type+display>, <selector>, <host>,
// <port>. Lines with fewer than four fields are silently discarded (this
// also covers the "." terminator line servers send by convention). A
// non-numeric port discards the line with a diagnostic; a port of zero
// or outside the valid range discards the line as a placeholder entry.
func (p *Parser) Parse(raw []byte) *Listing {
	text, encoding := decode(raw)

	listing := &Listing{
		Entries:  make([]model.DirectoryEntry, 0),
		Encoding: encoding,
	}

	for _, line := range splitLines(text) {
		if line == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}
		if parts[0] == "" {
			// A line starting with a tab has no type tag to classify.
			continue
		}

		tag, size := utf8.DecodeRuneInString(parts[0])
		display := strings.TrimSpace(parts[0][size:])

		port, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil {
			p.logger.Debug("discarding listing line with non-numeric port", "line", line)
			continue
		}
		if port == 0 || port < 0 || port > model.MaxPort {
			// Port 0 marks invalid placeholder entries in the wild.
			continue
		}

		listing.Entries = append(listing.Entries, model.DirectoryEntry{
			Type:     model.ItemType(tag),
			Display:  display,
			Selector: parts[1],
			Host:     parts[2],
			Port:     port,
		})
	}

	return listing
}

// decode attempts UTF-8 first and falls back to Latin-1.
// The fallback always succeeds: every byte is a valid ISO 8859-1 code point.
func decode(raw []byte) (string, Encoding) {
	if utf8.Valid(raw) {
		return string(raw), EncodingUTF8
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// Unreachable for a single-byte charset; keep the raw bytes
		// rather than dropping the listing.
		return string(raw), EncodingLatin1
	}
	return string(decoded), EncodingLatin1
}

// splitLines splits on universal newline boundaries (LF, CR, CRLF).
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
