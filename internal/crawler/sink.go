package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gopherscan/gopherscan/internal/model"
)

// maxSelectorChars is how much of a selector's tail survives into the
// on-disk filename. Two distinct long selectors sharing a 100-character
// suffix therefore collide; this lossy rule is accepted because the
// report's path-to-file mapping must stay reconstructible from it.
const maxSelectorChars = 100

// ErrInvalidTextEncoding is returned when a text file's body is not valid
// UTF-8. Unlike listings, file bodies get no Latin-1 fallback: the
// failure is fatal to that one file and recorded as an error.
var ErrInvalidTextEncoding = errors.New("text file body is not valid UTF-8")

// ResourceStore receives a row for each persisted file. *database.CrawlDB
// satisfies this; a nil store disables persistence of rows.
type ResourceStore interface {
	InsertResource(ctx context.Context, resource *model.Resource) error
}

// Sink persists fetched files to a flat local directory and folds every
// recorded file into the statistics aggregate. It is the only component
// besides the crawler that writes into the aggregate, and it does so
// through the aggregate's single RecordFile entry point.
type Sink struct {
	// dir is the download directory. No server hierarchy is
	// reconstructed; all files land flat under this directory.
	dir string

	// store optionally receives one resource row per persisted file.
	store ResourceStore

	// logger receives persistence diagnostics.
	logger *slog.Logger
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithStore sets the resource store.
func WithStore(store ResourceStore) SinkOption {
	return func(s *Sink) {
		s.store = store
	}
}

// WithSinkLogger sets the sink logger.
func WithSinkLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) {
		s.logger = logger
	}
}

// NewSink creates a Sink writing into dir, creating it if needed.
func NewSink(dir string, opts ...SinkOption) (*Sink, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	s := &Sink{
		dir:    dir,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Dir returns the download directory.
func (s *Sink) Dir() string {
	return s.dir
}

// Record persists one fetched file and updates the statistics aggregate.
//
// Binary bodies are written verbatim. Text bodies must be valid UTF-8;
// a decode failure returns ErrInvalidTextEncoding and the file is
// neither written nor counted. The statistics update happens only after
// the file is safely on disk, so every recorded file corresponds to
// exactly one persisted fetch.
func (s *Sink) Record(ctx context.Context, entry model.DirectoryEntry, data []byte, stats *model.CrawlStatistics) error {
	isBinary := entry.Type.IsBinary()

	var content string
	if !isBinary {
		if !utf8.Valid(data) {
			return fmt.Errorf("%w: %s", ErrInvalidTextEncoding, entry.Selector)
		}
		content = string(data)
	}

	originalPath := entry.Endpoint().PathKey(entry.Selector)
	name := SafeFileName(entry.Endpoint(), entry.Selector)

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0600); err != nil {
		return fmt.Errorf("failed to persist %s: %w", originalPath, err)
	}

	stats.RecordFile(originalPath, len(data), isBinary, content)

	s.logger.Debug("persisted file",
		"path", originalPath,
		"size", len(data),
		"binary", isBinary,
		"storedName", name,
	)

	if s.store != nil {
		kind := "text"
		if isBinary {
			kind = "binary"
		}
		resource := &model.Resource{
			Server:     entry.Endpoint().Key(),
			Selector:   entry.Selector,
			Kind:       kind,
			Size:       len(data),
			Digest:     model.ContentDigest(data),
			StoredName: name,
		}
		if err := s.store.InsertResource(ctx, resource); err != nil {
			// Database trouble must not fail the crawl; the file is
			// already on disk and counted.
			s.logger.Warn("failed to record resource row", "path", originalPath, "error", err)
		}
	}

	return nil
}

// SafeFileName derives the flat on-disk name for a fetched file: the
// host and port joined with at most the last 100 characters of the
// selector, with every path separator replaced by an underscore.
func SafeFileName(endpoint model.Endpoint, selector string) string {
	runes := []rune(selector)
	if len(runes) > maxSelectorChars {
		runes = runes[len(runes)-maxSelectorChars:]
	}

	name := fmt.Sprintf("%s:%d%s", endpoint.Host, endpoint.Port, string(runes))
	return strings.ReplaceAll(name, "/", "_")
}
