package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopherscan/gopherscan/internal/model"
)

// recordingStore captures inserted resource rows.
type recordingStore struct {
	rows []*model.Resource
	err  error
}

func (r *recordingStore) InsertResource(_ context.Context, resource *model.Resource) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, resource)
	return nil
}

// TestSafeFileName tests the flat filename derivation rules.
func TestSafeFileName(t *testing.T) {
	t.Parallel()

	ep := model.Endpoint{Host: "gopher.example.org", Port: 70}

	t.Run("separators become underscores", func(t *testing.T) {
		t.Parallel()

		got := SafeFileName(ep, "/docs/readme.txt")
		want := "gopher.example.org:70_docs_readme.txt"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("long selector keeps only the last 100 characters", func(t *testing.T) {
		t.Parallel()

		selector := "/" + strings.Repeat("a", 150) + "/tail.txt"
		got := SafeFileName(ep, selector)

		tail := []rune(selector)
		tail = tail[len(tail)-100:]
		want := "gopher.example.org:70" + strings.ReplaceAll(string(tail), "/", "_")
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("two selectors sharing a 100 character suffix collide", func(t *testing.T) {
		t.Parallel()

		suffix := strings.Repeat("b", 100)
		a := SafeFileName(ep, "/one/"+suffix)
		b := SafeFileName(ep, "/two/"+suffix)
		if a != b {
			t.Errorf("expected colliding names, got %q and %q", a, b)
		}
	})
}

// TestSinkRecord tests persistence and statistics folding.
func TestSinkRecord(t *testing.T) {
	t.Parallel()

	entry := func(itemType model.ItemType, selector string) model.DirectoryEntry {
		return model.DirectoryEntry{
			Type:     itemType,
			Display:  "test",
			Selector: selector,
			Host:     "gopher.example.org",
			Port:     70,
		}
	}

	t.Run("text file is written and counted", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sink, err := NewSink(dir)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}

		e := entry(model.ItemTypeTextFile, "/notes.txt")
		stats := model.NewCrawlStatistics()
		if err := sink.Record(context.Background(), e, []byte("plain text\n"), stats); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "gopher.example.org:70_notes.txt"))
		if err != nil {
			t.Fatalf("failed to read stored file: %v", err)
		}
		if string(data) != "plain text\n" {
			t.Errorf("unexpected stored content: %q", data)
		}
		if stats.Files != 1 || len(stats.TextFiles) != 1 {
			t.Errorf("unexpected stats: %d files, %d text records", stats.Files, len(stats.TextFiles))
		}
		if stats.SmallestTextContent != "plain text\n" {
			t.Errorf("unexpected smallest text content: %q", stats.SmallestTextContent)
		}
	})

	t.Run("invalid UTF-8 text is rejected and not counted", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sink, err := NewSink(dir)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}

		e := entry(model.ItemTypeTextFile, "/broken.txt")
		stats := model.NewCrawlStatistics()
		err = sink.Record(context.Background(), e, []byte{0xFF, 0xFE, 0x00}, stats)
		if !errors.Is(err, ErrInvalidTextEncoding) {
			t.Fatalf("expected ErrInvalidTextEncoding, got %v", err)
		}

		if stats.Files != 0 {
			t.Errorf("rejected file must not be counted, got %d", stats.Files)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "gopher.example.org:70_broken.txt")); !os.IsNotExist(statErr) {
			t.Error("rejected file must not be written to disk")
		}
	})

	t.Run("binary bytes need no decoding", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sink, err := NewSink(dir)
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}

		e := entry(model.ItemTypeBinaryFile, "/raw.bin")
		stats := model.NewCrawlStatistics()
		payload := []byte{0xFF, 0xFE, 0x00, 0x01}
		if err := sink.Record(context.Background(), e, payload, stats); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(stats.BinaryFiles) != 1 {
			t.Fatalf("expected 1 binary record, got %d", len(stats.BinaryFiles))
		}
		if stats.BinaryFiles[0].Size != len(payload) {
			t.Errorf("expected size %d, got %d", len(payload), stats.BinaryFiles[0].Size)
		}
	})

	t.Run("store receives one row per file", func(t *testing.T) {
		t.Parallel()

		store := &recordingStore{}
		sink, err := NewSink(t.TempDir(), WithStore(store))
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}

		e := entry(model.ItemTypeTextFile, "/row.txt")
		stats := model.NewCrawlStatistics()
		if err := sink.Record(context.Background(), e, []byte("row"), stats); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(store.rows) != 1 {
			t.Fatalf("expected 1 resource row, got %d", len(store.rows))
		}
		row := store.rows[0]
		if row.Server != "gopher.example.org:70" || row.Selector != "/row.txt" || row.Kind != "text" {
			t.Errorf("unexpected row: %+v", row)
		}
		if row.Digest == "" {
			t.Error("expected a content digest")
		}
	})

	t.Run("store failure does not fail the record", func(t *testing.T) {
		t.Parallel()

		store := &recordingStore{err: errors.New("database is gone")}
		sink, err := NewSink(t.TempDir(), WithStore(store))
		if err != nil {
			t.Fatalf("failed to create sink: %v", err)
		}

		e := entry(model.ItemTypeTextFile, "/ok.txt")
		stats := model.NewCrawlStatistics()
		if err := sink.Record(context.Background(), e, []byte("ok"), stats); err != nil {
			t.Errorf("store failure must not fail the record: %v", err)
		}
		if stats.Files != 1 {
			t.Errorf("file must still be counted, got %d", stats.Files)
		}
	})
}
