package database

import (
	"context"
	"testing"
	"time"

	"github.com/gopherscan/gopherscan/internal/model"
)

// openTestDB opens a fresh database in a temp directory.
func openTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	cdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := cdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return cdb
}

// TestOpenRequiresExistingDatabase verifies the CreateIfNotExists switch.
func TestOpenRequiresExistingDatabase(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.CreateIfNotExists = false

	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected an error for a missing database")
	}
}

// TestInsertResource tests insert and upsert behavior.
func TestInsertResource(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	resource := &model.Resource{
		Server:     "gopher.example.org:70",
		Selector:   "/readme.txt",
		Kind:       "text",
		Size:       42,
		Digest:     "abc123",
		StoredName: "gopher.example.org:70_readme.txt",
	}
	if err := cdb.InsertResource(ctx, resource); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cdb.GetResource(ctx, resource.Server, resource.Selector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a resource row")
	}
	if got.Size != 42 || got.Kind != "text" || got.Digest != "abc123" {
		t.Errorf("unexpected row: %+v", got)
	}

	// Same (server, selector) updates in place instead of duplicating.
	resource.Size = 99
	resource.Digest = "def456"
	if err := cdb.InsertResource(ctx, resource); err != nil {
		t.Fatalf("unexpected error on upsert: %v", err)
	}

	rows, err := cdb.ListResources(ctx, resource.Server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(rows))
	}
	if rows[0].Size != 99 || rows[0].Digest != "def456" {
		t.Errorf("upsert did not update: %+v", rows[0])
	}
}

// TestGetResourceMissing verifies the nil-without-error contract.
func TestGetResourceMissing(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)

	got, err := cdb.GetResource(context.Background(), "nobody:70", "/nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing row, got %+v", got)
	}
}

// TestSaveAndGetCrawlReports tests report round-trip and ordering.
func TestSaveAndGetCrawlReports(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	endpoint := model.Endpoint{Host: "gopher.example.org", Port: 70}

	first := model.NewCrawlReport(endpoint, "")
	first.Reachable = true
	first.Stats = model.NewCrawlStatistics()
	first.Stats.Directories = 3
	first.Summary = model.NewSummary(first.Stats)
	first.Duration = 2 * time.Second

	second := model.NewCrawlReport(endpoint, "")
	second.Reachable = true
	second.Stats = model.NewCrawlStatistics()
	second.Stats.Directories = 5
	second.Summary = model.NewSummary(second.Stats)

	if err := cdb.SaveCrawlReport(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cdb.SaveCrawlReport(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reports, err := cdb.GetLatestReports(ctx, endpoint.Key(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	// Newest first.
	if reports[0].Summary.Directories != 5 {
		t.Errorf("expected newest report first, got %d directories", reports[0].Summary.Directories)
	}
	if reports[1].Summary.Directories != 3 {
		t.Errorf("expected oldest report second, got %d directories", reports[1].Summary.Directories)
	}

	servers, err := cdb.ListServers(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(servers) != 1 || servers[0] != endpoint.Key() {
		t.Errorf("unexpected server list: %v", servers)
	}

	history, err := cdb.GetReportHistory(ctx, endpoint.Key())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(history))
	}
}
