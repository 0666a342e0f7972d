package model

import (
	"fmt"
	"testing"
)

// TestRecordErrorKeepsCounterConsistent verifies the error counter never
// drifts from the error log length.
func TestRecordErrorKeepsCounterConsistent(t *testing.T) {
	t.Parallel()

	st := NewCrawlStatistics()
	for i := 0; i < 25; i++ {
		st.RecordError(fmt.Sprintf("/sel%d", i), "boom")
		if st.Errors != len(st.ErrorDetails) {
			t.Fatalf("counter drifted: %d != %d", st.Errors, len(st.ErrorDetails))
		}
	}
	if st.Errors != 25 {
		t.Errorf("expected 25 errors, got %d", st.Errors)
	}
	if st.ErrorDetails[0].Selector != "/sel0" || st.ErrorDetails[0].Message != "boom" {
		t.Errorf("unexpected first record: %+v", st.ErrorDetails[0])
	}
}

// TestCountDirectoryIsIdempotent verifies directory counting per canonical key.
func TestCountDirectoryIsIdempotent(t *testing.T) {
	t.Parallel()

	st := NewCrawlStatistics()

	if !st.CountDirectory("example.org:70/pub") {
		t.Error("first count should report counted")
	}
	if st.CountDirectory("example.org:70/pub") {
		t.Error("second count of same key should be a no-op")
	}
	if st.Directories != 1 {
		t.Errorf("expected 1 directory, got %d", st.Directories)
	}

	if !st.CountDirectory("example.org:70/other") {
		t.Error("distinct key should count")
	}
	if st.Directories != 2 {
		t.Errorf("expected 2 directories, got %d", st.Directories)
	}
	if !st.DirectoryCounted("example.org:70/pub") {
		t.Error("counted key should be reported as counted")
	}
}

// TestRecordFileExtrema verifies seeding and strict comparison behavior.
func TestRecordFileExtrema(t *testing.T) {
	t.Parallel()

	t.Run("first text file seeds both extrema and content", func(t *testing.T) {
		t.Parallel()

		st := NewCrawlStatistics()
		st.RecordFile("example.org:70/a.txt", 10, false, "hello")

		if st.SmallestText.Size != 10 || st.LargestText.Size != 10 {
			t.Errorf("extrema not seeded: %+v %+v", st.SmallestText, st.LargestText)
		}
		if st.SmallestTextContent != "hello" {
			t.Errorf("content not retained: %q", st.SmallestTextContent)
		}
	})

	t.Run("strict comparisons keep earlier record on ties", func(t *testing.T) {
		t.Parallel()

		st := NewCrawlStatistics()
		st.RecordFile("example.org:70/first.txt", 10, false, "first")
		st.RecordFile("example.org:70/tie.txt", 10, false, "tie")

		if st.SmallestText.Path != "example.org:70/first.txt" {
			t.Errorf("tie should not replace smallest, got %q", st.SmallestText.Path)
		}
		if st.LargestText.Path != "example.org:70/first.txt" {
			t.Errorf("tie should not replace largest, got %q", st.LargestText.Path)
		}
		if st.SmallestTextContent != "first" {
			t.Errorf("content should stay with smallest, got %q", st.SmallestTextContent)
		}
	})

	t.Run("smaller and larger files replace extrema", func(t *testing.T) {
		t.Parallel()

		st := NewCrawlStatistics()
		st.RecordFile("example.org:70/mid.bin", 50, true, "")
		st.RecordFile("example.org:70/small.bin", 5, true, "")
		st.RecordFile("example.org:70/big.bin", 500, true, "")

		if st.SmallestBinary.Size != 5 {
			t.Errorf("expected smallest 5, got %d", st.SmallestBinary.Size)
		}
		if st.LargestBinary.Size != 500 {
			t.Errorf("expected largest 500, got %d", st.LargestBinary.Size)
		}
		if st.Files != 3 || len(st.BinaryFiles) != 3 {
			t.Errorf("unexpected counts: files=%d binary=%d", st.Files, len(st.BinaryFiles))
		}
	})

	t.Run("text and binary extrema are independent", func(t *testing.T) {
		t.Parallel()

		st := NewCrawlStatistics()
		st.RecordFile("example.org:70/a.txt", 100, false, "x")
		st.RecordFile("example.org:70/b.bin", 1, true, "")

		if st.SmallestText.Size != 100 {
			t.Errorf("binary file must not affect text extrema, got %d", st.SmallestText.Size)
		}
	})
}

// TestRecordFileRestoresSeparatorsInIndex verifies the all-files index
// rewrites underscores back to slashes, including underscores that were
// part of the original selector.
func TestRecordFileRestoresSeparatorsInIndex(t *testing.T) {
	t.Parallel()

	st := NewCrawlStatistics()
	st.RecordFile("example.org:70/docs/read_me.txt", 7, false, "content")

	if len(st.AllFiles) != 1 {
		t.Fatalf("expected 1 index entry, got %d", len(st.AllFiles))
	}
	if got := st.AllFiles[0].Path; got != "example.org:70/docs/read/me.txt" {
		t.Errorf("unexpected restored path: %q", got)
	}
}
