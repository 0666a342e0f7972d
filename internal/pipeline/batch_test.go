package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gopherscan/gopherscan/internal/model"
)

// countingStep tracks concurrent executions.
type countingStep struct {
	current atomic.Int32
	peak    atomic.Int32
	total   atomic.Int32
	block   chan struct{}
}

func (s *countingStep) Name() string { return "counting" }

func (s *countingStep) Do(_ context.Context, _ *model.CrawlReport) error {
	cur := s.current.Add(1)
	for {
		peak := s.peak.Load()
		if cur <= peak || s.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if s.block != nil {
		<-s.block
	}
	s.current.Add(-1)
	s.total.Add(1)
	return nil
}

func batchReports(n int) []*model.CrawlReport {
	reports := make([]*model.CrawlReport, n)
	for i := range reports {
		reports[i] = model.NewCrawlReport(model.Endpoint{Host: "gopher.example.org", Port: 70 + i}, "")
	}
	return reports
}

// TestProcessBatch tests that every report is processed.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	step := &countingStep{}
	bp := NewBatchProcessor(func() *Pipeline {
		p := New()
		p.AddStep(step)
		return p
	}, WithConcurrency(3))

	if err := bp.ProcessBatch(context.Background(), batchReports(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := step.total.Load(); got != 10 {
		t.Errorf("expected 10 executions, got %d", got)
	}
	if peak := step.peak.Load(); peak > 3 {
		t.Errorf("concurrency limit exceeded: peak %d", peak)
	}
}

// TestProcessBatchContinuesPastFailures verifies that one failing server
// does not stop the rest of the batch.
func TestProcessBatchContinuesPastFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	bp := NewBatchProcessor(func() *Pipeline {
		p := New()
		p.AddStep(&fakeFailOnceStep{calls: &calls})
		return p
	}, WithConcurrency(2))

	reports := batchReports(4)
	if err := bp.ProcessBatch(context.Background(), reports); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("expected all 4 servers processed, got %d", got)
	}
}

// fakeFailOnceStep fails on the first execution only.
type fakeFailOnceStep struct {
	calls *atomic.Int32
}

func (s *fakeFailOnceStep) Name() string { return "fail_once" }

func (s *fakeFailOnceStep) Do(_ context.Context, _ *model.CrawlReport) error {
	if s.calls.Add(1) == 1 {
		return errors.New("transient failure")
	}
	return nil
}

// TestProcessBatchWithCallback tests streaming results.
func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(func() *Pipeline {
		p := New()
		p.AddStep(NewSummarizeStep())
		return p
	}, WithConcurrency(2))

	reports := batchReports(5)

	var mu sync.Mutex
	seen := make(map[int]bool)

	err := bp.ProcessBatchWithCallback(context.Background(), reports,
		func(report *model.CrawlReport, index int) {
			mu.Lock()
			defer mu.Unlock()
			seen[index] = true
			if report.Summary == nil {
				t.Errorf("report %d missing summary", index)
			}
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 callbacks, got %d", len(seen))
	}
}

// TestProcessBatchCancellation verifies cancellation surfaces as an error.
func TestProcessBatchCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bp := NewBatchProcessor(func() *Pipeline {
		p := New()
		p.AddStep(NewSummarizeStep())
		return p
	})

	if err := bp.ProcessBatch(ctx, batchReports(3)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
