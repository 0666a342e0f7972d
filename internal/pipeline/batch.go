package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gopherscan/gopherscan/internal/model"
)

// BatchProcessor handles concurrent processing of multiple servers.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Concurrency lives only here: each report still gets its own strictly
// sequential crawl, and no two goroutines ever share a Crawler.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each report.
	// A factory ensures state never leaks between crawls.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 5 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each report to create a
// fresh pipeline instance.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     5,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs the pipeline for each pre-built report concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// errgroup.SetLimit is used rather than a worker pool because it is
// simpler and handles the concurrency correctly. Every report is
// executed even when some fail; per-report failures are recorded in the
// report itself, and the error return indicates cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, reports []*model.CrawlReport) error {
	bp.logger.Info("starting batch processing",
		"total_servers", len(reports),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, report := range reports {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling server",
				"server", report.Endpoint.Key(),
				"index", i+1,
				"total", len(reports),
			)

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, report); err != nil {
				bp.logger.Warn("crawl failed",
					"server", report.Endpoint.Key(),
					"error", err,
				)
				// Per-server failures are recorded in the report; only
				// cancellation propagates to the group.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}

			bp.logger.Info("crawl completed", "server", report.Endpoint.Key())
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_servers", len(reports),
		"elapsed", time.Since(startTime),
	)

	return err
}

// ProcessBatchWithCallback runs the pipeline for each report and calls a
// callback as each one completes. This is useful for streaming results.
//
// The callback runs on the goroutine that completed the crawl, so it
// must be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	reports []*model.CrawlReport,
	callback func(report *model.CrawlReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, report := range reports {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			p := bp.pipelineFactory()
			_ = p.Execute(ctx, report) //nolint:errcheck // Error is stored in report

			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
