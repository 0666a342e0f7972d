package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/gopherscan/gopherscan/internal/crawler"
	"github.com/gopherscan/gopherscan/internal/gopher"
	"github.com/gopherscan/gopherscan/internal/model"
)

// ProbeOriginStep checks whether the origin server accepts connections
// before the crawl step spends a full fetch timeout on it.
//
// The step never fails: an unreachable origin is a legitimate result
// that the report must carry, not a pipeline abort.
type ProbeOriginStep struct {
	// prober performs the TCP liveness check.
	prober *gopher.Prober

	// logger for structured logging.
	logger *slog.Logger
}

// ProbeOriginStepOption configures a ProbeOriginStep.
type ProbeOriginStepOption func(*ProbeOriginStep)

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeOriginStepOption {
	return func(s *ProbeOriginStep) {
		s.logger = logger
	}
}

// NewProbeOriginStep creates a new origin probe step.
func NewProbeOriginStep(prober *gopher.Prober, opts ...ProbeOriginStepOption) *ProbeOriginStep {
	s := &ProbeOriginStep{
		prober: prober,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProbeOriginStep) Name() string {
	return "probe_origin"
}

// Do executes the origin probe.
func (s *ProbeOriginStep) Do(ctx context.Context, report *model.CrawlReport) error {
	report.Reachable = s.prober.Probe(ctx, report.Endpoint)
	if !report.Reachable {
		s.logger.Warn("origin server is unreachable", "server", report.Endpoint.Key())
	}
	return nil
}

// CrawlStep performs the full depth-first crawl of the origin server.
//
// Each Do call builds a fresh Crawler so no visited-set state leaks
// between reports; the client, prober, and sink are shared because they
// are stateless across crawls.
type CrawlStep struct {
	// client fetches listings and files.
	client *gopher.Client

	// prober checks external server liveness during the crawl.
	prober *gopher.Prober

	// sink persists fetched files.
	sink *crawler.Sink

	// maxDepth bounds the listing recursion.
	maxDepth int

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxDepth sets the recursion bound for the crawl.
func WithCrawlMaxDepth(depth int) CrawlStepOption {
	return func(s *CrawlStep) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawl step.
func NewCrawlStep(client *gopher.Client, prober *gopher.Prober, sink *crawler.Sink, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client:   client,
		prober:   prober,
		sink:     sink,
		maxDepth: crawler.DefaultMaxDepth,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl and fills the report's statistics.
// Skipped when the probe step already found the origin unreachable.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if !report.Reachable {
		s.logger.Info("skipping crawl of unreachable server", "server", report.Endpoint.Key())
		report.Stats = model.NewCrawlStatistics()
		return nil
	}

	c := crawler.NewCrawler(s.client, s.prober, s.sink,
		crawler.WithMaxDepth(s.maxDepth),
		crawler.WithLogger(s.logger),
	)

	start := time.Now()
	stats, err := c.Crawl(ctx, report.Endpoint, report.RootSelector)
	report.Duration = time.Since(start)
	report.Stats = stats

	return err
}

// SummarizeStep derives the one-look summary from the raw statistics.
type SummarizeStep struct{}

// NewSummarizeStep creates a new summarize step.
func NewSummarizeStep() *SummarizeStep {
	return &SummarizeStep{}
}

// Name returns the step name.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// Do computes the summary.
func (s *SummarizeStep) Do(_ context.Context, report *model.CrawlReport) error {
	if report.Stats == nil {
		report.Stats = model.NewCrawlStatistics()
	}
	report.Summary = model.NewSummary(report.Stats)
	return nil
}
