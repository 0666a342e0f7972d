package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gopherscan/gopherscan/internal/gopher"
	"github.com/gopherscan/gopherscan/internal/model"
)

// DefaultMaxDepth bounds recursion for pathological listing trees.
// The visited set already terminates cycles; the depth bound guards
// against unbounded call-stack growth on extremely deep legitimate trees.
const DefaultMaxDepth = 100

// Crawler performs one depth-first traversal of a Gopher server.
//
// A Crawler carries the visited-path set across the whole recursion, so
// one instance serves exactly one crawl invocation; call Reset to reuse
// it. All shared mutable state (visited set, statistics aggregate) is
// owned by the crawl's call chain; traversal is single-threaded and no
// locking is needed.
type Crawler struct {
	// client fetches listings and file contents.
	client *gopher.Client

	// prober checks liveness of external servers.
	prober *gopher.Prober

	// parser decodes directory listings.
	parser *gopher.Parser

	// sink persists fetched files and updates statistics.
	sink *Sink

	// maxDepth bounds the recursion depth.
	maxDepth int

	// logger receives traversal diagnostics.
	logger *slog.Logger

	// visited holds canonical (endpoint, selector) keys already fetched.
	// Entries are never removed: a resource visited once stays excluded
	// for the lifetime of the crawl.
	visited map[string]struct{}
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets the recursion depth bound.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithLogger sets the traversal logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithParser replaces the listing parser.
func WithParser(parser *gopher.Parser) Option {
	return func(c *Crawler) {
		c.parser = parser
	}
}

// NewCrawler creates a Crawler.
func NewCrawler(client *gopher.Client, prober *gopher.Prober, sink *Sink, opts ...Option) *Crawler {
	c := &Crawler{
		client:   client,
		prober:   prober,
		sink:     sink,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
		visited:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.parser == nil {
		c.parser = gopher.NewParser(gopher.WithParserLogger(c.logger))
	}

	return c
}

// Reset clears the visited-path set so the Crawler can run another crawl.
func (c *Crawler) Reset() {
	c.visited = make(map[string]struct{})
}

// Crawl traverses the server at origin starting from selector and returns
// the filled statistics aggregate. The returned error is non-nil only on
// context cancellation; every other failure is recorded into the
// aggregate and the traversal continues past it.
func (c *Crawler) Crawl(ctx context.Context, origin model.Endpoint, selector string) (*model.CrawlStatistics, error) {
	stats := model.NewCrawlStatistics()
	err := c.crawl(ctx, origin, selector, stats, origin.Host, 0)
	return stats, err
}

// crawl handles one directory level. The originHost is fixed at the
// top-level call; the endpoint changes only in the sense that each level
// compares entry ports against its own port (see the boundary check).
func (c *Crawler) crawl(ctx context.Context, endpoint model.Endpoint, selector string, stats *model.CrawlStatistics, originHost string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := endpoint.PathKey(selector)
	if _, ok := c.visited[key]; ok {
		return nil
	}
	c.visited[key] = struct{}{}

	if depth > c.maxDepth {
		stats.RecordError(selector, fmt.Sprintf("maximum crawl depth %d reached, skipping subtree", c.maxDepth))
		return nil
	}

	c.logger.Debug("fetching directory", "server", endpoint.Key(), "selector", selector, "depth", depth)

	raw, err := c.client.Fetch(ctx, endpoint, selector)
	if err != nil {
		// One error record per failed fetch; a failed branch never
		// aborts the crawl.
		stats.RecordError(selector, err.Error())
		return nil
	}

	listing := c.parser.Parse(raw)
	if listing.Encoding == gopher.EncodingLatin1 {
		c.logger.Debug("listing decoded with latin-1 fallback", "selector", selector)
	}

	for _, entry := range listing.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Boundary check: the host is compared against the fixed origin
		// host, but the port against the *current* level's port. A chain
		// that changes port at an intermediate directory therefore
		// redefines "internal" for its own subtree. Historical behavior,
		// kept as is.
		if entry.Host != originHost || entry.Port != endpoint.Port {
			c.probeExternal(ctx, entry, stats)
			continue
		}

		switch {
		case entry.Type == model.ItemTypeDirectory:
			stats.CountDirectory(entry.PathKey())
			if err := c.crawl(ctx, entry.Endpoint(), entry.Selector, stats, originHost, depth+1); err != nil {
				return err
			}

		case entry.Type.IsFile():
			c.fetchFile(ctx, entry, stats)

		case entry.Type == model.ItemTypeInfo:
			// Informational lines are not navigable.

		default:
			stats.RecordError(entry.Selector, fmt.Sprintf("unknown item type encountered: %s", entry.Type))
		}
	}

	return nil
}

// probeExternal records liveness for a server outside the crawl origin.
// Each distinct endpoint is probed at most once per crawl, no matter how
// many entries reference it, and is never recursed into regardless of
// its declared type.
func (c *Crawler) probeExternal(ctx context.Context, entry model.DirectoryEntry, stats *model.CrawlStatistics) {
	serverKey := entry.Endpoint().Key()
	if _, probed := stats.ExternalProbed(serverKey); probed {
		return
	}

	alive := c.prober.Probe(ctx, entry.Endpoint())
	stats.RecordExternal(serverKey, alive)
	c.logger.Debug("probed external server", "server", serverKey, "alive", alive)
}

// fetchFile fetches one text or binary file and hands it to the sink.
// The visited set covers files as well as directories, so a file
// referenced from multiple parent listings is fetched exactly once.
// Fetch and sink failures each record exactly one error.
func (c *Crawler) fetchFile(ctx context.Context, entry model.DirectoryEntry, stats *model.CrawlStatistics) {
	key := entry.PathKey()
	if _, ok := c.visited[key]; ok {
		return
	}
	c.visited[key] = struct{}{}

	data, err := c.client.Fetch(ctx, entry.Endpoint(), entry.Selector)
	if err != nil {
		stats.RecordError(entry.Selector, err.Error())
		return
	}

	if err := c.sink.Record(ctx, entry, data, stats); err != nil {
		stats.RecordError(entry.Selector, err.Error())
	}
}
