package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gopherscan/gopherscan/internal/config"
	"github.com/gopherscan/gopherscan/internal/crawler"
	"github.com/gopherscan/gopherscan/internal/database"
	"github.com/gopherscan/gopherscan/internal/gopher"
	"github.com/gopherscan/gopherscan/internal/log"
	"github.com/gopherscan/gopherscan/internal/model"
	"github.com/gopherscan/gopherscan/internal/pipeline"
	"github.com/gopherscan/gopherscan/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [host[:port]]...",
		Short: "Recursively crawl one or more Gopher servers",
		Long: `Crawl walks a Gopher server's listing tree depth-first.

It downloads every text and binary file it finds, counts directories,
probes referenced external servers for liveness, and reports statistics
about the crawl. Entries pointing at other servers are never followed.

Examples:
  # Crawl a single server's root listing
  gopherscan crawl gopher.example.org

  # Crawl several servers concurrently
  gopherscan crawl site1.example.org site2.example.org:7070

  # Start at a specific selector
  gopherscan crawl --selector /pub gopher.example.org

  # Output a JSON report
  gopherscan crawl --json gopher.example.org

  # Route all connections through a SOCKS5 proxy
  gopherscan crawl --socks5 127.0.0.1:9050 gopher.example.org

Configuration file (.gopherscan) example:
  defaults:
    maxDepth: 50
  servers:
    gopher.example.org:
      port: 7070
      rootSelector: /start
      timeout: 30s`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Connection flags
	cmd.Flags().IntP("port", "p", config.DefaultPort,
		"Default port for targets without an explicit one")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection and read timeout for each fetch")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Connect timeout for external server liveness probes")
	cmd.Flags().String("socks5", "",
		"Route connections through a SOCKS5 proxy at the specified address (e.g., 127.0.0.1:9050)")

	// Crawl behavior flags
	cmd.Flags().StringP("selector", "s", "",
		"Selector to start the crawl from (default: server root)")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum listing recursion depth")
	cmd.Flags().Int("max-size", config.DefaultMaxResponseSize,
		"Maximum response size in bytes for a single fetch")
	cmd.Flags().String("download-dir", "",
		"Directory for downloaded files (default: XDG data directory)")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when multiple targets are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .gopherscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().BoolP("excel", "x", false,
		"Output Excel workbook report (requires --output)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Port, err = cmd.Flags().GetInt("port")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.ProbeTimeout, err = cmd.Flags().GetDuration("probe-timeout")
	if err != nil {
		return nil, err
	}

	cfg.SOCKS5Proxy, err = cmd.Flags().GetString("socks5")
	if err != nil {
		return nil, err
	}

	cfg.RootSelector, err = cmd.Flags().GetString("selector")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxResponseSize, err = cmd.Flags().GetInt("max-size")
	if err != nil {
		return nil, err
	}

	cfg.DownloadDir, err = cmd.Flags().GetString("download-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = config.DefaultDownloadDir()
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-server configurations from the config file.
	// If the user explicitly specified a path, a missing file is an error;
	// otherwise an empty config is used silently.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.ServerConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.ServerConfigs = &config.File{
			Servers: make(map[string]config.ServerConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ExcelReport, err = cmd.Flags().GetBool("excel")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments are the target servers
	cfg.Targets = args

	return cfg, nil
}

// runCrawl executes the crawl for all configured targets.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"downloadDir", cfg.DownloadDir,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Resolve every target to a report before crawling so invalid
	// addresses fail fast.
	reports := make([]*model.CrawlReport, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		r, err := targetReport(cfg, target)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", target, err)
		}
		reports = append(reports, r)
	}

	sinkOpts := []crawler.SinkOption{crawler.WithSinkLogger(logger)}
	if db != nil {
		sinkOpts = append(sinkOpts, crawler.WithStore(db))
	}
	sink, err := crawler.NewSink(cfg.DownloadDir, sinkOpts...)
	if err != nil {
		return fmt.Errorf("failed to prepare download directory: %w", err)
	}

	if len(reports) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, sink, db, reports, logger)
	}

	return runSequentialCrawl(ctx, cfg, sink, db, reports, logger)
}

// targetReport resolves one CLI target into a fresh report, applying
// per-server configuration overrides for the port and root selector.
func targetReport(cfg *config.Config, target string) (*model.CrawlReport, error) {
	endpoint, err := model.ParseTarget(target, cfg.Port)
	if err != nil {
		return nil, err
	}

	selector := cfg.RootSelector
	if cfg.ServerConfigs != nil {
		serverCfg := cfg.ServerConfigs.GetServerConfig(endpoint.Host)
		if serverCfg.Port != 0 && !hasExplicitPort(target) {
			endpoint.Port = serverCfg.Port
		}
		if selector == "" && serverCfg.RootSelector != "" {
			selector = serverCfg.RootSelector
		}
	}

	return model.NewCrawlReport(endpoint, selector), nil
}

// hasExplicitPort reports whether the CLI target carried its own port.
func hasExplicitPort(target string) bool {
	_, _, err := net.SplitHostPort(target)
	return err == nil
}

// runSequentialCrawl crawls targets one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, sink *crawler.Sink, db *database.CrawlDB, reports []*model.CrawlReport, logger *slog.Logger) error {
	for _, r := range reports {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := createPipelineForTarget(cfg, sink, r.Endpoint.Host, logger)

		fmt.Printf("Crawling %s...\n", r.Endpoint.Key())
		startTime := time.Now()

		if err := p.Execute(ctx, r); err != nil {
			logger.Error("crawl failed", "server", r.Endpoint.Key(), "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", r.Endpoint.Key(), err)
			continue
		}

		fmt.Printf("Crawl completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

		if err := outputReport(cfg, r); err != nil {
			logger.Error("report failed", "server", r.Endpoint.Key(), "error", err)
		}

		if err := saveCrawlReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save crawl report", "server", r.Endpoint.Key(), "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple targets concurrently using BatchProcessor.
// Each server still gets its own strictly sequential crawl.
func runBatchCrawl(ctx context.Context, cfg *config.Config, sink *crawler.Sink, db *database.CrawlDB, reports []*model.CrawlReport, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d targets (concurrency: %d)...\n\n",
		len(reports), cfg.BatchSize)

	startTime := time.Now()

	// Per-server timeout overrides need per-target pipelines; batch mode
	// builds one shared pipeline configuration from the defaults.
	if cfg.ServerConfigs != nil && len(cfg.ServerConfigs.Servers) > 0 {
		logger.Warn("batch processing uses default server config only; per-server timeout and depth overrides are ignored",
			"serverCount", len(cfg.ServerConfigs.Servers))
		fmt.Fprintf(os.Stderr, "Warning: Per-server configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply them.\n\n")
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipelineForTarget(cfg, sink, "", logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, reports, func(r *model.CrawlReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Crawl completed: %s\n", index+1, len(reports), r.Endpoint.Key())

		if err := outputReport(cfg, r); err != nil {
			logger.Error("report failed", "server", r.Endpoint.Key(), "error", err)
		}

		if err := saveCrawlReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save crawl report", "server", r.Endpoint.Key(), "error", err)
		}
	})

	fmt.Printf("\nBatch crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return err
}

// createPipelineForTarget creates a probe-crawl-summarize pipeline,
// applying per-server overrides for the named host when present.
func createPipelineForTarget(cfg *config.Config, sink *crawler.Sink, host string, logger *slog.Logger) *pipeline.Pipeline {
	timeout := cfg.Timeout
	maxDepth := cfg.MaxDepth

	if host != "" && cfg.ServerConfigs != nil {
		serverCfg := cfg.ServerConfigs.GetServerConfig(host)
		if serverCfg.Timeout != 0 {
			timeout = serverCfg.Timeout.Std()
		}
		if serverCfg.MaxDepth != 0 {
			maxDepth = serverCfg.MaxDepth
		}
	}

	clientOpts := []gopher.Option{
		gopher.WithTimeout(timeout),
		gopher.WithMaxResponseSize(int64(cfg.MaxResponseSize)),
	}
	proberOpts := []gopher.ProberOption{
		gopher.WithProbeTimeout(cfg.ProbeTimeout),
	}

	var client *gopher.Client
	if cfg.SOCKS5Proxy != "" {
		var err error
		client, err = gopher.NewSOCKS5Client(cfg.SOCKS5Proxy, clientOpts...)
		if err != nil {
			// Validation already happened in Config.Validate; fall back
			// to a direct client rather than crash mid-batch.
			logger.Error("failed to create SOCKS5 client, using direct connections", "error", err)
			client = gopher.NewClient(clientOpts...)
		}
	} else {
		client = gopher.NewClient(clientOpts...)
	}
	prober := gopher.NewProber(proberOpts...)

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewProbeOriginStep(prober, pipeline.WithProbeLogger(logger)),
		pipeline.NewCrawlStep(client, prober, sink,
			pipeline.WithCrawlMaxDepth(maxDepth),
			pipeline.WithCrawlLogger(logger),
		),
		pipeline.NewSummarizeStep(),
	)

	return p
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, r *model.CrawlReport) error {
	if r.Summary == nil && r.Stats != nil {
		r.Summary = model.NewSummary(r.Stats)
	}

	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	case cfg.ExcelReport:
		w = report.NewExcelWriter(output)
	default:
		w = report.NewSimpleWriter(output)
	}

	_, err := w.Write(r)
	return err
}

// saveCrawlReport saves the crawl report to the database if enabled.
// If db is nil, this function is a no-op.
func saveCrawlReport(ctx context.Context, db *database.CrawlDB, r *model.CrawlReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if r.Summary == nil && r.Stats != nil {
		r.Summary = model.NewSummary(r.Stats)
	}

	if err := db.SaveCrawlReport(ctx, r); err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	logger.Info("crawl report saved to database", "server", r.Endpoint.Key())
	return nil
}
