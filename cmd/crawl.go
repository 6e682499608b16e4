package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/clock"
	"github.com/minhtran-vn/topcv-crawler/internal/config"
	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
	"github.com/minhtran-vn/topcv-crawler/internal/dataset"
	"github.com/minhtran-vn/topcv-crawler/internal/fetcher"
	"github.com/minhtran-vn/topcv-crawler/internal/storage"
	"github.com/minhtran-vn/topcv-crawler/internal/telemetry"
	"github.com/minhtran-vn/topcv-crawler/internal/topcv"
)

type crawlFlags struct {
	keywords  []string
	startPage int
	endPage   int
	outputDir string
	crawlDate string
	schedule  string
}

// newCrawlCmd creates the 'crawl' subcommand. Without --schedule it runs
// one crawl and exits; with --schedule it keeps running the crawl on the
// given cron spec and serves Prometheus metrics.
func newCrawlCmd() *cobra.Command {
	var flags crawlFlags
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs the crawl-and-extract pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawlCommand(cmd, flags)
		},
	}
	cmd.Flags().StringSliceVarP(&flags.keywords, "keywords", "k", nil, "search keywords (overrides config)")
	cmd.Flags().IntVar(&flags.startPage, "start-page", 0, "first search page, 1-indexed (overrides config)")
	cmd.Flags().IntVar(&flags.endPage, "end-page", 0, "last search page, inclusive (overrides config)")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "artifact directory (overrides config)")
	cmd.Flags().StringVar(&flags.crawlDate, "crawl-date", "", "run date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&flags.schedule, "schedule", "", "cron spec for repeated runs, e.g. '@every 24h'")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, flags crawlFlags) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	cfg = applyFlagOverrides(cmd, cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if flags.schedule != "" || cfg.Schedule.Spec != "" {
		spec := flags.schedule
		if spec == "" {
			spec = cfg.Schedule.Spec
		}
		return runScheduled(ctx, spec, cfg, pipeline, logger)
	}
	return pipeline.runOnce(ctx, cfg)
}

func applyFlagOverrides(cmd *cobra.Command, cfg config.Config, flags crawlFlags) config.Config {
	if cmd.Flags().Changed("keywords") {
		cfg.Crawler.Keywords = flags.keywords
	}
	if cmd.Flags().Changed("start-page") {
		cfg.Crawler.StartPage = flags.startPage
	}
	if cmd.Flags().Changed("end-page") {
		cfg.Crawler.EndPage = flags.endPage
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir = flags.outputDir
	}
	if cmd.Flags().Changed("crawl-date") {
		cfg.Crawler.CrawlDate = flags.crawlDate
	}
	return cfg
}

// pipeline bundles the built collaborators for one or more runs.
type pipeline struct {
	site     *topcv.Extractor
	client   *fetcher.Client
	uploader storage.Provider
	folder   string
	logger   *zap.Logger
}

func buildPipeline(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pipeline, error) {
	site, err := topcv.NewExtractor(cfg.Crawler.BaseURL, logger.Named("topcv"))
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	client, err := fetcher.New(fetcher.Config{
		MinDelay:   cfg.MinDelay(),
		MaxDelay:   cfg.MaxDelay(),
		MaxRetries: cfg.HTTP.MaxRetries,
		Timeout:    cfg.Timeout(),
		UserAgents: cfg.HTTP.UserAgents,
	}, logger.Named("fetcher"))
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	uploader, err := buildUploader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init uploader: %w", err)
	}

	return &pipeline{
		site:     site,
		client:   client,
		uploader: uploader,
		folder:   cfg.Storage.Folder,
		logger:   logger,
	}, nil
}

func buildUploader(ctx context.Context, cfg config.Config) (storage.Provider, error) {
	switch cfg.Storage.Provider {
	case "gcs":
		return storage.NewGCSProvider(ctx, cfg.Storage.GCSBucket)
	case "local":
		return storage.NewLocalProvider(cfg.Storage.LocalDir)
	default:
		return storage.NoOpProvider{}, nil
	}
}

// runOnce executes a single crawl, assembles datasets, and hands them to
// the uploader. On cancellation the partial result is still assembled.
// Upload failures are reported but never turn a finished crawl into a
// failure.
func (p *pipeline) runOnce(ctx context.Context, cfg config.Config) error {
	orch := crawler.NewOrchestrator(
		cfg.CrawlerOptions(),
		p.client,
		p.site,
		p.site,
		clock.NewSystem(),
		p.logger.Named("crawler"),
	)

	result, runErr := orch.Run(ctx)
	if runErr != nil {
		var cfgErr *crawler.ConfigError
		if errors.As(runErr, &cfgErr) {
			telemetry.ObserveRun("failed")
			return runErr
		}
		telemetry.ObserveRun("canceled")
	} else {
		telemetry.ObserveRun("succeeded")
	}

	assembler, err := dataset.New(dataset.Config{
		Dir:    cfg.Output.Dir,
		Prefix: cfg.Output.Prefix,
		XLSX:   cfg.Output.XLSX,
	}, p.logger.Named("dataset"))
	if err != nil {
		return err
	}
	artifacts, err := assembler.Write(result)
	if err != nil {
		return fmt.Errorf("assemble datasets: %w", err)
	}

	logReport(p.logger, result.Report(crawler.CountPolicy(cfg.Report.CountPolicy)))
	p.uploadArtifacts(artifacts)

	if runErr != nil {
		return fmt.Errorf("crawl interrupted (partial datasets emitted): %w", runErr)
	}
	return nil
}

// uploadArtifacts pushes every artifact through the configured provider.
// A fresh context keeps uploads of partial results working after the crawl
// context was canceled.
func (p *pipeline) uploadArtifacts(artifacts []dataset.Artifact) {
	uploadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, artifact := range artifacts {
		uri, err := p.uploader.Upload(uploadCtx, artifact.Path, p.folder)
		if err != nil {
			p.logger.Error("artifact upload failed (crawl output kept locally)",
				zap.String("path", artifact.Path),
				zap.Error(err),
			)
			continue
		}
		p.logger.Info("artifact uploaded",
			zap.String("path", artifact.Path),
			zap.String("uri", uri),
		)
	}
}

func logReport(logger *zap.Logger, report crawler.RunReport) {
	for _, kw := range report.Keywords {
		logger.Info("keyword summary",
			zap.String("keyword", kw.Keyword),
			zap.Int("records", kw.Records),
			zap.Int("partial", kw.Partial),
			zap.Int("failed_pages", kw.FailedPages),
			zap.Int("pages_fetched", kw.PagesFetched),
		)
	}
	logger.Info("run summary",
		zap.String("run_id", report.RunID),
		zap.String("crawl_date", report.CrawlDate),
		zap.String("count_policy", string(report.Policy)),
		zap.Int("total_records", report.TotalRecords),
		zap.Int("unique_records", report.UniqueRecords),
		zap.Int("per_keyword_total", report.PerKeywordTotal),
		zap.Int("partial_records", report.PartialRecords),
		zap.Int("failed_pages", report.FailedPages),
	)
}

// runScheduled keeps running the pipeline on the cron spec until the
// context finishes. The first run fires immediately so a fresh deployment
// produces data without waiting for the first tick.
func runScheduled(ctx context.Context, spec string, cfg config.Config, p *pipeline, logger *zap.Logger) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := p.runOnce(ctx, cfg); err != nil {
			logger.Error("scheduled crawl failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	srv := &http.Server{Addr: cfg.Schedule.MetricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics listener started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	c.Start()
	logger.Info("scheduler started", zap.String("spec", spec))

	if err := p.runOnce(ctx, cfg); err != nil {
		logger.Error("initial crawl failed", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("scheduler stopping")
	stopCtx := c.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
