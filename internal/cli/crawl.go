package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkarwowski/adscout/internal/analyze"
	"github.com/mkarwowski/adscout/internal/api"
	"github.com/mkarwowski/adscout/internal/config"
	"github.com/mkarwowski/adscout/internal/deliver"
	"github.com/mkarwowski/adscout/internal/fetch"
	"github.com/mkarwowski/adscout/internal/logging"
	"github.com/mkarwowski/adscout/internal/pipeline"
	"github.com/mkarwowski/adscout/internal/scrape"
)

// newCrawlCmd creates and configures the 'crawl' subcommand, which runs one
// full crawl session over the configured queries.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl session",
		Long: `Pages through search results for every configured query, extracts up to
max_ads_per_query listings each, scores them and posts the results to the
configured webhook. The ops HTTP server runs for the duration of the
session.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runSession(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("crawl session: %w", err)
	}

	logger.Info("crawl command finished")
	return nil
}

// runSession wires the pipeline and runs the crawl beside the ops server.
func runSession(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	channel, err := analyze.NewGeminiChannel(ctx, cfg.Model)
	if err != nil {
		return err
	}
	defer channel.Close() //nolint:errcheck

	renderer := fetch.NewRenderer(cfg.Crawler.UserAgent, cfg.Crawler.PageTimeout, cfg.Crawler.DomainQPS, logger)
	defer renderer.Close()

	prober := fetch.NewProber(cfg.Crawler.UserAgent, cfg.Crawler.PageTimeout, logger)
	fetcher := fetch.NewClient(prober, renderer, cfg.Crawler.PromotionMinBytes, logger)

	crawler := scrape.NewCrawler(
		cfg.Crawler,
		fetcher,
		scrape.NewRobotsGate(cfg.Robots.URL, cfg.Crawler.UserAgent, cfg.Robots.Respect, logger),
		scrape.NewLimiter(cfg.Rate, logger),
		scrape.NewReviewQueue(cfg.Review.File, logger),
		scrape.NewExtractor(cfg.Selectors, logger),
		logger,
	)

	var images pipeline.ImageMirror
	if cfg.Images.Download {
		images = fetch.NewImageDownloader(cfg.Images.Dir, cfg.Images.MaxBytes, logger)
	}

	processor := pipeline.NewProcessor(
		analyze.NewAnalyzer(channel, cfg.Model, logger),
		deliver.NewSender(cfg.Webhook, deliver.NewFailStore(cfg.Crawler.FailureDir, logger), logger),
		images,
		"olx",
		logger,
	)

	server := api.NewServer(cfg.Server.Port, cfg.Review.File, logger)

	// The ops server lives only as long as the crawl session.
	sessionCtx, endSession := context.WithCancel(ctx)
	defer endSession()

	g, gctx := errgroup.WithContext(sessionCtx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		defer endSession()
		logger.Info("crawl session starting",
			zap.Strings("queries", cfg.Crawler.Queries),
			zap.Int("max_ads_per_query", cfg.Crawler.MaxAdsPerQuery))
		return crawler.Run(gctx, processor.Process)
	})

	return g.Wait()
}
