package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	pgRepo "guildsync/internal/infra/adapter/persistence/postgres"
	"guildsync/internal/infra/db"
	"guildsync/internal/infra/discord"
	"guildsync/internal/infra/fetcher"
	"guildsync/internal/infra/scraper"
	workerPkg "guildsync/internal/infra/worker"
	"guildsync/internal/observability/tracing"
	"guildsync/internal/usecase/enrich"
	"guildsync/internal/usecase/extract"
	"guildsync/internal/usecase/feed"
	"guildsync/internal/usecase/publish"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("rss_schedule", workerConfig.RSSCronSchedule),
		slog.String("gallery_schedule", workerConfig.GalleryCronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("sync_timeout", workerConfig.SyncTimeout),
		slog.Duration("feed_timeout", workerConfig.FeedTimeout),
		slog.Int("ops_port", workerConfig.OpsPort))

	svc := setupSyncService(logger, database, workerConfig)

	// Ops server: probes, Prometheus metrics, manual gallery checks.
	opsAddr := fmt.Sprintf(":%d", workerConfig.OpsPort)
	opsServer := workerPkg.NewOpsServer(opsAddr, logger)
	opsServer.Handle("/metrics", promhttp.Handler())
	opsServer.Handle("/ops/gallery/test", tracing.Middleware(galleryCheckHandler(logger, svc)))
	go func() {
		if err := opsServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server failed", slog.Any("error", err))
		}
	}()

	startCronWorker(ctx, logger, svc, workerConfig, workerMetrics, opsServer)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and applies migrations. The
// worker owns the schema; the migration is additive and idempotent, so
// running it on every start is safe.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupSyncService wires the full sync pipeline: guild repository, RSS and
// gallery fetchers, the extraction cascade, metadata enrichment, and the
// Discord publisher.
func setupSyncService(logger *slog.Logger, database *sql.DB, cfg *workerPkg.WorkerConfig) *feed.Service {
	guildRepo := pgRepo.NewGuildRepo(database)

	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		logger.Error("DISCORD_BOT_TOKEN is required")
		os.Exit(1)
	}
	discordClient := discord.NewClient(discord.Config{BotToken: botToken})
	publisher := publish.NewPublisher(discordClient, discordClient)

	rssFetcher := scraper.NewRSSFetcher(createHTTPClient())

	pageConfig, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("invalid page fetch configuration, using defaults", slog.Any("error", err))
		pageConfig = fetcher.DefaultConfig()
	}
	pageFetcher := fetcher.NewPageFetcher(pageConfig)
	galleryFetcher := scraper.NewGalleryFetcher(pageFetcher)

	logger.Info("sync pipeline initialized",
		slog.Duration("gallery_timeout", pageConfig.GalleryTimeout),
		slog.Duration("metadata_timeout", pageConfig.MetadataTimeout))

	svc := feed.NewService(
		guildRepo,
		rssFetcher,
		galleryFetcher,
		extract.NewExtractor(),
		enrich.NewEnricher(pageFetcher),
		publisher,
	)
	svc.FeedTimeout = cfg.FeedTimeout
	return svc
}

// createHTTPClient creates an HTTP client with timeouts and connection pooling.
// TLS 1.2+ is enforced.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// startCronWorker registers the two sync jobs and blocks until shutdown.
// Each job carries its own re-entrancy guard: a pass that outlives its
// schedule slot must not stack a second pass on top of itself, or the same
// post could be fetched twice before the first pass records it in the
// ledger.
func startCronWorker(ctx context.Context, logger *slog.Logger, svc *feed.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, opsServer *workerPkg.OpsServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	var rssRunning, galleryRunning atomic.Bool

	if _, err := c.AddFunc(cfg.RSSCronSchedule, func() {
		runSyncJob(ctx, logger, "rss", &rssRunning, cfg, metrics, svc.SyncRSS)
	}); err != nil {
		logger.Error("failed to add rss cron job", slog.Any("error", err))
		os.Exit(1)
	}
	if _, err := c.AddFunc(cfg.GalleryCronSchedule, func() {
		runSyncJob(ctx, logger, "gallery", &galleryRunning, cfg, metrics, svc.SyncGalleries)
	}); err != nil {
		logger.Error("failed to add gallery cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	opsServer.SetReady(true)
	logger.Info("worker started",
		slog.String("rss_schedule", cfg.RSSCronSchedule),
		slog.String("gallery_schedule", cfg.GalleryCronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()

	opsServer.SetReady(false)
	logger.Info("shutdown signal received, waiting for running jobs")
	<-c.Stop().Done()
	logger.Info("worker stopped")
}

// runSyncJob executes one sync pass with overlap protection and a timeout.
func runSyncJob(ctx context.Context, logger *slog.Logger, job string, running *atomic.Bool, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, pass func(context.Context) (*feed.SyncStats, error)) {
	if !running.CompareAndSwap(false, true) {
		logger.Warn("previous sync pass still running, skipping", slog.String("job", job))
		metrics.RecordOverlapSkip(job)
		return
	}
	defer running.Store(false)

	startTime := time.Now()
	logger.Info("sync pass started", slog.String("job", job))

	jobCtx, cancel := context.WithTimeout(ctx, cfg.SyncTimeout)
	defer cancel()

	stats, err := pass(jobCtx)
	metrics.RecordDuration(job, time.Since(startTime).Seconds())
	if err != nil {
		logger.Error("sync pass failed", slog.String("job", job), slog.Any("error", err))
		metrics.RecordRun(job, "failure")
		return
	}

	metrics.RecordRun(job, "success")
	metrics.RecordLastSuccess(job)

	logger.Info("sync pass completed",
		slog.String("job", job),
		slog.Int("guilds", stats.Guilds),
		slog.Int("feeds_checked", stats.FeedsChecked),
		slog.Int("feeds_skipped", stats.FeedsSkipped),
		slog.Int("posts_published", stats.PostsPublished),
		slog.Int("feed_errors", stats.FeedErrors),
		slog.Duration("duration", stats.Duration),
	)
}
