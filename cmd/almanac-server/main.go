package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/signalsfoundry/almanac/body"
	"github.com/signalsfoundry/almanac/earth"
	"github.com/signalsfoundry/almanac/ephem"
	"github.com/signalsfoundry/almanac/internal/cache"
	"github.com/signalsfoundry/almanac/internal/config"
	"github.com/signalsfoundry/almanac/internal/logging"
	"github.com/signalsfoundry/almanac/internal/observability"
	"github.com/signalsfoundry/almanac/internal/obslog"
	"github.com/signalsfoundry/almanac/internal/server"
	"github.com/signalsfoundry/almanac/internal/skywatch"
	"github.com/signalsfoundry/almanac/sites"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewFromEnv().Error(context.Background(), "failed to load configuration",
			logging.String("error", err.Error()))
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, AddSource: true})
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	apiMetrics, err := observability.NewAPICollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	pipelineMetrics, err := observability.NewPipelineCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise pipeline metrics", logging.String("error", err.Error()))
		os.Exit(1)
	}

	siteReg, err := sites.NewRegistry()
	if err != nil {
		log.Error(ctx, "failed to load site registry", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SitesFile != "" {
		if err := siteReg.MergeFile(cfg.SitesFile); err != nil {
			log.Error(ctx, "failed to merge extra sites", logging.String("path", cfg.SitesFile), logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if cfg.EphemerisDir != "" {
		os.Setenv(ephem.EphemDirEnv, cfg.EphemerisDir)
	}
	if len(cfg.EphemerisURLs) > 0 {
		if err := prefetchEphemerides(ctx, cfg, pipelineMetrics, log); err != nil {
			log.Error(ctx, "failed to prefetch ephemeris documents", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if cfg.DefaultEphemeris != "" {
		if err := ephem.SetDefault(cfg.DefaultEphemeris); err != nil {
			log.Error(ctx, "failed to select default ephemeris",
				logging.String("ephemeris", cfg.DefaultEphemeris),
				logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var queryLog *obslog.Log
	if cfg.QueryLogPath != "" {
		queryLog, err = obslog.Open(cfg.QueryLogPath)
		if err != nil {
			log.Error(ctx, "failed to open query log", logging.String("path", cfg.QueryLogPath), logging.String("error", err.Error()))
			os.Exit(1)
		}
		defer queryLog.Close()
	}

	var skyLoc *earth.Location
	if cfg.SkySite != "" {
		loc, err := siteReg.Location(cfg.SkySite)
		if err != nil {
			log.Error(ctx, "unknown sky snapshot site", logging.String("site", cfg.SkySite), logging.String("error", err.Error()))
			os.Exit(1)
		}
		skyLoc = &loc
	}
	sky := skywatch.New(skywatch.Config{
		Site:     cfg.SkySite,
		Location: skyLoc,
		Interval: time.Duration(cfg.SkyRefreshSeconds) * time.Second,
		Logger:   log,
		Metrics:  pipelineMetrics,
	})

	apiMetrics.SetCatalogCounts(len(body.All()), len(siteReg.Names()), 1+len(cfg.EphemerisURLs))

	srv := server.New(server.Options{
		Logger:   log,
		Metrics:  apiMetrics,
		Sites:    siteReg,
		QueryLog: queryLog,
		Sky:      sky,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := sky.Run(stopCtx); err != nil && err != context.Canceled {
			log.Error(ctx, "sky watcher exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(ctx, "starting almanac server",
		logging.String("addr", cfg.Addr),
		logging.String("default_ephemeris", ephem.DefaultName()),
	)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http server exited", logging.String("error", err.Error()))
			stop()
		}
	}()

	<-stopCtx.Done()
	log.Info(ctx, "shutting down almanac server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

// prefetchEphemerides downloads the configured ephemeris documents into the
// ephemeris directory so they resolve by name, recording fetch counts and
// the cache hit ratio.
func prefetchEphemerides(ctx context.Context, cfg *config.Config, metrics *observability.PipelineCollector, log logging.Logger) error {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return err
	}
	index, err := cache.Open(filepath.Join(cfg.CacheDir, "downloads.db"))
	if err != nil {
		return err
	}
	defer index.Close()

	fetcher := ephem.NewFetcher(cfg.EphemerisDir, index, log)
	for _, url := range cfg.EphemerisURLs {
		if _, err := fetcher.Fetch(ctx, url); err != nil {
			return err
		}
		metrics.IncEphemerisFetches()
	}
	requests, hits := fetcher.Stats()
	if requests > 0 {
		metrics.SetFetchCacheHitRatio(float64(hits) / float64(requests))
	}
	return nil
}
