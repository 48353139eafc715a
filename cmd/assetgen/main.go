package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gipity/assetgen/internal/catalog"
	"github.com/gipity/assetgen/internal/config"
	"github.com/gipity/assetgen/internal/engine"
	"github.com/gipity/assetgen/internal/logging"
	"github.com/gipity/assetgen/internal/notify"
	"github.com/gipity/assetgen/internal/publish"
	"github.com/gipity/assetgen/internal/runner"
	"github.com/gipity/assetgen/internal/store"
	"github.com/gipity/assetgen/internal/telemetry"
	"github.com/gipity/assetgen/internal/watch"
)

const serviceName = "assetgen"

func main() {
	watchMode := flag.Bool("watch", false, "regenerate whenever master images change")
	flag.Parse()

	// A .env file is a development convenience; absence is the normal case.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Log.Level, cfg.Log.Console)

	if err := run(cfg, logger, *watchMode); err != nil {
		logger.Error().Err(err).Msg("assetgen failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger, watchMode bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  serviceName,
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	if err := engine.Startup(); err != nil {
		return fmt.Errorf("start render runtime: %w", err)
	}
	defer engine.Shutdown()

	set, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}
	renderer, err := engine.New()
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	r, err := runner.New(runner.Options{
		Root:        cfg.Run.Root,
		MastersDir:  cfg.Run.MastersDir,
		Concurrency: cfg.Run.Concurrency,
	}, set, renderer, logger)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	logger.Info().
		Str("root", cfg.Run.Root).
		Int("catalogs", len(set.Catalogs())).
		Int("tasks", set.TotalTasks()).
		Bool("watch", watchMode).
		Msg("starting assetgen")

	var publisher *publish.Publisher
	if cfg.Publish.Enabled {
		publisher, err = publish.NewPublisher(publish.Config{
			Endpoint: cfg.Publish.Endpoint,
			Access:   cfg.Publish.AccessKey,
			Secret:   cfg.Publish.SecretKey,
			Bucket:   cfg.Publish.Bucket,
			UseSSL:   cfg.Publish.UseSSL,
			Prefix:   cfg.Publish.Prefix,
		})
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		if err := publisher.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
	}

	notifier := notify.NewClient(notify.Config{SigningSecret: cfg.Notify.Secret})
	runs := store.NewRunStore()

	runOnce := func(ctx context.Context) error {
		report, err := r.Run(ctx)
		if err != nil {
			return err
		}
		runs.SetLatest(report)

		if publisher != nil {
			uploaded, err := publisher.PublishRun(ctx, cfg.Run.Root, report)
			if err != nil {
				logger.Error().Err(err).Int("uploaded", uploaded).Msg("publish failed")
			} else {
				logger.Info().Int("uploaded", uploaded).Str("bucket", publisher.Bucket()).Msg("outputs published")
			}
		}

		if cfg.Notify.URL != "" {
			if err := notifier.Send(ctx, cfg.Notify.URL, notify.EventRunCompleted, notify.Summarize(report)); err != nil {
				logger.Error().Err(err).Msg("webhook delivery failed")
			}
		}
		return nil
	}

	if !watchMode {
		return runOnce(ctx)
	}

	// Watch mode: generate once up front, then follow master edits.
	if err := runOnce(ctx); err != nil {
		return err
	}

	statusServer := watch.NewStatusServer(logger, runs, r.MetricsHandler())
	httpServer := &http.Server{
		Addr:         cfg.Watch.StatusAddr,
		Handler:      statusServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Watch.StatusAddr).Msg("status server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("status server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("status server shutdown failed")
		}
	}()

	mastersDir := cfg.Run.MastersDir
	if !filepath.IsAbs(mastersDir) {
		mastersDir = filepath.Join(cfg.Run.Root, mastersDir)
	}
	watcher := watch.New(mastersDir, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, runOnce, logger)
	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("shutting down")
	return nil
}
