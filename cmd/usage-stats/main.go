package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "go-usage-stats/docs"
	"go-usage-stats/internal/api"
	"go-usage-stats/internal/api/handler"
	"go-usage-stats/internal/config"
	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/pipeline"
	"go-usage-stats/internal/store"
	"go-usage-stats/pkg/router"
)

// @title Usage Statistics API
// @version 1.0
// @description Hourly connection and monthly download/submission statistics collected from the upstream CSV feeds.
// @BasePath /
func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	noScheduler := flag.Bool("no-scheduler", false, "serve the API without running the ingestion scheduler")
	flag.Parse()

	os.Exit(run(*configPath, *noScheduler))
}

func run(configPath string, noScheduler bool) int {
	log := logging.Component("main")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		return 1
	}
	logging.Init(cfg.Logging.Level, cfg.Logging.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	st, err := store.Open(ctx, store.FromConfig(cfg))
	if err != nil {
		log.WithError(err).Error("failed to open database")
		return 1
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		log.WithError(err).Error("failed to migrate database")
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)

	if !noScheduler {
		fetcher := pipeline.NewFetcher(&http.Client{}, cfg.Fetch.RetryConfig())
		ingestor := pipeline.NewIngestor(fetcher, st, cfg.Source, pipeline.NewRunTracker(st))
		scheduler := pipeline.NewScheduler(ingestor, pipeline.SystemClock{}, cfg.Scheduler.Interval)
		state := pipeline.NewSchedulerState(cfg.Scheduler.Baseline)

		g.Go(func() error {
			if err := scheduler.Run(gctx, state); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	// Create router and register API routes
	r := router.New(logging.Logger)
	api.RegisterRoutes(r, handler.New(st))

	g.Go(func() error {
		return r.Start(gctx, cfg.Server.Listen, cfg.Server.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server exited")
		return 1
	}
	log.Info("shutdown complete")
	return 0
}
