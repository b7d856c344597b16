package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-usage-stats/internal/config"
	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/pipeline"
	"go-usage-stats/internal/store"
	"go-usage-stats/pkg/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	path := flag.String("path", "", "run one ingestion path now: monthly or hourly")
	tick := flag.Bool("tick", false, "run one scheduler tick with empty markers")
	seedDir := flag.String("seed", "", "load <task_type>.json or .csv documents from this directory into an empty store")
	exportDir := flag.String("export", "", "write the current documents to this directory")
	format := flag.String("format", pipeline.FormatJSON, "export format: json or csv")
	flag.Parse()

	os.Exit(run(*configPath, *path, *tick, *seedDir, *exportDir, *format))
}

// run performs the requested operations in order: seed, path, tick,
// export. It returns the process exit code so deferred cleanup runs.
func run(configPath, path string, tick bool, seedDir, exportDir, format string) int {
	log := logging.Component("ingest")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		return 1
	}
	logging.Init(cfg.Logging.Level, cfg.Logging.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if seedDir != "" {
		results, err := pipeline.SeedDocuments(ctx, st, utils.NewOutputManager(seedDir))
		if err != nil {
			log.WithError(err).Error("seed failed")
			return 1
		}
		printJSON(results)
	}

	fetcher := pipeline.NewFetcher(&http.Client{}, cfg.Fetch.RetryConfig())
	ingestor := pipeline.NewIngestor(fetcher, st, cfg.Source, pipeline.NewRunTracker(st))

	switch path {
	case "":
	case "monthly":
		res, err := ingestor.IngestMonthly(ctx)
		printJSON(res)
		if err != nil {
			log.WithError(err).Error("monthly ingestion failed")
			return 1
		}
	case "hourly":
		res, err := ingestor.IngestHourly(ctx, time.Now().UTC())
		printJSON(res)
		if err != nil {
			log.WithError(err).Error("hourly ingestion failed")
			return 1
		}
	default:
		log.Errorf("unknown -path %q (want monthly or hourly)", path)
		return 2
	}

	if tick {
		scheduler := pipeline.NewScheduler(ingestor, pipeline.SystemClock{}, cfg.Scheduler.Interval)
		res := scheduler.Tick(ctx, pipeline.NewSchedulerState(cfg.Scheduler.Baseline))
		if res.MonthlyErr != nil || res.HourlyErr != nil {
			log.WithField("monthly_error", res.MonthlyErr).WithField("hourly_error", res.HourlyErr).Error("tick failed")
			return 1
		}
	}

	if exportDir != "" {
		results, err := pipeline.ExportDocuments(ctx, st, utils.NewOutputManager(exportDir), format)
		if err != nil {
			log.WithError(err).Error("export failed")
			return 1
		}
		printJSON(results)
	}
	return 0
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(b))
}
