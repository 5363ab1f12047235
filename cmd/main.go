// Command curator fetches the matching NOMAD population and writes
// reproducible author-diverse stratified samples for each configured size.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/EBB2675/curator/internal/adapters/manifest"
	"github.com/EBB2675/curator/internal/adapters/nomad"
	app "github.com/EBB2675/curator/internal/app"
	"github.com/EBB2675/curator/internal/config"
	"github.com/EBB2675/curator/pkg/logger"
	"github.com/EBB2675/curator/pkg/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	client := nomad.NewClient(
		nomad.WithBaseURL(cfg.APIURL),
		nomad.WithOwner(cfg.Owner),
		nomad.WithProgramName(cfg.ProgramName),
		nomad.WithPageSize(cfg.PageSize),
		nomad.WithBackoffFactory(func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Duration(cfg.FetchRetryInitialMS) * time.Millisecond
			b.MaxElapsedTime = time.Duration(cfg.FetchRetryMaxElapsedMS) * time.Millisecond
			return b
		}),
	)

	writer := manifest.NewWriter(
		manifest.WithOutputDir(cfg.OutputDir),
	)

	svc := app.New(
		app.WithFetcher(client),
		app.WithWriter(writer),
		app.WithSeed(cfg.Seed),
		app.WithTargetSizes(cfg.TargetSizes),
		app.WithSampleWorkers(cfg.SampleWorkers),
	)

	log.Info(ctx, "starting curation run",
		logger.String("run_id", svc.RunID()),
		logger.String("api_url", cfg.APIURL),
		logger.String("owner", cfg.Owner),
		logger.String("program_name", cfg.ProgramName),
		logger.Any("target_sizes", cfg.TargetSizes),
		logger.Int64("seed", cfg.Seed))

	if err := svc.Run(ctx); err != nil {
		log.Error(ctx, "curation run failed", logger.Error(err))
		return 1
	}

	logMetricsSummary(ctx, log)
	log.Info(ctx, "curation run finished", logger.String("run_id", svc.RunID()))
	return 0
}

// logMetricsSummary dumps run counters at debug level. A batch run has no
// scrape endpoint, so the registry is drained into the log instead.
func logMetricsSummary(ctx context.Context, log logger.Logger) {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		log.Warn(ctx, "failed to gather metrics", logger.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				log.Debug(ctx, "metric", logger.String("name", mf.GetName()), logger.Any("value", m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				log.Debug(ctx, "metric", logger.String("name", mf.GetName()), logger.Any("value", m.GetGauge().GetValue()))
			}
		}
	}
}
