package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/danielesteban/nyc/internal/adapters/mq/queue"
	"github.com/danielesteban/nyc/internal/adapters/repository"
	"github.com/danielesteban/nyc/internal/adapters/source"
	"github.com/danielesteban/nyc/internal/adapters/storage"
	"github.com/danielesteban/nyc/internal/app"
	"github.com/danielesteban/nyc/internal/config"
	"github.com/danielesteban/nyc/internal/domain/filter"
	"github.com/danielesteban/nyc/internal/domain/geometry"
	"github.com/danielesteban/nyc/internal/progress"
	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/danielesteban/nyc/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one batch and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("buildings", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", os.Getenv(config.EnvConfigPath), "path to a YAML config file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// Logs go to stderr so they never interleave with the status line.
	if err := logger.InitWithWriter(stderr); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		_, _ = io.WriteString(stderr, "failed to initialize logging: "+err.Error()+"\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.LoadFile(ctx, *configPath)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	st := storage.New()
	pipeline, err := newPipeline(cfg, st, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to create pipeline", logger.Error(err))
		return 1
	}

	reporter := progress.New(
		progress.WithWriter(stdout),
		progress.WithInterval(time.Duration(cfg.ProgressIntervalMS)*time.Millisecond),
	)
	progressCtx, stopProgress := context.WithCancel(ctx)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		reporter.Run(progressCtx, pipeline.Progress)
	}()

	res, err := pipeline.Run(ctx)
	stopProgress()
	<-progressDone

	updateSystemMetrics()
	writeMetrics(ctx, cfg, loggerInstance)

	if err != nil {
		loggerInstance.Error(ctx, "run failed", logger.Error(err))
		return 1
	}

	reporter.Finish(ctx, pipeline.Progress())
	loggerInstance.Info(ctx, "buildings written",
		logger.String("run_id", res.RunID),
		logger.String("output", cfg.Output),
		logger.Int("buildings", res.Written),
		logger.Float64("centroid_x", res.Centroid[0]),
		logger.Float64("centroid_y", res.Centroid[1]),
	)
	return 0
}

// newPipeline builds the source, filter and pipeline described by cfg.
func newPipeline(cfg *config.Config, st *storage.Storage, log logger.Logger) (*app.Pipeline, error) {
	format, err := source.ParseFormat(cfg.InputFormat)
	if err != nil {
		return nil, err
	}
	projection, err := geometry.ParseProjection(cfg.Projection)
	if err != nil {
		return nil, err
	}

	src, err := source.New(st, cfg.Input,
		source.WithFormat(format),
		source.WithHeightProperty(cfg.HeightProperty),
		source.WithLevelHeight(cfg.LevelHeight),
		source.WithLogger(log.Named("source")),
	)
	if err != nil {
		return nil, err
	}

	return app.New(src, st,
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithSourceBuffer(cfg.SourceBuffer),
		app.WithProjection(projection),
		app.WithFilter(filter.New(filter.WithinRadius(cfg.FilterOriginLat, cfg.FilterOriginLon, cfg.FilterRadiusKm))),
		app.WithOutput(cfg.Output),
		app.WithStore(repository.NewMemoryStore(repository.WithInitialCapacity(cfg.StoreCapacity))),
		app.WithQueue(queue.NewInMemoryQueue(queue.WithInitialCapacity(cfg.PendingCapacity))),
		app.WithLogger(log.Named("pipeline")),
	), nil
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func writeMetrics(ctx context.Context, cfg *config.Config, log logger.Logger) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		log.Warn(ctx, "failed to write metrics textfile", logger.Error(err))
	}
}
