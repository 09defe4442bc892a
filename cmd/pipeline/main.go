package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/catalog"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/config"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/logger"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/pipeline"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/report"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.ServiceEnvironment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting sales report pipeline",
		zap.String("environment", cfg.ServiceEnvironment),
		zap.String("data_dir", cfg.DataDir),
		zap.Int("batch_size", cfg.PipelineBatchSize),
		zap.Int("workers", cfg.PipelineWorkers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the catalog; a missing or unreadable catalog is fatal.
	store, err := catalog.Open(cfg.CatalogDBPath, log)
	if err != nil {
		log.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close catalog", zap.Error(err))
		}
	}()

	sink := report.NewCSVSink(cfg.ReportPath, log)

	p := pipeline.New(pipeline.Config{
		BatchSize: cfg.PipelineBatchSize,
		Workers:   cfg.PipelineWorkers,
	}, store, sink, log)

	res, err := p.Run(ctx, cfg.DataDir, cfg.ArchivePattern)
	if err != nil {
		log.Fatal("Pipeline run failed", zap.Error(err))
	}

	log.Info("Sales report pipeline finished",
		zap.String("run_id", res.RunID),
		zap.String("report", cfg.ReportPath),
		zap.Int("rows", len(res.Rows)))
}
