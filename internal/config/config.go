package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceEnvironment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	DataDir            string `envconfig:"DATA_DIR" default:"data"`
	ArchivePattern     string `envconfig:"ARCHIVE_PATTERN" default:"events_week_*.zip"`
	CatalogDBPath      string `envconfig:"CATALOG_DB_PATH" default:"catalog.db"`
	ReportPath         string `envconfig:"REPORT_PATH" default:"sales_report.csv"`
	PipelineBatchSize  int    `envconfig:"PIPELINE_BATCH_SIZE" default:"500"`
	PipelineWorkers    int    `envconfig:"PIPELINE_WORKERS" default:"4"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.PipelineBatchSize < 1 {
		return nil, fmt.Errorf("PIPELINE_BATCH_SIZE must be positive, got %d", cfg.PipelineBatchSize)
	}
	if cfg.PipelineWorkers < 1 {
		return nil, fmt.Errorf("PIPELINE_WORKERS must be positive, got %d", cfg.PipelineWorkers)
	}

	return &cfg, nil
}
