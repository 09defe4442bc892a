package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/catalog"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/generator"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/logger"
)

func main() {
	var (
		weeks       = flag.Int("weeks", 1, "number of weekly master archives to generate")
		outputDir   = flag.String("out", "data", "directory for the generated archives")
		startDate   = flag.String("start-date", "2023-10-23", "start date of the first week (YYYY-MM-DD)")
		seed        = flag.Int64("seed", 0, "random seed; 0 seeds from the clock")
		seedCatalog = flag.String("seed-catalog", "", "path of a catalog database to create and seed with the sample customers and products")
	)
	flag.Parse()

	log, err := logger.New("development")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatal("Invalid start date, expected YYYY-MM-DD", zap.String("start_date", *startDate))
	}

	gen := generator.New(generator.Config{
		StartDate: start,
		OutputDir: *outputDir,
		Weeks:     *weeks,
		Seed:      *seed,
	}, log)

	if err := gen.Run(); err != nil {
		log.Fatal("Data generation failed", zap.Error(err))
	}
	log.Info("Data generation complete",
		zap.Int("weeks", *weeks),
		zap.String("output_dir", *outputDir))

	if *seedCatalog == "" {
		return
	}

	ctx := context.Background()
	store, err := catalog.Open(*seedCatalog, log)
	if err != nil {
		log.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize catalog schema", zap.Error(err))
	}
	if err := store.InsertCustomers(ctx, generator.SampleCustomers()); err != nil {
		log.Fatal("Failed to seed customers", zap.Error(err))
	}
	if err := store.InsertProducts(ctx, generator.SampleProducts()); err != nil {
		log.Fatal("Failed to seed products", zap.Error(err))
	}
	log.Info("Catalog seeded", zap.String("path", *seedCatalog))
}
