package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/normalizer"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/transform"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/walker"
)

// Config configures one pipeline run.
type Config struct {
	// BatchSize bounds the number of raw records buffered per worker.
	BatchSize int
	// Workers is the number of outer archives processed concurrently.
	Workers int
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID             string
	Rows              []domain.AggregateRow
	EventsSeen        int64
	Purchases         int64
	OrphanedProducts  int64
	OrphanedCustomers int64
	Summary           *Summary
}

// Pipeline orchestrates one extract-transform-load pass: archive traversal
// and normalization feed per-worker partial accumulators, which are merged
// and written to the report sink.
type Pipeline struct {
	cfg     Config
	catalog CatalogExtractor
	sink    ReportSink
	log     *zap.Logger
}

// New creates a pipeline.
func New(cfg Config, catalog CatalogExtractor, sink ReportSink, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		catalog: catalog,
		sink:    sink,
		log:     log,
	}
}

// Run executes one full pass over the archives under root matching pattern.
// Unreadable archives and invalid records are recorded in the result's
// summary without aborting the run; only catalog load and report write
// failures are fatal.
func (p *Pipeline) Run(ctx context.Context, root, pattern string) (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID))

	customers, err := p.catalog.LoadCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	products, err := p.catalog.LoadProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	log.Info("Catalog snapshot loaded",
		zap.Int("customers", len(customers)),
		zap.Int("products", len(products)))

	summary := NewSummary()
	w := walker.New(walker.Config{BatchSize: p.cfg.BatchSize}, summary, log)
	n := normalizer.New(summary, log)
	t := transform.New(customers, products, log)

	paths, err := w.ListArchives(root, pattern)
	if err != nil {
		return nil, err
	}
	log.Info("Discovered outer archives", zap.Int("count", len(paths)))

	final := t.NewAccumulator()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	// Each worker owns one outer archive end to end: its own zip handles,
	// its own batch channel, its own partial accumulator. Partials meet the
	// final accumulator only under the mutex.
	for _, path := range paths {
		path := path
		g.Go(func() error {
			partial := t.NewAccumulator()

			batches := make(chan domain.RawBatch, 1)
			go w.WalkArchive(gctx, path, batches)

			for batch := range batches {
				t.Accumulate(partial, n.Normalize(batch))
			}

			mu.Lock()
			final.Merge(partial)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := final.Finalize()
	if err := p.sink.Write(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	res := &Result{
		RunID:             runID,
		Rows:              rows,
		EventsSeen:        final.EventsSeen,
		Purchases:         final.Purchases,
		OrphanedProducts:  final.OrphanedProducts,
		OrphanedCustomers: final.OrphanedCustomers,
		Summary:           summary,
	}

	fields := []zap.Field{
		zap.Int("report_rows", len(rows)),
		zap.Int64("events_seen", res.EventsSeen),
		zap.Int64("purchases_aggregated", res.Purchases),
		zap.Int64("orphaned_products", res.OrphanedProducts),
		zap.Int64("orphaned_customers", res.OrphanedCustomers),
	}
	log.Info("Run complete", append(fields, summary.Fields()...)...)

	return res, nil
}
