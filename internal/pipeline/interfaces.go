package pipeline

import (
	"context"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

// CatalogExtractor loads the read-only reference tables for a run.
type CatalogExtractor interface {
	// LoadCustomers returns the complete customers snapshot.
	LoadCustomers(ctx context.Context) ([]domain.CustomerRecord, error)

	// LoadProducts returns the complete products snapshot.
	LoadProducts(ctx context.Context) ([]domain.ProductRecord, error)
}

// ReportSink durably persists the final aggregated table. A write failure
// is fatal to the run.
type ReportSink interface {
	Write(ctx context.Context, rows []domain.AggregateRow) error
}
