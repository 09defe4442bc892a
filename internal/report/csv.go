package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

var header = []string{"category", "customer_segment", "total_revenue", "units_sold", "unique_customers"}

// CSVSink persists the aggregated sales report as a delimited file.
type CSVSink struct {
	path string
	log  *zap.Logger
}

// NewCSVSink creates a sink writing to path.
func NewCSVSink(path string, log *zap.Logger) *CSVSink {
	return &CSVSink{path: path, log: log}
}

// Write persists rows. The report is staged to a temp file and renamed into
// place so a failed run never leaves a partial report behind.
func (s *CSVSink) Write(ctx context.Context, rows []domain.AggregateRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".report-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeRows(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}

	s.log.Info("Report written",
		zap.String("path", s.path),
		zap.Int("rows", len(rows)))
	return nil
}

func writeRows(f *os.File, rows []domain.AggregateRow) error {
	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Category,
			string(row.CustomerSegment),
			row.TotalRevenue.StringFixed(2),
			strconv.FormatInt(row.UnitsSold, 10),
			strconv.Itoa(row.UniqueCustomers),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
