package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
	"github.com/uladzislaufarshakou/ecommerce-task/internal/report"
)

// MockCatalogExtractor is a mock implementation of CatalogExtractor
type MockCatalogExtractor struct {
	mock.Mock
}

func (m *MockCatalogExtractor) LoadCustomers(ctx context.Context) ([]domain.CustomerRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CustomerRecord), args.Error(1)
}

func (m *MockCatalogExtractor) LoadProducts(ctx context.Context) ([]domain.ProductRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductRecord), args.Error(1)
}

// MockReportSink is a mock implementation of ReportSink
type MockReportSink struct {
	mock.Mock
}

func (m *MockReportSink) Write(ctx context.Context, rows []domain.AggregateRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func testCustomers() []domain.CustomerRecord {
	return []domain.CustomerRecord{
		{CustomerID: "c1", JoinDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), Segment: domain.SegmentVIP},
		{CustomerID: "c2", JoinDate: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), Segment: domain.SegmentNew},
	}
}

func testProducts() []domain.ProductRecord {
	return []domain.ProductRecord{
		{ProductID: "p1", ProductName: "Laptop", Category: "Electronics", Price: decimal.RequireFromString("100.00")},
		{ProductID: "p2", ProductName: "Novel", Category: "Books", Price: decimal.RequireFromString("19.99")},
	}
}

func happyCatalog() *MockCatalogExtractor {
	catalog := new(MockCatalogExtractor)
	catalog.On("LoadCustomers", mock.Anything).Return(testCustomers(), nil)
	catalog.On("LoadProducts", mock.Anything).Return(testProducts(), nil)
	return catalog
}

func buildInner(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		entry, err := zw.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeOuter(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		entry, err := zw.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// writeTestData lays out one outer archive holding a mix of valid purchases,
// a view event, an orphaned purchase, and an invalid record.
func writeTestData(t *testing.T, dir string) {
	t.Helper()

	writeOuter(t, filepath.Join(dir, "events_week_43.zip"), map[string][]byte{
		"events_2023-10-23.zip": buildInner(t, map[string]string{
			"part-001.json": `[
				{"timestamp":"2023-10-23T10:00:00","customer_id":"c1","event_type":"purchase","product_id":"p1","quantity":2},
				{"timestamp":"2023-10-23T10:01:00","customer_id":"c2","event_type":"view_product","product_id":"p1"},
				{"timestamp":"2023-10-23T10:02:00","customer_id":"c1","event_type":"purchase","product_id":"p999","quantity":1}
			]`,
			"part-002.json": `[
				{"timestamp":"2023-10-23T11:00:00","customer_id":"c2","event_type":"purchase","product_id":"p2","quantity":3},
				{"timestamp":"2023-10-23T11:01:00","event_type":"purchase","product_id":"p1","quantity":1}
			]`,
		}),
	})
}

func runConfig(batchSize int) Config {
	return Config{BatchSize: batchSize, Workers: 2}
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	reportPath := filepath.Join(dir, "sales_report.csv")
	sink := report.NewCSVSink(reportPath, zap.NewNop())

	p := New(runConfig(2), happyCatalog(), sink, zap.NewNop())
	res, err := p.Run(context.Background(), dir, "events_week_*.zip")
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(4), res.EventsSeen)
	assert.Equal(t, int64(2), res.Purchases)
	assert.Equal(t, int64(1), res.OrphanedProducts)
	assert.Equal(t, int64(0), res.OrphanedCustomers)
	assert.Equal(t, int64(1), res.Summary.ValidationErrors())

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	expected := "category,customer_segment,total_revenue,units_sold,unique_customers\n" +
		"Books,New,59.97,3,1\n" +
		"Electronics,VIP,200.00,2,1\n"
	assert.Equal(t, expected, string(data))
}

func TestRun_IdempotentOutput(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	reportPath := filepath.Join(dir, "sales_report.csv")
	sink := report.NewCSVSink(reportPath, zap.NewNop())
	p := New(runConfig(2), happyCatalog(), sink, zap.NewNop())

	_, err := p.Run(context.Background(), dir, "events_week_*.zip")
	require.NoError(t, err)
	first, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), dir, "events_week_*.zip")
	require.NoError(t, err)
	second, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_BatchSizeInvariance(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	runWith := func(batchSize int) []domain.AggregateRow {
		sink := new(MockReportSink)
		sink.On("Write", mock.Anything, mock.Anything).Return(nil)

		p := New(runConfig(batchSize), happyCatalog(), sink, zap.NewNop())
		res, err := p.Run(context.Background(), dir, "events_week_*.zip")
		require.NoError(t, err)
		return res.Rows
	}

	small := runWith(1)
	large := runWith(100000)

	require.Equal(t, len(small), len(large))
	for i := range small {
		assert.Equal(t, small[i].Category, large[i].Category)
		assert.Equal(t, small[i].CustomerSegment, large[i].CustomerSegment)
		assert.True(t, small[i].TotalRevenue.Equal(large[i].TotalRevenue))
		assert.Equal(t, small[i].UnitsSold, large[i].UnitsSold)
		assert.Equal(t, small[i].UniqueCustomers, large[i].UniqueCustomers)
	}
}

func TestRun_CorruptInnerArchive(t *testing.T) {
	dir := t.TempDir()

	writeOuter(t, filepath.Join(dir, "events_week_43.zip"), map[string][]byte{
		"events_2023-10-23.zip": []byte("garbage bytes, not a zip"),
		"events_2023-10-24.zip": buildInner(t, map[string]string{
			"part-001.json": `[{"timestamp":"2023-10-24T10:00:00","customer_id":"c1","event_type":"purchase","product_id":"p1","quantity":1}]`,
		}),
	})

	sink := new(MockReportSink)
	sink.On("Write", mock.Anything, mock.MatchedBy(func(rows []domain.AggregateRow) bool {
		return len(rows) == 1
	})).Return(nil)

	p := New(runConfig(10), happyCatalog(), sink, zap.NewNop())
	res, err := p.Run(context.Background(), dir, "events_week_*.zip")

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Summary.ArchiveErrors())
	assert.Equal(t, int64(1), res.Purchases)
	sink.AssertExpectations(t)
}

func TestRun_EmptyInputProducesEmptyReport(t *testing.T) {
	dir := t.TempDir()

	sink := new(MockReportSink)
	sink.On("Write", mock.Anything, mock.MatchedBy(func(rows []domain.AggregateRow) bool {
		return len(rows) == 0
	})).Return(nil)

	p := New(runConfig(10), happyCatalog(), sink, zap.NewNop())
	res, err := p.Run(context.Background(), dir, "events_week_*.zip")

	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	sink.AssertExpectations(t)
}

func TestRun_CatalogFailureIsFatal(t *testing.T) {
	catalog := new(MockCatalogExtractor)
	catalog.On("LoadCustomers", mock.Anything).Return(nil, errors.New("connection refused"))

	sink := new(MockReportSink)

	p := New(runConfig(10), catalog, sink, zap.NewNop())
	_, err := p.Run(context.Background(), t.TempDir(), "events_week_*.zip")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load customers")
	sink.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestRun_SinkFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	sink := new(MockReportSink)
	sink.On("Write", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	p := New(runConfig(10), happyCatalog(), sink, zap.NewNop())
	_, err := p.Run(context.Background(), dir, "events_week_*.zip")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write report")
}

func TestRun_MultipleOuterArchives(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"events_week_42.zip", "events_week_43.zip"} {
		writeOuter(t, filepath.Join(dir, name), map[string][]byte{
			"events_2023-10-23.zip": buildInner(t, map[string]string{
				"part-001.json": `[{"timestamp":"2023-10-23T10:00:00","customer_id":"c1","event_type":"purchase","product_id":"p1","quantity":1}]`,
			}),
		})
	}

	sink := new(MockReportSink)
	sink.On("Write", mock.Anything, mock.Anything).Return(nil)

	p := New(runConfig(10), happyCatalog(), sink, zap.NewNop())
	res, err := p.Run(context.Background(), dir, "events_week_*.zip")

	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	// Same customer across both archives still counts once.
	assert.Equal(t, 1, res.Rows[0].UniqueCustomers)
	assert.Equal(t, int64(2), res.Rows[0].UnitsSold)
	assert.True(t, res.Rows[0].TotalRevenue.Equal(decimal.RequireFromString("200.00")))
}
