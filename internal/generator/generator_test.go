package generator

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type eventJSON struct {
	Timestamp  string `json:"timestamp"`
	CustomerID string `json:"customer_id"`
	EventType  string `json:"event_type"`
	ProductID  string `json:"product_id"`
	Quantity   *int64 `json:"quantity"`
}

// readAllEvents walks one generated master archive and decodes every event.
func readAllEvents(t *testing.T, path string) []eventJSON {
	t.Helper()

	rc, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer rc.Close()

	var events []eventJSON
	for _, inner := range rc.File {
		f, err := inner.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		f.Close()

		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		for _, part := range zr.File {
			pf, err := part.Open()
			require.NoError(t, err)
			partData, err := io.ReadAll(pf)
			require.NoError(t, err)
			pf.Close()

			var partEvents []eventJSON
			require.NoError(t, json.Unmarshal(partData, &partEvents))
			events = append(events, partEvents...)
		}
	}
	return events
}

func TestRun_ArchiveStructure(t *testing.T) {
	dir := t.TempDir()
	gen := New(Config{
		StartDate: time.Date(2023, 10, 23, 0, 0, 0, 0, time.UTC),
		OutputDir: dir,
		Weeks:     1,
		Seed:      42,
	}, zap.NewNop())

	require.NoError(t, gen.Run())

	path := filepath.Join(dir, "events_week_43.zip")
	rc, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer rc.Close()

	require.Len(t, rc.File, 7)
	assert.Equal(t, "events_2023-10-23.zip", rc.File[0].Name)
	assert.Equal(t, "events_2023-10-29.zip", rc.File[6].Name)

	events := readAllEvents(t, path)
	// 7 days x 5 parts x 100 events.
	assert.Len(t, events, 3500)
}

func TestRun_EventShape(t *testing.T) {
	dir := t.TempDir()
	gen := New(Config{
		StartDate: time.Date(2023, 10, 23, 0, 0, 0, 0, time.UTC),
		OutputDir: dir,
		Weeks:     1,
		Seed:      7,
	}, zap.NewNop())
	require.NoError(t, gen.Run())

	events := readAllEvents(t, filepath.Join(dir, "events_week_43.zip"))
	require.NotEmpty(t, events)

	purchases := 0
	for _, ev := range events {
		assert.Regexp(t, `^c\d{3}$`, ev.CustomerID)
		assert.Regexp(t, `^p\d{3}$`, ev.ProductID)
		_, err := time.Parse("2006-01-02T15:04:05", ev.Timestamp)
		assert.NoError(t, err)

		if ev.EventType == "purchase" {
			purchases++
			require.NotNil(t, ev.Quantity)
			assert.GreaterOrEqual(t, *ev.Quantity, int64(1))
			assert.LessOrEqual(t, *ev.Quantity, int64(3))
		} else {
			assert.Nil(t, ev.Quantity)
		}
	}
	assert.Greater(t, purchases, 0)
}

func TestRun_DeterministicWithSeed(t *testing.T) {
	mk := func() []eventJSON {
		dir := t.TempDir()
		gen := New(Config{
			StartDate: time.Date(2023, 10, 23, 0, 0, 0, 0, time.UTC),
			OutputDir: dir,
			Weeks:     1,
			Seed:      1234,
		}, zap.NewNop())
		require.NoError(t, gen.Run())
		return readAllEvents(t, filepath.Join(dir, "events_week_43.zip"))
	}

	assert.Equal(t, mk(), mk())
}

func TestSampleCatalog(t *testing.T) {
	customers := SampleCustomers()
	products := SampleProducts()

	require.Len(t, customers, 100)
	require.Len(t, products, 50)

	seenCustomers := make(map[string]struct{})
	for _, c := range customers {
		seenCustomers[c.CustomerID] = struct{}{}
		assert.Contains(t, sampleSegments, c.Segment)
	}
	assert.Len(t, seenCustomers, 100)

	seenProducts := make(map[string]struct{})
	for _, p := range products {
		seenProducts[p.ProductID] = struct{}{}
		assert.Positive(t, p.Price.Sign())
		assert.Contains(t, sampleCategories, p.Category)
	}
	assert.Len(t, seenProducts, 50)
}
