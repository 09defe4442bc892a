package generator

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

const (
	customerCount = 100
	productCount  = 50

	timestampLayout = "2006-01-02T15:04:05"
)

// Config controls the shape of the generated archive set.
type Config struct {
	StartDate     time.Time
	OutputDir     string
	Weeks         int
	DaysPerWeek   int
	PartsPerDay   int
	EventsPerPart int
	// Seed makes the output reproducible; zero seeds from the clock.
	Seed int64
}

// Generator writes nested zip archives of mock e-commerce events: one
// master zip per week, one inner zip per day, each day holding JSON
// part-files with arrays of event objects.
type Generator struct {
	cfg Config
	rng *rand.Rand
	log *zap.Logger
}

// New creates a generator. Zero-value shape fields get the defaults used by
// the historical data set (7 days, 5 parts, 100 events).
func New(cfg Config, log *zap.Logger) *Generator {
	if cfg.DaysPerWeek == 0 {
		cfg.DaysPerWeek = 7
	}
	if cfg.PartsPerDay == 0 {
		cfg.PartsPerDay = 5
	}
	if cfg.EventsPerPart == 0 {
		cfg.EventsPerPart = 100
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		log: log,
	}
}

// Run writes one master zip per week under the output directory.
func (g *Generator) Run() error {
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for i := 0; i < g.cfg.Weeks; i++ {
		weekStart := g.cfg.StartDate.AddDate(0, 0, 7*i)
		if err := g.writeWeek(weekStart); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeWeek(start time.Time) error {
	_, week := start.ISOWeek()
	name := fmt.Sprintf("events_week_%d.zip", week)
	path := filepath.Join(g.cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for d := 0; d < g.cfg.DaysPerWeek; d++ {
		day := start.AddDate(0, 0, d)
		data, err := g.dayArchive(day)
		if err != nil {
			return err
		}

		entry, err := zw.Create(fmt.Sprintf("events_%s.zip", day.Format("2006-01-02")))
		if err != nil {
			return fmt.Errorf("failed to add daily archive to %s: %w", name, err)
		}
		if _, err := entry.Write(data); err != nil {
			return fmt.Errorf("failed to write daily archive to %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", name, err)
	}

	g.log.Info("Generated master archive",
		zap.String("archive", name),
		zap.Int("days", g.cfg.DaysPerWeek))
	return nil
}

// dayArchive builds one inner daily zip entirely in memory.
func (g *Generator) dayArchive(day time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	current := day
	for p := 1; p <= g.cfg.PartsPerDay; p++ {
		events := make([]map[string]any, 0, g.cfg.EventsPerPart)
		for i := 0; i < g.cfg.EventsPerPart; i++ {
			current = current.Add(time.Duration(1+g.rng.Intn(60)) * time.Second)
			events = append(events, g.randomEvent(current))
		}

		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode part events: %w", err)
		}

		entry, err := zw.Create(fmt.Sprintf("part-%03d.json", p))
		if err != nil {
			return nil, fmt.Errorf("failed to add part-file: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write part-file: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize daily archive: %w", err)
	}
	return buf.Bytes(), nil
}

// randomEvent builds one event object. The mix mirrors the observed
// production distribution: 70% views, 25% cart adds, 5% purchases.
func (g *Generator) randomEvent(ts time.Time) map[string]any {
	var eventType domain.EventType
	switch r := g.rng.Float64(); {
	case r < 0.70:
		eventType = domain.EventViewProduct
	case r < 0.95:
		eventType = domain.EventAddToCart
	default:
		eventType = domain.EventPurchase
	}

	event := map[string]any{
		"timestamp":   ts.Format(timestampLayout),
		"customer_id": fmt.Sprintf("c%03d", 1+g.rng.Intn(customerCount)),
		"event_type":  eventType,
		"product_id":  fmt.Sprintf("p%03d", 1+g.rng.Intn(productCount)),
	}
	if eventType == domain.EventPurchase {
		event["quantity"] = 1 + g.rng.Intn(3)
	}
	return event
}

var sampleCategories = []string{"Electronics", "Books", "Home", "Toys", "Clothing"}

var sampleSegments = []domain.Segment{
	domain.SegmentVIP,
	domain.SegmentNew,
	domain.SegmentRegular,
	domain.SegmentLapsed,
}

// SampleCustomers returns the deterministic customer universe matching the
// generated events (c001..c100), segments assigned round-robin.
func SampleCustomers() []domain.CustomerRecord {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	customers := make([]domain.CustomerRecord, 0, customerCount)
	for i := 1; i <= customerCount; i++ {
		customers = append(customers, domain.CustomerRecord{
			CustomerID: fmt.Sprintf("c%03d", i),
			JoinDate:   base.AddDate(0, 0, i*3),
			Segment:    sampleSegments[(i-1)%len(sampleSegments)],
		})
	}
	return customers
}

// SampleProducts returns the deterministic product universe matching the
// generated events (p001..p050), categories assigned round-robin.
func SampleProducts() []domain.ProductRecord {
	products := make([]domain.ProductRecord, 0, productCount)
	for i := 1; i <= productCount; i++ {
		price := decimal.NewFromInt(int64(4 + i)).Sub(decimal.NewFromFloat(0.01))
		products = append(products, domain.ProductRecord{
			ProductID:   fmt.Sprintf("p%03d", i),
			ProductName: fmt.Sprintf("Product %03d", i),
			Category:    sampleCategories[(i-1)%len(sampleCategories)],
			Price:       price,
		})
	}
	return products
}
