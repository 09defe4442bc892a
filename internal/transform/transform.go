package transform

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

// groupKey identifies one (category, customer segment) aggregation bucket.
type groupKey struct {
	category string
	segment  domain.Segment
}

// groupState holds the running aggregates for one bucket. Distinct customer
// counting keeps the full set of seen IDs so partial accumulators can be
// merged without double-counting.
type groupState struct {
	revenue   decimal.Decimal
	units     int64
	customers map[string]struct{}
}

// Transformer filters purchase events, joins them against the catalog
// snapshot, and folds them into (category, segment) aggregates. The catalog
// maps are read-only after construction and safe to share across workers.
type Transformer struct {
	customers map[string]domain.CustomerRecord
	products  map[string]domain.ProductRecord
	log       *zap.Logger
}

// New creates a transformer over the given catalog snapshot.
func New(customers []domain.CustomerRecord, products []domain.ProductRecord, log *zap.Logger) *Transformer {
	t := &Transformer{
		customers: make(map[string]domain.CustomerRecord, len(customers)),
		products:  make(map[string]domain.ProductRecord, len(products)),
		log:       log,
	}
	for _, c := range customers {
		t.customers[c.CustomerID] = c
	}
	for _, p := range products {
		t.products[p.ProductID] = p
	}
	return t
}

// Accumulator holds partial aggregates for a subset of the event batches.
// It is not safe for concurrent use: each worker owns one exclusively and
// merges it into the final accumulator under a single serialization point.
type Accumulator struct {
	groups map[groupKey]*groupState

	// EventsSeen counts all events folded in, purchases or not.
	EventsSeen int64
	// Purchases counts the purchase events that survived both joins.
	Purchases int64
	// OrphanedProducts counts purchases referencing an unknown product_id.
	OrphanedProducts int64
	// OrphanedCustomers counts purchases referencing an unknown customer_id.
	OrphanedCustomers int64
}

// NewAccumulator creates an empty accumulator.
func (t *Transformer) NewAccumulator() *Accumulator {
	return &Accumulator{groups: make(map[groupKey]*groupState)}
}

// Accumulate folds one batch of events into acc. Non-purchase events are
// filtered out; purchases referencing an unknown product or customer are
// dropped and counted as orphaned.
func (t *Transformer) Accumulate(acc *Accumulator, events []domain.RawEvent) {
	for _, ev := range events {
		acc.EventsSeen++
		if ev.EventType != domain.EventPurchase {
			continue
		}

		product, ok := t.products[ev.ProductID]
		if !ok {
			acc.OrphanedProducts++
			t.log.Debug("Dropping purchase with unknown product",
				zap.String("product_id", ev.ProductID),
				zap.String("location", ev.Location.String()))
			continue
		}

		customer, ok := t.customers[ev.CustomerID]
		if !ok {
			acc.OrphanedCustomers++
			t.log.Debug("Dropping purchase with unknown customer",
				zap.String("customer_id", ev.CustomerID),
				zap.String("location", ev.Location.String()))
			continue
		}

		key := groupKey{category: product.Category, segment: customer.Segment}
		g := acc.groups[key]
		if g == nil {
			g = &groupState{revenue: decimal.Zero, customers: make(map[string]struct{})}
			acc.groups[key] = g
		}

		g.revenue = g.revenue.Add(product.Price.Mul(decimal.NewFromInt(ev.Quantity)))
		g.units += ev.Quantity
		g.customers[ev.CustomerID] = struct{}{}
		acc.Purchases++
	}
}

// Merge folds other into acc. Revenue and unit sums add; customer sets are
// unioned, never summed, so a customer appearing in several workers' input
// is counted once.
func (acc *Accumulator) Merge(other *Accumulator) {
	for key, src := range other.groups {
		dst := acc.groups[key]
		if dst == nil {
			acc.groups[key] = src
			continue
		}
		dst.revenue = dst.revenue.Add(src.revenue)
		dst.units += src.units
		for id := range src.customers {
			dst.customers[id] = struct{}{}
		}
	}
	acc.EventsSeen += other.EventsSeen
	acc.Purchases += other.Purchases
	acc.OrphanedProducts += other.OrphanedProducts
	acc.OrphanedCustomers += other.OrphanedCustomers
}

// Finalize emits one row per non-empty group, sorted by category then
// segment for deterministic, diffable output. Zero surviving purchases
// yield an empty, valid result.
func (acc *Accumulator) Finalize() []domain.AggregateRow {
	rows := make([]domain.AggregateRow, 0, len(acc.groups))
	for key, g := range acc.groups {
		rows = append(rows, domain.AggregateRow{
			Category:        key.category,
			CustomerSegment: key.segment,
			TotalRevenue:    g.revenue,
			UnitsSold:       g.units,
			UniqueCustomers: len(g.customers),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].CustomerSegment < rows[j].CustomerSegment
	})
	return rows
}
