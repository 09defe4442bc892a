package domain

import "github.com/shopspring/decimal"

// AggregateRow is one row of the final sales report: the aggregates for a
// single (category, customer segment) pair. Only pairs reached by at least
// one joinable purchase event produce a row.
type AggregateRow struct {
	Category        string
	CustomerSegment Segment
	TotalRevenue    decimal.Decimal
	UnitsSold       int64
	UniqueCustomers int
}
