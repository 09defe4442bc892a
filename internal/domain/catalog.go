package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Segment is the customer classification from the catalog.
type Segment string

const (
	SegmentVIP     Segment = "VIP"
	SegmentNew     Segment = "New"
	SegmentRegular Segment = "Regular"
	SegmentLapsed  Segment = "Lapsed"
)

// CustomerRecord is one row of the customers reference table.
type CustomerRecord struct {
	CustomerID string
	JoinDate   time.Time
	Segment    Segment
}

// ProductRecord is one row of the products reference table.
type ProductRecord struct {
	ProductID   string
	ProductName string
	Category    string
	Price       decimal.Decimal
}
