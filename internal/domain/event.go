package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies the kind of a raw tracking event.
type EventType string

const (
	EventViewProduct EventType = "view_product"
	EventAddToCart   EventType = "add_to_cart"
	EventPurchase    EventType = "purchase"
)

// RawEvent is a single validated event recovered from an archive part-file.
// Quantity is populated only for purchase events.
type RawEvent struct {
	Timestamp  time.Time
	CustomerID string
	EventType  EventType
	ProductID  string
	Quantity   int64
	Location   ArchiveLocation
}

// ArchiveLocation records the provenance of a raw record inside the nested
// archive hierarchy. It is kept for error reporting only and never appears
// in the final report.
type ArchiveLocation struct {
	Outer string
	Inner string
	Part  string
	Index int
}

func (l ArchiveLocation) String() string {
	return fmt.Sprintf("%s/%s/%s[%d]", l.Outer, l.Inner, l.Part, l.Index)
}

// RawRecord is one undecoded event object plus its provenance.
type RawRecord struct {
	Data     json.RawMessage
	Location ArchiveLocation
}

// RawBatch is a bounded group of raw records handed from the archive walker
// to the normalizer.
type RawBatch []RawRecord
