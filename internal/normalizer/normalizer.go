package normalizer

import (
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

// ErrorReporter receives records that failed validation.
type ErrorReporter interface {
	ReportValidationError(e domain.ValidationError)
}

// Normalizer turns raw JSON records into validated domain events. One bad
// record never blocks its siblings: failures are reported and the record is
// dropped from the output batch.
type Normalizer struct {
	reporter ErrorReporter
	log      *zap.Logger
}

// New creates a normalizer.
func New(reporter ErrorReporter, log *zap.Logger) *Normalizer {
	return &Normalizer{
		reporter: reporter,
		log:      log,
	}
}

// rawEventJSON mirrors the wire schema. Pointer fields distinguish a missing
// field from a zero value.
type rawEventJSON struct {
	Timestamp  *string `json:"timestamp"`
	CustomerID *string `json:"customer_id"`
	EventType  *string `json:"event_type"`
	ProductID  *string `json:"product_id"`
	Quantity   *int64  `json:"quantity"`
}

// Timestamps come in two shapes: RFC 3339 from upstream producers and the
// naive ISO-8601 form the archive generator emits.
var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

// Normalize decodes and validates one batch of raw records.
func (n *Normalizer) Normalize(batch domain.RawBatch) []domain.RawEvent {
	events := make([]domain.RawEvent, 0, len(batch))
	for _, rec := range batch {
		ev, verr := normalizeRecord(rec)
		if verr != nil {
			n.reporter.ReportValidationError(*verr)
			n.log.Debug("Dropped invalid record",
				zap.String("location", rec.Location.String()),
				zap.String("kind", string(verr.Kind)),
				zap.String("field", verr.Field))
			continue
		}
		events = append(events, ev)
	}
	return events
}

func normalizeRecord(rec domain.RawRecord) (domain.RawEvent, *domain.ValidationError) {
	fail := func(kind domain.ValidationKind, field string) (domain.RawEvent, *domain.ValidationError) {
		return domain.RawEvent{}, &domain.ValidationError{Kind: kind, Field: field, Location: rec.Location}
	}

	var raw rawEventJSON
	if err := json.Unmarshal(rec.Data, &raw); err != nil {
		field := ""
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = typeErr.Field
		}
		return fail(domain.ValidationInvalidType, field)
	}

	switch {
	case raw.Timestamp == nil:
		return fail(domain.ValidationMissingField, "timestamp")
	case raw.CustomerID == nil:
		return fail(domain.ValidationMissingField, "customer_id")
	case raw.EventType == nil:
		return fail(domain.ValidationMissingField, "event_type")
	case raw.ProductID == nil:
		return fail(domain.ValidationMissingField, "product_id")
	}

	ts, err := parseTimestamp(*raw.Timestamp)
	if err != nil {
		return fail(domain.ValidationInvalidType, "timestamp")
	}

	ev := domain.RawEvent{
		Timestamp:  ts,
		CustomerID: *raw.CustomerID,
		EventType:  domain.EventType(*raw.EventType),
		ProductID:  *raw.ProductID,
		Location:   rec.Location,
	}

	if ev.EventType == domain.EventPurchase {
		if raw.Quantity == nil {
			return fail(domain.ValidationMissingField, "quantity")
		}
		if *raw.Quantity <= 0 {
			return fail(domain.ValidationInvalidQuantity, "quantity")
		}
		ev.Quantity = *raw.Quantity
	}

	return ev, nil
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
