package pipeline

import (
	"sync"

	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

// maxSamples caps how many failure details are retained per kind. Counts
// are always exact; samples exist for operator triage.
const maxSamples = 20

// Summary accumulates the non-fatal failures observed during a run. It is
// safe for concurrent use by the walker and normalizer workers.
type Summary struct {
	mu sync.Mutex

	archiveErrors    int64
	partErrors       int64
	validationErrors int64

	archiveSamples    []string
	partSamples       []string
	validationSamples []string
}

// NewSummary creates an empty run summary.
func NewSummary() *Summary {
	return &Summary{}
}

// ReportArchiveError records an unreadable outer or inner archive.
func (s *Summary) ReportArchiveError(e domain.ArchiveError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiveErrors++
	if len(s.archiveSamples) < maxSamples {
		s.archiveSamples = append(s.archiveSamples, e.Error())
	}
}

// ReportPartError records a part-file that was not a JSON array.
func (s *Summary) ReportPartError(e domain.PartParseError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partErrors++
	if len(s.partSamples) < maxSamples {
		s.partSamples = append(s.partSamples, e.Error())
	}
}

// ReportValidationError records a record that failed schema validation.
func (s *Summary) ReportValidationError(e domain.ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validationErrors++
	if len(s.validationSamples) < maxSamples {
		s.validationSamples = append(s.validationSamples, e.Error())
	}
}

// ArchiveErrors returns the number of skipped archives.
func (s *Summary) ArchiveErrors() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archiveErrors
}

// PartErrors returns the number of skipped part-files.
func (s *Summary) PartErrors() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partErrors
}

// ValidationErrors returns the number of dropped records.
func (s *Summary) ValidationErrors() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validationErrors
}

// Fields renders the summary as structured log fields.
func (s *Summary) Fields() []zap.Field {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := []zap.Field{
		zap.Int64("archive_errors", s.archiveErrors),
		zap.Int64("part_errors", s.partErrors),
		zap.Int64("validation_errors", s.validationErrors),
	}
	if len(s.archiveSamples) > 0 {
		fields = append(fields, zap.Strings("archive_error_samples", s.archiveSamples))
	}
	if len(s.partSamples) > 0 {
		fields = append(fields, zap.Strings("part_error_samples", s.partSamples))
	}
	if len(s.validationSamples) > 0 {
		fields = append(fields, zap.Strings("validation_error_samples", s.validationSamples))
	}
	return fields
}
