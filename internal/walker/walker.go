package walker

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

// ErrorReporter receives the non-fatal failures encountered during
// traversal. Reported archives and part-files are skipped; the walk
// continues with the remaining input.
type ErrorReporter interface {
	ReportArchiveError(e domain.ArchiveError)
	ReportPartError(e domain.PartParseError)
}

// Config configures the archive walker.
type Config struct {
	// BatchSize is the maximum number of raw records buffered in memory
	// before the in-flight batch is handed to the consumer.
	BatchSize int
}

// Walker traverses the nested archive hierarchy: outer weekly zips holding
// inner daily zips holding JSON part-files, each an array of event objects.
// Traversal order is lexicographic at every level so repeated runs over the
// same input produce the same batch boundaries.
type Walker struct {
	batchSize int
	reporter  ErrorReporter
	log       *zap.Logger
}

// New creates a walker. BatchSize must be positive.
func New(cfg Config, reporter ErrorReporter, log *zap.Logger) *Walker {
	return &Walker{
		batchSize: cfg.BatchSize,
		reporter:  reporter,
		log:       log,
	}
}

// ListArchives returns the outer archive paths under root matching pattern,
// sorted lexicographically.
func (w *Walker) ListArchives(root, pattern string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid archive pattern %q: %w", pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// WalkArchive traverses one outer archive and sends raw record batches to
// out, closing it when the archive is exhausted or ctx is cancelled. The
// outer archive is never extracted to disk; inner archives are decoded from
// memory. Unreadable archives and unparseable part-files are reported and
// skipped.
func (w *Walker) WalkArchive(ctx context.Context, path string, out chan<- domain.RawBatch) {
	defer close(out)

	outer := filepath.Base(path)
	rc, err := zip.OpenReader(path)
	if err != nil {
		w.reporter.ReportArchiveError(domain.ArchiveError{Outer: outer, Err: err})
		w.log.Warn("Skipping unreadable outer archive",
			zap.String("archive", outer),
			zap.Error(err))
		return
	}
	defer rc.Close()

	t := &traversal{walker: w, ctx: ctx, out: out}
	t.reset()

	for _, inner := range sortedFiles(rc.File, ".zip") {
		if ctx.Err() != nil {
			return
		}
		w.walkInner(t, outer, inner)
	}

	t.flush()
}

// walkInner decodes one inner daily archive and feeds its part-files into
// the traversal cursor.
func (w *Walker) walkInner(t *traversal, outer string, inner *zip.File) {
	data, err := readZipEntry(inner)
	if err != nil {
		w.reporter.ReportArchiveError(domain.ArchiveError{Outer: outer, Inner: inner.Name, Err: err})
		w.log.Warn("Skipping unreadable inner archive",
			zap.String("archive", outer),
			zap.String("inner", inner.Name),
			zap.Error(err))
		return
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		w.reporter.ReportArchiveError(domain.ArchiveError{Outer: outer, Inner: inner.Name, Err: err})
		w.log.Warn("Skipping corrupt inner archive",
			zap.String("archive", outer),
			zap.String("inner", inner.Name),
			zap.Error(err))
		return
	}

	for _, part := range sortedFiles(zr.File, ".json") {
		if t.ctx.Err() != nil {
			return
		}
		w.walkPart(t, outer, inner.Name, part)
	}
}

// walkPart decodes one JSON part-file into raw records.
func (w *Walker) walkPart(t *traversal, outer, inner string, part *zip.File) {
	data, err := readZipEntry(part)
	if err == nil {
		var records []json.RawMessage
		if uerr := json.Unmarshal(data, &records); uerr != nil {
			err = uerr
		} else {
			for i, rec := range records {
				ok := t.append(domain.RawRecord{
					Data: rec,
					Location: domain.ArchiveLocation{
						Outer: outer,
						Inner: inner,
						Part:  part.Name,
						Index: i,
					},
				})
				if !ok {
					return
				}
			}
			return
		}
	}

	w.reporter.ReportPartError(domain.PartParseError{Outer: outer, Inner: inner, Part: part.Name, Err: err})
	w.log.Warn("Skipping unparseable part-file",
		zap.String("archive", outer),
		zap.String("inner", inner),
		zap.String("part", part.Name),
		zap.Error(err))
}

// traversal is the cursor over (outer, inner, part) triples. It buffers at
// most batchSize raw records before handing the batch downstream, bounding
// peak memory independent of total archive size.
type traversal struct {
	walker *Walker
	ctx    context.Context
	out    chan<- domain.RawBatch
	batch  domain.RawBatch
}

func (t *traversal) reset() {
	t.batch = make(domain.RawBatch, 0, t.walker.batchSize)
}

// append buffers one record, flushing when the batch limit is reached.
// Returns false if the context was cancelled.
func (t *traversal) append(rec domain.RawRecord) bool {
	t.batch = append(t.batch, rec)
	if len(t.batch) >= t.walker.batchSize {
		return t.flush()
	}
	return true
}

// flush hands the in-flight batch to the consumer.
func (t *traversal) flush() bool {
	if len(t.batch) == 0 {
		return true
	}
	select {
	case <-t.ctx.Done():
		return false
	case t.out <- t.batch:
		t.reset()
		return true
	}
}

// sortedFiles returns the non-directory entries with the given suffix in
// lexicographic name order.
func sortedFiles(files []*zip.File, suffix string) []*zip.File {
	matched := make([]*zip.File, 0, len(files))
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(f.Name, suffix) {
			matched = append(matched, f)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return matched
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}
