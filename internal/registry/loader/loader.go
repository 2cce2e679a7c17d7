package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"intake/internal/registry/metrics"
	"intake/internal/registry/models"
	"intake/internal/registry/parser"
	"intake/pkg/platform/sentinel"
)

var tracer = otel.Tracer("intake/internal/registry/loader")

// Loader reads the registry file from disk and builds a Snapshot.
type Loader struct {
	path    string
	columns parser.Columns
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load summaries and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithMetrics sets the registry metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// WithColumns overrides the column layout; DefaultColumns is used otherwise.
func WithColumns(c parser.Columns) Option {
	return func(l *Loader) {
		l.columns = c
	}
}

// WithClock overrides the time source used for LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// New constructs a Loader for the file at path.
func New(path string, opts ...Option) *Loader {
	l := &Loader{
		path:    path,
		columns: parser.DefaultColumns,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and parses the whole registry file. It never fails: an
// unreadable file yields an empty snapshot with Err set, and malformed rows
// are dropped and counted.
func (l *Loader) Load(ctx context.Context) *models.Snapshot {
	ctx, span := tracer.Start(ctx, "registry.Load")
	defer span.End()
	start := time.Now()

	snap, err := l.read()
	if err != nil {
		snap = models.NewSnapshot(nil, l.path, l.now())
		snap.Err = err
		l.logger.ErrorContext(ctx, "registry unavailable, serving empty index",
			"path", l.path,
			"error", err,
		)
		span.RecordError(err)
		l.metrics.ObserveLoad(time.Since(start), 0, false)
		return snap
	}

	for reason, n := range snap.Skipped {
		l.metrics.AddSkipped(string(reason), n)
	}
	l.metrics.ObserveLoad(time.Since(start), snap.Len(), true)
	span.SetAttributes(
		attribute.Int("registry.records", snap.Len()),
		attribute.Int("registry.skipped", snap.SkippedTotal()),
	)
	l.logger.InfoContext(ctx, "registry loaded",
		"path", l.path,
		"records", snap.Len(),
		"skipped", snap.SkippedTotal(),
		"checksum", fmt.Sprintf("%016x", snap.Checksum),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap
}

func (l *Loader) read() (*models.Snapshot, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open registry %s: %w: %w", l.path, sentinel.ErrNotFound, sentinel.ErrUnavailable)
		}
		return nil, fmt.Errorf("open registry %s: %w: %w", l.path, err, sentinel.ErrUnavailable)
	}
	defer f.Close()

	digest := xxhash.New()
	records, skipped, err := Parse(io.TeeReader(f, digest), l.columns)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w: %w", l.path, err, sentinel.ErrUnavailable)
	}

	snap := models.NewSnapshot(records, l.path, l.now())
	snap.Checksum = digest.Sum64()
	snap.Skipped = skipped
	return snap, nil
}

// Parse folds the lines of r into records, dropping the header line, blank
// lines and rows that do not map onto a valid record. Only read errors are
// returned; row problems are counted in the skip map.
func Parse(r io.Reader, columns parser.Columns) ([]models.Record, map[models.SkipReason]int, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	records := make([]models.Record, 0, 1024)
	skipped := map[models.SkipReason]int{}

	header := true
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, err
		}
		eof := err != nil

		if header {
			header = false
		} else if line = strings.TrimRight(line, "\r\n"); strings.TrimSpace(line) != "" {
			rec, reason := columns.ParseLine(line)
			if reason != "" {
				skipped[reason]++
			} else {
				records = append(records, rec)
			}
		}

		if eof {
			return records, skipped, nil
		}
	}
}
