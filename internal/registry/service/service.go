package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"intake/internal/registry/metrics"
	"intake/internal/registry/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/requestcontext"
)

// MaxResults caps the number of records a single search returns.
const MaxResults = 50

// DefaultMinQueryLength is the core matcher threshold used when none is configured.
const DefaultMinQueryLength = 2

var tracer = otel.Tracer("intake/internal/registry/service")

// Index is the snapshot holder the service searches.
type Index interface {
	Get(ctx context.Context) *models.Snapshot
	Peek() *models.Snapshot
	Invalidate()
}

// Status describes the index without forcing a build.
type Status struct {
	Built       bool
	Source      string
	Records     int
	Skipped     int
	Checksum    uint64
	LoadedAt    time.Time
	Unavailable bool
}

// Service answers institution name queries against the registry index.
type Service struct {
	index          Index
	minQueryLength int
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMinQueryLength sets the core matcher threshold in runes.
func WithMinQueryLength(n int) Option {
	return func(s *Service) {
		s.minQueryLength = n
	}
}

// New constructs a Service over index.
func New(index Index, opts ...Option) *Service {
	s := &Service{
		index:          index,
		minQueryLength: DefaultMinQueryLength,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinQueryLength returns the core matcher threshold.
func (s *Service) MinQueryLength() int {
	return s.minQueryLength
}

// Search returns up to MaxResults records whose name contains query,
// ignoring case, in registry file order. Queries shorter than the minimum
// length return no records without touching the index. The only error is a
// cancelled request context.
func (s *Service) Search(ctx context.Context, query string) ([]models.Record, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.minQueryLength {
		return []models.Record{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "search cancelled")
	}

	ctx, span := tracer.Start(ctx, "registry.Search")
	defer span.End()
	start := time.Now()

	snap := s.index.Get(ctx)
	results := Match(snap, query, s.minQueryLength, MaxResults)

	span.SetAttributes(attribute.Int("registry.results", len(results)))
	s.metrics.ObserveSearch(time.Since(start), len(results))
	s.logger.DebugContext(ctx, "registry search",
		"request_id", requestcontext.RequestID(ctx),
		"query_length", utf8.RuneCountInString(query),
		"results", len(results),
	)
	return results, nil
}

// Invalidate drops the index so the next search reloads the registry file.
// source names the origin of the request for logs and metrics.
func (s *Service) Invalidate(ctx context.Context, source string) {
	s.index.Invalidate()
	s.metrics.IncrementInvalidation(source)
	s.logger.InfoContext(ctx, "registry index invalidated",
		"request_id", requestcontext.RequestID(ctx),
		"source", source,
	)
}

// Status reports on the current index without building it.
func (s *Service) Status() Status {
	snap := s.index.Peek()
	if snap == nil {
		return Status{}
	}
	return Status{
		Built:       true,
		Source:      snap.Source,
		Records:     snap.Len(),
		Skipped:     snap.SkippedTotal(),
		Checksum:    snap.Checksum,
		LoadedAt:    snap.LoadedAt,
		Unavailable: snap.Err != nil,
	}
}

// Match filters snap by case-insensitive substring containment on the record
// name and keeps at most limit records in snapshot order. It trims and folds
// query itself and returns an empty slice for queries shorter than minLength
// or a nil snapshot.
func Match(snap *models.Snapshot, query string, minLength, limit int) []models.Record {
	query = strings.TrimSpace(query)
	if snap == nil || limit <= 0 || utf8.RuneCountInString(query) < minLength {
		return []models.Record{}
	}
	needle := strings.ToLower(query)

	results := make([]models.Record, 0, min(limit, 16))
	for i := range snap.Records {
		if strings.Contains(snap.FoldedName(i), needle) {
			results = append(results, snap.Records[i])
			if len(results) == limit {
				break
			}
		}
	}
	return results
}
