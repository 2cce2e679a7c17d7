package registry

import (
	"context"
	"log/slog"

	"intake/internal/registry/cache"
	"intake/internal/registry/handler"
	"intake/internal/registry/loader"
	"intake/internal/registry/metrics"
	"intake/internal/registry/ports"
	"intake/internal/registry/service"
)

// Service exposes institution search over the registry index.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// Config selects the registry file and the core query threshold.
type Config struct {
	Path           string
	MinQueryLength int
}

// NewService constructs the loader, cache and service for the registry file
// named in cfg. Nothing is read until the first search.
func NewService(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Service {
	l := loader.New(cfg.Path,
		loader.WithLogger(logger),
		loader.WithMetrics(m),
	)
	return service.New(cache.New(l),
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithMinQueryLength(cfg.MinQueryLength),
	)
}

// NewHandler constructs the HTTP handler for s. When invalidator is non-nil
// admin invalidations are routed through it instead of the service, so they
// can be broadcast to other instances.
func NewHandler(s *Service, invalidator ports.Invalidator, logger *slog.Logger, minQueryLength int) *Handler {
	var svc handler.Service = s
	if invalidator != nil {
		svc = invalidatingService{Service: s, invalidator: invalidator}
	}
	return handler.New(svc, logger, handler.WithMinQueryLength(minQueryLength))
}

type invalidatingService struct {
	*service.Service
	invalidator ports.Invalidator
}

func (s invalidatingService) Invalidate(ctx context.Context, source string) {
	s.invalidator.Invalidate(ctx, source)
}
