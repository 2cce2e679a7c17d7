// Package httptransport assembles the public HTTP surface: middleware chain,
// operational endpoints and the registry routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"intake/internal/platform/metrics"
	"intake/internal/platform/middleware"
	"intake/internal/registry"
	"intake/pkg/platform/httputil"
	adminmw "intake/pkg/platform/middleware/admin"
	"intake/pkg/platform/middleware/requesttime"
)

// HealthCheck reports the state of an optional dependency.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Registry   *registry.Handler
	AdminToken string
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// Checks are reported by /health under their map key.
	Checks map[string]HealthCheck
}

// NewRouter wires all endpoints behind the shared middleware chain. Admin
// routes additionally require the admin token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.LatencyMiddleware(d.Metrics))

	r.Get("/health", health(d.Checks))
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	d.Registry.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(d.AdminToken, d.Logger))
		d.Registry.RegisterAdmin(r)
	})
	return r
}

// health always answers 200; a failing optional dependency is reported in
// the body since search keeps working without it.
func health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status[name] = "unavailable"
			} else {
				status[name] = "ok"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
