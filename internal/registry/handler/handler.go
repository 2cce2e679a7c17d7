package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"intake/internal/registry/models"
	"intake/internal/registry/service"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
	"intake/pkg/requestcontext"
)

const (
	// DefaultMinQueryLength is the boundary threshold; shorter queries get an
	// empty result without reaching the service.
	DefaultMinQueryLength = 3
	// MaxQueryLength bounds the accepted query in runes.
	MaxQueryLength = 200

	searchFailedMessage = "Institution search is temporarily unavailable. Please try again."
	queryTooLongMessage = "Search query is too long."
)

// Service defines the registry operations the HTTP layer needs.
type Service interface {
	Search(ctx context.Context, query string) ([]models.Record, error)
	Invalidate(ctx context.Context, source string)
	Status() service.Status
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	minQueryLength int
}

// Option configures a Handler.
type Option func(*Handler)

// WithMinQueryLength sets the boundary query threshold in runes.
func WithMinQueryLength(n int) Option {
	return func(h *Handler) {
		h.minQueryLength = n
	}
}

// New constructs a registry handler with its dependencies.
func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:        svc,
		logger:         logger,
		minQueryLength: DefaultMinQueryLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the public search endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/institutions/search", h.HandleSearch)
}

// RegisterAdmin mounts operational endpoints; callers protect them with
// admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/registry/invalidate", h.HandleInvalidate)
	r.Get("/admin/registry/status", h.HandleStatus)
}

// HandleSearch handles GET /institutions/search?q=...
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := requestcontext.Now(ctx)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	length := utf8.RuneCountInString(query)
	if length < h.minQueryLength {
		httputil.WriteJSON(w, http.StatusOK, SearchResponse{Items: []InstitutionResponse{}})
		return
	}
	if length > MaxQueryLength {
		httputil.WriteJSON(w, http.StatusBadRequest, SearchResponse{
			Items:   []InstitutionResponse{},
			Message: queryTooLongMessage,
		})
		return
	}

	records, err := h.service.Search(ctx, query)
	if err != nil {
		h.logger.ErrorContext(ctx, "institution search failed",
			"request_id", requestID,
			"query_length", length,
			"error", err,
		)
		httputil.WriteJSON(w, httputil.StatusFor(dErrors.CodeOf(err)), SearchResponse{
			Items:   []InstitutionResponse{},
			Message: searchFailedMessage,
		})
		return
	}

	h.logger.DebugContext(ctx, "institution search served",
		"request_id", requestID,
		"results", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, SearchResponse{Items: FromRecords(records)})
}

// HandleInvalidate handles POST /admin/registry/invalidate.
func (h *Handler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	h.service.Invalidate(r.Context(), "http")
	httputil.WriteJSON(w, http.StatusOK, InvalidateResponse{Invalidated: true})
}

// HandleStatus handles GET /admin/registry/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromStatus(h.service.Status()))
}
