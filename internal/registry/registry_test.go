package registry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/registry/metrics"
	"intake/pkg/testutil"
)

type countingInvalidator struct {
	sources []string
}

func (c *countingInvalidator) Invalidate(_ context.Context, source string) {
	c.sources = append(c.sources, source)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rspo.csv")
	content := "Numer RSPO;Typ;Nazwa typu;Status;Nazwa;Ulica;Numer budynku;Numer lokalu;Kod pocztowy;Poczta;Gmina;Powiat;Miejscowość\n" +
		"1234567;A;B;C;=\"Szkoła Testowa\";E;F;G;H;I;J;K;Warszawa\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(Config{Path: path, MinQueryLength: 2}, logger, metrics.New(nil))
}

func TestNewService(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, 2, svc.MinQueryLength())
	got, err := svc.Search(context.Background(), "testowa")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Warszawa", got[0].City)
}

func TestNewHandlerRoutesInvalidation(t *testing.T) {
	tests := []struct {
		name          string
		invalidator   *countingInvalidator
		wantForwarded []string
	}{
		{name: "service invalidates directly", invalidator: nil},
		{name: "invalidator receives admin requests", invalidator: &countingInvalidator{}, wantForwarded: []string{"http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			var h *Handler
			if tt.invalidator != nil {
				h = NewHandler(svc, tt.invalidator, logger, 3)
			} else {
				h = NewHandler(svc, nil, logger, 3)
			}
			r := chi.NewRouter()
			h.RegisterAdmin(r)

			rec := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/admin/registry/invalidate"))
			testutil.AssertStatus(t, rec, http.StatusOK)

			if tt.invalidator != nil {
				assert.Equal(t, tt.wantForwarded, tt.invalidator.sources)
			}
		})
	}
}
