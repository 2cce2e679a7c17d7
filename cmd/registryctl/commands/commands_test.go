package commands_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/cmd/registryctl/commands"
	"intake/internal/registry/loader"
	"intake/pkg/platform/middleware/admin"
	"intake/pkg/platform/sentinel"
)

const registryFile = "Numer RSPO;Typ;Nazwa typu;Status;Nazwa;Ulica;Numer budynku;Numer lokalu;Kod pocztowy;Poczta;Gmina;Powiat;Miejscowość\n" +
	"1234567;A;B;C;=\"Szkoła Testowa\";E;F;G;H;I;J;K;Warszawa\n" +
	"7654321;A;B;C;=\"Technikum Mechaniczne\";E;F;G;H;I;J;K;Radom\n" +
	"123;broken\n"

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rspo.csv")
	require.NoError(t, os.WriteFile(path, []byte(registryFile), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := commands.New()
	cli.SetOutput(&out)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestInspect(t *testing.T) {
	path := writeRegistry(t)

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)

	snap := loader.New(path).Load(context.Background())
	assert.Contains(t, out, "records:  2")
	assert.Contains(t, out, "skipped:  1")
	assert.Contains(t, out, "short_row: 1")
	assert.Contains(t, out, fmt.Sprintf("checksum: %016x", snap.Checksum))
	assert.NotContains(t, out, "Szkoła Testowa")
}

func TestInspectList(t *testing.T) {
	out, err := execute(t, "inspect", "--list", writeRegistry(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Szkoła Testowa")
	assert.Contains(t, out, "Technikum Mechaniczne")
}

func TestInspectMissingFile(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestSearch(t *testing.T) {
	path := writeRegistry(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "matching name",
			args:     []string{"search", path, "TESTOWA"},
			contains: []string{"1234567", "Szkoła Testowa", "Warszawa"},
			excludes: []string{"Technikum"},
		},
		{
			name:     "no matches",
			args:     []string{"search", path, "nomatch"},
			contains: []string{"no matches"},
		},
		{
			name:     "below the minimum length",
			args:     []string{"search", "--min-length", "5", path, "szko"},
			contains: []string{"no matches"},
		},
		{
			name:     "limit",
			args:     []string{"search", "--min-length", "1", "--limit", "1", path, "e"},
			contains: []string{"1234567"},
			excludes: []string{"7654321"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSearchRequiresTwoArgs(t *testing.T) {
	_, err := execute(t, "search", "only-a-file.csv")
	require.Error(t, err)
}

func TestInvalidateOverHTTP(t *testing.T) {
	var gotToken, gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(admin.TokenHeader)
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"invalidated":true}`))
	}))
	defer srv.Close()

	out, err := execute(t, "invalidate", "--addr", srv.URL+"/", "--token", "secret")
	require.NoError(t, err)

	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "/admin/registry/invalidate", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Contains(t, out, "registry index invalidated")
}

func TestInvalidateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := execute(t, "invalidate", "--addr", srv.URL, "--token", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestInvalidateRequiresToken(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "")

	_, err := execute(t, "invalidate", "--addr", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin token required")
}
