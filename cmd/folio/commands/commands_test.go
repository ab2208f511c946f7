package commands

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/works":
			_, _ = io.WriteString(w, `[
				{"id":1,"title":"Abajour Tahina","imageUrl":"http://x/1.png","category":{"id":1,"name":"Objets"}},
				{"id":2,"title":"Appartement Paris V","imageUrl":"http://x/2.png","category":{"id":2,"name":"Appartements"}}
			]`)
		case "/categories":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Objets"},{"id":2,"name":"Appartements"}]`)
		case "/users/login":
			_, _ = io.WriteString(w, `{"token":"t1","userId":5}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	base := []string{
		"--log-file", filepath.Join(dir, "folio.log"),
	}
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), err
}

func TestShowWorks_FilteredByCategory(t *testing.T) {
	srv := backend(t)
	t.Setenv("FOLIO_CACHE_BACKEND", "memory")

	out, err := execute(t, "", "show", "works", "--api", srv.URL, "--category", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Appartement Paris V")
	assert.NotContains(t, out, "Abajour Tahina")
}

func TestShowCategories(t *testing.T) {
	srv := backend(t)
	t.Setenv("FOLIO_CACHE_BACKEND", "memory")

	out, err := execute(t, "", "show", "categories", "--api", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "1. Objets")
	assert.Contains(t, out, "2. Appartements")
}

func TestShow_UnknownCollection(t *testing.T) {
	t.Setenv("FOLIO_CACHE_BACKEND", "memory")
	_, err := execute(t, "", "show", "users", "--api", "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestLoginThenStatus_SQLiteCache(t *testing.T) {
	srv := backend(t)
	t.Setenv("FOLIO_CACHE_BACKEND", "sqlite")
	t.Setenv("FOLIO_CACHE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	out, err := execute(t, "Abc123\n", "login", "--email", "a@b.com", "--api", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "utilisateur 5")

	out, err = execute(t, "", "status", "--api", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Connecté")

	_, err = execute(t, "", "logout")
	require.NoError(t, err)

	out, err = execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Non connecté")
}

func TestLogin_RejectsWeakPassword(t *testing.T) {
	srv := backend(t)
	t.Setenv("FOLIO_CACHE_BACKEND", "memory")

	_, err := execute(t, "abc\n", "login", "--email", "a@b.com", "--api", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mot de passe")
}
