// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/nightwatch-dev/nwupd/internal/config"
)

// NewTestConfig creates a config rooted in a temporary game directory with
// the standard AddOns subdirectory already present.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	gameDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(gameDir, "AddOns"), 0755); err != nil {
		t.Fatalf("failed to create addons dir: %v", err)
	}

	return &config.Config{
		GameDir:    gameDir,
		ConfigFile: filepath.Join(gameDir, config.UserConfigFile),
	}
}

// ZipBytes builds an in-memory zip archive from name->content pairs.
func ZipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return buf.Bytes()
}

// ServeFiles starts an httptest server mapping URL paths to fixed payloads
// and registers its shutdown with the test.
func ServeFiles(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists checks if a file exists at the given path
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if !FileExists(path) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does NOT exist at the given path
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if FileExists(path) {
		t.Errorf("file should not exist: %s", path)
	}
}
