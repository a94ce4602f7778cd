package functional

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cucumber/godog"

	"github.com/nightwatch-dev/nwupd/internal/addon"
	"github.com/nightwatch-dev/nwupd/internal/download"
	"github.com/nightwatch-dev/nwupd/internal/manifest"
)

// testState wires a scratch game directory to an in-process download
// server. The manager is built lazily so Given steps can finish shaping
// the manifest and the filesystem first.
type testState struct {
	gameDir string
	server  *httptest.Server

	mu       sync.Mutex
	payloads map[string][]byte
	truncate map[string]bool

	addons  []manifest.Addon
	manager *addon.Manager
}

func newTestState() *testState {
	s := &testState{
		payloads: make(map[string][]byte),
		truncate: make(map[string]bool),
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		payload, ok := s.payloads[r.URL.Path]
		truncated := s.truncate[r.URL.Path]
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		if truncated {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)*2))
			w.Write(payload)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	return s
}

func (s *testState) close() {
	s.server.Close()
	if s.gameDir != "" {
		os.RemoveAll(s.gameDir)
	}
}

func (s *testState) getManager() *addon.Manager {
	if s.manager == nil {
		dl := download.New(s.server.Client(), download.WithRetryPolicy(download.RetryPolicy{
			MaxAttempts: 2,
		}))
		s.manager = addon.NewManager(s.gameDir, s.addons, dl)
	}
	return s.manager
}

func (s *testState) addAddon(name string) {
	s.addons = append(s.addons, manifest.Addon{
		Name:       name,
		SourceURL:  s.server.URL + "/" + name + ".zip",
		TargetPath: "AddOns",
		Kind:       manifest.KindArchive,
	})
}

func aCleanGameDirectory(ctx context.Context) (context.Context, error) {
	s := getState(ctx)
	dir, err := os.MkdirTemp("", "nwupd-functional-")
	if err != nil {
		return ctx, err
	}
	if err := os.MkdirAll(filepath.Join(dir, "AddOns"), 0755); err != nil {
		return ctx, err
	}
	s.gameDir = dir
	return ctx, nil
}

func theManifestListsArchive(ctx context.Context, name string, entries *godog.Table) error {
	s := getState(ctx)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, row := range entries.Rows {
		if i == 0 {
			continue // header
		}
		w, err := zw.Create(row.Cells[0].Value)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(row.Cells[1].Value)); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	s.mu.Lock()
	s.payloads["/"+name+".zip"] = buf.Bytes()
	s.mu.Unlock()
	s.addAddon(name)
	return nil
}

func theManifestListsTruncated(ctx context.Context, name string) error {
	s := getState(ctx)

	s.mu.Lock()
	s.payloads["/"+name+".zip"] = []byte("half of an archive")
	s.truncate["/"+name+".zip"] = true
	s.mu.Unlock()
	s.addAddon(name)
	return nil
}

func theGameDirectoryAlreadyContains(ctx context.Context, rel string) error {
	s := getState(ctx)
	path := filepath.Join(s.gameDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("leftover"), 0644)
}

func iToggle(ctx context.Context, name string) error {
	m := getState(ctx).getManager()
	if err := m.Toggle(name); err != nil {
		return err
	}
	m.Wait()
	return nil
}

func theFileExists(ctx context.Context, rel string) error {
	s := getState(ctx)
	path := filepath.Join(s.gameDir, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("expected %s to exist: %w", rel, err)
	}
	if info.IsDir() {
		return fmt.Errorf("expected %s to be a file, found a directory", rel)
	}
	return nil
}

func thePathDoesNotExist(ctx context.Context, rel string) error {
	s := getState(ctx)
	path := filepath.Join(s.gameDir, filepath.FromSlash(rel))
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("expected %s to be absent", rel)
	}
	return nil
}

func isReportedInstalled(ctx context.Context, name string) error {
	m := getState(ctx).getManager()
	m.Refresh()
	if !m.IsInstalled(name) {
		return fmt.Errorf("expected %s to be reported installed", name)
	}
	return nil
}

func isReportedNotInstalled(ctx context.Context, name string) error {
	m := getState(ctx).getManager()
	m.Refresh()
	if m.IsInstalled(name) {
		return fmt.Errorf("expected %s to be reported not installed", name)
	}
	return nil
}
