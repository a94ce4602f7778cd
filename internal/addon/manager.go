package addon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/nightwatch-dev/nwupd/internal/archive"
	"github.com/nightwatch-dev/nwupd/internal/download"
	"github.com/nightwatch-dev/nwupd/internal/log"
	"github.com/nightwatch-dev/nwupd/internal/manifest"
)

// ErrBusy is returned by Toggle when a worker already owns the addon.
var ErrBusy = errors.New("operation already in progress")

// ErrUnknownAddon is returned for names the manifest never mentioned.
var ErrUnknownAddon = errors.New("unknown addon")

// Manager reconciles desired vs. actual addon state. Each addon has one
// state cell; Toggle spawns one worker per operation and the worker
// re-derives installed state from the filesystem when it finishes, so the
// displayed state always reflects filesystem truth even after partial
// failures. Operations on different addons run fully in parallel.
type Manager struct {
	baseDir    string
	addons     []manifest.Addon
	cells      map[string]*cell
	downloader *download.Downloader
	resolver   Resolver
	logger     log.Logger
	wg         sync.WaitGroup
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithResolver sets the source link resolver.
func WithResolver(r Resolver) ManagerOption {
	return func(m *Manager) { m.resolver = r }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager builds a Manager over the manifest's addons, snapshotting
// each addon's installed state from the filesystem.
func NewManager(baseDir string, addons []manifest.Addon, dl *download.Downloader, opts ...ManagerOption) *Manager {
	m := &Manager{
		baseDir:    baseDir,
		addons:     addons,
		cells:      make(map[string]*cell, len(addons)),
		downloader: dl,
		resolver:   DirectResolver{},
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, a := range addons {
		c := &cell{}
		c.desired = deriveState(a, baseDir)
		m.cells[a.Name] = c
	}
	return m
}

func deriveState(a manifest.Addon, baseDir string) State {
	if IsInstalled(a, baseDir) {
		return StateInstalled
	}
	return StateAbsent
}

// List returns the addons in manifest order.
func (m *Manager) List() []manifest.Addon {
	out := make([]manifest.Addon, len(m.addons))
	copy(out, m.addons)
	return out
}

// Get returns the descriptor for name.
func (m *Manager) Get(name string) (manifest.Addon, bool) {
	for _, a := range m.addons {
		if a.Name == name {
			return a, true
		}
	}
	return manifest.Addon{}, false
}

// IsInstalled reports the last derived installed state for name. Unknown
// names read as not installed.
func (m *Manager) IsInstalled(name string) bool {
	c, ok := m.cells[name]
	if !ok {
		return false
	}
	desired, _, _ := c.snapshot()
	return desired == StateInstalled
}

// InProgress reports whether a worker currently owns name.
func (m *Manager) InProgress(name string) bool {
	c, ok := m.cells[name]
	if !ok {
		return false
	}
	_, busy, _ := c.snapshot()
	return busy
}

// Progress returns the current download fraction for name. The value is
// only meaningful while an install is in progress.
func (m *Manager) Progress(name string) float64 {
	c, ok := m.cells[name]
	if !ok {
		return 0
	}
	_, _, fraction := c.snapshot()
	return fraction
}

// Refresh re-derives every idle addon's state from the filesystem. Busy
// addons are skipped; their worker reconciles on completion.
func (m *Manager) Refresh() {
	for _, a := range m.addons {
		c := m.cells[a.Name]
		if _, busy, _ := c.snapshot(); busy {
			continue
		}
		c.setDesired(deriveState(a, m.baseDir))
	}
}

// Toggle flips name between installed and absent by spawning a worker.
// It returns ErrBusy without side effects when a worker already owns the
// addon. The returned error only covers admission; operation failures
// surface through the re-derived state and the logs.
func (m *Manager) Toggle(name string) error {
	a, ok := m.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddon, name)
	}
	c := m.cells[name]

	prev, claimed := c.begin()
	if !claimed {
		return fmt.Errorf("%w: %s", ErrBusy, name)
	}

	m.wg.Add(1)
	go m.run(a, c, prev)
	return nil
}

// Wait blocks until every spawned worker has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// run performs one install or uninstall. Once started it runs to
// completion; there is no mid-operation cancellation.
func (m *Manager) run(a manifest.Addon, c *cell, prev State) {
	defer m.wg.Done()

	ctx := context.Background()
	var opErr error
	if prev == StateInstalled {
		_, opErr = Uninstall(a, m.baseDir, m.logger)
	} else {
		opErr = m.install(ctx, a, c)
	}
	if opErr != nil {
		m.logger.Error("addon operation failed", "addon", a.Name, "error", opErr)
	}

	// The worker's own outcome is never trusted; state is re-derived
	// from the filesystem so partial failures show up as they are.
	c.finish(deriveState(a, m.baseDir))
}

func (m *Manager) install(ctx context.Context, a manifest.Addon, prog download.Progress) error {
	srcURL, err := m.resolver.Resolve(ctx, a.SourceURL)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "nwupd-")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, downloadFileName(srcURL, a))
	if err := m.downloader.Fetch(ctx, srcURL, archivePath, prog); err != nil {
		return err
	}

	if a.Kind == manifest.KindSingleFile {
		return PlaceFile(archivePath, a, m.baseDir)
	}

	scratch := filepath.Join(tmpDir, "content")
	if err := os.Mkdir(scratch, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}
	if err := archive.Extract(archivePath, scratch); err != nil {
		return err
	}
	return Place(scratch, a, m.baseDir)
}

// downloadFileName picks the local name for the downloaded payload. The
// extractor detects formats from this name, so the URL's basename is kept
// when it has one.
func downloadFileName(rawURL string, a manifest.Addon) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return a.Name
}
