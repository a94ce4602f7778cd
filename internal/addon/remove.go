package addon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nightwatch-dev/nwupd/internal/log"
	"github.com/nightwatch-dev/nwupd/internal/manifest"
)

// Uninstall removes a's installed content from baseDir. After removing
// target_path/name it sweeps sibling entries whose name contains the
// addon's name, mirroring the loose match used by IsInstalled, so
// remnants from inconsistent archive layouts are cleaned up too.
//
// Removal is best effort: per-entry failures are aggregated, never an
// early abort. The returned bool comes from a fresh IsInstalled probe and
// reports whether the addon is confirmed absent; false with a nil-joined
// error set still means a partial failure.
func Uninstall(a manifest.Addon, baseDir string, logger log.Logger) (bool, error) {
	if logger == nil {
		logger = log.Default()
	}

	dir := filepath.Join(baseDir, a.RemovalPath())
	var errs []error

	primary := filepath.Join(dir, a.Name)
	if err := os.RemoveAll(primary); err != nil {
		logger.Warn("failed to remove addon entry", "addon", a.Name, "path", primary, "error", err)
		errs = append(errs, fmt.Errorf("remove %s: %w", a.Name, err))
	}

	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, entry := range entries {
			if !strings.Contains(entry.Name(), a.Name) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				logger.Warn("failed to remove addon remnant", "addon", a.Name, "path", path, "error", err)
				errs = append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			}
		}
	}

	return !IsInstalled(a, baseDir), errors.Join(errs...)
}
