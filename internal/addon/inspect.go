// Package addon implements the reconciliation engine: installed-state
// inspection, content placement, removal, and the per-addon orchestrator
// that ties them to downloads and extraction.
package addon

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nightwatch-dev/nwupd/internal/manifest"
)

// IsInstalled reports whether a is present under baseDir. It is a pure
// probe of the filesystem at call time; filesystem errors read as "not
// installed" and are never propagated.
func IsInstalled(a manifest.Addon, baseDir string) bool {
	dir := filepath.Join(baseDir, a.TargetPath)

	info, err := os.Stat(filepath.Join(dir, a.Name))
	if err == nil {
		switch a.Kind {
		case manifest.KindSingleFile:
			if !info.IsDir() {
				return true
			}
		default:
			if info.IsDir() {
				return true
			}
		}
	}

	if a.Kind != manifest.KindArchive {
		return false
	}
	return hasLooseMatch(dir, a.Name)
}

// hasLooseMatch scans the immediate children of dir for an entry whose
// name contains name. Archives are packaged inconsistently and do not
// always nest under the addon's own name, so a substring match counts as
// installed. This is a heuristic and accepts false positives.
func hasLooseMatch(dir, name string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), name) {
			return true
		}
	}
	return false
}
