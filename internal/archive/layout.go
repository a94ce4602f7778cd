package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout describes the shape of an extracted archive's top level.
type Layout int

const (
	// Empty means the archive produced no installable entries.
	Empty Layout = iota
	// SingleRoot means the archive holds exactly one top-level entry,
	// either a wrapping directory or a lone file.
	SingleRoot
	// MultiRoot means several entries sit directly at the top level.
	MultiRoot
)

func (l Layout) String() string {
	switch l {
	case Empty:
		return "empty"
	case SingleRoot:
		return "single-root"
	case MultiRoot:
		return "multi-root"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// junkEntry reports top-level names that archive tools leave behind and
// that never count as addon content.
func junkEntry(name string) bool {
	switch name {
	case "__MACOSX", ".DS_Store", "Thumbs.db", "desktop.ini":
		return true
	}
	return strings.HasPrefix(name, "._")
}

// Classify inspects the top level of dir and reports its layout along with
// the surviving entry names, sorted by os.ReadDir. Any lone top-level
// entry is SingleRoot, whether it is a wrapping directory or a single
// file.
func Classify(dir string) (Layout, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Empty, nil, fmt.Errorf("failed to read extracted content: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if junkEntry(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	switch {
	case len(names) == 0:
		return Empty, nil, nil
	case len(names) == 1:
		return SingleRoot, names, nil
	default:
		return MultiRoot, names, nil
	}
}

// RootDir returns the lone entry's path for a SingleRoot layout.
func RootDir(dir string, names []string) string {
	return filepath.Join(dir, names[0])
}
