package addon

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nightwatch-dev/nwupd/internal/archive"
	"github.com/nightwatch-dev/nwupd/internal/manifest"
)

// EmptyArchiveError reports an archive that extracted to nothing
// installable. Installing nothing is always an error, never a no-op.
type EmptyArchiveError struct {
	Addon string
}

func (e *EmptyArchiveError) Error() string {
	return fmt.Sprintf("archive for %s contains no installable content", e.Addon)
}

// Place relocates extracted content from scratchDir into its final home
// under baseDir. The destination is removed first so installation is a
// full replace, never a merge. A copy failure partway through leaves the
// destination incomplete; callers re-derive installed state afterwards
// instead of relying on a rollback.
func Place(scratchDir string, a manifest.Addon, baseDir string) error {
	layout, names, err := archive.Classify(scratchDir)
	if err != nil {
		return err
	}

	targetBase := filepath.Join(baseDir, a.TargetPath)

	switch layout {
	case archive.Empty:
		return &EmptyArchiveError{Addon: a.Name}

	case archive.SingleRoot:
		// The lone entry installs under the addon's own name regardless
		// of what it was called in the archive. A wrapping folder is
		// discarded and its contents become the addon folder; a lone
		// file is renamed to the addon's name.
		root := archive.RootDir(scratchDir, names)
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("failed to inspect extracted content: %w", err)
		}
		if !info.IsDir() {
			return PlaceFile(root, a, baseDir)
		}
		dest := filepath.Join(targetBase, a.Name)
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to remove existing %s: %w", a.Name, err)
		}
		return copyDir(root, dest)

	default:
		for _, name := range names {
			src := filepath.Join(scratchDir, name)
			dest := filepath.Join(targetBase, name)
			if err := os.RemoveAll(dest); err != nil {
				return fmt.Errorf("failed to remove existing %s: %w", name, err)
			}
			if err := copyEntry(src, dest); err != nil {
				return err
			}
		}
		return nil
	}
}

// PlaceFile installs a single-file addon as targetBase/name, replacing any
// existing file. Rename is tried first; a cross-device fallback copies.
func PlaceFile(srcPath string, a manifest.Addon, baseDir string) error {
	dest := filepath.Join(baseDir, a.TargetPath, a.Name)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to remove existing %s: %w", a.Name, err)
	}

	if err := os.Rename(srcPath, dest); err == nil {
		return nil
	}
	return copyFile(srcPath, dest)
}

func copyEntry(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return copySymlink(src, dst)
	case info.IsDir():
		return copyDir(src, dst)
	default:
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return copyFile(src, dst)
	}
}

// copyDir recursively copies a directory.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return err
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if err := copySymlink(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// copySymlink copies a symlink, preserving the link target.
func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	os.Remove(dst)
	return os.Symlink(target, dst)
}

// copyFile copies a single file, preserving its mode.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	return nil
}
