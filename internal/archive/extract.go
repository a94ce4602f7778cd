// Package archive extracts downloaded addon archives into a scratch
// directory and classifies the resulting content layout. Entry paths are
// validated so a hostile archive cannot write outside the destination.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"

	"github.com/nightwatch-dev/nwupd/internal/log"
)

// ErrUnsupportedFormat reports an archive whose filename matches no known
// format suffix.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// InvalidArchiveError reports a payload that could not be decoded as the
// format its name claims. Truncated downloads and HTML error pages saved
// as .zip both end up here.
type InvalidArchiveError struct {
	Path string
	Err  error
}

func (e *InvalidArchiveError) Error() string {
	return fmt.Sprintf("invalid archive %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *InvalidArchiveError) Unwrap() error { return e.Err }

// TraversalError reports an archive entry that would resolve outside the
// extraction directory.
type TraversalError struct {
	Entry string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("archive entry escapes destination directory: %s", e.Entry)
}

// DetectFormat maps an archive filename to its format identifier.
// Unknown names return "" so callers can surface ErrUnsupportedFormat.
func DetectFormat(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return "tar.xz"
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"), strings.HasSuffix(lower, ".tbz"):
		return "tar.bz2"
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return "tar.zst"
	case strings.HasSuffix(lower, ".tar.lz"), strings.HasSuffix(lower, ".tlz"):
		return "tar.lz"
	case strings.HasSuffix(lower, ".tar"):
		return "tar"
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	default:
		return ""
	}
}

// Extract unpacks archivePath into destPath, detecting the format from the
// filename. destPath must already exist.
func Extract(archivePath, destPath string) error {
	format := DetectFormat(archivePath)
	switch format {
	case "zip":
		return extractZip(archivePath, destPath)
	case "tar.gz":
		return extractCompressedTar(archivePath, destPath, func(r io.Reader) (io.Reader, func(), error) {
			gzr, err := gzip.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return gzr, func() { gzr.Close() }, nil
		})
	case "tar.xz":
		return extractCompressedTar(archivePath, destPath, func(r io.Reader) (io.Reader, func(), error) {
			xzr, err := xz.NewReader(r)
			return xzr, nil, err
		})
	case "tar.bz2":
		return extractCompressedTar(archivePath, destPath, func(r io.Reader) (io.Reader, func(), error) {
			return bzip2.NewReader(r), nil, nil
		})
	case "tar.zst":
		return extractCompressedTar(archivePath, destPath, func(r io.Reader) (io.Reader, func(), error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, zr.Close, nil
		})
	case "tar.lz":
		return extractCompressedTar(archivePath, destPath, func(r io.Reader) (io.Reader, func(), error) {
			lr, err := lzip.NewReader(r)
			return lr, nil, err
		})
	case "tar":
		return extractCompressedTar(archivePath, destPath, func(r io.Reader) (io.Reader, func(), error) {
			return r, nil, nil
		})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(archivePath))
	}
}

// isPathWithinDirectory checks if targetPath is safely contained within basePath.
// The separator suffix prevents /tmp/foo from matching /tmp/foobar.
func isPathWithinDirectory(targetPath, basePath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

// validateSymlinkTarget rejects symlink entries whose target would resolve
// outside the destination directory.
func validateSymlinkTarget(linkTarget, linkLocation, destPath string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("absolute symlink targets are not allowed: %s -> %s", linkLocation, linkTarget)
	}

	resolvedTarget := filepath.Join(filepath.Dir(linkLocation), linkTarget)
	if !isPathWithinDirectory(resolvedTarget, destPath) {
		return fmt.Errorf("symlink target escapes destination directory: %s -> %s (resolves to %s)",
			linkLocation, linkTarget, resolvedTarget)
	}
	return nil
}

// entryTarget resolves an archive entry name against destPath and validates
// that it stays inside.
func entryTarget(name, destPath string) (string, error) {
	cleanPath := strings.TrimPrefix(name, "./")
	if cleanPath == "" {
		return "", nil
	}

	target := filepath.Join(destPath, filepath.FromSlash(cleanPath))
	if !isPathWithinDirectory(target, destPath) {
		return "", &TraversalError{Entry: name}
	}
	return target, nil
}

type decompressFunc func(io.Reader) (io.Reader, func(), error)

func extractCompressedTar(archivePath, destPath string, decompress decompressFunc) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	r, closeFn, err := decompress(file)
	if err != nil {
		return &InvalidArchiveError{Path: archivePath, Err: err}
	}
	if closeFn != nil {
		defer closeFn()
	}

	return extractTarReader(tar.NewReader(r), archivePath, destPath)
}

func extractTarReader(tr *tar.Reader, archivePath, destPath string) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &InvalidArchiveError{Path: archivePath, Err: err}
		}

		target, err := entryTarget(header.Name, destPath)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := validateSymlinkTarget(header.Linkname, target, destPath); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := atomicSymlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink: %w", err)
			}

		default:
			// Hard links, devices and other special entries never belong
			// in addon content and are skipped.
			log.Default().Debug("skipping unsupported tar entry",
				"archive", archivePath,
				"entry", header.Name,
				"type", header.Typeflag)
		}
	}

	return nil
}

// atomicSymlink creates a symlink via a temp name and rename so an existing
// entry is never observed half-replaced.
func atomicSymlink(target, linkPath string) error {
	tmpLink := linkPath + ".tmp"
	os.Remove(tmpLink)

	if err := os.Symlink(target, tmpLink); err != nil {
		return err
	}
	if err := os.Rename(tmpLink, linkPath); err != nil {
		os.Remove(tmpLink)
		return err
	}
	return nil
}

func extractZip(archivePath, destPath string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return &InvalidArchiveError{Path: archivePath, Err: err}
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := entryTarget(f.Name, destPath)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return &InvalidArchiveError{Path: archivePath, Err: err}
		}
		writeErr := writeEntry(target, rc, f.Mode())
		rc.Close()
		if writeErr != nil {
			return writeErr
		}
	}

	return nil
}

func writeEntry(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Regular permission bits only; archives can carry setuid and
	// similar bits we never want on installed files.
	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}
