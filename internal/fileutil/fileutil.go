// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// File permission constants.
const (
	DirPerm  os.FileMode = 0o750 // rwxr-x---: owner full, group read+execute
	FilePerm os.FileMode = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for file utility operations.
var (
	ErrEmptyPath   = errors.New("path cannot be empty")
	ErrNotRegular  = errors.New("not a regular file")
	ErrNotWritable = errors.New("directory not writable")
)

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsExecutable reports whether path is a regular file with an execute bit.
// On Windows any existing regular file counts.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// EnsureExecutable adds execute bits to path when they are missing.
func EnsureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0 {
		return nil
	}
	return os.Chmod(path, info.Mode().Perm()|0o111)
}

// WriteFileAtomic writes data to a temp file next to path, then renames it
// into place. Readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// CopyFileAtomic copies src to dst through a temp file in dst's directory.
func CopyFileAtomic(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src) // #nosec G304 -- path comes from the page store
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// RemoveIfEmpty removes dir when it has no entries.
// A missing or non-empty directory is not an error.
func RemoveIfEmpty(dir string) error {
	err := os.Remove(dir)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	// ENOTEMPTY differs per OS; look at the directory instead.
	if entries, rerr := os.ReadDir(dir); rerr == nil && len(entries) > 0 {
		return nil
	}
	return err
}

// CheckWritable verifies that a file can be created in dir.
func CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".slidepdf-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "slides" -> false (name)
//   - "./slidepdf.yaml" -> true (relative path)
//   - "/etc/slidepdf/prod.toml" -> true (absolute)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
