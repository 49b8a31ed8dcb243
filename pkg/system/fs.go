// Package system provides the OS capability boundaries fix steps run
// against: the filesystem and the process table. Each capability is an
// interface with a real implementation and an in-memory fake, so steps are
// unit-testable without touching the machine.
package system

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FS is the filesystem capability used by fix steps. Paths are absolute.
type FS interface {
	// Exists reports whether the path exists (file or directory).
	Exists(path string) bool

	// IsDir reports whether the path exists and is a directory.
	IsDir(path string) bool

	// ReadFile reads an entire file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// Remove removes a single file or empty directory.
	Remove(path string) error

	// Rename moves a file, replacing the destination if it exists.
	Rename(oldPath, newPath string) error

	// RemoveAll removes the path and any children it contains.
	RemoveAll(path string) error

	// ClearDir removes the contents of a directory but keeps the directory
	// itself. Entries that cannot be removed are skipped; the error reports
	// how many were left behind.
	ClearDir(path string) error

	// CopyFile copies src to dst, overwriting dst.
	CopyFile(src, dst string) error

	// Glob returns the paths matching the pattern, in lexical order.
	Glob(pattern string) ([]string, error)

	// DirSize returns the total size in bytes of all files under path.
	DirSize(path string) (int64, error)

	// MkdirAll creates the directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error
}

// OSFS is the real filesystem implementation.
type OSFS struct{}

// NewOSFS returns an FS backed by the operating system.
func NewOSFS() *OSFS {
	return &OSFS{}
}

func (f *OSFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (f *OSFS) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (f *OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (f *OSFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (f *OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (f *OSFS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (f *OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// ClearDir deletes everything inside path while keeping the directory, the
// way cache directories are cleared: locked entries are skipped so one
// undeletable file doesn't abort the whole sweep.
func (f *OSFS) ClearDir(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var firstErr error
	failed := 0
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(path, entry.Name())); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to delete %d of %d entries in %s: %w",
			failed, len(entries), path, firstErr)
	}
	return nil
}

func (f *OSFS) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func (f *OSFS) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

func (f *OSFS) DirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries don't abort the size estimate.
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func (f *OSFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
