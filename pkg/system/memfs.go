package system

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Op records a single mutating filesystem operation performed against a
// MemFS. Tests use the ordered op log to assert, for example, that a backup
// copy happened before the original was deleted.
type Op struct {
	// Kind is one of: remove, removeall, cleardir, copy, write, mkdir.
	Kind string

	// Path is the operation's primary (source) path.
	Path string

	// Dest is the destination path for copy operations.
	Dest string
}

// MemFS is an in-memory FS implementation for tests. It tracks directories
// and file contents, records every mutating operation in order, and can be
// told to fail specific paths to simulate locked files or denied access.
type MemFS struct {
	mu       sync.Mutex
	dirs     map[string]bool
	files    map[string][]byte
	failures map[string]error
	ops      []Op
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{
		dirs:     make(map[string]bool),
		files:    make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// norm converts a path to the slash-separated form used as map key.
func norm(p string) string {
	return strings.TrimSuffix(filepath.ToSlash(p), "/")
}

// AddDir creates a directory and all of its parents.
func (m *MemFS) AddDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDirLocked(norm(p))
}

func (m *MemFS) addDirLocked(p string) {
	for p != "" && p != "." && p != "/" && !m.dirs[p] {
		m.dirs[p] = true
		p = path.Dir(p)
	}
}

// AddFile creates a file with the given content, creating parent directories.
func (m *MemFS) AddFile(p string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	m.files[np] = append([]byte(nil), content...)
	m.addDirLocked(path.Dir(np))
}

// FailOn makes any mutating operation on the given path return err.
func (m *MemFS) FailOn(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[norm(p)] = err
}

// Ops returns a copy of the ordered mutating-operation log.
func (m *MemFS) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.ops...)
}

// OpCount returns how many recorded operations have the given kind.
func (m *MemFS) OpCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, op := range m.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (m *MemFS) record(kind, p, dest string) {
	m.ops = append(m.ops, Op{Kind: kind, Path: p, Dest: dest})
}

func (m *MemFS) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	_, isFile := m.files[np]
	return isFile || m.dirs[np]
}

func (m *MemFS) IsDir(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[norm(p)]
}

func (m *MemFS) ReadFile(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[norm(p)]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemFS) WriteFile(p string, data []byte, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	m.record("write", np, "")
	if err := m.failures[np]; err != nil {
		return err
	}
	m.files[np] = append([]byte(nil), data...)
	m.addDirLocked(path.Dir(np))
	return nil
}

func (m *MemFS) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	m.record("remove", np, "")
	if err := m.failures[np]; err != nil {
		return err
	}
	if _, ok := m.files[np]; ok {
		delete(m.files, np)
		return nil
	}
	if m.dirs[np] {
		delete(m.dirs, np)
		return nil
	}
	return &os.PathError{Op: "remove", Path: p, Err: os.ErrNotExist}
}

func (m *MemFS) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	nold, nnew := norm(oldPath), norm(newPath)
	m.record("rename", nold, nnew)
	if err := m.failures[nold]; err != nil {
		return err
	}
	data, ok := m.files[nold]
	if !ok {
		return &os.PathError{Op: "rename", Path: oldPath, Err: os.ErrNotExist}
	}
	delete(m.files, nold)
	m.files[nnew] = data
	m.addDirLocked(path.Dir(nnew))
	return nil
}

func (m *MemFS) RemoveAll(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	m.record("removeall", np, "")
	if err := m.failures[np]; err != nil {
		return err
	}
	m.removeTreeLocked(np)
	return nil
}

func (m *MemFS) removeTreeLocked(np string) {
	prefix := np + "/"
	for f := range m.files {
		if f == np || strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if d == np || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
}

func (m *MemFS) ClearDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	m.record("cleardir", np, "")
	if err := m.failures[np]; err != nil {
		return err
	}
	if !m.dirs[np] {
		return &os.PathError{Op: "readdir", Path: p, Err: os.ErrNotExist}
	}
	prefix := np + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *MemFS) CopyFile(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	nsrc, ndst := norm(src), norm(dst)
	m.record("copy", nsrc, ndst)
	if err := m.failures[nsrc]; err != nil {
		return err
	}
	if err := m.failures[ndst]; err != nil {
		return err
	}
	data, ok := m.files[nsrc]
	if !ok {
		return &os.PathError{Op: "open", Path: src, Err: os.ErrNotExist}
	}
	m.files[ndst] = append([]byte(nil), data...)
	m.addDirLocked(path.Dir(ndst))
	return nil
}

func (m *MemFS) Glob(pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(pattern)

	var matches []string
	for f := range m.files {
		ok, err := path.Match(np, f)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, f)
		}
	}
	for d := range m.dirs {
		ok, err := path.Match(np, d)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, d)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (m *MemFS) DirSize(p string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	if !m.dirs[np] {
		return 0, fmt.Errorf("not a directory: %s", p)
	}
	var size int64
	prefix := np + "/"
	for f, data := range m.files {
		if strings.HasPrefix(f, prefix) {
			size += int64(len(data))
		}
	}
	return size, nil
}

func (m *MemFS) MkdirAll(p string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np := norm(p)
	m.record("mkdir", np, "")
	if err := m.failures[np]; err != nil {
		return err
	}
	m.addDirLocked(np)
	return nil
}
