package winreg

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// RegOp records a mutating operation performed against a MemStore, in order.
type RegOp struct {
	// Kind is one of: set, deletevalue, deletekey, export.
	Kind string

	// Path is the HKCU-relative key path, Name the value name if any.
	Path string
	Name string

	// Dest is the export destination file for export ops.
	Dest string
}

// MemStore is an in-memory Store implementation. Lookups are
// case-insensitive, matching registry semantics. Exported subtrees are kept
// in Exports keyed by destination file rather than written to disk.
type MemStore struct {
	mu       sync.Mutex
	keys     map[string]map[string]string // lowercase key path -> value name -> data
	names    map[string]string            // lowercase key path -> original-case path
	failures map[string]error
	ops      []RegOp

	// Exports maps destination file -> exported subtree content.
	Exports map[string]string
}

// NewMemStore returns an empty in-memory registry.
func NewMemStore() *MemStore {
	return &MemStore{
		keys:     make(map[string]map[string]string),
		names:    make(map[string]string),
		failures: make(map[string]error),
		Exports:  make(map[string]string),
	}
}

func regNorm(p string) string {
	return strings.ToLower(strings.Trim(strings.ReplaceAll(p, "/", `\`), `\`))
}

// AddKey creates a key and all of its parents.
func (s *MemStore) AddKey(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addKeyLocked(path)
}

func (s *MemStore) addKeyLocked(path string) {
	clean := strings.Trim(strings.ReplaceAll(path, "/", `\`), `\`)
	for clean != "" {
		np := strings.ToLower(clean)
		if _, ok := s.keys[np]; !ok {
			s.keys[np] = make(map[string]string)
			s.names[np] = clean
		}
		idx := strings.LastIndex(clean, `\`)
		if idx < 0 {
			break
		}
		clean = clean[:idx]
	}
}

// AddValue creates a string value, creating the key if needed.
func (s *MemStore) AddValue(path, name, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addKeyLocked(path)
	s.keys[regNorm(path)][strings.ToLower(name)] = data
}

// FailOn makes any mutating operation on the given key path return err.
func (s *MemStore) FailOn(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[regNorm(path)] = err
}

// Ops returns a copy of the ordered mutating-operation log.
func (s *MemStore) Ops() []RegOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RegOp(nil), s.ops...)
}

func (s *MemStore) record(kind, path, name, dest string) {
	s.ops = append(s.ops, RegOp{Kind: kind, Path: regNorm(path), Name: strings.ToLower(name), Dest: dest})
}

func (s *MemStore) KeyExists(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[regNorm(path)]
	return ok, nil
}

func (s *MemStore) ValueExists(path, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.keys[regNorm(path)]
	if !ok {
		return false, nil
	}
	_, ok = values[strings.ToLower(name)]
	return ok, nil
}

func (s *MemStore) SubKeys(path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	np := regNorm(path)
	if _, ok := s.keys[np]; !ok {
		return nil, ErrNotExist
	}
	prefix := np + `\`
	var subs []string
	for k := range s.keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if strings.Contains(rest, `\`) {
			continue
		}
		name := s.names[k]
		subs = append(subs, name[strings.LastIndex(name, `\`)+1:])
	}
	sort.Strings(subs)
	return subs, nil
}

func (s *MemStore) GetString(path, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.keys[regNorm(path)]
	if !ok {
		return "", ErrNotExist
	}
	data, ok := values[strings.ToLower(name)]
	if !ok {
		return "", ErrNotExist
	}
	return data, nil
}

func (s *MemStore) SetString(path, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set", path, name, "")
	if err := s.failures[regNorm(path)]; err != nil {
		return err
	}
	s.addKeyLocked(path)
	s.keys[regNorm(path)][strings.ToLower(name)] = value
	return nil
}

func (s *MemStore) SetDWord(path, name string, value uint32) error {
	return s.SetString(path, name, fmt.Sprintf("dword:%08x", value))
}

func (s *MemStore) DeleteValue(path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	np := regNorm(path)
	s.record("deletevalue", path, name, "")
	if err := s.failures[np]; err != nil {
		return err
	}
	values, ok := s.keys[np]
	if !ok {
		return ErrNotExist
	}
	nname := strings.ToLower(name)
	if _, ok := values[nname]; !ok {
		return ErrNotExist
	}
	delete(values, nname)
	return nil
}

func (s *MemStore) DeleteKey(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	np := regNorm(path)
	s.record("deletekey", path, "", "")
	if err := s.failures[np]; err != nil {
		return err
	}
	if _, ok := s.keys[np]; !ok {
		return ErrNotExist
	}
	prefix := np + `\`
	for k := range s.keys {
		if k == np || strings.HasPrefix(k, prefix) {
			delete(s.keys, k)
			delete(s.names, k)
		}
	}
	return nil
}

func (s *MemStore) ExportKey(path, destFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	np := regNorm(path)
	s.record("export", path, "", destFile)
	if err := s.failures[np]; err != nil {
		return err
	}
	if _, ok := s.keys[np]; !ok {
		return ErrNotExist
	}

	// Render a minimal .reg-style dump of the subtree.
	var b strings.Builder
	b.WriteString("Windows Registry Editor Version 5.00\n")
	prefix := np + `\`
	var paths []string
	for k := range s.keys {
		if k == np || strings.HasPrefix(k, prefix) {
			paths = append(paths, k)
		}
	}
	sort.Strings(paths)
	for _, k := range paths {
		fmt.Fprintf(&b, "\n[HKEY_CURRENT_USER\\%s]\n", s.names[k])
		var names []string
		for n := range s.keys[k] {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&b, "%q=%q\n", n, s.keys[k][n])
		}
	}
	s.Exports[destFile] = b.String()
	return nil
}
