package fixers

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a new fixer instance. Factories must be stateless and
// safe for concurrent use.
type Factory func() (Fixer, error)

// Info contains metadata and the factory for a registered fixer type.
type Info struct {
	// Type is the unique identifier for this fixer (e.g. "teams").
	Type string

	// Description provides human-readable documentation.
	Description string

	// Factory creates instances of this fixer.
	Factory Factory
}

// Registry manages the set of known fixers.
type Registry struct {
	mu     sync.RWMutex
	fixers map[string]Info
}

// NewRegistry creates an empty fixer registry.
func NewRegistry() *Registry {
	return &Registry{
		fixers: make(map[string]Info),
	}
}

// Register adds a fixer type to the registry.
// Returns an error if the info is incomplete or the type is already taken.
func (r *Registry) Register(info Info) error {
	if info.Type == "" {
		return fmt.Errorf("fixer type cannot be empty")
	}
	if info.Factory == nil {
		return fmt.Errorf("fixer %q: factory cannot be nil", info.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fixers[info.Type]; exists {
		return fmt.Errorf("fixer type %q is already registered", info.Type)
	}
	r.fixers[info.Type] = info
	return nil
}

// Get creates a new instance of the named fixer.
func (r *Registry) Get(name string) (Fixer, error) {
	r.mu.RLock()
	info, ok := r.fixers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown fixer type %q (known: %v)", name, r.Types())
	}

	fixer, err := info.Factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create fixer %q: %w", name, err)
	}
	return fixer, nil
}

// IsRegistered returns true if the given fixer type is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.fixers[name]
	return ok
}

// Types returns a sorted list of all registered fixer types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fixers))
	for name := range r.fixers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered fixer infos, sorted by type.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.fixers))
	for _, info := range r.fixers {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}

// defaultRegistry holds the built-in fixers registered at init time.
var defaultRegistry = NewRegistry()

// Default returns the package-level registry with the built-in fixers.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a fixer type to the default registry.
func Register(info Info) error {
	return defaultRegistry.Register(info)
}
