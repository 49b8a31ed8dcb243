package runner

import (
	"context"
	"fmt"

	"github.com/sysoptim/app-doctor/pkg/system"
	"github.com/sysoptim/app-doctor/pkg/util"
	"github.com/sysoptim/app-doctor/pkg/winreg"
)

// Env bundles the capabilities a step's action may use. Ambient paths are
// resolved once at construction and injected here, never read from the
// environment mid-sequence.
type Env struct {
	FS        system.FS
	Registry  winreg.Store
	Processes system.ProcessManager
	Paths     util.Paths
}

// Action performs a step's mutating work. It runs only after the step's
// precondition held. Any returned error is captured as the step's failure
// reason; it never halts the sequence.
type Action func(ctx context.Context, env *Env) error

// PreconditionKind selects what a precondition checks for.
type PreconditionKind string

const (
	// PreAlways always holds; the action runs unconditionally.
	PreAlways PreconditionKind = "always"

	// PrePath holds when a filesystem path exists.
	PrePath PreconditionKind = "path"

	// PreGlob holds when at least one path matches a glob pattern.
	PreGlob PreconditionKind = "glob"

	// PreRegistryKey holds when an HKCU-relative registry key exists.
	PreRegistryKey PreconditionKind = "registry-key"

	// PreRegistryValue holds when a named value exists under a key.
	PreRegistryValue PreconditionKind = "registry-value"
)

// Precondition is the existence check gating whether a step's action runs.
// When it does not hold, the step is recorded as skipped and the action is
// never invoked.
type Precondition struct {
	Kind PreconditionKind

	// Path is the filesystem path or glob pattern for path/glob kinds.
	Path string

	// Key and Value address the registry for registry kinds.
	Key   string
	Value string
}

// Always returns a precondition that always holds.
func Always() Precondition {
	return Precondition{Kind: PreAlways}
}

// PathExists gates a step on a file or directory being present.
func PathExists(path string) Precondition {
	return Precondition{Kind: PrePath, Path: path}
}

// GlobMatches gates a step on at least one match for the pattern.
func GlobMatches(pattern string) Precondition {
	return Precondition{Kind: PreGlob, Path: pattern}
}

// RegistryKeyExists gates a step on an HKCU-relative key being present.
func RegistryKeyExists(key string) Precondition {
	return Precondition{Kind: PreRegistryKey, Key: key}
}

// RegistryValueExists gates a step on a named value being present.
func RegistryValueExists(key, value string) Precondition {
	return Precondition{Kind: PreRegistryValue, Key: key, Value: value}
}

// Holds evaluates the precondition against the environment. The detail
// string names what was checked, for skip messages.
func (p Precondition) Holds(env *Env) (bool, string, error) {
	switch p.Kind {
	case PreAlways:
		return true, "", nil
	case PrePath:
		return env.FS.Exists(p.Path), p.Path, nil
	case PreGlob:
		matches, err := env.FS.Glob(p.Path)
		if err != nil {
			return false, p.Path, fmt.Errorf("bad glob pattern %q: %w", p.Path, err)
		}
		return len(matches) > 0, p.Path, nil
	case PreRegistryKey:
		ok, err := env.Registry.KeyExists(p.Key)
		if err != nil {
			return false, p.Key, fmt.Errorf("failed to check key %s: %w", p.Key, err)
		}
		return ok, `HKCU\` + p.Key, nil
	case PreRegistryValue:
		ok, err := env.Registry.ValueExists(p.Key, p.Value)
		if err != nil {
			return false, p.Key, fmt.Errorf("failed to check value %s\\%s: %w", p.Key, p.Value, err)
		}
		return ok, `HKCU\` + p.Key + `\` + p.Value, nil
	default:
		return false, "", fmt.Errorf("unknown precondition kind %q", p.Kind)
	}
}

// Step is one discrete, independently-failable unit of remediation work.
// Steps run once each, in declaration order; a failing step never prevents
// the next one from running.
type Step struct {
	// Name is the human-readable step name shown in reports.
	Name string

	// Precondition gates whether Action runs at all.
	Precondition Precondition

	// Action performs the step's filesystem or registry mutation.
	Action Action
}
