package fixers

import (
	"context"
	"fmt"

	"github.com/sysoptim/app-doctor/pkg/runner"
)

// Shared step constructors. Each returns a step whose precondition gates
// the mutating action on the path or key actually existing, so missing
// state reads as skipped-not-found rather than failed.

// clearDirStep empties a directory but keeps it in place.
func clearDirStep(name, dir string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.PathExists(dir),
		Action: func(_ context.Context, env *runner.Env) error {
			return env.FS.ClearDir(dir)
		},
	}
}

// removePathStep deletes a file or directory tree.
func removePathStep(name, path string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.PathExists(path),
		Action: func(_ context.Context, env *runner.Env) error {
			return env.FS.RemoveAll(path)
		},
	}
}

// removeGlobStep deletes every file matching the pattern. Matches that fail
// to delete are reported together; earlier matches are not rolled back.
func removeGlobStep(name, pattern string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.GlobMatches(pattern),
		Action: func(_ context.Context, env *runner.Env) error {
			matches, err := env.FS.Glob(pattern)
			if err != nil {
				return err
			}
			failed := 0
			var firstErr error
			for _, m := range matches {
				if err := env.FS.RemoveAll(m); err != nil {
					failed++
					if firstErr == nil {
						firstErr = err
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("failed to delete %d of %d matches for %s: %w",
					failed, len(matches), pattern, firstErr)
			}
			return nil
		},
	}
}

// backupFileStep copies a file to dest without touching the original.
func backupFileStep(name, path, dest string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.PathExists(path),
		Action: func(_ context.Context, env *runner.Env) error {
			return env.FS.CopyFile(path, dest)
		},
	}
}

// backupAndRemoveStep copies the file to <path>.bak and then deletes the
// original. The backup must succeed before anything is destroyed; a failed
// copy leaves the original untouched.
func backupAndRemoveStep(name, path string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.PathExists(path),
		Action: func(_ context.Context, env *runner.Env) error {
			backup := path + ".bak"
			if err := env.FS.CopyFile(path, backup); err != nil {
				return fmt.Errorf("backup failed, original left in place: %w", err)
			}
			return env.FS.Remove(path)
		},
	}
}

// deleteValueStep deletes a single registry value.
func deleteValueStep(name, key, value string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.RegistryValueExists(key, value),
		Action: func(_ context.Context, env *runner.Env) error {
			return env.Registry.DeleteValue(key, value)
		},
	}
}

// deleteKeyStep deletes a registry key and its subtree.
func deleteKeyStep(name, key string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.RegistryKeyExists(key),
		Action: func(_ context.Context, env *runner.Env) error {
			return env.Registry.DeleteKey(key)
		},
	}
}

// exportKeyStep writes a registry subtree to a .reg backup file.
func exportKeyStep(name, key, dest string) runner.Step {
	return runner.Step{
		Name:         name,
		Precondition: runner.RegistryKeyExists(key),
		Action: func(_ context.Context, env *runner.Env) error {
			return env.Registry.ExportKey(key, dest)
		},
	}
}
