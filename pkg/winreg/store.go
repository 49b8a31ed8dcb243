// Package winreg abstracts the Windows per-user registry behind a key-value
// store interface. Keys are HKCU-relative paths using backslash separators
// (e.g. `Software\Microsoft\Office`). The real implementation is built on
// golang.org/x/sys/windows/registry; MemStore is an in-memory implementation
// used in tests and on non-Windows platforms.
package winreg

import (
	"errors"
)

// ErrNotExist is returned when a key or value does not exist.
var ErrNotExist = errors.New("registry key or value does not exist")

// Store is the registry capability used by fix steps.
type Store interface {
	// KeyExists reports whether the key exists.
	KeyExists(path string) (bool, error)

	// ValueExists reports whether the named value exists under the key.
	ValueExists(path, name string) (bool, error)

	// SubKeys returns the names of the key's immediate subkeys.
	SubKeys(path string) ([]string, error)

	// GetString reads a string value.
	GetString(path, name string) (string, error)

	// SetString writes a string value, creating the key if needed.
	SetString(path, name, value string) error

	// SetDWord writes a DWORD value, creating the key if needed.
	SetDWord(path, name string, value uint32) error

	// DeleteValue deletes a single value under the key.
	DeleteValue(path, name string) error

	// DeleteKey deletes the key and everything below it.
	DeleteKey(path string) error

	// ExportKey writes the key's subtree to a .reg file at destFile as a
	// backup before mutation.
	ExportKey(path, destFile string) error
}
