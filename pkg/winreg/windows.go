//go:build windows

package winreg

import (
	"errors"
	"fmt"
	"os/exec"

	"golang.org/x/sys/windows/registry"
)

// windowsStore is the real Store backed by HKEY_CURRENT_USER.
type windowsStore struct{}

// NewStore returns the platform registry Store.
func NewStore() Store {
	return &windowsStore{}
}

func (s *windowsStore) KeyExists(path string) (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open key %s: %w", path, err)
	}
	key.Close()
	return true, nil
}

func (s *windowsStore) ValueExists(path, name string) (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open key %s: %w", path, err)
	}
	defer key.Close()

	if _, _, err := key.GetValue(name, nil); err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query value %s\\%s: %w", path, name, err)
	}
	return true, nil
}

func (s *windowsStore) SubKeys(path string) ([]string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open key %s: %w", path, err)
	}
	defer key.Close()

	names, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate subkeys of %s: %w", path, err)
	}
	return names, nil
}

func (s *windowsStore) GetString(path, name string) (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", ErrNotExist
		}
		return "", fmt.Errorf("failed to open key %s: %w", path, err)
	}
	defer key.Close()

	value, _, err := key.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", ErrNotExist
		}
		return "", fmt.Errorf("failed to read value %s\\%s: %w", path, name, err)
	}
	return value, nil
}

func (s *windowsStore) SetString(path, name, value string) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create key %s: %w", path, err)
	}
	defer key.Close()

	if err := key.SetStringValue(name, value); err != nil {
		return fmt.Errorf("failed to set value %s\\%s: %w", path, name, err)
	}
	return nil
}

func (s *windowsStore) SetDWord(path, name string, value uint32) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create key %s: %w", path, err)
	}
	defer key.Close()

	if err := key.SetDWordValue(name, value); err != nil {
		return fmt.Errorf("failed to set value %s\\%s: %w", path, name, err)
	}
	return nil
}

func (s *windowsStore) DeleteValue(path, name string) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to open key %s: %w", path, err)
	}
	defer key.Close()

	if err := key.DeleteValue(name); err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to delete value %s\\%s: %w", path, name, err)
	}
	return nil
}

// DeleteKey removes the key and its whole subtree. Subkeys are deleted
// depth-first because the API only deletes empty keys.
func (s *windowsStore) DeleteKey(path string) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.ENUMERATE_SUB_KEYS|registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to open key %s: %w", path, err)
	}

	names, err := key.ReadSubKeyNames(-1)
	key.Close()
	if err == nil {
		for _, name := range names {
			if err := s.DeleteKey(path + `\` + name); err != nil {
				return err
			}
		}
	}

	if err := registry.DeleteKey(registry.CURRENT_USER, path); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", path, err)
	}
	return nil
}

// ExportKey shells out to reg.exe, the same mechanism the registry editor
// uses, so the backup file is importable with a double click.
func (s *windowsStore) ExportKey(path, destFile string) error {
	cmd := exec.Command("reg", "export", `HKCU\`+path, destFile, "/y")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("reg export %s failed: %v: %s", path, err, out)
	}
	return nil
}
