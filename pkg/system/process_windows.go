//go:build windows

package system

import (
	"context"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsProcessManager terminates processes by walking a Toolhelp32
// snapshot of the process table.
type windowsProcessManager struct{}

// NewProcessManager returns the platform ProcessManager.
func NewProcessManager() ProcessManager {
	return &windowsProcessManager{}
}

func (p *windowsProcessManager) Terminate(ctx context.Context, exeName string) (bool, error) {
	found := false
	err := p.walk(func(entry *windows.ProcessEntry32) {
		name := windows.UTF16ToString(entry.ExeFile[:])
		if !strings.EqualFold(name, exeName) {
			return
		}
		found = true
		handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, entry.ProcessID)
		if err != nil {
			return
		}
		windows.TerminateProcess(handle, 0)
		windows.CloseHandle(handle)
	})
	if err != nil {
		return found, err
	}
	return found, ctx.Err()
}

func (p *windowsProcessManager) IsRunning(_ context.Context, exeName string) (bool, error) {
	running := false
	err := p.walk(func(entry *windows.ProcessEntry32) {
		name := windows.UTF16ToString(entry.ExeFile[:])
		if strings.EqualFold(name, exeName) {
			running = true
		}
	})
	return running, err
}

// walk calls fn for every entry in a fresh process snapshot.
func (p *windowsProcessManager) walk(fn func(*windows.ProcessEntry32)) error {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return fmt.Errorf("failed to snapshot process table: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snapshot, &entry); err != nil {
		return fmt.Errorf("failed to read process snapshot: %w", err)
	}
	for {
		fn(&entry)
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			return nil
		}
	}
}
