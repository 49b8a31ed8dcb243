//go:build !windows

package system

import "context"

// stubProcessManager is the non-Windows ProcessManager. The applications
// App Doctor remediates only run on Windows, so on other platforms every
// process is reported as not running.
type stubProcessManager struct{}

// NewProcessManager returns the platform ProcessManager.
func NewProcessManager() ProcessManager {
	return &stubProcessManager{}
}

func (p *stubProcessManager) Terminate(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (p *stubProcessManager) IsRunning(_ context.Context, _ string) (bool, error) {
	return false, nil
}
