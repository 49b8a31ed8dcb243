package system

import (
	"context"
	"strings"
)

// ProcessManager is the process-table capability. Termination is best
// effort: a process that isn't running is not an error.
type ProcessManager interface {
	// Terminate kills every process whose executable name matches exeName
	// (case-insensitive). It returns whether any matching process was found.
	// Absence of a match is reported as (false, nil).
	Terminate(ctx context.Context, exeName string) (bool, error)

	// IsRunning reports whether any process with the given executable name
	// is currently running.
	IsRunning(ctx context.Context, exeName string) (bool, error)
}

// FakeProcessManager is an in-memory ProcessManager for tests.
type FakeProcessManager struct {
	// Running is the set of lowercase executable names considered running.
	Running map[string]bool

	// Terminated records the names Terminate was called with, in order.
	Terminated []string

	// TerminateErr, when set, is returned by every Terminate call.
	TerminateErr error
}

// NewFakeProcessManager returns a fake with the given processes running.
func NewFakeProcessManager(running ...string) *FakeProcessManager {
	m := &FakeProcessManager{Running: make(map[string]bool)}
	for _, name := range running {
		m.Running[lower(name)] = true
	}
	return m
}

func (m *FakeProcessManager) Terminate(_ context.Context, exeName string) (bool, error) {
	m.Terminated = append(m.Terminated, exeName)
	if m.TerminateErr != nil {
		return false, m.TerminateErr
	}
	key := lower(exeName)
	if m.Running[key] {
		delete(m.Running, key)
		return true, nil
	}
	return false, nil
}

func (m *FakeProcessManager) IsRunning(_ context.Context, exeName string) (bool, error) {
	return m.Running[lower(exeName)], nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
