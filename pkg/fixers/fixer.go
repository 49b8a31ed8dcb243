// Package fixers provides the catalog of target applications App Doctor
// knows how to remediate. Each fixer declares a target application and its
// ordered fix steps; built-in fixers register themselves with the default
// registry at init time, and additional targets can be declared in
// configuration.
package fixers

import (
	"context"

	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/types"
	"github.com/sysoptim/app-doctor/pkg/util"
)

// Fixer describes how to analyze and remediate one target application.
type Fixer interface {
	// Name returns the identifier used on the CLI and HTTP API.
	Name() string

	// Description returns a one-line human-readable summary.
	Description() string

	// Build resolves the target application and its ordered step list
	// against the given ambient paths.
	Build(paths util.Paths) (types.TargetApplication, []runner.Step)

	// Analyze inspects the target's state without mutating anything.
	Analyze(ctx context.Context, env *runner.Env) []types.Finding
}
