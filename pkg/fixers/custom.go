package fixers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sysoptim/app-doctor/pkg/analyzer"
	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/types"
	"github.com/sysoptim/app-doctor/pkg/util"
)

// ConfigFixer is a fixer assembled from a declarative target in the
// configuration file, for remediating applications App Doctor has no
// built-in knowledge of.
type ConfigFixer struct {
	cfg types.TargetConfig
}

// NewConfigFixer wraps a validated target declaration.
func NewConfigFixer(cfg types.TargetConfig) *ConfigFixer {
	return &ConfigFixer{cfg: cfg}
}

func (f *ConfigFixer) Name() string { return f.cfg.Name }

func (f *ConfigFixer) Description() string {
	if f.cfg.DisplayName != "" {
		return "Configured fix steps for " + f.cfg.DisplayName
	}
	return "Configured fix steps for " + f.cfg.Name
}

// dataRoot resolves the declared data root; relative roots are taken under
// the roaming application data directory.
func (f *ConfigFixer) dataRoot(paths util.Paths) string {
	if filepath.IsAbs(f.cfg.DataRoot) {
		return f.cfg.DataRoot
	}
	return filepath.Join(paths.RoamingAppData, f.cfg.DataRoot)
}

func (f *ConfigFixer) Build(paths util.Paths) (types.TargetApplication, []runner.Step) {
	root := f.dataRoot(paths)

	display := f.cfg.DisplayName
	if display == "" {
		display = f.cfg.Name
	}

	target := types.TargetApplication{
		Name:         f.cfg.Name,
		DisplayName:  display,
		ProcessNames: f.cfg.ProcessNames,
		DataRoot:     root,
	}

	steps := make([]runner.Step, 0, len(f.cfg.Steps))
	for _, sc := range f.cfg.Steps {
		steps = append(steps, compileStep(root, sc))
	}
	return target, steps
}

// compileStep turns a declarative step into an executable one. Unknown
// actions are rejected at config validation time, so the default branch is
// unreachable with a loaded config.
func compileStep(root string, sc types.StepConfig) runner.Step {
	path := sc.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	dest := sc.Dest
	if dest != "" && !filepath.IsAbs(dest) {
		dest = filepath.Join(root, dest)
	}

	switch sc.Action {
	case "clear-dir":
		return clearDirStep(sc.Name, path)
	case "remove-path":
		return removePathStep(sc.Name, path)
	case "remove-glob":
		return removeGlobStep(sc.Name, path)
	case "backup-file":
		if dest == "" {
			dest = path + ".bak"
		}
		return backupFileStep(sc.Name, path, dest)
	case "delete-registry-key":
		return deleteKeyStep(sc.Name, sc.Key)
	case "delete-registry-value":
		return deleteValueStep(sc.Name, sc.Key, sc.Value)
	case "export-registry-key":
		return exportKeyStep(sc.Name, sc.Key, dest)
	default:
		name := sc.Name
		action := sc.Action
		return runner.Step{
			Name:         name,
			Precondition: runner.Always(),
			Action: func(_ context.Context, _ *runner.Env) error {
				return fmt.Errorf("unknown action %q", action)
			},
		}
	}
}

func (f *ConfigFixer) Analyze(ctx context.Context, env *runner.Env) []types.Finding {
	target, _ := f.Build(env.Paths)

	findings := []types.Finding{analyzer.DataRootFinding(env, target)}
	findings = append(findings, analyzer.ProcessFindings(ctx, env, target)...)

	root := f.dataRoot(env.Paths)
	var dirs []string
	for _, sc := range f.cfg.Steps {
		if sc.Action != "clear-dir" {
			continue
		}
		dir := sc.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		dirs = append(dirs, dir)
	}
	findings = append(findings, analyzer.CacheFindings(env, dirs)...)

	return findings
}

// RegisterConfigTargets adds every target declared in the configuration to
// the registry. Config targets cannot shadow built-in fixers.
func RegisterConfigTargets(reg *Registry, cfg *types.AppDoctorConfig) error {
	for i := range cfg.Targets {
		tc := cfg.Targets[i]
		if err := reg.Register(Info{
			Type:        tc.Name,
			Description: NewConfigFixer(tc).Description(),
			Factory: func() (Fixer, error) {
				return NewConfigFixer(tc), nil
			},
		}); err != nil {
			return fmt.Errorf("failed to register configured target %q: %w", tc.Name, err)
		}
	}
	return nil
}
