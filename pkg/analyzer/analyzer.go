// Package analyzer provides read-only probes that fixers compose into an
// analysis of a target application's state: running processes, cache
// footprint, configuration presence, and registry markers. Probes never
// mutate anything.
package analyzer

import (
	"context"
	"fmt"

	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/types"
)

// ProcessFindings reports which of the target's processes are running.
func ProcessFindings(ctx context.Context, env *runner.Env, target types.TargetApplication) []types.Finding {
	var findings []types.Finding
	for _, name := range target.ProcessNames {
		running, err := env.Processes.IsRunning(ctx, name)
		if err != nil {
			findings = append(findings, types.Finding{
				Category: "process",
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("could not check whether %s is running", name),
				Detail:   err.Error(),
			})
			continue
		}
		if running {
			findings = append(findings, types.Finding{
				Category: "process",
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("%s is running and will be terminated before fixing", name),
				Detail:   name,
			})
		}
	}
	return findings
}

// DataRootFinding reports whether the application's data directory exists.
func DataRootFinding(env *runner.Env, target types.TargetApplication) types.Finding {
	if env.FS.Exists(target.DataRoot) {
		return types.Finding{
			Category: "install",
			Severity: types.SeverityInfo,
			Message:  fmt.Sprintf("%s data directory found", target.DisplayName),
			Detail:   target.DataRoot,
		}
	}
	return types.Finding{
		Category: "install",
		Severity: types.SeverityError,
		Message:  fmt.Sprintf("%s does not appear to be installed for this user", target.DisplayName),
		Detail:   target.DataRoot,
	}
}

// CacheFindings reports the size of each existing cache directory.
func CacheFindings(env *runner.Env, dirs []string) []types.Finding {
	var findings []types.Finding
	var total int64
	for _, dir := range dirs {
		if !env.FS.IsDir(dir) {
			continue
		}
		size, err := env.FS.DirSize(dir)
		if err != nil {
			continue
		}
		total += size
		findings = append(findings, types.Finding{
			Category: "cache",
			Severity: types.SeverityInfo,
			Message:  fmt.Sprintf("cache directory holds %s", HumanSize(size)),
			Detail:   dir,
		})
	}
	if total > 0 {
		findings = append(findings, types.Finding{
			Category: "cache",
			Severity: types.SeverityInfo,
			Message:  fmt.Sprintf("%s reclaimable in total", HumanSize(total)),
		})
	}
	return findings
}

// FileFinding reports presence of a configuration file.
func FileFinding(env *runner.Env, path, description string) types.Finding {
	if env.FS.Exists(path) {
		return types.Finding{
			Category: "config",
			Severity: types.SeverityInfo,
			Message:  description + " present",
			Detail:   path,
		}
	}
	return types.Finding{
		Category: "config",
		Severity: types.SeverityInfo,
		Message:  description + " absent",
		Detail:   path,
	}
}

// RegistryMarkerFinding reports a warning when a known-problematic registry
// key is present.
func RegistryMarkerFinding(env *runner.Env, key, message string) *types.Finding {
	exists, err := env.Registry.KeyExists(key)
	if err != nil || !exists {
		return nil
	}
	return &types.Finding{
		Category: "registry",
		Severity: types.SeverityWarning,
		Message:  message,
		Detail:   `HKCU\` + key,
	}
}

// HumanSize formats a byte count for display.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
