package fixers

import (
	"context"
	"path/filepath"

	"github.com/sysoptim/app-doctor/pkg/analyzer"
	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/types"
	"github.com/sysoptim/app-doctor/pkg/util"
)

func init() {
	if err := Register(Info{
		Type:        "teams",
		Description: "Clears Microsoft Teams caches and resets its desktop configuration",
		Factory:     func() (Fixer, error) { return &TeamsFixer{}, nil },
	}); err != nil {
		panic(err)
	}
}

// teamsCacheDirs are the cache subdirectories cleared under the Teams data
// root. Directories are kept, only their contents are removed.
var teamsCacheDirs = []string{
	"Cache",
	"blob_storage",
	"databases",
	"GPUCache",
	"IndexedDB",
	"Local Storage",
	"tmp",
}

// teamsWebStorageDirs hold Electron web-app state that survives a cache
// clear and is a frequent cause of sign-in loops.
var teamsWebStorageDirs = []string{
	"Application Cache",
	"Code Cache",
	"Service Worker",
}

// teamsConfigFile is recreated by Teams on next launch.
const teamsConfigFile = "desktop-config.json"

// TeamsFixer remediates Microsoft Teams (classic desktop client).
type TeamsFixer struct{}

func (f *TeamsFixer) Name() string { return "teams" }

func (f *TeamsFixer) Description() string {
	return "Clears Microsoft Teams caches and resets its desktop configuration"
}

// dataRoot is the Teams application data directory for the invoking user.
func (f *TeamsFixer) dataRoot(paths util.Paths) string {
	return filepath.Join(paths.RoamingAppData, "Microsoft", "Teams")
}

func (f *TeamsFixer) Build(paths util.Paths) (types.TargetApplication, []runner.Step) {
	root := f.dataRoot(paths)

	target := types.TargetApplication{
		Name:         "teams",
		DisplayName:  "Microsoft Teams",
		ProcessNames: []string{"Teams.exe", "Update.exe"},
		DataRoot:     root,
	}

	var steps []runner.Step
	for _, dir := range teamsCacheDirs {
		steps = append(steps, clearDirStep("Clear "+dir+" directory", filepath.Join(root, dir)))
	}
	steps = append(steps, backupAndRemoveStep(
		"Back up and reset desktop configuration",
		filepath.Join(root, teamsConfigFile),
	))
	for _, dir := range teamsWebStorageDirs {
		steps = append(steps, clearDirStep("Clear "+dir+" web storage", filepath.Join(root, dir)))
	}

	return target, steps
}

func (f *TeamsFixer) Analyze(ctx context.Context, env *runner.Env) []types.Finding {
	target, _ := f.Build(env.Paths)
	root := f.dataRoot(env.Paths)

	findings := []types.Finding{analyzer.DataRootFinding(env, target)}
	findings = append(findings, analyzer.ProcessFindings(ctx, env, target)...)

	var dirs []string
	for _, dir := range append(append([]string{}, teamsCacheDirs...), teamsWebStorageDirs...) {
		dirs = append(dirs, filepath.Join(root, dir))
	}
	findings = append(findings, analyzer.CacheFindings(env, dirs)...)
	findings = append(findings, analyzer.FileFinding(env,
		filepath.Join(root, teamsConfigFile), "desktop configuration"))

	return findings
}
