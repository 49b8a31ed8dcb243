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

func init() {
	if err := Register(Info{
		Type:        "outlook",
		Description: "Repairs Microsoft Outlook profiles, caches, and autodiscover settings",
		Factory:     func() (Fixer, error) { return &OutlookFixer{}, nil },
	}); err != nil {
		panic(err)
	}
}

const (
	// profilesKey holds the user's messaging profiles.
	profilesKey = `Software\Microsoft\Windows NT\CurrentVersion\Windows Messaging Subsystem\Profiles`

	// corruptProfileMarker is the subkey whose presence under a profile
	// indicates corrupted MAPI settings.
	corruptProfileMarker = `9375CFF0413111d3B88A00104B2A6676`

	officeRootKey = `Software\Microsoft\Office`
)

// officeVersions are probed newest-first for per-version Outlook keys.
var officeVersions = []string{"16.0", "15.0", "14.0"}

// autodiscoverExcludeValues are the override values removed so autodiscover
// falls back to its default lookup order.
var autodiscoverExcludeValues = []string{
	"ExcludeHttpRedirect",
	"ExcludeHttpsAutoDiscoverDomain",
	"ExcludeHttpsRootDomain",
	"ExcludeScpLookup",
	"ExcludeSrvRecord",
}

// OutlookFixer remediates Microsoft Outlook.
type OutlookFixer struct{}

func (f *OutlookFixer) Name() string { return "outlook" }

func (f *OutlookFixer) Description() string {
	return "Repairs Microsoft Outlook profiles, caches, and autodiscover settings"
}

// dataRoot is where Outlook keeps offline data files and the RoamCache.
func (f *OutlookFixer) dataRoot(paths util.Paths) string {
	return filepath.Join(paths.LocalAppData, "Microsoft", "Outlook")
}

// roamingRoot holds signatures and the autodiscover XML cache.
func (f *OutlookFixer) roamingRoot(paths util.Paths) string {
	return filepath.Join(paths.RoamingAppData, "Microsoft", "Outlook")
}

func (f *OutlookFixer) Build(paths util.Paths) (types.TargetApplication, []runner.Step) {
	root := f.dataRoot(paths)

	target := types.TargetApplication{
		Name:         "outlook",
		DisplayName:  "Microsoft Outlook",
		ProcessNames: []string{"OUTLOOK.EXE"},
		DataRoot:     root,
		RegistryRoots: []string{
			profilesKey,
			officeRootKey,
		},
	}

	steps := []runner.Step{
		exportKeyStep(
			"Back up messaging profiles",
			profilesKey,
			filepath.Join(paths.TempDir, "outlook_profiles_backup.reg"),
		),
		{
			Name:         "Remove corrupt profile markers",
			Precondition: runner.RegistryKeyExists(profilesKey),
			Action:       removeCorruptProfileMarkers,
		},
		deleteValueStep(
			"Reset navigation pane",
			`Software\Microsoft\Office\16.0\Outlook\Preferences`,
			"NavigationPaneViewState",
		),
		removeGlobStep(
			"Clear autocomplete stream cache",
			filepath.Join(root, "RoamCache", "Stream_Autocomplete*.dat"),
		),
		deleteValueStep(
			"Clear roamed autocomplete",
			`Software\Microsoft\Office\16.0\Outlook\AutoComplete`,
			"Roamed",
		),
		{
			Name:         "Reset autodiscover policy",
			Precondition: runner.RegistryKeyExists(officeRootKey),
			Action:       resetAutodiscoverPolicy,
		},
		clearDirStep(
			"Clear autodiscover cache",
			filepath.Join(f.roamingRoot(paths), "Autodiscover"),
		),
		{
			Name:         "Request search index rebuild",
			Precondition: runner.RegistryKeyExists(`Software\Microsoft\Office\16.0\Outlook\Search\Catalyst`),
			Action: func(_ context.Context, env *runner.Env) error {
				return env.Registry.SetDWord(
					`Software\Microsoft\Office\16.0\Outlook\Search\Catalyst`,
					"ResetCatalystAPI", 1)
			},
		},
		{
			Name:         "Reset offline data files",
			Precondition: runner.GlobMatches(filepath.Join(root, "*.ost")),
			Action: func(_ context.Context, env *runner.Env) error {
				return resetOfflineDataFiles(env, root)
			},
		},
	}

	return target, steps
}

// removeCorruptProfileMarkers walks every messaging profile and deletes the
// corruption marker subtree where present. The profiles backup step runs
// first, so a bad deletion is recoverable from the exported .reg file.
func removeCorruptProfileMarkers(_ context.Context, env *runner.Env) error {
	profiles, err := env.Registry.SubKeys(profilesKey)
	if err != nil {
		return fmt.Errorf("failed to enumerate profiles: %w", err)
	}

	removed := 0
	var firstErr error
	for _, profile := range profiles {
		marker := profilesKey + `\` + profile + `\` + corruptProfileMarker
		exists, err := env.Registry.KeyExists(marker)
		if err != nil || !exists {
			continue
		}
		if err := env.Registry.DeleteKey(marker); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}

	if firstErr != nil {
		return fmt.Errorf("removed %d markers, but at least one deletion failed: %w", removed, firstErr)
	}
	return nil
}

// resetAutodiscoverPolicy removes override values and prefers the local XML
// cache for every installed Office version.
func resetAutodiscoverPolicy(_ context.Context, env *runner.Env) error {
	touched := 0
	for _, version := range officeVersions {
		outlookKey := fmt.Sprintf(`Software\Microsoft\Office\%s\Outlook`, version)
		exists, err := env.Registry.KeyExists(outlookKey)
		if err != nil || !exists {
			continue
		}

		adKey := outlookKey + `\AutoDiscover`
		for _, value := range autodiscoverExcludeValues {
			present, err := env.Registry.ValueExists(adKey, value)
			if err != nil || !present {
				continue
			}
			if err := env.Registry.DeleteValue(adKey, value); err != nil {
				return fmt.Errorf("failed to delete %s\\%s: %w", adKey, value, err)
			}
		}
		if err := env.Registry.SetDWord(adKey, "PreferLocalXML", 1); err != nil {
			return fmt.Errorf("failed to set PreferLocalXML for %s: %w", version, err)
		}
		touched++
	}

	if touched == 0 {
		return fmt.Errorf("no installed Outlook version found under HKCU\\%s", officeRootKey)
	}
	return nil
}

// resetOfflineDataFiles renames each .ost to .ost.old so Outlook rebuilds
// it from the server. Existing .old copies are replaced.
func resetOfflineDataFiles(env *runner.Env, root string) error {
	matches, err := env.FS.Glob(filepath.Join(root, "*.ost"))
	if err != nil {
		return err
	}

	failed := 0
	var firstErr error
	for _, file := range matches {
		old := file + ".old"
		if env.FS.Exists(old) {
			if err := env.FS.Remove(old); err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		if err := env.FS.Rename(file, old); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to reset %d of %d offline data files: %w",
			failed, len(matches), firstErr)
	}
	return nil
}

func (f *OutlookFixer) Analyze(ctx context.Context, env *runner.Env) []types.Finding {
	target, _ := f.Build(env.Paths)
	root := f.dataRoot(env.Paths)

	findings := []types.Finding{analyzer.DataRootFinding(env, target)}
	findings = append(findings, analyzer.ProcessFindings(ctx, env, target)...)
	findings = append(findings, analyzer.CacheFindings(env, []string{
		filepath.Join(root, "RoamCache"),
		filepath.Join(f.roamingRoot(env.Paths), "Autodiscover"),
	})...)

	if profiles, err := env.Registry.SubKeys(profilesKey); err == nil {
		for _, profile := range profiles {
			marker := profilesKey + `\` + profile + `\` + corruptProfileMarker
			if finding := analyzer.RegistryMarkerFinding(env, marker,
				fmt.Sprintf("profile %q carries a corruption marker", profile)); finding != nil {
				findings = append(findings, *finding)
			}
		}
	}

	return findings
}
