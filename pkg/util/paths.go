package util

import (
	"os"
	"path/filepath"
)

// Paths holds the resolved ambient directories fix steps operate under.
// They are resolved once at startup and passed into the runner, never read
// from the environment mid-sequence, so steps can be tested against
// injected fake roots.
type Paths struct {
	// UserProfile is the user's home directory (%USERPROFILE%).
	UserProfile string

	// AppData is <UserProfile>\AppData.
	AppData string

	// LocalAppData is the local application data root (%LOCALAPPDATA%).
	LocalAppData string

	// RoamingAppData is the roaming application data root (%APPDATA%).
	RoamingAppData string

	// TempDir is the user's temp directory.
	TempDir string

	// Documents is <UserProfile>\Documents.
	Documents string

	// ProgramFiles and ProgramFilesX86 locate installed applications.
	ProgramFiles    string
	ProgramFilesX86 string
}

// ResolvePaths reads the ambient environment once and returns the resolved
// path set. Missing variables fall back to derived defaults so the struct
// is always fully populated.
func ResolvePaths() Paths {
	profile := os.Getenv("USERPROFILE")
	if profile == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			profile = home
		}
	}

	appData := filepath.Join(profile, "AppData")

	local := os.Getenv("LOCALAPPDATA")
	if local == "" {
		local = filepath.Join(appData, "Local")
	}

	roaming := os.Getenv("APPDATA")
	if roaming == "" {
		roaming = filepath.Join(appData, "Roaming")
	}

	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}

	programFilesX86 := os.Getenv("ProgramFiles(x86)")
	if programFilesX86 == "" {
		programFilesX86 = `C:\Program Files (x86)`
	}

	return Paths{
		UserProfile:     profile,
		AppData:         appData,
		LocalAppData:    local,
		RoamingAppData:  roaming,
		TempDir:         os.TempDir(),
		Documents:       filepath.Join(profile, "Documents"),
		ProgramFiles:    programFiles,
		ProgramFilesX86: programFilesX86,
	}
}

// FakePaths returns a path set rooted under the given directory, for tests.
func FakePaths(root string) Paths {
	return Paths{
		UserProfile:     root,
		AppData:         filepath.Join(root, "AppData"),
		LocalAppData:    filepath.Join(root, "AppData", "Local"),
		RoamingAppData:  filepath.Join(root, "AppData", "Roaming"),
		TempDir:         filepath.Join(root, "Temp"),
		Documents:       filepath.Join(root, "Documents"),
		ProgramFiles:    filepath.Join(root, "Program Files"),
		ProgramFilesX86: filepath.Join(root, "Program Files (x86)"),
	}
}
