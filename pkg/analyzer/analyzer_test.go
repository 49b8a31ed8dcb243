package analyzer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/system"
	"github.com/sysoptim/app-doctor/pkg/types"
	"github.com/sysoptim/app-doctor/pkg/util"
	"github.com/sysoptim/app-doctor/pkg/winreg"
)

func testEnv() (*runner.Env, *system.MemFS, *winreg.MemStore, *system.FakeProcessManager) {
	fs := system.NewMemFS()
	reg := winreg.NewMemStore()
	pm := system.NewFakeProcessManager()
	return &runner.Env{
		FS:        fs,
		Registry:  reg,
		Processes: pm,
		Paths:     util.FakePaths("/home/user"),
	}, fs, reg, pm
}

func TestProcessFindings(t *testing.T) {
	env, _, _, _ := testEnv()
	env.Processes = system.NewFakeProcessManager("Teams.exe")

	target := types.TargetApplication{
		ProcessNames: []string{"Teams.exe", "Update.exe"},
	}
	findings := ProcessFindings(context.Background(), env, target)

	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1 (only the running process)", len(findings))
	}
	if findings[0].Severity != types.SeverityWarning || findings[0].Detail != "Teams.exe" {
		t.Errorf("finding = %+v", findings[0])
	}
}

func TestDataRootFinding(t *testing.T) {
	env, fs, _, _ := testEnv()
	target := types.TargetApplication{DisplayName: "Test App", DataRoot: "/app"}

	finding := DataRootFinding(env, target)
	if finding.Severity != types.SeverityError {
		t.Errorf("missing root severity = %v, want Error", finding.Severity)
	}

	fs.AddDir("/app")
	finding = DataRootFinding(env, target)
	if finding.Severity != types.SeverityInfo {
		t.Errorf("present root severity = %v, want Info", finding.Severity)
	}
}

func TestCacheFindings(t *testing.T) {
	env, fs, _, _ := testEnv()
	fs.AddFile("/app/Cache/a", make([]byte, 2048))
	fs.AddFile("/app/GPUCache/b", make([]byte, 1024))

	findings := CacheFindings(env, []string{"/app/Cache", "/app/GPUCache", "/app/Missing"})

	// One per existing directory plus the total.
	if len(findings) != 3 {
		t.Fatalf("got %d findings, want 3: %+v", len(findings), findings)
	}
	if findings[2].Message != "3.0 KiB reclaimable in total" {
		t.Errorf("total = %q", findings[2].Message)
	}
}

func TestRegistryMarkerFinding(t *testing.T) {
	env, _, reg, _ := testEnv()

	if f := RegistryMarkerFinding(env, `Software\Missing`, "marker"); f != nil {
		t.Errorf("absent key should produce no finding, got %+v", f)
	}

	reg.AddKey(`Software\Marker`)
	f := RegistryMarkerFinding(env, `Software\Marker`, "marker present")
	if f == nil {
		t.Fatal("present key should produce a finding")
	}
	if f.Severity != types.SeverityWarning || f.Detail != `HKCU\Software\Marker` {
		t.Errorf("finding = %+v", f)
	}
}

func TestFileFinding(t *testing.T) {
	env, fs, _, _ := testEnv()
	path := filepath.Join("/app", "desktop-config.json")

	f := FileFinding(env, path, "desktop configuration")
	if f.Message != "desktop configuration absent" {
		t.Errorf("message = %q", f.Message)
	}

	fs.AddFile(path, []byte("{}"))
	f = FileFinding(env, path, "desktop configuration")
	if f.Message != "desktop configuration present" {
		t.Errorf("message = %q", f.Message)
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := HumanSize(tt.n); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
