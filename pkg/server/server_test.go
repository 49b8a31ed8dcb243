package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sysoptim/app-doctor/pkg/fixers"
	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/system"
	"github.com/sysoptim/app-doctor/pkg/types"
	"github.com/sysoptim/app-doctor/pkg/util"
	"github.com/sysoptim/app-doctor/pkg/winreg"
)

// testFixer is a minimal fixer with one cache-clear step.
type testFixer struct{}

func (f *testFixer) Name() string        { return "testapp" }
func (f *testFixer) Description() string { return "Test application" }

func (f *testFixer) Build(paths util.Paths) (types.TargetApplication, []runner.Step) {
	target := types.TargetApplication{
		Name:        "testapp",
		DisplayName: "Test App",
		DataRoot:    "/app",
	}
	steps := []runner.Step{
		{
			Name:         "Clear cache",
			Precondition: runner.PathExists("/app/Cache"),
			Action: func(_ context.Context, env *runner.Env) error {
				return env.FS.ClearDir("/app/Cache")
			},
		},
	}
	return target, steps
}

func (f *testFixer) Analyze(_ context.Context, env *runner.Env) []types.Finding {
	return []types.Finding{{
		Category: "install",
		Severity: types.SeverityInfo,
		Message:  "test finding",
	}}
}

func newTestServer(t *testing.T, fs *system.MemFS) *Server {
	t.Helper()

	registry := fixers.NewRegistry()
	if err := registry.Register(fixers.Info{
		Type:        "testapp",
		Description: "Test application",
		Factory:     func() (fixers.Fixer, error) { return &testFixer{}, nil },
	}); err != nil {
		t.Fatal(err)
	}

	env := &runner.Env{
		FS:        fs,
		Registry:  winreg.NewMemStore(),
		Processes: system.NewFakeProcessManager(),
		Paths:     util.FakePaths("/home/user"),
	}

	srv, err := NewServer(&Config{
		RunnerOptions: runner.Options{SettleDelay: time.Millisecond},
	}, registry, env)
	if err != nil {
		t.Fatal(err)
	}
	return srv
}

func TestNewServerValidation(t *testing.T) {
	registry := fixers.NewRegistry()
	env := &runner.Env{}

	if _, err := NewServer(nil, registry, env); err == nil {
		t.Error("NewServer() accepted nil config")
	}
	if _, err := NewServer(&Config{}, nil, env); err == nil {
		t.Error("NewServer() accepted nil registry")
	}
	if _, err := NewServer(&Config{}, registry, nil); err == nil {
		t.Error("NewServer() accepted nil environment")
	}

	srv, err := NewServer(&Config{}, registry, env)
	if err != nil {
		t.Fatal(err)
	}
	if srv.config.BindAddress != "127.0.0.1" || srv.config.Port != 8750 {
		t.Errorf("defaults not applied: %+v", srv.config)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, system.NewMemFS())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz status = %d, want 405", rec.Code)
	}
}

func TestTargets(t *testing.T) {
	srv := newTestServer(t, system.NewMemFS())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/targets", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var targets []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &targets); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(targets) != 1 || targets[0]["name"] != "testapp" {
		t.Errorf("targets = %v", targets)
	}
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t, system.NewMemFS())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze/testapp", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Target   string          `json:"target"`
		Findings []types.Finding `json:"findings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Target != "testapp" || len(body.Findings) != 1 {
		t.Errorf("body = %+v", body)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown target status = %d, want 404", rec.Code)
	}
}

func TestFix(t *testing.T) {
	fs := system.NewMemFS()
	fs.AddFile("/app/Cache/blob", []byte("stale"))
	srv := newTestServer(t, fs)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/fix/testapp", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var report types.ExecutionReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Target != "testapp" || len(report.Results) != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Results[0].Outcome != types.StepSucceeded {
		t.Errorf("step outcome = %v", report.Results[0].Outcome)
	}
	if fs.Exists("/app/Cache/blob") {
		t.Error("cache entry survived the fix")
	}
}

func TestFixNotInstalled(t *testing.T) {
	srv := newTestServer(t, system.NewMemFS()) // no /app at all

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/fix/testapp", nil))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestFixUnknownTarget(t *testing.T) {
	srv := newTestServer(t, system.NewMemFS())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/fix/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/fix/testapp", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET fix status = %d, want 405", rec.Code)
	}
}

func TestFixDryRun(t *testing.T) {
	fs := system.NewMemFS()
	fs.AddFile("/app/Cache/blob", []byte("stale"))
	srv := newTestServer(t, fs)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/fix/testapp?dryRun=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report types.ExecutionReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if !report.DryRun {
		t.Error("report not flagged as dry-run")
	}
	if !fs.Exists("/app/Cache/blob") {
		t.Error("dry-run mutated the filesystem")
	}
}

func TestFixNotifiesExporters(t *testing.T) {
	fs := system.NewMemFS()
	fs.AddDir("/app/Cache")
	srv := newTestServer(t, fs)

	exporter := &recordingExporter{}
	srv.AddReportExporter(exporter)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/fix/testapp", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(exporter.reports) != 1 {
		t.Errorf("exporter received %d reports, want 1", len(exporter.reports))
	}
}

type recordingExporter struct {
	reports []*types.ExecutionReport
}

func (e *recordingExporter) ExportReport(_ context.Context, r *types.ExecutionReport) error {
	e.reports = append(e.reports, r)
	return nil
}
