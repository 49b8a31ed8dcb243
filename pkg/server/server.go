// Package server exposes App Doctor over a local HTTP API so a GUI shell
// or automation can trigger fixes and read structured reports instead of
// scraping console output.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sysoptim/app-doctor/pkg/fixers"
	"github.com/sysoptim/app-doctor/pkg/logger"
	"github.com/sysoptim/app-doctor/pkg/runner"
	"github.com/sysoptim/app-doctor/pkg/types"
)

// Config contains the server's runtime configuration.
type Config struct {
	// BindAddress is the address to bind to (default: 127.0.0.1).
	BindAddress string

	// Port is the port to listen on (default: 8750).
	Port int

	// ReadTimeout for HTTP requests.
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses; must cover a full remediation run.
	WriteTimeout time.Duration

	// MetricsPath, when non-empty and MetricsHandler is set, serves the
	// metrics endpoint at this path.
	MetricsPath string

	// MetricsHandler serves /metrics (usually the prometheus exporter).
	MetricsHandler http.Handler

	// RunnerOptions are applied to every run the server triggers.
	RunnerOptions runner.Options
}

// Server serves the App Doctor HTTP API.
type Server struct {
	config          *Config
	registry        *fixers.Registry
	env             *runner.Env
	reportExporters []types.ReportExporter

	httpServer *http.Server
	startTime  time.Time

	mu      sync.Mutex // serializes remediation runs
	started bool
}

// NewServer creates an HTTP API server.
func NewServer(config *Config, registry *fixers.Registry, env *runner.Env) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("fixer registry cannot be nil")
	}
	if env == nil {
		return nil, fmt.Errorf("environment cannot be nil")
	}

	if config.BindAddress == "" {
		config.BindAddress = "127.0.0.1"
	}
	if config.Port == 0 {
		config.Port = 8750
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 5 * time.Minute
	}

	return &Server{
		config:    config,
		registry:  registry,
		env:       env,
		startTime: time.Now(),
	}, nil
}

// AddReportExporter registers an exporter attached to every triggered run.
func (s *Server) AddReportExporter(e types.ReportExporter) {
	s.reportExporters = append(s.reportExporters, e)
}

// Handler returns the API handler, also used directly in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/v1/targets", s.handleTargets)
	mux.HandleFunc("/api/v1/analyze/", s.handleAnalyze)
	mux.HandleFunc("/api/v1/fix/", s.handleFix)
	if s.config.MetricsHandler != nil && s.config.MetricsPath != "" {
		mux.Handle(s.config.MetricsPath, s.config.MetricsHandler)
	}
	return mux
}

// Start starts the HTTP server in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.started {
		return fmt.Errorf("server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		logger.Infof("HTTP API listening on %s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP API server failed")
		}
	}()

	s.started = true
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	if !s.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP API server: %w", err)
	}
	s.started = false
	return nil
}

// healthResponse is the JSON body for /healthz.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// targetInfo is one entry in the /api/v1/targets listing.
type targetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// errorResponse is the JSON body for error statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	infos := s.registry.List()
	targets := make([]targetInfo, 0, len(infos))
	for _, info := range infos {
		targets = append(targets, targetInfo{Name: info.Type, Description: info.Description})
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/analyze/")
	fixer, err := s.registry.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	findings := fixer.Analyze(r.Context(), s.env)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"target":   name,
		"findings": findings,
	})
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/fix/")
	fixer, err := s.registry.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	opts := s.config.RunnerOptions
	if r.URL.Query().Get("dryRun") == "true" {
		opts.DryRun = true
	}

	target, steps := fixer.Build(s.env.Paths)
	run, err := runner.New(target, steps, s.env, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, e := range s.reportExporters {
		run.AddExporter(e)
	}

	// Remediation runs are strictly sequential; concurrent fix requests
	// queue here.
	s.mu.Lock()
	report, err := run.Run(r.Context())
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, runner.ErrNotInstalled) {
			writeError(w, http.StatusConflict,
				fmt.Sprintf("%s is not installed for this user", target.DisplayName))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Warn("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
