// Package types defines configuration types for App Doctor.
package types

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Package-level defaults
const (
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultLogOutput           = "stdout"
	DefaultSettleDelay         = "2s"
	DefaultServerPort          = 8750
	DefaultServerBindAddress   = "127.0.0.1"
	DefaultServerReadTimeout   = "10s"
	DefaultServerWriteTimeout  = "5m"
	DefaultPrometheusNamespace = "app_doctor"
	DefaultPrometheusPath      = "/metrics"
)

// Minimum and maximum bounds for tunables.
var (
	// MinSettleDelay bounds the post-terminate wait so file handles have a
	// chance to be released before deletion steps run.
	MinSettleDelay = 0 * time.Second
	MaxSettleDelay = 30 * time.Second
)

// Package-level variables for validation
var (
	prometheusNamespaceRegex = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}

	// Valid declarative step actions for custom targets.
	validStepActions = map[string]bool{
		"clear-dir":             true,
		"remove-path":           true,
		"remove-glob":           true,
		"backup-file":           true,
		"delete-registry-key":   true,
		"delete-registry-value": true,
		"export-registry-key":   true,
	}
)

// AppDoctorConfig is the top-level configuration structure.
type AppDoctorConfig struct {
	// APIVersion of the configuration schema
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`

	// Kind of resource (always "AppDoctorConfig")
	Kind string `json:"kind" yaml:"kind"`

	// Metadata contains name and labels.
	Metadata ConfigMetadata `json:"metadata" yaml:"metadata"`

	// Settings contains global runtime settings.
	Settings GlobalSettings `json:"settings" yaml:"settings"`

	// Server configures the optional HTTP API.
	Server ServerConfig `json:"server" yaml:"server"`

	// Metrics configures the Prometheus exporter.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Targets declares additional config-driven targets beyond the built-in
	// fixers.
	Targets []TargetConfig `json:"targets" yaml:"targets"`
}

// ConfigMetadata identifies a configuration document.
type ConfigMetadata struct {
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// GlobalSettings contains global runtime settings.
type GlobalSettings struct {
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	// LogFormat is json or text.
	LogFormat string `json:"logFormat" yaml:"logFormat"`

	// LogOutput is stdout, stderr, or file.
	LogOutput string `json:"logOutput" yaml:"logOutput"`

	// LogFile is the log file path when LogOutput is "file".
	LogFile string `json:"logFile,omitempty" yaml:"logFile,omitempty"`

	// SettleDelay is how long to wait after terminating target processes
	// before steps start mutating files (duration string, e.g. "2s").
	SettleDelay string `json:"settleDelay" yaml:"settleDelay"`

	// DryRun evaluates preconditions and reports outcomes without running
	// mutating actions.
	DryRun bool `json:"dryRun" yaml:"dryRun"`

	// SkipProcessKill leaves target processes running. Deletion steps are
	// then likely to fail on locked files; useful for diagnostics only.
	SkipProcessKill bool `json:"skipProcessKill" yaml:"skipProcessKill"`
}

// SettleDelayDuration parses the settle delay, falling back to the default.
func (s *GlobalSettings) SettleDelayDuration() time.Duration {
	d, err := time.ParseDuration(s.SettleDelay)
	if err != nil {
		d, _ = time.ParseDuration(DefaultSettleDelay)
	}
	return d
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Enabled controls whether `app-doctor serve` exposes the API.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BindAddress is the address to bind to (default: 127.0.0.1).
	BindAddress string `json:"bindAddress" yaml:"bindAddress"`

	// Port is the port to listen on (default: 8750).
	Port int `json:"port" yaml:"port"`

	// ReadTimeout and WriteTimeout are HTTP timeouts (duration strings).
	// WriteTimeout must cover a full remediation run.
	ReadTimeout  string `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout string `json:"writeTimeout" yaml:"writeTimeout"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace is the Prometheus metric namespace (default: app_doctor).
	Namespace string `json:"namespace" yaml:"namespace"`

	// Path is the HTTP path metrics are served on (default: /metrics).
	Path string `json:"path" yaml:"path"`
}

// TargetConfig declares a config-driven target application and its steps.
type TargetConfig struct {
	// Name is the CLI/API identifier for the target.
	Name string `json:"name" yaml:"name"`

	// DisplayName is the human-readable product name.
	DisplayName string `json:"displayName" yaml:"displayName"`

	// ProcessNames are executable names to terminate before the steps run.
	ProcessNames []string `json:"processNames" yaml:"processNames"`

	// DataRoot is the application data directory. Environment variables are
	// expanded; a missing directory means "not installed".
	DataRoot string `json:"dataRoot" yaml:"dataRoot"`

	// Steps are the declarative fix steps, executed in declaration order.
	Steps []StepConfig `json:"steps" yaml:"steps"`
}

// StepConfig declares one fix step of a config-driven target.
type StepConfig struct {
	// Name is the human-readable step name.
	Name string `json:"name" yaml:"name"`

	// Action is one of: clear-dir, remove-path, remove-glob, backup-file,
	// delete-registry-key, delete-registry-value, export-registry-key.
	Action string `json:"action" yaml:"action"`

	// Path is the filesystem path or glob the action operates on, relative
	// to the target's data root unless absolute.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Key is the HKCU-relative registry key for registry actions.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Value is the registry value name for delete-registry-value.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Dest is the destination path for backup-file and export-registry-key.
	Dest string `json:"dest,omitempty" yaml:"dest,omitempty"`
}

// ApplyDefaults fills in default values for unset fields.
func (c *AppDoctorConfig) ApplyDefaults() error {
	if c.APIVersion == "" {
		c.APIVersion = "app-doctor.io/v1alpha1"
	}
	if c.Kind == "" {
		c.Kind = "AppDoctorConfig"
	}
	if c.Metadata.Name == "" {
		c.Metadata.Name = "default"
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = DefaultLogFormat
	}
	if c.Settings.LogOutput == "" {
		c.Settings.LogOutput = DefaultLogOutput
	}
	if c.Settings.SettleDelay == "" {
		c.Settings.SettleDelay = DefaultSettleDelay
	}
	if c.Server.BindAddress == "" {
		c.Server.BindAddress = DefaultServerBindAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultPrometheusNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultPrometheusPath
	}
	return nil
}

// Validate checks the configuration for errors. A malformed target or step
// list is a configuration error and fails the whole load; it is never treated
// as a runtime fault.
func (c *AppDoctorConfig) Validate() error {
	if c.Kind != "AppDoctorConfig" {
		return fmt.Errorf("invalid kind: %q (expected AppDoctorConfig)", c.Kind)
	}
	if !validLogLevels[c.Settings.LogLevel] {
		return fmt.Errorf("invalid log level: %q", c.Settings.LogLevel)
	}
	if !validLogFormats[c.Settings.LogFormat] {
		return fmt.Errorf("invalid log format: %q", c.Settings.LogFormat)
	}
	if !validLogOutputs[c.Settings.LogOutput] {
		return fmt.Errorf("invalid log output: %q", c.Settings.LogOutput)
	}
	if c.Settings.LogOutput == "file" && c.Settings.LogFile == "" {
		return fmt.Errorf("logFile is required when logOutput is \"file\"")
	}

	delay, err := time.ParseDuration(c.Settings.SettleDelay)
	if err != nil {
		return fmt.Errorf("invalid settleDelay %q: %w", c.Settings.SettleDelay, err)
	}
	if delay < MinSettleDelay || delay > MaxSettleDelay {
		return fmt.Errorf("settleDelay %v out of range [%v, %v]", delay, MinSettleDelay, MaxSettleDelay)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("invalid server readTimeout %q: %w", c.Server.ReadTimeout, err)
	}
	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("invalid server writeTimeout %q: %w", c.Server.WriteTimeout, err)
	}

	if !prometheusNamespaceRegex.MatchString(c.Metrics.Namespace) {
		return fmt.Errorf("invalid prometheus namespace: %q", c.Metrics.Namespace)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
	}

	seen := make(map[string]bool)
	for i := range c.Targets {
		if err := c.Targets[i].Validate(); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
		if seen[c.Targets[i].Name] {
			return fmt.Errorf("duplicate target name: %q", c.Targets[i].Name)
		}
		seen[c.Targets[i].Name] = true
	}
	return nil
}

// Validate checks a single target declaration.
func (t *TargetConfig) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	if t.DataRoot == "" {
		return fmt.Errorf("target %q: dataRoot cannot be empty", t.Name)
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("target %q: step list cannot be empty", t.Name)
	}
	for i := range t.Steps {
		if err := t.Steps[i].Validate(); err != nil {
			return fmt.Errorf("target %q step %d: %w", t.Name, i, err)
		}
	}
	return nil
}

// Validate checks a single declarative step.
func (s *StepConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("step name cannot be empty")
	}
	if !validStepActions[s.Action] {
		return fmt.Errorf("unknown action: %q", s.Action)
	}
	switch s.Action {
	case "clear-dir", "remove-path", "remove-glob":
		if s.Path == "" {
			return fmt.Errorf("action %q requires path", s.Action)
		}
	case "backup-file":
		if s.Path == "" {
			return fmt.Errorf("action %q requires path", s.Action)
		}
	case "delete-registry-key", "export-registry-key":
		if s.Key == "" {
			return fmt.Errorf("action %q requires key", s.Action)
		}
		if s.Action == "export-registry-key" && s.Dest == "" {
			return fmt.Errorf("action %q requires dest", s.Action)
		}
	case "delete-registry-value":
		if s.Key == "" || s.Value == "" {
			return fmt.Errorf("action %q requires key and value", s.Action)
		}
	}
	return nil
}

// SubstituteEnvVars expands ${VAR} references in dynamic string fields.
// Raw config data is already expanded before parsing; this covers values
// assembled after parse (e.g. map entries).
func (c *AppDoctorConfig) SubstituteEnvVars() {
	c.Settings.LogFile = os.ExpandEnv(c.Settings.LogFile)
	for i := range c.Targets {
		c.Targets[i].DataRoot = os.ExpandEnv(c.Targets[i].DataRoot)
		for j := range c.Targets[i].Steps {
			c.Targets[i].Steps[j].Path = os.ExpandEnv(c.Targets[i].Steps[j].Path)
			c.Targets[i].Steps[j].Dest = os.ExpandEnv(c.Targets[i].Steps[j].Dest)
		}
	}
}
