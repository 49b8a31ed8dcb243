// Package types defines the core interfaces and types for App Doctor.
package types

import (
	"context"
	"time"
)

// StepOutcome classifies the result of a single fix step.
type StepOutcome string

const (
	// StepSucceeded indicates the step's action ran to completion.
	StepSucceeded StepOutcome = "Succeeded"

	// StepSkippedNotFound indicates the step's precondition path or registry
	// key was absent, so the action was never invoked.
	StepSkippedNotFound StepOutcome = "SkippedNotFound"

	// StepFailed indicates the action ran and returned or raised an error.
	// The error message is recorded in the step result.
	StepFailed StepOutcome = "Failed"
)

// StepResult is the recorded outcome of one fix step.
type StepResult struct {
	// Name is the human-readable step name as declared by the fixer.
	Name string `json:"name"`

	// Outcome is the terminal state of this step.
	Outcome StepOutcome `json:"outcome"`

	// Message carries the failure reason for failed steps, or an optional
	// detail line for succeeded/skipped steps.
	Message string `json:"message,omitempty"`

	// Duration is how long the step took, zero for skipped steps.
	Duration time.Duration `json:"duration"`

	// Timestamp is when the step finished.
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionReport is the ordered record of a single remediation run.
// It is produced fresh on each run and never persisted; one StepResult is
// appended per declared step, in declaration order, regardless of earlier
// outcomes.
type ExecutionReport struct {
	// RunID uniquely identifies this run.
	RunID string `json:"runId"`

	// Target is the name of the target application that was remediated.
	Target string `json:"target"`

	// DryRun is true when mutating actions were simulated.
	DryRun bool `json:"dryRun"`

	// StartTime and EndTime bound the whole run, including process shutdown.
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// ProcessesStopped lists process names that were actually running and
	// were terminated before the steps executed.
	ProcessesStopped []string `json:"processesStopped,omitempty"`

	// Results holds one entry per declared step, in declaration order.
	Results []StepResult `json:"results"`
}

// OutcomeCounts tallies step results by outcome.
type OutcomeCounts struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Counts returns per-outcome tallies for the report.
func (r *ExecutionReport) Counts() OutcomeCounts {
	var c OutcomeCounts
	for _, res := range r.Results {
		switch res.Outcome {
		case StepSucceeded:
			c.Succeeded++
		case StepSkippedNotFound:
			c.Skipped++
		case StepFailed:
			c.Failed++
		}
	}
	return c
}

// Failed reports whether any step in the run failed.
func (r *ExecutionReport) Failed() bool {
	for _, res := range r.Results {
		if res.Outcome == StepFailed {
			return true
		}
	}
	return false
}

// Duration returns the wall-clock duration of the run.
func (r *ExecutionReport) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// TargetApplication describes the external application being remediated.
// It is read-only reference data: a process list, an application-data root,
// and the registry subtrees the fixer touches.
type TargetApplication struct {
	// Name is the short identifier used on the CLI and HTTP API (e.g. "teams").
	Name string `json:"name"`

	// DisplayName is the human-readable product name.
	DisplayName string `json:"displayName"`

	// ProcessNames are executable names terminated before the steps run.
	ProcessNames []string `json:"processNames"`

	// DataRoot is the application's data directory, resolved to an absolute
	// path. If it does not exist the application is considered not installed
	// and the run exits early.
	DataRoot string `json:"dataRoot"`

	// RegistryRoots are HKCU-relative key paths the fixer operates under.
	RegistryRoots []string `json:"registryRoots,omitempty"`
}

// FindingSeverity indicates how serious an analysis finding is.
type FindingSeverity string

const (
	SeverityInfo    FindingSeverity = "Info"
	SeverityWarning FindingSeverity = "Warning"
	SeverityError   FindingSeverity = "Error"
)

// Finding is a single read-only observation produced by the analyzer.
type Finding struct {
	// Category groups findings (e.g. "process", "cache", "registry").
	Category string `json:"category"`

	// Severity indicates the importance of the finding.
	Severity FindingSeverity `json:"severity"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Detail carries an optional machine-usable value (a path, a size).
	Detail string `json:"detail,omitempty"`
}

// ReportExporter publishes execution reports to an external consumer
// (console, metrics, a log pipeline). Exporters must not mutate the report.
type ReportExporter interface {
	// ExportReport publishes a completed execution report.
	ExportReport(ctx context.Context, report *ExecutionReport) error
}
