// Package runner executes an ordered list of fix steps against a target
// application, isolating failures per step. Every declared step is attempted
// exactly once per run, in declaration order, regardless of earlier
// outcomes; there is no rollback and no per-step retry.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sysoptim/app-doctor/pkg/logger"
	"github.com/sysoptim/app-doctor/pkg/types"
)

// ErrNotInstalled is returned by Run when the target application's data
// directory is absent. No steps are attempted and no report is produced.
var ErrNotInstalled = errors.New("target application is not installed for this user")

// Options tune a single runner instance.
type Options struct {
	// SettleDelay is the wait after process termination, so the OS releases
	// file handles before deletion steps run. The wait only happens when at
	// least one process was actually running; zero disables it. Defaults are
	// a configuration concern, not applied here.
	SettleDelay time.Duration

	// SkipProcessKill leaves target processes running.
	SkipProcessKill bool

	// DryRun evaluates preconditions and reports outcomes without invoking
	// mutating actions.
	DryRun bool
}

// Runner executes a target application's fix steps.
type Runner struct {
	target    types.TargetApplication
	steps     []Step
	env       *Env
	opts      Options
	exporters []types.ReportExporter
	log       *logrus.Entry
}

// New creates a Runner. An empty step list or missing environment is a
// caller error, not a runtime fault.
func New(target types.TargetApplication, steps []Step, env *Env, opts Options) (*Runner, error) {
	if target.Name == "" {
		return nil, fmt.Errorf("target name cannot be empty")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("step list for target %q cannot be empty", target.Name)
	}
	for i, s := range steps {
		if s.Name == "" {
			return nil, fmt.Errorf("target %q: step %d has no name", target.Name, i)
		}
		if s.Action == nil {
			return nil, fmt.Errorf("target %q: step %q has no action", target.Name, s.Name)
		}
	}
	if env == nil || env.FS == nil || env.Registry == nil || env.Processes == nil {
		return nil, fmt.Errorf("target %q: incomplete environment", target.Name)
	}

	return &Runner{
		target: target,
		steps:  steps,
		env:    env,
		opts:   opts,
		log:    logger.WithField("target", target.Name),
	}, nil
}

// AddExporter registers an exporter notified with the completed report.
func (r *Runner) AddExporter(e types.ReportExporter) {
	r.exporters = append(r.exporters, e)
}

// Run executes the full step list and returns the execution report.
//
// The only error conditions are ErrNotInstalled (the target's data root is
// missing) — individual step faults are isolated, recorded in the report,
// and never propagate. A run, once past the install check, always completes
// the whole list.
func (r *Runner) Run(ctx context.Context) (*types.ExecutionReport, error) {
	if !r.env.FS.Exists(r.target.DataRoot) {
		r.log.Infof("%s data directory not found at %s; nothing to do",
			r.target.DisplayName, r.target.DataRoot)
		return nil, ErrNotInstalled
	}

	report := &types.ExecutionReport{
		RunID:     uuid.NewString(),
		Target:    r.target.Name,
		DryRun:    r.opts.DryRun,
		StartTime: time.Now(),
	}

	r.log.WithField("runId", report.RunID).Infof("starting remediation of %s (%d steps)",
		r.target.DisplayName, len(r.steps))

	if !r.opts.SkipProcessKill {
		report.ProcessesStopped = r.stopProcesses(ctx)
	}

	for _, step := range r.steps {
		report.Results = append(report.Results, r.runStep(ctx, step))
	}

	report.EndTime = time.Now()

	counts := report.Counts()
	r.log.Infof("remediation of %s finished: %d succeeded, %d skipped, %d failed",
		r.target.DisplayName, counts.Succeeded, counts.Skipped, counts.Failed)

	for _, e := range r.exporters {
		if err := e.ExportReport(ctx, report); err != nil {
			r.log.WithError(err).Warn("report exporter failed")
		}
	}

	return report, nil
}

// stopProcesses terminates the target's processes best-effort and waits for
// handles to be released if anything was actually running. Absence of a
// process is expected and not an error.
func (r *Runner) stopProcesses(ctx context.Context) []string {
	var stopped []string
	for _, name := range r.target.ProcessNames {
		if r.opts.DryRun {
			running, _ := r.env.Processes.IsRunning(ctx, name)
			if running {
				r.log.Infof("dry-run: would terminate %s", name)
				stopped = append(stopped, name)
			}
			continue
		}
		found, err := r.env.Processes.Terminate(ctx, name)
		if err != nil {
			r.log.WithError(err).Warnf("failed to terminate %s", name)
			continue
		}
		if found {
			r.log.Infof("terminated %s", name)
			stopped = append(stopped, name)
		}
	}

	if len(stopped) > 0 && !r.opts.DryRun && r.opts.SettleDelay > 0 {
		r.log.Debugf("waiting %v for file handles to be released", r.opts.SettleDelay)
		select {
		case <-time.After(r.opts.SettleDelay):
		case <-ctx.Done():
		}
	}
	return stopped
}

// runStep evaluates the precondition, runs the action with panic recovery,
// and returns the recorded result. Faults are captured, never propagated.
func (r *Runner) runStep(ctx context.Context, step Step) types.StepResult {
	result := types.StepResult{Name: step.Name}
	start := time.Now()

	holds, detail, err := step.Precondition.Holds(r.env)
	if err != nil {
		result.Outcome = types.StepFailed
		result.Message = err.Error()
		result.Timestamp = time.Now()
		r.log.WithError(err).Errorf("step %q: precondition check failed", step.Name)
		return result
	}
	if !holds {
		result.Outcome = types.StepSkippedNotFound
		result.Message = fmt.Sprintf("not found: %s", detail)
		result.Timestamp = time.Now()
		r.log.Infof("step %q skipped: %s not found", step.Name, detail)
		return result
	}

	if r.opts.DryRun {
		result.Outcome = types.StepSucceeded
		result.Message = "dry-run: action not executed"
		result.Duration = time.Since(start)
		result.Timestamp = time.Now()
		r.log.Infof("dry-run: would run step %q", step.Name)
		return result
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic during step %q: %v", step.Name, rec)
			}
		}()
		err = step.Action(ctx, r.env)
	}()

	result.Duration = time.Since(start)
	result.Timestamp = time.Now()

	if err != nil {
		result.Outcome = types.StepFailed
		result.Message = err.Error()
		r.log.WithError(err).Errorf("step %q failed", step.Name)
	} else {
		result.Outcome = types.StepSucceeded
		r.log.Infof("step %q succeeded", step.Name)
	}
	return result
}
