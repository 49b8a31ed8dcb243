// Package console renders execution reports as human-readable status
// lines, one per step, the way the fix scripts it replaces printed their
// progress.
package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sysoptim/app-doctor/pkg/types"
)

// Exporter writes a formatted report to an io.Writer.
type Exporter struct {
	out io.Writer
}

// New creates a console exporter writing to out.
func New(out io.Writer) *Exporter {
	return &Exporter{out: out}
}

// ExportReport prints one status line per step plus a summary.
func (e *Exporter) ExportReport(_ context.Context, report *types.ExecutionReport) error {
	header := fmt.Sprintf("Fix results for %s (run %s)", report.Target, report.RunID)
	if report.DryRun {
		header += " [dry-run]"
	}
	fmt.Fprintln(e.out, header)

	for _, name := range report.ProcessesStopped {
		fmt.Fprintf(e.out, "  stopped process %s\n", name)
	}

	for _, res := range report.Results {
		switch res.Outcome {
		case types.StepSucceeded:
			fmt.Fprintf(e.out, "  [ ok ] %s\n", res.Name)
		case types.StepSkippedNotFound:
			fmt.Fprintf(e.out, "  [skip] %s (%s)\n", res.Name, res.Message)
		case types.StepFailed:
			fmt.Fprintf(e.out, "  [FAIL] %s: %s\n", res.Name, res.Message)
		}
	}

	counts := report.Counts()
	fmt.Fprintf(e.out, "%d succeeded, %d skipped, %d failed in %s\n",
		counts.Succeeded, counts.Skipped, counts.Failed,
		report.Duration().Round(time.Millisecond))
	return nil
}
