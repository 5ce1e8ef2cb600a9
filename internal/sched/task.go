package sched

import (
	"context"
	"fmt"

	"github.com/quantbench/sweep/internal/codec"
	"github.com/quantbench/sweep/internal/grid"
	"github.com/quantbench/sweep/internal/parser"
	"github.com/quantbench/sweep/internal/report"
)

// TimeoutError is the error string recorded for timed-out invocations.
const TimeoutError = "Timeout"

// NewRunner composes invoke and parse into a RunFunc. Any failure
// (start error, non-zero exit, timeout, unparseable output) yields a
// record carrying the task identity and an error string, with every
// metric absent.
func NewRunner(inv *codec.Invoker, schema parser.Schema) RunFunc {
	return func(ctx context.Context, task grid.Task) report.Record {
		rec := report.Record{
			Dataset:   task.Dataset,
			ImagePath: task.ImagePath,
			Transform: task.Transform,
		}
		if task.HasScale {
			scale := task.Scale
			rec.Scale = &scale
		}

		outcome, err := inv.Invoke(ctx, task)
		if err != nil {
			rec.Error = err.Error()
			return rec
		}

		switch outcome.Status {
		case codec.StatusTimeout:
			rec.Error = TimeoutError
			return rec
		case codec.StatusFailed:
			rec.Error = outcome.Stderr
			if rec.Error == "" {
				rec.Error = fmt.Sprintf("exit status %d", outcome.ExitCode)
			}
			return rec
		}

		metrics, err := parser.Parse(outcome.Stdout, schema)
		if err != nil {
			rec.Error = err.Error()
			return rec
		}
		rec.Metrics = metrics
		return rec
	}
}
