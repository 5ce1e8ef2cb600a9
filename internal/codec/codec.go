// Package codec is the boundary to the external compression benchmark
// binary. It builds the positional argument list for one task, runs the
// binary with a wall-clock timeout, and captures exit code, stdout, and
// stderr verbatim.
package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/quantbench/sweep/internal/grid"
)

// DefaultTimeout is the established per-invocation wall-clock budget.
const DefaultTimeout = 300 * time.Second

// Status classifies how an invocation ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
)

// Outcome is the raw capture of one codec run.
type Outcome struct {
	Status     Status
	ExitCode   int
	Stdout     string
	Stderr     string
	DurationMS int64
}

// Invoker runs the codec binary. The zero Timeout falls back to
// DefaultTimeout; a negative Timeout disables the budget.
type Invoker struct {
	Binary  string
	Timeout time.Duration
}

// NoSave is the sentinel save prefix telling the codec to skip writing
// reconstructed images. The scale-form binaries read the fourth argument
// unconditionally, so it is always passed.
const NoSave = "no_save"

// Args builds the positional argument list for a task. Two contracts
// exist: the chunked form <transform> <chunk-size> <image>, and the scale
// form <transform> <image> <scale> <save-path-prefix>.
func Args(task grid.Task) []string {
	if task.ChunkSize > 0 {
		return []string{task.Transform, strconv.Itoa(task.ChunkSize), task.ImagePath}
	}
	prefix := task.SavePrefix
	if prefix == "" {
		prefix = NoSave
	}
	return []string{task.Transform, task.ImagePath, FormatScale(task.Scale), prefix}
}

// FormatScale renders a quantization scale the way it appears on the
// command line and in output tables.
func FormatScale(scale float64) string {
	return strconv.FormatFloat(scale, 'g', -1, 64)
}

// Invoke runs the codec once for the given task. A timeout is reported as
// an Outcome with StatusTimeout, never as an error; an error is returned
// only when the process cannot be started at all.
func (iv *Invoker) Invoke(ctx context.Context, task grid.Task) (*Outcome, error) {
	timeout := iv.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, iv.Binary, Args(task)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	outcome := &Outcome{
		Status:     StatusSuccess,
		Stdout:     strings.TrimSpace(stdout.String()),
		Stderr:     strings.TrimSpace(stderr.String()),
		DurationMS: elapsed,
	}

	if ctx.Err() == context.DeadlineExceeded {
		outcome.Status = StatusTimeout
		outcome.ExitCode = -1
		return outcome, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.Status = StatusFailed
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		return nil, fmt.Errorf("codec: failed to start %s: %w", iv.Binary, err)
	}
	return outcome, nil
}
