// Package sched fans the task list out over a bounded worker pool. Every
// task runs exactly once; failures of any kind are folded into the
// returned record so a single bad task never aborts the batch.
package sched

import (
	"context"
	"runtime"
	"sync"

	"github.com/quantbench/sweep/internal/grid"
	"github.com/quantbench/sweep/internal/report"
)

// RunFunc executes one task end-to-end and always produces a record; it
// must not panic or fail out-of-band.
type RunFunc func(ctx context.Context, task grid.Task) report.Record

// Pool runs tasks with a fixed number of workers.
type Pool struct {
	// Workers is the pool size; values below 1 mean available CPU
	// parallelism.
	Workers int

	Run RunFunc

	// OnProgress, when set, observes the monotonically increasing
	// completed count. It runs serially on the collecting goroutine.
	OnProgress func(completed, total int)
}

type indexed struct {
	index  int
	record report.Record
}

// Execute runs every task and returns one record per task, in submission
// order. Completion order is unconstrained; the caller re-sorts before
// persisting.
func (p *Pool) Execute(ctx context.Context, tasks []grid.Task) []report.Record {
	workers := p.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan indexedTask)
	resultCh := make(chan indexed, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range taskCh {
				resultCh <- indexed{index: it.index, record: p.Run(ctx, it.task)}
			}
		}()
	}

	go func() {
		for i, task := range tasks {
			taskCh <- indexedTask{index: i, task: task}
		}
		close(taskCh)
		wg.Wait()
		close(resultCh)
	}()

	records := make([]report.Record, len(tasks))
	completed := 0
	for res := range resultCh {
		records[res.index] = res.record
		completed++
		if p.OnProgress != nil {
			p.OnProgress(completed, len(tasks))
		}
	}
	return records
}

type indexedTask struct {
	index int
	task  grid.Task
}
