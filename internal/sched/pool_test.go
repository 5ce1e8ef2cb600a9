package sched

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/quantbench/sweep/internal/grid"
	"github.com/quantbench/sweep/internal/report"
)

func makeTasks(transforms, images, scales int) []grid.Task {
	var tasks []grid.Task
	for t := 0; t < transforms; t++ {
		for i := 0; i < images; i++ {
			for s := 0; s < scales; s++ {
				tasks = append(tasks, grid.Task{
					Transform: fmt.Sprintf("T%d", t),
					Dataset:   "ds",
					ImagePath: fmt.Sprintf("img%d.png", i),
					Scale:     float64(s + 1),
					HasScale:  true,
				})
			}
		}
	}
	return tasks
}

func TestPoolRunsEveryTaskExactlyOnce(t *testing.T) {
	tasks := makeTasks(2, 3, 4)

	var mu sync.Mutex
	seen := map[string]int{}

	pool := &Pool{
		Workers: 4,
		Run: func(_ context.Context, task grid.Task) report.Record {
			key := fmt.Sprintf("%s/%s/%g", task.Transform, task.ImagePath, task.Scale)
			mu.Lock()
			seen[key]++
			mu.Unlock()
			return report.Record{Dataset: task.Dataset, ImagePath: task.ImagePath, Transform: task.Transform}
		},
	}

	records := pool.Execute(context.Background(), tasks)

	if len(records) != 24 {
		t.Fatalf("len(records) = %d, want 24", len(records))
	}
	if len(seen) != 24 {
		t.Fatalf("distinct tasks executed = %d, want 24", len(seen))
	}
	for key, count := range seen {
		if count != 1 {
			t.Errorf("task %s ran %d times, want 1", key, count)
		}
	}
}

func TestPoolFailureIsolation(t *testing.T) {
	tasks := makeTasks(2, 3, 4)

	pool := &Pool{
		Workers: 3,
		Run: func(_ context.Context, task grid.Task) report.Record {
			rec := report.Record{Dataset: task.Dataset, ImagePath: task.ImagePath, Transform: task.Transform}
			// One task "times out"; the batch must still complete.
			if task.Transform == "T1" && task.ImagePath == "img2.png" && task.Scale == 4 {
				rec.Error = TimeoutError
			}
			return rec
		},
	}

	records := pool.Execute(context.Background(), tasks)

	if len(records) != 24 {
		t.Fatalf("len(records) = %d, want 24 regardless of failures", len(records))
	}
	failed := 0
	for i := range records {
		if records[i].Failed() {
			failed++
			if records[i].Error != "Timeout" {
				t.Errorf("Error = %q, want %q", records[i].Error, "Timeout")
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed records = %d, want 1", failed)
	}
}

func TestPoolProgressIsMonotonic(t *testing.T) {
	tasks := makeTasks(1, 5, 2)

	var progress []int
	pool := &Pool{
		Workers: 2,
		Run: func(_ context.Context, task grid.Task) report.Record {
			return report.Record{ImagePath: task.ImagePath}
		},
		OnProgress: func(completed, total int) {
			progress = append(progress, completed)
			if total != 10 {
				t.Errorf("total = %d, want 10", total)
			}
		},
	}

	pool.Execute(context.Background(), tasks)

	if len(progress) != 10 {
		t.Fatalf("progress callbacks = %d, want 10", len(progress))
	}
	for i, p := range progress {
		if p != i+1 {
			t.Fatalf("progress[%d] = %d, want %d", i, p, i+1)
		}
	}
}

func TestPoolPreservesTaskIdentity(t *testing.T) {
	tasks := makeTasks(2, 2, 2)

	pool := &Pool{
		Workers: 8,
		Run: func(_ context.Context, task grid.Task) report.Record {
			scale := task.Scale
			return report.Record{
				Dataset:   task.Dataset,
				ImagePath: task.ImagePath,
				Transform: task.Transform,
				Scale:     &scale,
			}
		},
	}

	records := pool.Execute(context.Background(), tasks)

	// Records come back in submission order even though completion order
	// is unconstrained.
	for i, task := range tasks {
		rec := records[i]
		if rec.Transform != task.Transform || rec.ImagePath != task.ImagePath || *rec.Scale != task.Scale {
			t.Errorf("records[%d] = %s/%s/%g, want %s/%s/%g",
				i, rec.Transform, rec.ImagePath, *rec.Scale,
				task.Transform, task.ImagePath, task.Scale)
		}
	}
}

func TestPoolDefaultWorkerCount(t *testing.T) {
	pool := &Pool{
		Run: func(_ context.Context, task grid.Task) report.Record {
			return report.Record{ImagePath: task.ImagePath}
		},
	}
	records := pool.Execute(context.Background(), makeTasks(1, 2, 1))
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestPoolWithNoTasks(t *testing.T) {
	pool := &Pool{
		Workers: 4,
		Run: func(_ context.Context, task grid.Task) report.Record {
			t.Error("Run must not be called with no tasks")
			return report.Record{}
		},
	}
	records := pool.Execute(context.Background(), nil)
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}
