// Package grid enumerates the sweep's parameter combinations. A Task is
// one invocation of the external codec; the generator emits the full
// cross-product of transforms, images, and quantization scales without
// deduplication.
package grid

import (
	"github.com/quantbench/sweep/internal/catalog"
)

// Task describes a single codec invocation. It is a plain value and is
// never mutated after generation.
type Task struct {
	Transform string
	Dataset   string
	ImagePath string

	// Scale is the quantization scale; HasScale is false in the chunked
	// invocation variant, which has no scale axis.
	Scale    float64
	HasScale bool

	// SavePrefix, when non-empty, is forwarded to the codec so it writes
	// reconstructed/diff images next to its metrics.
	SavePrefix string

	// ChunkSize selects the chunked argv contract
	// (<transform> <chunk-size> <image>) when positive.
	ChunkSize int
}

// Options tune grid generation.
type Options struct {
	// PerTransformScales overrides Scales for the named transforms.
	// Transforms absent from the map fall back to the shared list.
	PerTransformScales map[string][]float64

	SavePrefix string
	ChunkSize  int
}

// Generate produces the ordered cross-product of transforms × entries ×
// scales. Transforms iterate outermost so per-transform output files
// group naturally. In chunked mode (Options.ChunkSize > 0) the scale axis
// collapses to one task per (transform, image).
func Generate(entries []catalog.Entry, transforms []string, scales []float64, opts Options) []Task {
	var tasks []Task
	for _, transform := range transforms {
		transformScales := scales
		if s, ok := opts.PerTransformScales[transform]; ok {
			transformScales = s
		}

		for _, entry := range entries {
			if opts.ChunkSize > 0 {
				tasks = append(tasks, Task{
					Transform: transform,
					Dataset:   entry.Dataset,
					ImagePath: entry.Path,
					ChunkSize: opts.ChunkSize,
				})
				continue
			}
			for _, scale := range transformScales {
				tasks = append(tasks, Task{
					Transform:  transform,
					Dataset:    entry.Dataset,
					ImagePath:  entry.Path,
					Scale:      scale,
					HasScale:   true,
					SavePrefix: opts.SavePrefix,
				})
			}
		}
	}
	return tasks
}
