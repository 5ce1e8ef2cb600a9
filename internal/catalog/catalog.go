// Package catalog discovers benchmark input images underneath a dataset
// root directory. Each immediate subdirectory of the root is one dataset;
// the files directly inside it are that dataset's images.
package catalog

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Error reports a dataset root that cannot be scanned. It is the only
// batch-fatal condition in the discovery phase.
type Error struct {
	Root string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog: cannot scan dataset root %s: %v", e.Root, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Entry is one discovered image together with the dataset it belongs to.
type Entry struct {
	Dataset string
	Path    string
}

// Options control discovery behavior.
type Options struct {
	// Extensions lists accepted file extensions (lowercase, with leading
	// dot). Defaults to {".png"}.
	Extensions []string

	// SamplePerDataset, when positive, keeps at most that many images per
	// dataset, chosen deterministically from Seed. Zero means all images.
	SamplePerDataset int
	Seed             int64
}

var defaultExtensions = []string{".png"}

// Scan walks the immediate subdirectories of root and returns one Entry
// per matching image file, sorted by (dataset, path). A missing or
// unreadable root yields an *Error; a dataset with no images simply
// contributes nothing.
func Scan(root string, opts Options) ([]Entry, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, &Error{Root: root, Err: err}
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = defaultExtensions
	}

	var entries []Entry
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		datasetDir := filepath.Join(root, dir.Name())
		files, err := os.ReadDir(datasetDir)
		if err != nil {
			return nil, &Error{Root: root, Err: err}
		}

		var images []string
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if matchesExtension(f.Name(), exts) {
				images = append(images, filepath.Join(datasetDir, f.Name()))
			}
		}
		sort.Strings(images)
		images = samplePaths(images, opts.SamplePerDataset, opts.Seed)

		for _, img := range images {
			entries = append(entries, Entry{Dataset: dir.Name(), Path: img})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Dataset != entries[j].Dataset {
			return entries[i].Dataset < entries[j].Dataset
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func matchesExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// samplePaths keeps at most n paths, picked by a seeded shuffle so the
// same seed always selects the same subset. The survivors are re-sorted
// to keep downstream ordering stable.
func samplePaths(paths []string, n int, seed int64) []string {
	if n <= 0 || len(paths) <= n {
		return paths
	}
	shuffled := make([]string, len(paths))
	copy(shuffled, paths)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	kept := shuffled[:n]
	sort.Strings(kept)
	return kept
}
