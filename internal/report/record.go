// Package report turns per-task results into the sweep's tabular
// artifact: a deterministically sorted CSV with a fixed column set, plus
// optional summary-statistic rows.
package report

import (
	"sort"
	"strconv"

	"github.com/quantbench/sweep/internal/parser"
)

// Record is the persisted unit: one row per enumerated task. On success
// all schema metrics are set and Error is empty; on any failure the
// metrics stay nil and Error holds the cause. A partial mix never occurs.
type Record struct {
	Dataset   string `json:"dataset"`
	ImagePath string `json:"image_path"`
	Transform string `json:"transform"`

	Scale *float64 `json:"quantization_scale,omitempty"`

	parser.Metrics

	Error string `json:"error,omitempty"`
}

// Failed reports whether the record carries an error instead of metrics.
func (r *Record) Failed() bool { return r.Error != "" }

// Sort orders records by (dataset, image_path, transform, scale) so the
// emitted table is independent of task completion order.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		if a.ImagePath != b.ImagePath {
			return a.ImagePath < b.ImagePath
		}
		if a.Transform != b.Transform {
			return a.Transform < b.Transform
		}
		return scaleOf(a) < scaleOf(b)
	})
}

func scaleOf(r *Record) float64 {
	if r.Scale == nil {
		return 0
	}
	return *r.Scale
}

// FilterTransform returns the records belonging to one transform, for
// per-transform output splitting.
func FilterTransform(records []Record, transform string) []Record {
	var out []Record
	for _, r := range records {
		if r.Transform == transform {
			out = append(out, r)
		}
	}
	return out
}

// metricFields maps column names to their accessors, in no particular
// order; column order comes from the schema's column list.
var metricFields = map[string]func(*Record) *float64{
	"mse":                      func(r *Record) *float64 { return r.MSE },
	"psnr":                     func(r *Record) *float64 { return r.PSNR },
	"original_entropy":         func(r *Record) *float64 { return r.OriginalEntropy },
	"transformed_entropy":      func(r *Record) *float64 { return r.TransformedEntropy },
	"quantized_entropy":        func(r *Record) *float64 { return r.QuantizedEntropy },
	"compression_ratio":        func(r *Record) *float64 { return r.CompressionRatio },
	"direct_compression_ratio": func(r *Record) *float64 { return r.DirectCompressionRatio },
	"encode_ms":                func(r *Record) *float64 { return r.EncodeMS },
	"decode_ms":                func(r *Record) *float64 { return r.DecodeMS },
}

// MetricColumns returns the metric column names for a schema, in the
// fixed order the downstream consumers rely on.
func MetricColumns(schema parser.Schema) []string {
	switch schema {
	case parser.Schema5:
		return []string{"mse", "psnr", "original_entropy", "transformed_entropy", "quantized_entropy"}
	case parser.Schema6:
		return []string{"compression_ratio", "quantized_entropy", "mse", "psnr", "encode_ms", "decode_ms"}
	case parser.Schema9:
		return []string{
			"compression_ratio", "direct_compression_ratio",
			"original_entropy", "transformed_entropy", "quantized_entropy",
			"mse", "psnr", "encode_ms", "decode_ms",
		}
	}
	return nil
}

// formatOptional renders an optional metric cell; absence is an empty
// cell, never a zero.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
