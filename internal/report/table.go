package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/quantbench/sweep/internal/parser"
)

// Layout fixes a table's column set. Column order is part of the contract
// with downstream consumers; reordering is a breaking change.
type Layout struct {
	// IncludeTransform is false for per-transform split files, where the
	// file name already names the transform.
	IncludeTransform bool
	// IncludeScale is false for chunked sweeps, which have no scale axis.
	IncludeScale bool
	Schema       parser.Schema
}

// Columns returns the header row for the layout.
func (l Layout) Columns() []string {
	cols := []string{"dataset", "image_path"}
	if l.IncludeTransform {
		cols = append(cols, "transform")
	}
	if l.IncludeScale {
		cols = append(cols, "quantization_scale")
	}
	cols = append(cols, MetricColumns(l.Schema)...)
	return append(cols, "error")
}

// WriteCSV emits the header, one row per record in the given order, and
// then any summary rows. Callers sort first; WriteCSV never reorders.
func WriteCSV(w io.Writer, layout Layout, records []Record, summary []SummaryRow) error {
	cw := csv.NewWriter(w)
	cols := layout.Columns()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	for i := range records {
		if err := cw.Write(recordRow(layout, &records[i])); err != nil {
			return fmt.Errorf("report: write row: %w", err)
		}
	}

	for _, s := range summary {
		if err := cw.Write(summaryRowCells(cols, s)); err != nil {
			return fmt.Errorf("report: write summary row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func recordRow(layout Layout, r *Record) []string {
	row := []string{r.Dataset, r.ImagePath}
	if layout.IncludeTransform {
		row = append(row, r.Transform)
	}
	if layout.IncludeScale {
		scale := ""
		if r.Scale != nil {
			scale = strconv.FormatFloat(*r.Scale, 'g', -1, 64)
		}
		row = append(row, scale)
	}
	for _, col := range MetricColumns(layout.Schema) {
		row = append(row, formatOptional(metricFields[col](r)))
	}
	return append(row, r.Error)
}

// summaryRowCells lays a summary row over the data columns: the dataset
// cell is the literal "summary", the image_path cell names the field, and
// the statistic string lands in the field's own column. The counts row
// uses the error column. Non-applicable cells stay empty.
func summaryRowCells(cols []string, s SummaryRow) []string {
	row := make([]string, len(cols))
	target := s.Field
	if s.Field == CountsField {
		target = "error"
	}
	for i, col := range cols {
		switch col {
		case "dataset":
			row[i] = "summary"
		case "image_path":
			row[i] = s.Field
		case target:
			row[i] = s.Stat
		}
	}
	return row
}
