package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// CountsField is the synthetic summary field holding task tallies.
const CountsField = "counts"

// SummaryRow is one derived statistics row, appended after all data rows.
type SummaryRow struct {
	Field string
	Stat  string
}

// Summarize computes one SummaryRow per metric field plus the counts row.
// Each statistic only considers records where the field is present; with
// zero samples the statistic string is empty, never NaN.
func Summarize(records []Record, fields []string) []SummaryRow {
	rows := make([]SummaryRow, 0, len(fields)+1)
	for _, field := range fields {
		accessor, ok := metricFields[field]
		if !ok {
			continue
		}
		var values []float64
		for i := range records {
			if v := accessor(&records[i]); v != nil {
				values = append(values, *v)
			}
		}
		rows = append(rows, SummaryRow{Field: field, Stat: formatStats(values)})
	}

	success := 0
	for i := range records {
		if !records[i].Failed() {
			success++
		}
	}
	rows = append(rows, SummaryRow{
		Field: CountsField,
		Stat:  fmt.Sprintf("total=%d; success=%d; error=%d", len(records), success, len(records)-success),
	})
	return rows
}

// formatStats renders the fixed statistic string with six decimal places.
// Decimal arithmetic keeps mean/min/median/max exact in the rendered
// precision; std goes through float64 for the square root. Non-finite
// samples (a codec with MSE=0 reports psnr=inf) propagate through the
// statistics and render as inf/-inf/nan literals, never a panic.
func formatStats(values []float64) string {
	n := len(values)
	if n == 0 {
		return ""
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	allFinite := true
	for _, v := range values {
		if !isFinite(v) {
			allFinite = false
			break
		}
	}

	var meanF float64
	var meanStr string
	if allFinite {
		sum := decimal.Zero
		for _, v := range values {
			sum = sum.Add(decimal.NewFromFloat(v))
		}
		mean := sum.Div(decimal.NewFromInt(int64(n)))
		meanF, _ = mean.Float64()
		meanStr = mean.StringFixed(6)
	} else {
		for _, v := range values {
			meanF += v
		}
		meanF /= float64(n)
		meanStr = fixed6(meanF)
	}

	variance := 0.0
	for _, v := range values {
		d := v - meanF
		variance += d * d
	}
	std := math.Sqrt(variance / float64(n))

	var medianStr string
	if n%2 == 1 {
		medianStr = fixed6(sorted[n/2])
	} else {
		lo, hi := sorted[n/2-1], sorted[n/2]
		if isFinite(lo) && isFinite(hi) {
			medianStr = decimal.NewFromFloat(lo).
				Add(decimal.NewFromFloat(hi)).
				Div(decimal.NewFromInt(2)).
				StringFixed(6)
		} else {
			medianStr = fixed6((lo + hi) / 2)
		}
	}

	return fmt.Sprintf("count=%d; mean=%s; std=%s; min=%s; median=%s; max=%s",
		n, meanStr, fixed6(std), fixed6(sorted[0]), medianStr, fixed6(sorted[n-1]))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// fixed6 renders one statistic value; decimals cannot represent
// non-finite values, so those print as literals.
func fixed6(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return decimal.NewFromFloat(v).StringFixed(6)
}
