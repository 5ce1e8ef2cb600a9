// Package parser converts the codec's stdout text protocol into typed
// metrics. The protocol is one parenthesized comma-separated numeric
// tuple line, optionally followed by a "Times (ms):" line of key=value
// pairs. Three historical tuple arities exist; the caller states which
// one the codec build under test emits.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema identifies the tuple layout a codec build emits. Schemas are not
// self-describing on the wire, so the caller must pick one; a tuple whose
// arity differs from the configured schema is a parse error, never a
// truncation.
type Schema int

const (
	// Schema5 is (mse, psnr, original_entropy, transformed_entropy,
	// quantized_entropy).
	Schema5 Schema = 5
	// Schema6 is (compression_ratio, quantized_entropy, mse, psnr,
	// encode_ms, decode_ms).
	Schema6 Schema = 6
	// Schema9 is (compression_ratio, direct_compression_ratio,
	// original_entropy, transformed_entropy, quantized_entropy, mse,
	// psnr, encode_ms, decode_ms).
	Schema9 Schema = 9
)

// Valid reports whether s is one of the recognized schemas.
func (s Schema) Valid() bool {
	return s == Schema5 || s == Schema6 || s == Schema9
}

// Metrics holds everything a single invocation can report. Nil means the
// codec did not report that value; zero is a real measurement.
type Metrics struct {
	MSE                    *float64 `json:"mse,omitempty"`
	PSNR                   *float64 `json:"psnr,omitempty"`
	OriginalEntropy        *float64 `json:"original_entropy,omitempty"`
	TransformedEntropy     *float64 `json:"transformed_entropy,omitempty"`
	QuantizedEntropy       *float64 `json:"quantized_entropy,omitempty"`
	CompressionRatio       *float64 `json:"compression_ratio,omitempty"`
	DirectCompressionRatio *float64 `json:"direct_compression_ratio,omitempty"`

	// Aggregate pipeline timings.
	EncodeMS *float64 `json:"encode_ms,omitempty"`
	DecodeMS *float64 `json:"decode_ms,omitempty"`

	// Fine-grained stage timings from the "Times (ms):" line. ForwardMS
	// is the forward-transform stage (wire key "encode").
	ForwardMS    *float64 `json:"forward_ms,omitempty"`
	QuantMS      *float64 `json:"quant_ms,omitempty"`
	EntropyEncMS *float64 `json:"entropy_enc_ms,omitempty"`
	EntropyDecMS *float64 `json:"entropy_dec_ms,omitempty"`
	DequantMS    *float64 `json:"dequant_ms,omitempty"`
	InverseMS    *float64 `json:"inverse_ms,omitempty"`
}

// Error reports stdout that does not match the expected protocol.
type Error struct {
	Reason string
	Line   string
}

func (e *Error) Error() string {
	if e.Line == "" {
		return "parse: " + e.Reason
	}
	return fmt.Sprintf("parse: %s: %q", e.Reason, e.Line)
}

const timesPrefix = "Times (ms):"

// Parse extracts metrics from raw codec stdout. Extra log lines are
// tolerated; the first line shaped like "(...)" is taken as the tuple.
// Parse is pure: it never touches anything outside its arguments.
func Parse(stdout string, schema Schema) (Metrics, error) {
	if !schema.Valid() {
		return Metrics{}, &Error{Reason: fmt.Sprintf("unknown schema %d", int(schema))}
	}

	var tupleLine, timesLine string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case tupleLine == "" && strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")"):
			tupleLine = line
		case timesLine == "" && strings.HasPrefix(line, timesPrefix):
			timesLine = line
		}
	}
	if tupleLine == "" {
		return Metrics{}, &Error{Reason: "no metric tuple line found", Line: firstLine(stdout)}
	}

	values, err := parseTuple(tupleLine, int(schema))
	if err != nil {
		return Metrics{}, err
	}

	var m Metrics
	switch schema {
	case Schema5:
		m.MSE = &values[0]
		m.PSNR = &values[1]
		m.OriginalEntropy = &values[2]
		m.TransformedEntropy = &values[3]
		m.QuantizedEntropy = &values[4]
	case Schema6:
		m.CompressionRatio = &values[0]
		m.QuantizedEntropy = &values[1]
		m.MSE = &values[2]
		m.PSNR = &values[3]
		m.EncodeMS = &values[4]
		m.DecodeMS = &values[5]
	case Schema9:
		m.CompressionRatio = &values[0]
		m.DirectCompressionRatio = &values[1]
		m.OriginalEntropy = &values[2]
		m.TransformedEntropy = &values[3]
		m.QuantizedEntropy = &values[4]
		m.MSE = &values[5]
		m.PSNR = &values[6]
		m.EncodeMS = &values[7]
		m.DecodeMS = &values[8]
	}

	if timesLine != "" {
		if err := parseTimes(timesLine, &m); err != nil {
			return Metrics{}, err
		}
	}
	return m, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func parseTuple(line string, want int) ([]float64, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) != want {
		return nil, &Error{
			Reason: fmt.Sprintf("expected %d tuple fields, got %d", want, len(parts)),
			Line:   line,
		}
	}
	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, &Error{
				Reason: fmt.Sprintf("non-numeric tuple field %q", strings.TrimSpace(part)),
				Line:   line,
			}
		}
		values[i] = v
	}
	return values, nil
}

// parseTimes fills the fine-grained timing fields and, when the tuple did
// not carry aggregate timings, derives them: encode = encode+quant+
// entropy_enc, decode = entropy_dec+dequant+inverse, with absent stages
// counting as zero for the sum only. An explicit "decode" key is already
// an aggregate and wins over the sum.
func parseTimes(line string, m *Metrics) error {
	rest := strings.TrimSpace(strings.TrimPrefix(line, timesPrefix))

	var decodeKey *float64
	for _, field := range strings.Fields(rest) {
		key, valueStr, ok := strings.Cut(field, "=")
		if !ok {
			return &Error{Reason: fmt.Sprintf("malformed timing pair %q", field), Line: line}
		}
		v, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return &Error{Reason: fmt.Sprintf("non-numeric timing value %q", valueStr), Line: line}
		}
		value := v
		switch key {
		case "encode":
			m.ForwardMS = &value
		case "decode":
			decodeKey = &value
		case "quant":
			m.QuantMS = &value
		case "entropy_enc":
			m.EntropyEncMS = &value
		case "entropy_dec":
			m.EntropyDecMS = &value
		case "dequant":
			m.DequantMS = &value
		case "inverse":
			m.InverseMS = &value
		default:
			return &Error{Reason: fmt.Sprintf("unknown timing key %q", key), Line: line}
		}
	}

	if m.EncodeMS == nil {
		if sum, ok := sumStages(m.ForwardMS, m.QuantMS, m.EntropyEncMS); ok {
			m.EncodeMS = &sum
		}
	}
	if m.DecodeMS == nil {
		if decodeKey != nil {
			m.DecodeMS = decodeKey
		} else if sum, ok := sumStages(m.EntropyDecMS, m.DequantMS, m.InverseMS); ok {
			m.DecodeMS = &sum
		}
	}
	return nil
}

// sumStages adds the present stages; ok is false when every stage is
// absent, so a missing measurement never becomes a zero.
func sumStages(stages ...*float64) (sum float64, ok bool) {
	for _, s := range stages {
		if s != nil {
			sum += *s
			ok = true
		}
	}
	return sum, ok
}
