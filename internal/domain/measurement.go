package domain

import (
	"strconv"
	"strings"
)

// Measurement strings arrive from ingestion as a composite like
// "7.45-7.50*4.60" or "13.80x9.20x5.10": length and width are the first two
// tokens when split on '-', '*' or 'x'. Ingestion is not normalized, so the
// parser tolerates any mix of delimiters and surrounding whitespace.

// ParseMeasurement returns the length and width encoded in a composite
// measurement string. A missing or malformed token parses as 0.
func ParseMeasurement(s string) (length, width float64) {
	tokens := splitMeasurement(s)
	if len(tokens) > 0 {
		length = parseDimension(tokens[0])
	}
	if len(tokens) > 1 {
		width = parseDimension(tokens[1])
	}
	return length, width
}

// DiameterMatches reports whether the wanted diameter equals either of the
// first two measurement tokens by numeric value, so "13.8" matches a stored
// "13.80" regardless of trailing-zero formatting.
func DiameterMatches(measurement, want string) bool {
	target, err := strconv.ParseFloat(strings.TrimSpace(want), 64)
	if err != nil {
		return false
	}
	tokens := splitMeasurement(measurement)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	for _, tok := range tokens {
		if v := parseDimension(tok); v == target {
			return true
		}
	}
	return false
}

func splitMeasurement(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '*' || r == 'x' || r == 'X'
	})
}

func parseDimension(tok string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
	if err != nil {
		return 0
	}
	return v
}
