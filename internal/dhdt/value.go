// Package dhdt provides the per-point statistics used to compute the rate of ice
// surface height change over time from repeat-cycle altimetry samples.
package dhdt

import "math"

// Value is a float sample that may be missing. It follows the same shape as
// sql.NullFloat64 so that rows scanned from storage map onto it directly.
type Value struct {
	Float64 float64
	Valid   bool
}

// Some returns a valid Value holding v
func Some(v float64) Value {
	return Value{Float64: v, Valid: true}
}

// FromFloat converts a raw float into a Value, treating NaN as missing
func FromFloat(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Some(v)
}

// FromInt64 converts an integer count (e.g. nanoseconds) into a valid Value
func FromInt64(v int64) Value {
	return Some(float64(v))
}

// OrNaN returns the sample, or NaN when it is missing
func (v Value) OrNaN() float64 {
	if !v.usable() {
		return math.NaN()
	}
	return v.Float64
}

// usable reports whether the sample may take part in a statistic. A NaN that
// slipped through as Valid is still treated as missing.
func (v Value) usable() bool {
	return v.Valid && !math.IsNaN(v.Float64)
}

// CountValid returns the number of usable samples in vs
func CountValid(vs []Value) int {
	n := 0
	for _, v := range vs {
		if v.usable() {
			n++
		}
	}
	return n
}
