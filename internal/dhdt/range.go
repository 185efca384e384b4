package dhdt

import "gonum.org/v1/gonum/floats"

// Range returns max minus min over the valid samples. The result is missing when
// no sample is valid, and zero when exactly one is.
func Range(samples []Value) Value {
	valid := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.usable() {
			valid = append(valid, s.Float64)
		}
	}
	if len(valid) == 0 {
		return Value{}
	}
	return Some(floats.Max(valid) - floats.Min(valid))
}
