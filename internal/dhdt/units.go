package dhdt

// NanosecondsPerYear converts a per-nanosecond rate into a per-year rate using a
// 365.25 day year.
const NanosecondsPerYear = 365.25 * 24 * 60 * 60 * 1_000_000_000

// PerYear returns a copy of t with the slope rescaled from height per nanosecond
// to height per year. The other parameters are left in their fitted units.
func (t Trend) PerYear() Trend {
	t.Slope *= NanosecondsPerYear
	return t
}
