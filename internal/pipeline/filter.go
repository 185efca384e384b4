package pipeline

import "math"

// FilterByDhdt keeps fitted points whose absolute slope lies strictly between lo
// and hi (metres per year)
func FilterByDhdt(points []PointResult, lo, hi float64) []PointResult {
	kept := make([]PointResult, 0, len(points))
	for _, pt := range points {
		if !pt.TrendValid {
			continue
		}
		s := math.Abs(pt.Trend.Slope)
		if lo < s && s < hi {
			kept = append(kept, pt)
		}
	}
	return kept
}

// Index maps each reference point to its position in points
func Index(points []PointResult) map[uint64]int {
	idx := make(map[uint64]int, len(points))
	for i, pt := range points {
		idx[pt.RefPt] = i
	}
	return idx
}
