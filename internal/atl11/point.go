// Package atl11 models ICESat-2 ATL11 land ice height records: one row per
// reference point, with one height and one time sample for each repeat cycle.
package atl11

import (
	"errors"
	"fmt"

	"github.com/chrissnell/dhdt/internal/dhdt"
	"github.com/chrissnell/dhdt/pkg/polarstereo"
)

// ErrMismatchedCycles is returned when a record's per-cycle columns disagree in
// length. It points to a bug in whatever produced the dataset.
var ErrMismatchedCycles = errors.New("per-cycle columns have different lengths")

// Point is a single ATL11 reference point
type Point struct {
	RefPt     uint64
	Longitude float64
	Latitude  float64
	X         float64      // EPSG:3031 metres
	Y         float64      // EPSG:3031 metres
	Heights   []dhdt.Value // h_corr, metres
	Times     []dhdt.Value // delta_time, nanoseconds
	Quality   []int8       // quality_summary_ref_surf, 0 is good; nil when not recorded
}

// Validate checks that every per-cycle column has the same length
func (p *Point) Validate() error {
	if len(p.Heights) != len(p.Times) {
		return fmt.Errorf("ref_pt %d: %w: %d heights, %d times", p.RefPt, ErrMismatchedCycles, len(p.Heights), len(p.Times))
	}
	if p.Quality != nil && len(p.Quality) != len(p.Heights) {
		return fmt.Errorf("ref_pt %d: %w: %d heights, %d quality flags", p.RefPt, ErrMismatchedCycles, len(p.Heights), len(p.Quality))
	}
	return nil
}

// MaskLowQuality marks heights missing at every cycle whose quality flag is set.
// The times are left alone; a missing height already keeps its cycle out of the
// trend fit.
func (p *Point) MaskLowQuality() {
	if p.Quality == nil {
		return
	}
	for i, q := range p.Quality {
		if q != 0 && i < len(p.Heights) {
			p.Heights[i] = dhdt.Value{}
		}
	}
}

// Project fills X and Y from the point's longitude and latitude
func (p *Point) Project() {
	p.X, p.Y = polarstereo.LonLatToXY(p.Longitude, p.Latitude)
}

// ValidHeights returns the number of cycles with a usable height
func (p *Point) ValidHeights() int {
	return dhdt.CountValid(p.Heights)
}
