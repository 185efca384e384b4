package atl11

import "fmt"

// Dataset is a point x cycle table of ATL11 records
type Dataset struct {
	Cycles []int // cycle numbers, in column order
	Points []Point
}

// Validate checks every point against the dataset's cycle count
func (d *Dataset) Validate() error {
	for i := range d.Points {
		p := &d.Points[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if d.Cycles != nil && len(p.Heights) != len(d.Cycles) {
			return fmt.Errorf("ref_pt %d: %w: %d heights for %d cycles", p.RefPt, ErrMismatchedCycles, len(p.Heights), len(d.Cycles))
		}
	}
	return nil
}

// Prepare applies the quality mask and projects every point in place
func (d *Dataset) Prepare() {
	for i := range d.Points {
		d.Points[i].MaskLowQuality()
		d.Points[i].Project()
	}
}

// Subset keeps only the points that fall inside region
func (d *Dataset) Subset(region Region) *Dataset {
	kept := make([]Point, 0, len(d.Points))
	for _, p := range d.Points {
		if region.Contains(p.X, p.Y) {
			kept = append(kept, p)
		}
	}
	return &Dataset{Cycles: d.Cycles, Points: kept}
}
