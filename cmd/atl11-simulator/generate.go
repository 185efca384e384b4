package main

import (
	"math"
	"math/rand"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/dhdt"
	"github.com/chrissnell/dhdt/pkg/polarstereo"
)

// cycleSpacing is the ICESat-2 repeat period, 91 days
const cycleSpacing = int64(91 * 24 * 60 * 60 * 1e9)

// Options control the synthetic dataset
type Options struct {
	Points     int
	FirstCycle int
	Cycles     int
	Region     atl11.Region
	Lakes      int
	// LakeRadius is the radius of every lake in metres
	LakeRadius float64
	// GapFraction is the share of samples with no height or time
	GapFraction float64
	// FlagFraction is the share of samples flagged as bad and offset by an outlier
	FlagFraction float64
	// Noise is the standard deviation of the height noise in metres
	Noise float64
}

// Lake is an area moving at a constant rate
type Lake struct {
	X, Y   float64
	Radius float64
	// Rate is in metres per year; negative rates drain
	Rate float64
}

func (l Lake) contains(x, y float64) bool {
	return math.Hypot(x-l.X, y-l.Y) <= l.Radius
}

// Generate builds a dataset of mostly stable ice with a few active lakes.
// Lakes alternate between draining and filling.
func Generate(opts Options, rng *rand.Rand) (*atl11.Dataset, []Lake) {
	r := opts.Region
	width, height := r.XMax-r.XMin, r.YMax-r.YMin

	lakes := make([]Lake, opts.Lakes)
	for i := range lakes {
		rate := 1 + 3*rng.Float64()
		if i%2 == 0 {
			rate = -rate
		}
		lakes[i] = Lake{
			X:      r.XMin + opts.LakeRadius + (width-2*opts.LakeRadius)*rng.Float64(),
			Y:      r.YMin + opts.LakeRadius + (height-2*opts.LakeRadius)*rng.Float64(),
			Radius: opts.LakeRadius,
			Rate:   rate,
		}
	}

	ds := &atl11.Dataset{Cycles: make([]int, opts.Cycles)}
	for c := range ds.Cycles {
		ds.Cycles[c] = opts.FirstCycle + c
	}

	ds.Points = make([]atl11.Point, opts.Points)
	for i := range ds.Points {
		x := r.XMin + width*rng.Float64()
		y := r.YMin + height*rng.Float64()
		lon, lat := polarstereo.XYToLonLat(x, y)

		rate := 0.0
		for _, l := range lakes {
			if l.contains(x, y) {
				rate = l.Rate
				break
			}
		}

		base := 50 + 1000*rng.Float64()
		p := atl11.Point{
			RefPt:     uint64(i + 1),
			Longitude: lon,
			Latitude:  lat,
			Heights:   make([]dhdt.Value, opts.Cycles),
			Times:     make([]dhdt.Value, opts.Cycles),
			Quality:   make([]int8, opts.Cycles),
		}
		for c, cycle := range ds.Cycles {
			if rng.Float64() < opts.GapFraction {
				continue
			}
			// cycles are counted from the start of the mission
			ns := int64(cycle-1)*cycleSpacing + rng.Int63n(int64(24*60*60*1e9))
			years := float64(ns) / dhdt.NanosecondsPerYear

			h := base + rate*years + opts.Noise*rng.NormFloat64()
			if rng.Float64() < opts.FlagFraction {
				p.Quality[c] = 1
				h += 5 + 20*rng.Float64()
			}
			p.Heights[c] = dhdt.Some(h)
			p.Times[c] = dhdt.FromInt64(ns)
		}
		ds.Points[i] = p
	}

	return ds, lakes
}
