// Package lakes groups points with large height trends into candidate active
// subglacial lakes using DBSCAN.
package lakes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/dhdt/internal/pipeline"
)

// Params control clustering
type Params struct {
	// Eps is the neighbourhood radius in metres
	Eps float64
	// MinSamples is the neighbourhood size, including the point itself, that
	// makes a point a core point
	MinSamples int
	// MinAbsDhdt is the |dhdt| (m/yr) a point needs to take part in clustering
	MinAbsDhdt float64
}

// DefaultParams returns 3 km neighbourhoods of 250 points
func DefaultParams() Params {
	return Params{
		Eps:        3000,
		MinSamples: 250,
		MinAbsDhdt: 0.25,
	}
}

// Validate rejects parameters DBSCAN cannot run with
func (p Params) Validate() error {
	if !(p.Eps > 0) {
		return fmt.Errorf("eps must be positive, got %v", p.Eps)
	}
	if p.MinSamples < 1 {
		return fmt.Errorf("min_samples must be at least 1, got %d", p.MinSamples)
	}
	if p.MinAbsDhdt < 0 {
		return fmt.Errorf("min_abs_dhdt must not be negative, got %v", p.MinAbsDhdt)
	}
	return nil
}

// Label is a cluster assignment. Noise points have Valid unset.
type Label struct {
	Cluster int
	Valid   bool
}

// FindClusters runs DBSCAN over the given x/y coordinates and labels each
// point with a cluster number starting at 1. Border points reachable from more
// than one cluster join the first one found.
func FindClusters(xs, ys []float64, eps float64, minSamples int) []Label {
	if len(xs) != len(ys) {
		panic("lakes: coordinate length mismatch")
	}
	labels := make([]Label, len(xs))
	if len(xs) == 0 {
		return labels
	}

	pts := make(sites, len(xs))
	for i := range xs {
		pts[i] = site{X: xs[i], Y: ys[i], index: i}
	}
	tree := kdtree.New(append(sites(nil), pts...), false)
	radius := eps * eps

	neighbours := func(i int) []int {
		keeper := kdtree.NewDistKeeper(radius)
		tree.NearestSet(keeper, pts[i])
		out := make([]int, 0, keeper.Len())
		for _, c := range keeper.Heap {
			// the keeper is seeded with an empty sentinel
			if c.Comparable == nil {
				continue
			}
			out = append(out, c.Comparable.(site).index)
		}
		return out
	}

	visited := make([]bool, len(xs))
	cluster := 0
	for i := range pts {
		if visited[i] {
			continue
		}
		visited[i] = true

		seeds := neighbours(i)
		if len(seeds) < minSamples {
			continue
		}

		cluster++
		labels[i] = Label{Cluster: cluster, Valid: true}
		for len(seeds) > 0 {
			j := seeds[len(seeds)-1]
			seeds = seeds[:len(seeds)-1]

			if !labels[j].Valid {
				labels[j] = Label{Cluster: cluster, Valid: true}
			}
			if visited[j] {
				continue
			}
			visited[j] = true

			if more := neighbours(j); len(more) >= minSamples {
				seeds = append(seeds, more...)
			}
		}
	}
	return labels
}

// Cluster summarises one group of points
type Cluster struct {
	ID       int
	Draining bool
	RefPts   []uint64
	X        float64
	Y        float64
	MeanDhdt float64
}

// Detect clusters draining and filling points separately. Points enter the
// draining set when their slope is at most -MinAbsDhdt and the filling set
// when it is at least MinAbsDhdt. Draining clusters are numbered first.
func Detect(points []pipeline.PointResult, p Params) ([]Cluster, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var draining, filling []*pipeline.PointResult
	for i := range points {
		pt := &points[i]
		if !pt.TrendValid {
			continue
		}
		switch {
		case pt.Trend.Slope <= -p.MinAbsDhdt:
			draining = append(draining, pt)
		case pt.Trend.Slope >= p.MinAbsDhdt:
			filling = append(filling, pt)
		}
	}

	clusters := summarise(draining, p, true, 0)
	clusters = append(clusters, summarise(filling, p, false, len(clusters))...)
	return clusters, nil
}

func summarise(group []*pipeline.PointResult, p Params, draining bool, offset int) []Cluster {
	xs := make([]float64, len(group))
	ys := make([]float64, len(group))
	for i, pt := range group {
		xs[i], ys[i] = pt.X, pt.Y
	}
	labels := FindClusters(xs, ys, p.Eps, p.MinSamples)

	n := 0
	for _, l := range labels {
		if l.Valid && l.Cluster > n {
			n = l.Cluster
		}
	}

	members := make([][]int, n)
	for i, l := range labels {
		if l.Valid {
			members[l.Cluster-1] = append(members[l.Cluster-1], i)
		}
	}

	out := make([]Cluster, 0, n)
	for c, idx := range members {
		cx := make([]float64, len(idx))
		cy := make([]float64, len(idx))
		rates := make([]float64, len(idx))
		refs := make([]uint64, len(idx))
		for k, i := range idx {
			cx[k], cy[k] = xs[i], ys[i]
			rates[k] = group[i].Trend.Slope
			refs[k] = group[i].RefPt
		}
		out = append(out, Cluster{
			ID:       offset + c + 1,
			Draining: draining,
			RefPts:   refs,
			X:        stat.Mean(cx, nil),
			Y:        stat.Mean(cy, nil),
			MeanDhdt: stat.Mean(rates, nil),
		})
	}
	return out
}

// Extent returns the bounding box of a cluster's members, looked up through
// the results they came from
func Extent(c Cluster, points []pipeline.PointResult) (xmin, xmax, ymin, ymax float64) {
	index := pipeline.Index(points)
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, ref := range c.RefPts {
		i, ok := index[ref]
		if !ok {
			continue
		}
		xmin = math.Min(xmin, points[i].X)
		xmax = math.Max(xmax, points[i].X)
		ymin = math.Min(ymin, points[i].Y)
		ymax = math.Max(ymax, points[i].Y)
	}
	return xmin, xmax, ymin, ymax
}
