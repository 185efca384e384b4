package lakes

import "gonum.org/v1/gonum/spatial/kdtree"

// site is a point in the EPSG:3031 plane that remembers its input position
type site struct {
	X, Y  float64
	index int
}

// Compare implements kdtree.Comparable
func (s site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(site)
	switch d {
	case 0:
		return s.X - q.X
	case 1:
		return s.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims implements kdtree.Comparable
func (s site) Dims() int { return 2 }

// Distance returns the squared euclidean distance
func (s site) Distance(c kdtree.Comparable) float64 {
	q := c.(site)
	dx := s.X - q.X
	dy := s.Y - q.Y
	return dx*dx + dy*dy
}

type sites []site

func (p sites) Index(i int) kdtree.Comparable         { return p[i] }
func (p sites) Len() int                              { return len(p) }
func (p sites) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p sites) Pivot(d kdtree.Dim) int {
	return plane{sites: p, Dim: d}.Pivot()
}

// plane sorts sites along one dimension
type plane struct {
	sites
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.sites[i].X < p.sites[j].X
	case 1:
		return p.sites[i].Y < p.sites[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{sites: p.sites[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.sites[i], p.sites[j] = p.sites[j], p.sites[i]
}
