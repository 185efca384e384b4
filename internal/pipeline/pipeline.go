// Package pipeline runs the dhdt batch: it filters ATL11 points, computes the
// height range of each, and fits a height trend to the points that moved enough.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/dhdt"
)

// Params holds the two filter thresholds of a run
type Params struct {
	// MinValidHeights is the number of valid heights a point needs to be kept
	MinValidHeights int
	// MinHeightRange is the height range (metres) a point must exceed before a
	// trend is fitted to it
	MinHeightRange float64
}

// DefaultParams returns the thresholds used for the Antarctic runs
func DefaultParams() Params {
	return Params{
		MinValidHeights: 2,
		MinHeightRange:  0.5,
	}
}

// RangedPoint is a point that passed the valid height filter, with its range
type RangedPoint struct {
	atl11.Point
	HRange dhdt.Value
}

// Active reports whether the point's range exceeds threshold
func (r *RangedPoint) Active(threshold float64) bool {
	return r.HRange.Valid && r.HRange.Float64 > threshold
}

// PointResult is one output row, keyed by reference point
type PointResult struct {
	RefPt  uint64
	X      float64
	Y      float64
	HRange dhdt.Value
	// Fitted is set when the point passed the range filter and a trend was attempted
	Fitted bool
	// TrendValid is set when the fit produced parameters; all five are valid together
	TrendValid bool
	// Trend has its slope in metres per year
	Trend dhdt.Trend
}

// Summary counts the points that survived each stage of a run
type Summary struct {
	Loaded    int
	Ranged    int
	Active    int
	Trended   int
	RangeTime time.Duration
	TrendTime time.Duration
}

// Result is the output of a full run
type Result struct {
	Points  []PointResult
	Summary Summary
}

// Pipeline runs the range and trend stages on an injected executor
type Pipeline struct {
	exec   Executor
	params Params
	logger *zap.SugaredLogger
}

// New creates a pipeline
func New(exec Executor, params Params, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		exec:   exec.normalized(),
		params: params,
		logger: logger,
	}
}

// Ranges drops points with fewer than MinValidHeights valid heights and computes
// the height range of the rest. Records with mismatched column lengths are
// rejected before any computation starts.
func (p *Pipeline) Ranges(ctx context.Context, ds *atl11.Dataset) ([]RangedPoint, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	start := time.Now()

	kept := make([]atl11.Point, 0, len(ds.Points))
	for _, pt := range ds.Points {
		if pt.ValidHeights() >= p.params.MinValidHeights {
			kept = append(kept, pt)
		}
	}
	p.logger.Infof("kept %d of %d points with at least %d valid heights",
		len(kept), len(ds.Points), p.params.MinValidHeights)

	ranged, err := Map(ctx, p.exec, kept, func(pt atl11.Point) RangedPoint {
		return RangedPoint{Point: pt, HRange: dhdt.Range(pt.Heights)}
	})
	if err != nil {
		return nil, fmt.Errorf("range stage: %w", err)
	}

	p.logger.Infow("range stage finished",
		"points", len(ranged),
		"elapsed", time.Since(start),
	)
	return ranged, nil
}

// Trends fits a height trend to every ranged point whose range exceeds
// MinHeightRange and returns one result per ranged point, in input order.
func (p *Pipeline) Trends(ctx context.Context, ranged []RangedPoint) ([]PointResult, error) {
	start := time.Now()

	results := make([]PointResult, len(ranged))
	active := make([]int, 0, len(ranged))
	for i := range ranged {
		r := &ranged[i]
		results[i] = PointResult{
			RefPt:  r.RefPt,
			X:      r.X,
			Y:      r.Y,
			HRange: r.HRange,
		}
		if r.Active(p.params.MinHeightRange) {
			active = append(active, i)
		}
	}
	p.logger.Infof("fitting trends to %d of %d points with height range above %.2f m",
		len(active), len(ranged), p.params.MinHeightRange)

	type fit struct {
		trend dhdt.Trend
		ok    bool
	}
	fits, err := Map(ctx, p.exec, active, func(i int) fit {
		trend, ok := dhdt.LinRegress(ranged[i].Times, ranged[i].Heights)
		if ok {
			trend = trend.PerYear()
		}
		return fit{trend: trend, ok: ok}
	})
	if err != nil {
		return nil, fmt.Errorf("trend stage: %w", err)
	}

	trended := 0
	for j, i := range active {
		results[i].Fitted = true
		results[i].TrendValid = fits[j].ok
		results[i].Trend = fits[j].trend
		if fits[j].ok {
			trended++
		}
	}

	p.logger.Infow("trend stage finished",
		"attempted", len(active),
		"fitted", trended,
		"elapsed", time.Since(start),
	)
	return results, nil
}

// Run executes both stages over ds
func (p *Pipeline) Run(ctx context.Context, ds *atl11.Dataset) (*Result, error) {
	rangeStart := time.Now()
	ranged, err := p.Ranges(ctx, ds)
	if err != nil {
		return nil, err
	}
	rangeTime := time.Since(rangeStart)

	trendStart := time.Now()
	points, err := p.Trends(ctx, ranged)
	if err != nil {
		return nil, err
	}

	return &Result{
		Points:  points,
		Summary: Summarize(len(ds.Points), points, rangeTime, time.Since(trendStart)),
	}, nil
}

// Summarize counts stage survivors in a result set
func Summarize(loaded int, points []PointResult, rangeTime, trendTime time.Duration) Summary {
	s := Summary{
		Loaded:    loaded,
		Ranged:    len(points),
		RangeTime: rangeTime,
		TrendTime: trendTime,
	}
	for _, pt := range points {
		if pt.Fitted {
			s.Active++
		}
		if pt.TrendValid {
			s.Trended++
		}
	}
	return s
}
