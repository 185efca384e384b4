package pipeline

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/dhdt"
)

const second = int64(1e9)

func point(refPt uint64, hs []float64, ts []int64) atl11.Point {
	p := atl11.Point{RefPt: refPt}
	for _, h := range hs {
		p.Heights = append(p.Heights, dhdt.FromFloat(h))
	}
	for _, ns := range ts {
		p.Times = append(p.Times, dhdt.FromInt64(ns))
	}
	return p
}

func evenTimes(n int) []int64 {
	ts := make([]int64, n)
	for i := range ts {
		ts[i] = int64(i) * second
	}
	return ts
}

func testDataset() *atl11.Dataset {
	nan := math.NaN()
	six := evenTimes(6)
	return &atl11.Dataset{
		Cycles: []int{1, 2, 3, 4, 5, 6},
		Points: []atl11.Point{
			point(1, []float64{nan, nan, nan, nan, nan, nan}, six),
			point(2, []float64{nan, 5, nan, nan, nan, nan}, six),
			point(3, []float64{10, 10.1, 10.3, nan, 10.2, 10}, six),
			point(4, []float64{10, 10.5, nan, nan, nan, nan}, six),
			point(5, []float64{0, 1, 2, 3, 4, 5}, six),
			point(6, []float64{10.0, nan, 12.0, nan, 15.0, 9.0}, []int64{0, second, 3 * second, 3 * second, 3 * second, 3 * second}),
			point(7, []float64{1, nan, 3, nan, nan, nan}, []int64{4 * second, 0, 4 * second, 0, 0, 0}),
		},
	}
}

func TestRunStages(t *testing.T) {
	p := New(Executor{Workers: 2, ChunkSize: 2}, DefaultParams(), zaptest.NewLogger(t).Sugar())

	res, err := p.Run(context.Background(), testDataset())
	require.NoError(t, err)

	idx := Index(res.Points)
	require.Len(t, res.Points, 5, "points 1 and 2 have fewer than two valid heights")
	assert.NotContains(t, idx, uint64(1))
	assert.NotContains(t, idx, uint64(2))

	quiet := res.Points[idx[3]]
	assert.InDelta(t, 0.3, quiet.HRange.Float64, 1e-12)
	assert.False(t, quiet.Fitted)
	assert.False(t, quiet.TrendValid)

	edge := res.Points[idx[4]]
	assert.Equal(t, dhdt.Some(0.5), edge.HRange)
	assert.False(t, edge.Fitted, "a range equal to the threshold is not active")

	steady := res.Points[idx[5]]
	assert.True(t, steady.Fitted)
	require.True(t, steady.TrendValid)
	assert.InEpsilon(t, 365.25*24*60*60, steady.Trend.Slope, 1e-9)
	assert.InDelta(t, 1, steady.Trend.RValue, 1e-12)

	gappy := res.Points[idx[6]]
	assert.Equal(t, dhdt.Some(6), gappy.HRange)
	assert.True(t, gappy.TrendValid)

	degenerate := res.Points[idx[7]]
	assert.Equal(t, dhdt.Some(2), degenerate.HRange)
	assert.True(t, degenerate.Fitted)
	assert.False(t, degenerate.TrendValid, "identical times cannot be fitted")
	assert.Equal(t, dhdt.Trend{}, degenerate.Trend)

	assert.Equal(t, Summary{
		Loaded:    7,
		Ranged:    5,
		Active:    3,
		Trended:   2,
		RangeTime: res.Summary.RangeTime,
		TrendTime: res.Summary.TrendTime,
	}, res.Summary)
}

func TestRunRejectsMismatchedRecords(t *testing.T) {
	ds := testDataset()
	ds.Points[3].Times = ds.Points[3].Times[:5]

	p := New(DefaultExecutor(), DefaultParams(), zaptest.NewLogger(t).Sugar())
	_, err := p.Run(context.Background(), ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, atl11.ErrMismatchedCycles)
}

func TestRunIsIndependentOfScheduling(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ds := &atl11.Dataset{}
	for i := 0; i < 5000; i++ {
		hs := make([]float64, 6)
		rate := rng.NormFloat64() * 0.5
		for c := range hs {
			if rng.Float64() < 0.2 {
				hs[c] = math.NaN()
				continue
			}
			hs[c] = 500 + rate*float64(c) + rng.NormFloat64()*0.1
		}
		ds.Points = append(ds.Points, point(uint64(i), hs, evenTimes(6)))
	}

	serial := New(Executor{Workers: 1, ChunkSize: len(ds.Points)}, DefaultParams(), zaptest.NewLogger(t).Sugar())
	parallel := New(Executor{Workers: 8, ChunkSize: 37}, DefaultParams(), zaptest.NewLogger(t).Sugar())

	a, err := serial.Run(context.Background(), ds)
	require.NoError(t, err)
	b, err := parallel.Run(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, a.Points, b.Points)
	assert.Greater(t, a.Summary.Trended, 0)
}

func TestRangesHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(Executor{Workers: 1, ChunkSize: 1}, DefaultParams(), zaptest.NewLogger(t).Sugar())
	_, err := p.Ranges(ctx, testDataset())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCustomThresholds(t *testing.T) {
	p := New(DefaultExecutor(), Params{MinValidHeights: 1, MinHeightRange: 0}, zaptest.NewLogger(t).Sugar())

	res, err := p.Run(context.Background(), testDataset())
	require.NoError(t, err)

	idx := Index(res.Points)
	require.Contains(t, idx, uint64(2))
	single := res.Points[idx[2]]
	assert.Equal(t, dhdt.Some(0), single.HRange)
	assert.False(t, single.Fitted, "a zero range never exceeds the threshold")
}
