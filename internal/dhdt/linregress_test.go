package dhdt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func times(ns ...int64) []Value {
	out := make([]Value, len(ns))
	for i, v := range ns {
		out[i] = FromInt64(v)
	}
	return out
}

// naiveOLS fits a line with centred sums, for comparison against LinRegress
func naiveOLS(x, y []float64) (slope, intercept float64) {
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(len(x))
	my /= float64(len(y))

	var sxy, sxx float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
	}
	slope = sxy / sxx
	return slope, my - slope*mx
}

func TestLinRegressPerfectFit(t *testing.T) {
	x := times(0, 1e9, 2e9, 3e9, 4e9, 5e9)
	y := heights(0, 1, 2, 3, 4, 5)

	trend, ok := LinRegress(x, y)
	require.True(t, ok)

	assert.InEpsilon(t, 1e-9, trend.Slope, 1e-9)
	assert.InDelta(t, 0, trend.Intercept, 1e-9)
	assert.InDelta(t, 1, trend.RValue, 1e-12)
	assert.Less(t, trend.PValue, 1e-12)
	assert.InDelta(t, 0, trend.StdErr, 1e-15)

	// one metre per second
	assert.InEpsilon(t, 365.25*24*60*60, trend.PerYear().Slope, 1e-9)
	assert.Equal(t, trend.Intercept, trend.PerYear().Intercept)
}

func TestLinRegressKnownValues(t *testing.T) {
	// reference values from a standard least squares routine
	trend, ok := LinRegress(heights(1, 2, 3, 4, 5), heights(2, 4, 5, 4, 5))
	require.True(t, ok)

	assert.InDelta(t, 0.6, trend.Slope, 1e-12)
	assert.InDelta(t, 2.2, trend.Intercept, 1e-12)
	assert.InDelta(t, 0.7745966692414834, trend.RValue, 1e-12)
	assert.InDelta(t, 0.12403, trend.PValue, 1e-4)
	assert.InDelta(t, 0.28284271247461906, trend.StdErr, 1e-12)
}

func TestLinRegressInvalid(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name string
		x    []Value
		y    []Value
	}{
		{
			name: "one valid pair among six cycles",
			x:    times(0, 1e9, 2e9, 3e9, 4e9, 5e9),
			y:    heights(nan, nan, 7.5, nan, nan, nan),
		},
		{
			name: "pairs split across x and y",
			x:    []Value{FromInt64(0), {}, FromInt64(2e9), {}},
			y:    heights(nan, 1, nan, 3),
		},
		{
			name: "no samples",
			x:    nil,
			y:    nil,
		},
		{
			name: "identical times",
			x:    times(5e9, 5e9, 5e9, 5e9),
			y:    heights(1, 2, 3, 4),
		},
		{
			name: "identical times after masking",
			x:    times(1e9, 3e9, 3e9, 3e9),
			y:    heights(nan, 2, 4, 8),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend, ok := LinRegress(tt.x, tt.y)
			assert.False(t, ok)
			assert.Equal(t, Trend{}, trend)
		})
	}
}

func TestLinRegressTwoPoints(t *testing.T) {
	trend, ok := LinRegress(times(0, 2e9), heights(10, 14))
	require.True(t, ok)
	assert.InEpsilon(t, 2e-9, trend.Slope, 1e-12)
	assert.Equal(t, 1.0, trend.RValue)
	assert.Equal(t, 0.0, trend.PValue)
	assert.Equal(t, 0.0, trend.StdErr)

	flat, ok := LinRegress(times(0, 2e9), heights(3, 3))
	require.True(t, ok)
	assert.Equal(t, 0.0, flat.Slope)
	assert.Equal(t, 0.0, flat.RValue)
	assert.Equal(t, 1.0, flat.PValue)
}

func TestLinRegressFlatHeights(t *testing.T) {
	trend, ok := LinRegress(times(0, 1e9, 2e9, 3e9), heights(4, 4, 4, 4))
	require.True(t, ok)
	assert.Equal(t, 0.0, trend.Slope)
	assert.InDelta(t, 4, trend.Intercept, 1e-12)
	assert.Equal(t, 0.0, trend.RValue)
	assert.InDelta(t, 1, trend.PValue, 1e-12)
	assert.Equal(t, 0.0, trend.StdErr)
}

func TestLinRegressSkipsMissingPairs(t *testing.T) {
	nan := math.NaN()
	x := []Value{FromInt64(0), FromInt64(1e9), {}, FromInt64(3e9), FromInt64(4e9), FromInt64(5e9)}
	y := heights(1.0, nan, 9.0, 2.5, 3.0, 4.1)

	got, ok := LinRegress(x, y)
	require.True(t, ok)

	want, ok := LinRegress(times(0, 3e9, 4e9, 5e9), heights(1.0, 2.5, 3.0, 4.1))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLinRegressMatchesOrdinaryLeastSquares(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	// ATL11 style timestamps: nanoseconds since 2018, one cycle every ~91 days
	const cycle = int64(91 * 24 * 60 * 60 * 1e9)
	start := int64(5.5e16)

	for trial := 0; trial < 200; trial++ {
		x := make([]Value, 6)
		y := make([]Value, 6)
		var xs, ys []float64
		rate := rng.NormFloat64() * 1e-16
		for i := range x {
			ns := start + int64(i)*cycle + rng.Int63n(1e12)
			h := 100 + rate*float64(ns-start) + rng.NormFloat64()*0.2
			x[i] = FromInt64(ns)
			if rng.Float64() < 0.25 {
				continue
			}
			y[i] = Some(h)
			xs = append(xs, float64(ns))
			ys = append(ys, h)
		}

		trend, ok := LinRegress(x, y)
		if len(xs) < 2 {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)

		slope, intercept := naiveOLS(xs, ys)
		require.InEpsilon(t, slope, trend.Slope, 1e-9)
		require.InEpsilon(t, intercept, trend.Intercept, 1e-9)
		require.GreaterOrEqual(t, trend.PValue, 0.0)
		require.LessOrEqual(t, trend.PValue, 1.0)
		require.LessOrEqual(t, math.Abs(trend.RValue), 1.0)
	}
}

func TestLinRegressIsRepeatable(t *testing.T) {
	x := times(0, 1e9, 2e9, 3e9)
	y := heights(0.3, 0.1, 0.9, 1.4)

	a, okA := LinRegress(x, y)
	b, okB := LinRegress(x, y)
	require.Equal(t, okA, okB)
	for _, pair := range [][2]float64{
		{a.Slope, b.Slope},
		{a.Intercept, b.Intercept},
		{a.RValue, b.RValue},
		{a.PValue, b.PValue},
		{a.StdErr, b.StdErr},
	} {
		assert.Equal(t, math.Float64bits(pair[0]), math.Float64bits(pair[1]))
	}
}

func TestLinRegressLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		LinRegress(times(0, 1e9, 2e9), heights(1, 2))
	})
}
