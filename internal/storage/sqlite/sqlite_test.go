package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/dhdt"
	"github.com/chrissnell/dhdt/internal/pipeline"
	"github.com/chrissnell/dhdt/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "atl11.db"), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDatasetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ds := &atl11.Dataset{
		Cycles: []int{3, 4, 5},
		Points: []atl11.Point{
			{
				RefPt:     20,
				Longitude: -140,
				Latitude:  -82.5,
				Heights:   []dhdt.Value{dhdt.Some(101.5), {}, dhdt.Some(99.25)},
				Times:     []dhdt.Value{dhdt.FromInt64(5e16), {}, dhdt.FromInt64(5.2e16)},
				Quality:   []int8{0, 0, 1},
			},
			{
				RefPt:     10,
				Longitude: 12,
				Latitude:  -75,
				Heights:   []dhdt.Value{dhdt.Some(1), dhdt.Some(2), dhdt.Some(3)},
				Times:     []dhdt.Value{dhdt.FromInt64(1), dhdt.FromInt64(2), dhdt.FromInt64(3)},
				Quality:   []int8{0, 0, 0},
			},
		},
	}
	require.NoError(t, s.WriteDataset(ctx, ds))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, loaded.Cycles)
	require.Len(t, loaded.Points, 2)

	// points come back ordered by ref_pt
	assert.Equal(t, ds.Points[1], loaded.Points[0])
	assert.Equal(t, ds.Points[0], loaded.Points[1])
}

func TestLoadMissingCycleRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, insertPointSQL, 1, 1, 0.0, -80.0, 5.0, 100, 0)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, insertPointSQL, 2, 1, 0.0, -80.0, 6.0, 100, 0)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, insertPointSQL, 2, 2, 0.0, -80.0, nil, nil, nil)
	require.NoError(t, err)

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, ds.Validate())
	require.Len(t, ds.Points, 2)

	assert.Equal(t, []dhdt.Value{dhdt.Some(5), {}}, ds.Points[0].Heights)
	assert.Equal(t, []dhdt.Value{dhdt.FromInt64(100), {}}, ds.Points[0].Times)
	assert.Equal(t, []dhdt.Value{dhdt.Some(6), {}}, ds.Points[1].Heights)
}

func TestWriteResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := storage.NewRun("kamb", pipeline.DefaultParams())
	run.Summary = pipeline.Summary{Loaded: 3, Ranged: 2, Active: 1, Trended: 1}

	points := []pipeline.PointResult{
		{RefPt: 1, X: 1, Y: 2, HRange: dhdt.Some(0.2)},
		{
			RefPt: 2, X: 3, Y: 4, HRange: dhdt.Some(3), Fitted: true, TrendValid: true,
			Trend: dhdt.Trend{Slope: -2.5, Intercept: 10, RValue: -0.9, PValue: 0.01, StdErr: 0.3},
		},
		{RefPt: 3, X: 5, Y: 6, HRange: dhdt.Some(1), Fitted: true},
	}
	require.NoError(t, s.Write(ctx, run, points))

	got, err := s.Results(ctx, run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, points, got)

	var trended int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT trended FROM dhdt_runs WHERE run_id = ?`, run.ID.String()).Scan(&trended))
	assert.Equal(t, 1, trended)

	// writing the same run twice violates the primary key
	assert.Error(t, s.Write(ctx, run, points))
}
