package csvfile

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chrissnell/dhdt/internal/dhdt"
	"github.com/chrissnell/dhdt/internal/lakes"
	"github.com/chrissnell/dhdt/internal/pipeline"
	"github.com/chrissnell/dhdt/internal/storage"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestSinkWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dhdt.csv")
	sink := NewSink(path, zaptest.NewLogger(t).Sugar())
	defer sink.Close()

	points := []pipeline.PointResult{
		{RefPt: 1, X: -1.5, Y: 2, HRange: dhdt.Some(0.25)},
		{RefPt: 2, X: 3, Y: 4, Fitted: true},
		{
			RefPt: 3, X: 5, Y: 6, HRange: dhdt.Some(4), Fitted: true, TrendValid: true,
			Trend: dhdt.Trend{Slope: -1.5, Intercept: 20, RValue: -0.9, PValue: 0.01, StdErr: 0.2},
		},
	}
	run := storage.NewRun("", pipeline.DefaultParams())
	require.NoError(t, sink.Write(context.Background(), run, points))

	id := run.ID.String()
	assert.Equal(t, [][]string{
		resultHeader,
		{id, "1", "-1.5", "2", "0.25", "false", "", "", "", "", ""},
		{id, "2", "3", "4", "", "true", "", "", "", "", ""},
		{id, "3", "5", "6", "4", "true", "-1.5", "20", "-0.9", "0.01", "0.2"},
	}, readAll(t, path))
}

func TestSinkCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dhdt.csv")
	sink := NewSink(path, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Write(ctx, storage.NewRun("", pipeline.DefaultParams()), nil), context.Canceled)
	assert.NoFileExists(t, path)
}

func TestWriteClusters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lakes.csv")
	clusters := []lakes.Cluster{
		{ID: 1, Draining: true, RefPts: []uint64{1, 2}, X: -450000.21, Y: -600000, MeanDhdt: -1.23461},
		{ID: 2, RefPts: []uint64{3}, X: 1, Y: 2, MeanDhdt: 0.5},
	}
	require.NoError(t, WriteClusters(path, clusters))

	assert.Equal(t, [][]string{
		clusterHeader,
		{"1", "true", "2", "-450000.2", "-600000.0", "-1.2346"},
		{"2", "false", "1", "1.0", "2.0", "0.5000"},
	}, readAll(t, path))
}

func TestWriteBadPath(t *testing.T) {
	err := WriteClusters(filepath.Join(t.TempDir(), "missing", "lakes.csv"), nil)
	assert.Error(t, err)
}
