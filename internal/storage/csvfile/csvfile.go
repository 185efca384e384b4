// Package csvfile writes dhdt results and lake clusters as CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/chrissnell/dhdt/internal/dhdt"
	"github.com/chrissnell/dhdt/internal/lakes"
	"github.com/chrissnell/dhdt/internal/pipeline"
	"github.com/chrissnell/dhdt/internal/storage"
)

var resultHeader = []string{
	"run_id", "ref_pt", "x", "y", "h_range", "fitted",
	"dhdt_slope", "dhdt_intercept", "dhdt_rvalue", "dhdt_pvalue", "dhdt_stderr",
}

var clusterHeader = []string{"cluster_id", "draining", "points", "x", "y", "mean_dhdt"}

// Sink writes each run's results to a CSV file, replacing what was there.
// Missing values are written as empty cells.
type Sink struct {
	path   string
	logger *zap.SugaredLogger
}

var _ storage.Sink = (*Sink)(nil)

// NewSink creates a sink writing to path
func NewSink(path string, logger *zap.SugaredLogger) *Sink {
	return &Sink{path: path, logger: logger}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatValue(v dhdt.Value) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

// Write implements storage.Sink
func (s *Sink) Write(ctx context.Context, run storage.Run, points []pipeline.PointResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runID := run.ID.String()
	err := writeFile(s.path, resultHeader, len(points), func(i int) []string {
		p := &points[i]
		record := []string{
			runID,
			strconv.FormatUint(p.RefPt, 10),
			formatFloat(p.X),
			formatFloat(p.Y),
			formatValue(p.HRange),
			strconv.FormatBool(p.Fitted),
			"", "", "", "", "",
		}
		if p.TrendValid {
			record[6] = formatFloat(p.Trend.Slope)
			record[7] = formatFloat(p.Trend.Intercept)
			record[8] = formatFloat(p.Trend.RValue)
			record[9] = formatFloat(p.Trend.PValue)
			record[10] = formatFloat(p.Trend.StdErr)
		}
		return record
	})
	if err != nil {
		return err
	}

	s.logger.Infof("wrote %d results for run %s to %s", len(points), runID, s.path)
	return nil
}

// Close implements storage.Sink
func (s *Sink) Close() error {
	return nil
}

// WriteClusters writes one row per cluster to path
func WriteClusters(path string, clusters []lakes.Cluster) error {
	return writeFile(path, clusterHeader, len(clusters), func(i int) []string {
		c := &clusters[i]
		return []string{
			strconv.Itoa(c.ID),
			strconv.FormatBool(c.Draining),
			strconv.Itoa(len(c.RefPts)),
			fmt.Sprintf("%.1f", c.X),
			fmt.Sprintf("%.1f", c.Y),
			fmt.Sprintf("%.4f", c.MeanDhdt),
		}
	})
}

func writeFile(path string, header []string, n int, record func(int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	writer := csv.NewWriter(file)

	if err := writer.Write(header); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(record(i)); err != nil {
			file.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
