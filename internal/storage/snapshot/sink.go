package snapshot

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/dhdt/internal/pipeline"
	"github.com/chrissnell/dhdt/internal/storage"
)

// Sink writes each run's results to a snapshot file, replacing what was there
type Sink struct {
	path   string
	logger *zap.SugaredLogger
}

var _ storage.Sink = (*Sink)(nil)

// NewSink creates a sink writing to path
func NewSink(path string, logger *zap.SugaredLogger) *Sink {
	return &Sink{path: path, logger: logger}
}

// Write implements storage.Sink
func (s *Sink) Write(ctx context.Context, run storage.Run, points []pipeline.PointResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := writeFile(s.path, func(enc *msgpack.Encoder) error {
		h := header{
			Kind:      kindResults,
			Version:   formatVersion,
			Count:     len(points),
			RunID:     run.ID.String(),
			StartedAt: run.StartedAt,
			Region:    run.Region,
			Params:    run.Params,
			Summary:   run.Summary,
		}
		if err := enc.Encode(&h); err != nil {
			return err
		}
		for i := range points {
			p := &points[i]
			rec := resultRecord{
				RefPt:  p.RefPt,
				X:      p.X,
				Y:      p.Y,
				HRange: ptr(p.HRange),
				Fitted: p.Fitted,
			}
			if p.TrendValid {
				t := p.Trend
				rec.Slope, rec.Intercept = &t.Slope, &t.Intercept
				rec.RValue, rec.PValue, rec.StdErr = &t.RValue, &t.PValue, &t.StdErr
			}
			if err := enc.Encode(&rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infof("wrote %d results for run %s to %s", len(points), run.ID, s.path)
	return nil
}

// Close implements storage.Sink
func (s *Sink) Close() error {
	return nil
}
