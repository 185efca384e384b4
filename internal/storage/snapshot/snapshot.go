// Package snapshot saves ranged points and dhdt results as MessagePack streams.
//
// A snapshot file is a header followed by Count records. Missing values are
// encoded as nil.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/dhdt"
	"github.com/chrissnell/dhdt/internal/pipeline"
)

const (
	formatVersion = 1

	kindRanges  = "ranges"
	kindResults = "results"
)

// ErrWrongKind is returned when a snapshot holds a different kind of record
// than the caller asked for
var ErrWrongKind = errors.New("snapshot holds a different record kind")

type header struct {
	Kind    string `msgpack:"kind"`
	Version int    `msgpack:"version"`
	Count   int    `msgpack:"count"`

	Cycles []int `msgpack:"cycles,omitempty"`

	RunID     string           `msgpack:"run_id,omitempty"`
	StartedAt time.Time        `msgpack:"started_at,omitempty"`
	Region    string           `msgpack:"region,omitempty"`
	Params    pipeline.Params  `msgpack:"params"`
	Summary   pipeline.Summary `msgpack:"summary"`
}

type rangedRecord struct {
	RefPt     uint64     `msgpack:"ref_pt"`
	Longitude float64    `msgpack:"longitude"`
	Latitude  float64    `msgpack:"latitude"`
	X         float64    `msgpack:"x"`
	Y         float64    `msgpack:"y"`
	Heights   []*float64 `msgpack:"h_corr"`
	Times     []*float64 `msgpack:"delta_time"`
	Quality   []int8     `msgpack:"quality_summary"`
	HRange    *float64   `msgpack:"h_range"`
}

type resultRecord struct {
	RefPt     uint64   `msgpack:"ref_pt"`
	X         float64  `msgpack:"x"`
	Y         float64  `msgpack:"y"`
	HRange    *float64 `msgpack:"h_range"`
	Fitted    bool     `msgpack:"fitted"`
	Slope     *float64 `msgpack:"dhdt_slope"`
	Intercept *float64 `msgpack:"dhdt_intercept"`
	RValue    *float64 `msgpack:"dhdt_rvalue"`
	PValue    *float64 `msgpack:"dhdt_pvalue"`
	StdErr    *float64 `msgpack:"dhdt_stderr"`
}

func ptr(v dhdt.Value) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func value(p *float64) dhdt.Value {
	if p == nil {
		return dhdt.Value{}
	}
	return dhdt.FromFloat(*p)
}

func ptrs(vs []dhdt.Value) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = ptr(v)
	}
	return out
}

func values(ps []*float64) []dhdt.Value {
	out := make([]dhdt.Value, len(ps))
	for i, p := range ps {
		out[i] = value(p)
	}
	return out
}

// SaveRanges writes the output of the range stage to path so a later run can
// go straight to the trend stage
func SaveRanges(path string, cycles []int, points []pipeline.RangedPoint) error {
	return writeFile(path, func(enc *msgpack.Encoder) error {
		h := header{Kind: kindRanges, Version: formatVersion, Count: len(points), Cycles: cycles}
		if err := enc.Encode(&h); err != nil {
			return err
		}
		for i := range points {
			p := &points[i]
			rec := rangedRecord{
				RefPt:     p.RefPt,
				Longitude: p.Longitude,
				Latitude:  p.Latitude,
				X:         p.X,
				Y:         p.Y,
				Heights:   ptrs(p.Heights),
				Times:     ptrs(p.Times),
				Quality:   p.Quality,
				HRange:    ptr(p.HRange),
			}
			if err := enc.Encode(&rec); err != nil {
				return fmt.Errorf("ref_pt %d: %w", p.RefPt, err)
			}
		}
		return nil
	})
}

// LoadRanges reads a file written by SaveRanges
func LoadRanges(path string) ([]int, []pipeline.RangedPoint, error) {
	var (
		cycles []int
		points []pipeline.RangedPoint
	)
	err := readFile(path, kindRanges, func(h *header, dec *msgpack.Decoder) error {
		cycles = h.Cycles
		points = make([]pipeline.RangedPoint, 0, h.Count)
		for i := 0; i < h.Count; i++ {
			var rec rangedRecord
			if err := dec.Decode(&rec); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			pt := pipeline.RangedPoint{
				Point: atl11.Point{
					RefPt:     rec.RefPt,
					Longitude: rec.Longitude,
					Latitude:  rec.Latitude,
					X:         rec.X,
					Y:         rec.Y,
					Heights:   values(rec.Heights),
					Times:     values(rec.Times),
					Quality:   rec.Quality,
				},
				HRange: value(rec.HRange),
			}
			if err := pt.Validate(); err != nil {
				return err
			}
			points = append(points, pt)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return cycles, points, nil
}

// Results is the content of a results snapshot
type Results struct {
	RunID     string
	StartedAt time.Time
	Region    string
	Params    pipeline.Params
	Summary   pipeline.Summary
	Points    []pipeline.PointResult
}

// LoadResults reads a file written by Sink.Write
func LoadResults(path string) (*Results, error) {
	var res Results
	err := readFile(path, kindResults, func(h *header, dec *msgpack.Decoder) error {
		res = Results{
			RunID:     h.RunID,
			StartedAt: h.StartedAt,
			Region:    h.Region,
			Params:    h.Params,
			Summary:   h.Summary,
			Points:    make([]pipeline.PointResult, 0, h.Count),
		}
		for i := 0; i < h.Count; i++ {
			var rec resultRecord
			if err := dec.Decode(&rec); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			pt := pipeline.PointResult{
				RefPt:  rec.RefPt,
				X:      rec.X,
				Y:      rec.Y,
				HRange: value(rec.HRange),
				Fitted: rec.Fitted,
			}
			if rec.Slope != nil && rec.Intercept != nil && rec.RValue != nil &&
				rec.PValue != nil && rec.StdErr != nil {
				pt.TrendValid = true
				pt.Trend = dhdt.Trend{
					Slope:     *rec.Slope,
					Intercept: *rec.Intercept,
					RValue:    *rec.RValue,
					PValue:    *rec.PValue,
					StdErr:    *rec.StdErr,
				}
			}
			res.Points = append(res.Points, pt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func writeFile(path string, fn func(*msgpack.Encoder) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)

	if err := fn(enc); err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return f.Close()
}

func readFile(path, kind string, fn func(*header, *msgpack.Decoder) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	dec := msgpack.NewDecoder(bufio.NewReader(f))

	var h header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("snapshot %s is empty", path)
		}
		return fmt.Errorf("failed to read snapshot header %s: %w", path, err)
	}
	if h.Kind != kind {
		return fmt.Errorf("%s: want %q, got %q: %w", path, kind, h.Kind, ErrWrongKind)
	}
	if h.Version != formatVersion {
		return fmt.Errorf("%s: unsupported snapshot version %d", path, h.Version)
	}

	if err := fn(&h, dec); err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return nil
}
