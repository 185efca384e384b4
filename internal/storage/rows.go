package storage

import (
	"database/sql"
	"fmt"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/dhdt"
	"github.com/chrissnell/dhdt/internal/pipeline"
)

// CycleRow is one reference point at one cycle, as stored in the long-format
// atl11_points table
type CycleRow struct {
	RefPt          int64           `gorm:"column:ref_pt;primaryKey;autoIncrement:false"`
	CycleNumber    int             `gorm:"column:cycle_number;primaryKey;autoIncrement:false"`
	Longitude      float64         `gorm:"column:longitude"`
	Latitude       float64         `gorm:"column:latitude"`
	HCorr          sql.NullFloat64 `gorm:"column:h_corr"`
	DeltaTime      sql.NullInt64   `gorm:"column:delta_time"` // nanoseconds
	QualitySummary sql.NullInt16   `gorm:"column:quality_summary"`
}

// Assembler folds cycle rows, sorted by ref_pt, into per-point records with one
// column per cycle. Cycles with no row are missing.
type Assembler struct {
	cycles []int
	column map[int]int
	points []atl11.Point
}

// NewAssembler creates an assembler for the given cycle numbers
func NewAssembler(cycles []int) *Assembler {
	column := make(map[int]int, len(cycles))
	for i, c := range cycles {
		column[c] = i
	}
	return &Assembler{cycles: cycles, column: column}
}

// Add appends a row. Rows for one ref_pt must be contiguous.
func (a *Assembler) Add(r CycleRow) error {
	col, ok := a.column[r.CycleNumber]
	if !ok {
		return fmt.Errorf("ref_pt %d: unexpected cycle %d", r.RefPt, r.CycleNumber)
	}

	n := len(a.points)
	if n == 0 || a.points[n-1].RefPt != uint64(r.RefPt) {
		a.points = append(a.points, atl11.Point{
			RefPt:     uint64(r.RefPt),
			Longitude: r.Longitude,
			Latitude:  r.Latitude,
			Heights:   make([]dhdt.Value, len(a.cycles)),
			Times:     make([]dhdt.Value, len(a.cycles)),
			Quality:   make([]int8, len(a.cycles)),
		})
		n++
	}

	p := &a.points[n-1]
	p.Heights[col] = FromNullFloat(r.HCorr)
	if r.DeltaTime.Valid {
		p.Times[col] = dhdt.FromInt64(r.DeltaTime.Int64)
	}
	if r.QualitySummary.Valid {
		p.Quality[col] = int8(r.QualitySummary.Int16)
	}
	return nil
}

// Dataset returns the assembled points
func (a *Assembler) Dataset() *atl11.Dataset {
	return &atl11.Dataset{Cycles: a.cycles, Points: a.points}
}

// FlattenPoint turns a point back into cycle rows
func FlattenPoint(cycles []int, p *atl11.Point) []CycleRow {
	rows := make([]CycleRow, 0, len(cycles))
	for i, c := range cycles {
		row := CycleRow{
			RefPt:       int64(p.RefPt),
			CycleNumber: c,
			Longitude:   p.Longitude,
			Latitude:    p.Latitude,
			HCorr:       NullFloat(p.Heights[i]),
		}
		if p.Times[i].Valid {
			row.DeltaTime = sql.NullInt64{Int64: int64(p.Times[i].Float64), Valid: true}
		}
		if p.Quality != nil {
			row.QualitySummary = sql.NullInt16{Int16: int16(p.Quality[i]), Valid: true}
		}
		rows = append(rows, row)
	}
	return rows
}

// NullFloat converts a dhdt value for storage
func NullFloat(v dhdt.Value) sql.NullFloat64 {
	if !v.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.Float64, Valid: true}
}

// FromNullFloat converts a stored value back, treating NaN as missing
func FromNullFloat(v sql.NullFloat64) dhdt.Value {
	if !v.Valid {
		return dhdt.Value{}
	}
	return dhdt.FromFloat(v.Float64)
}

// ResultRow is one dhdt result as stored by the SQL sinks. Invalid values are NULL.
type ResultRow struct {
	RunID     string          `gorm:"column:run_id;primaryKey"`
	RefPt     int64           `gorm:"column:ref_pt;primaryKey;autoIncrement:false"`
	X         float64         `gorm:"column:x"`
	Y         float64         `gorm:"column:y"`
	HRange    sql.NullFloat64 `gorm:"column:h_range"`
	Fitted    bool            `gorm:"column:fitted"`
	Slope     sql.NullFloat64 `gorm:"column:dhdt_slope"`
	Intercept sql.NullFloat64 `gorm:"column:dhdt_intercept"`
	RValue    sql.NullFloat64 `gorm:"column:dhdt_rvalue"`
	PValue    sql.NullFloat64 `gorm:"column:dhdt_pvalue"`
	StdErr    sql.NullFloat64 `gorm:"column:dhdt_stderr"`
}

// NewResultRow converts a pipeline result for storage under runID
func NewResultRow(runID string, pt *pipeline.PointResult) ResultRow {
	row := ResultRow{
		RunID:  runID,
		RefPt:  int64(pt.RefPt),
		X:      pt.X,
		Y:      pt.Y,
		HRange: NullFloat(pt.HRange),
		Fitted: pt.Fitted,
	}
	if pt.TrendValid {
		row.Slope = sql.NullFloat64{Float64: pt.Trend.Slope, Valid: true}
		row.Intercept = sql.NullFloat64{Float64: pt.Trend.Intercept, Valid: true}
		row.RValue = sql.NullFloat64{Float64: pt.Trend.RValue, Valid: true}
		row.PValue = sql.NullFloat64{Float64: pt.Trend.PValue, Valid: true}
		row.StdErr = sql.NullFloat64{Float64: pt.Trend.StdErr, Valid: true}
	}
	return row
}

// PointResult converts a stored row back. The trend is valid only when all five
// columns are present.
func (r *ResultRow) PointResult() pipeline.PointResult {
	pt := pipeline.PointResult{
		RefPt:  uint64(r.RefPt),
		X:      r.X,
		Y:      r.Y,
		HRange: FromNullFloat(r.HRange),
		Fitted: r.Fitted,
	}
	if r.Slope.Valid && r.Intercept.Valid && r.RValue.Valid && r.PValue.Valid && r.StdErr.Valid {
		pt.TrendValid = true
		pt.Trend = dhdt.Trend{
			Slope:     r.Slope.Float64,
			Intercept: r.Intercept.Float64,
			RValue:    r.RValue.Float64,
			PValue:    r.PValue.Float64,
			StdErr:    r.StdErr.Float64,
		}
	}
	return pt
}
