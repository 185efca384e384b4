package timescaledb

import (
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/dhdt/internal/storage"
)

// We declare the Tabler interface for purposes of customizing the table name in the DB
type Tabler interface {
	TableName() string
}

var (
	_ Tabler = pointRow{}
	_ Tabler = resultRow{}
	_ Tabler = runRow{}
)

type pointRow storage.CycleRow

func (pointRow) TableName() string {
	return "atl11_points"
}

type resultRow storage.ResultRow

func (resultRow) TableName() string {
	return "dhdt_results"
}

type runRow struct {
	RunID           uuid.UUID `gorm:"column:run_id;type:uuid;primaryKey"`
	StartedAt       time.Time `gorm:"column:started_at"`
	Region          string    `gorm:"column:region"`
	MinValidHeights int       `gorm:"column:min_valid_heights"`
	MinHeightRange  float64   `gorm:"column:min_height_range"`
	Loaded          int       `gorm:"column:loaded"`
	Ranged          int       `gorm:"column:ranged"`
	Active          int       `gorm:"column:active"`
	Trended         int       `gorm:"column:trended"`
}

func (runRow) TableName() string {
	return "dhdt_runs"
}

func newRunRow(run storage.Run) runRow {
	return runRow{
		RunID:           run.ID,
		StartedAt:       run.StartedAt,
		Region:          run.Region,
		MinValidHeights: run.Params.MinValidHeights,
		MinHeightRange:  run.Params.MinHeightRange,
		Loaded:          run.Summary.Loaded,
		Ranged:          run.Summary.Ranged,
		Active:          run.Summary.Active,
		Trended:         run.Summary.Trended,
	}
}
