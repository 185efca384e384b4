// Package storage defines where ATL11 datasets are read from and where dhdt
// results are written to.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/pipeline"
)

// Source loads a dataset snapshot
type Source interface {
	Load(ctx context.Context) (*atl11.Dataset, error)
	Close() error
}

// Sink stores the results of one run
type Sink interface {
	Write(ctx context.Context, run Run, points []pipeline.PointResult) error
	Close() error
}

// Run describes one pipeline execution. Every result row written by a sink
// carries the run's ID.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Region    string
	Params    pipeline.Params
	Summary   pipeline.Summary
}

// NewRun stamps a fresh run ID
func NewRun(region string, params pipeline.Params) Run {
	return Run{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Region:    region,
		Params:    params,
	}
}
