// Package sqlite reads ATL11 points from, and writes dhdt results to, a SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/pipeline"
	"github.com/chrissnell/dhdt/internal/storage"
)

// Store is a SQLite-backed source and sink
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

var (
	_ storage.Source = (*Store)(nil)
	_ storage.Sink   = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and ensures the schema exists
func Open(ctx context.Context, path string, logger *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	for _, stmt := range []string{createPointsTableSQL, createRunsTableSQL, createResultsTableSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads every point in atl11_points
func (s *Store) Load(ctx context.Context) (*atl11.Dataset, error) {
	cycles, err := s.cycles(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectPointsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	asm := storage.NewAssembler(cycles)
	for rows.Next() {
		var r storage.CycleRow
		if err := rows.Scan(&r.RefPt, &r.CycleNumber, &r.Longitude, &r.Latitude, &r.HCorr, &r.DeltaTime, &r.QualitySummary); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := asm.Add(r); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	ds := asm.Dataset()
	s.logger.Infof("loaded %d points over %d cycles from %s", len(ds.Points), len(cycles), s.path)
	return ds, nil
}

func (s *Store) cycles(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, selectCyclesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []int
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// WriteDataset stores ds in atl11_points, replacing existing rows for the same
// ref_pt and cycle
func (s *Store) WriteDataset(ctx context.Context, ds *atl11.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertPointSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range ds.Points {
		for _, r := range storage.FlattenPoint(ds.Cycles, &ds.Points[i]) {
			_, err = stmt.ExecContext(ctx, r.RefPt, r.CycleNumber, r.Longitude, r.Latitude, r.HCorr, r.DeltaTime, r.QualitySummary)
			if err != nil {
				return fmt.Errorf("failed to insert point %d: %w", r.RefPt, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Write stores a run and its results in one transaction
func (s *Store) Write(ctx context.Context, run storage.Run, points []pipeline.PointResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, insertRunSQL,
		run.ID.String(),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Region,
		run.Params.MinValidHeights,
		run.Params.MinHeightRange,
		run.Summary.Loaded,
		run.Summary.Ranged,
		run.Summary.Active,
		run.Summary.Trended,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertResultSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range points {
		r := storage.NewResultRow(run.ID.String(), &points[i])
		_, err = stmt.ExecContext(ctx, r.RunID, r.RefPt, r.X, r.Y, r.HRange, r.Fitted,
			r.Slope, r.Intercept, r.RValue, r.PValue, r.StdErr)
		if err != nil {
			return fmt.Errorf("failed to insert result for ref_pt %d: %w", r.RefPt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Infof("wrote %d results for run %s to %s", len(points), run.ID, s.path)
	return nil
}

// Results reads back the results of a run, ordered by ref_pt
func (s *Store) Results(ctx context.Context, runID string) ([]pipeline.PointResult, error) {
	rows, err := s.db.QueryContext(ctx, selectResultsSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []pipeline.PointResult
	for rows.Next() {
		var r storage.ResultRow
		if err := rows.Scan(&r.RunID, &r.RefPt, &r.X, &r.Y, &r.HRange, &r.Fitted,
			&r.Slope, &r.Intercept, &r.RValue, &r.PValue, &r.StdErr); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, r.PointResult())
	}
	return out, rows.Err()
}
