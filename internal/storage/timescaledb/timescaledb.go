// Package timescaledb reads ATL11 points from, and writes dhdt results to, a
// TimescaleDB (or plain PostgreSQL) database.
package timescaledb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/log"
	"github.com/chrissnell/dhdt/internal/pipeline"
	"github.com/chrissnell/dhdt/internal/storage"
)

// DefaultBatchSize is the number of rows sent per INSERT
const DefaultBatchSize = 5000

var (
	_ storage.Source = (*Storage)(nil)
	_ storage.Sink   = (*Storage)(nil)
)

// Storage holds the connection to a TimescaleDB database
type Storage struct {
	DB        *gorm.DB
	batchSize int
	logger    *zap.SugaredLogger
}

// CreateConnection opens a database connection with a zap-backed GORM logger
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
}

// New connects to the database and creates the tables
func New(ctx context.Context, connectionString string, batchSize int, logger *zap.SugaredLogger) (*Storage, error) {
	logger.Info("connecting to TimescaleDB...")
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, fmt.Errorf("unable to create a TimescaleDB connection: %w", err)
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	t := &Storage{DB: db, batchSize: batchSize, logger: logger}
	if err := t.Ping(ctx); err != nil {
		return nil, err
	}

	logger.Info("creating database tables...")
	for _, stmt := range []string{createPointsTableSQL, createRunsTableSQL, createResultsTableSQL, createResultsSlopeIndexSQL} {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("could not create schema: %w", err)
		}
	}
	logger.Info("TimescaleDB connection successful")

	return t, nil
}

// Ping checks that the database is reachable
func (t *Storage) Ping(ctx context.Context) error {
	sqlDB, err := t.DB.DB()
	if err != nil {
		return fmt.Errorf("could not get database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("TimescaleDB is unreachable: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (t *Storage) Close() error {
	sqlDB, err := t.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load streams every row of atl11_points into a dataset
func (t *Storage) Load(ctx context.Context) (*atl11.Dataset, error) {
	db := t.DB.WithContext(ctx)

	var cycles []int
	if err := db.Model(&pointRow{}).Distinct("cycle_number").Order("cycle_number").Pluck("cycle_number", &cycles).Error; err != nil {
		return nil, fmt.Errorf("error querying cycles: %w", err)
	}

	rows, err := db.Model(&pointRow{}).Order("ref_pt, cycle_number").Rows()
	if err != nil {
		return nil, fmt.Errorf("error querying points: %w", err)
	}
	defer rows.Close()

	asm := storage.NewAssembler(cycles)
	for rows.Next() {
		var r pointRow
		if err := db.ScanRows(rows, &r); err != nil {
			return nil, fmt.Errorf("error scanning point row: %w", err)
		}
		if err := asm.Add(storage.CycleRow(r)); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point rows: %w", err)
	}

	ds := asm.Dataset()
	t.logger.Infof("loaded %d points over %d cycles from TimescaleDB", len(ds.Points), len(cycles))
	return ds, nil
}

// Write stores a run and its results in one transaction
func (t *Storage) Write(ctx context.Context, run storage.Run, points []pipeline.PointResult) error {
	runID := run.ID.String()

	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rr := newRunRow(run)
		if err := tx.Create(&rr).Error; err != nil {
			return fmt.Errorf("could not store run: %w", err)
		}

		batch := make([]resultRow, 0, t.batchSize)
		for i := range points {
			batch = append(batch, resultRow(storage.NewResultRow(runID, &points[i])))
			if len(batch) == t.batchSize {
				if err := tx.Create(&batch).Error; err != nil {
					return fmt.Errorf("could not store results: %w", err)
				}
				batch = batch[:0]
			}
		}
		if len(batch) > 0 {
			if err := tx.Create(&batch).Error; err != nil {
				return fmt.Errorf("could not store results: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.logger.Infof("wrote %d results for run %s to TimescaleDB", len(points), runID)
	return nil
}

// WriteDataset stores ds in atl11_points
func (t *Storage) WriteDataset(ctx context.Context, ds *atl11.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	rows := make([]pointRow, 0, t.batchSize)
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range ds.Points {
			for _, r := range storage.FlattenPoint(ds.Cycles, &ds.Points[i]) {
				rows = append(rows, pointRow(r))
			}
			if len(rows) >= t.batchSize {
				if err := tx.Create(&rows).Error; err != nil {
					return fmt.Errorf("could not store points: %w", err)
				}
				rows = rows[:0]
			}
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("could not store points: %w", err)
			}
		}
		return nil
	})
}
