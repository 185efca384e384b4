// Package app wires a configured source, the dhdt pipeline and the configured
// sinks into one batch run.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/lakes"
	"github.com/chrissnell/dhdt/internal/log"
	"github.com/chrissnell/dhdt/internal/pipeline"
	"github.com/chrissnell/dhdt/internal/storage"
	"github.com/chrissnell/dhdt/internal/storage/csvfile"
	"github.com/chrissnell/dhdt/internal/storage/snapshot"
	"github.com/chrissnell/dhdt/internal/storage/sqlite"
	"github.com/chrissnell/dhdt/internal/storage/timescaledb"
	"github.com/chrissnell/dhdt/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// Report is what a run produced
type Report struct {
	Run      storage.Run
	Points   []pipeline.PointResult
	Clusters []lakes.Cluster
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes one batch and returns once every sink has been written. SIGINT
// and SIGTERM cancel the batch between chunks.
func (a *App) Run(ctx context.Context) (*Report, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			log.Info("shutdown signal received, cancelling run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	region, subset, err := resolveRegion(a.cfg.Region)
	if err != nil {
		return nil, err
	}

	params := pipeline.Params{
		MinValidHeights: a.cfg.Pipeline.MinValidHeights,
		MinHeightRange:  a.cfg.Pipeline.MinHeightRange,
	}
	exec := pipeline.Executor{
		Workers:   a.cfg.Pipeline.Workers,
		ChunkSize: a.cfg.Pipeline.ChunkSize,
	}
	p := pipeline.New(exec, params, a.logger)
	run := storage.NewRun(region.Name, params)

	a.logger.Infow("starting dhdt run",
		"run_id", run.ID,
		"region", region.Name,
		"source", a.cfg.Source.Type,
		"min_valid_heights", params.MinValidHeights,
		"min_height_range", params.MinHeightRange,
	)

	var result *pipeline.Result
	if a.cfg.Source.Type == config.TypeSnapshot {
		result, err = a.fromSnapshot(ctx, p, region, subset)
	} else {
		result, err = a.fromSource(ctx, p, region, subset)
	}
	if err != nil {
		return nil, err
	}
	run.Summary = result.Summary

	a.logger.Infow("pipeline finished",
		"loaded", result.Summary.Loaded,
		"ranged", result.Summary.Ranged,
		"active", result.Summary.Active,
		"trended", result.Summary.Trended,
	)

	report := &Report{Run: run, Points: result.Points}

	if a.cfg.Clusters != nil {
		report.Clusters, err = a.findLakes(result.Points)
		if err != nil {
			return nil, err
		}
	}

	for i, sc := range a.cfg.Sinks {
		if err := a.writeSink(ctx, sc, run, result.Points); err != nil {
			return nil, fmt.Errorf("sinks[%d] (%s): %w", i, sc.Type, err)
		}
	}

	return report, nil
}

// resolveRegion turns the configured region into a bounding box. subset is
// false when no region was configured.
func resolveRegion(rc config.RegionData) (region atl11.Region, subset bool, err error) {
	switch {
	case rc.IsEmpty():
		return atl11.Region{}, false, nil
	case !rc.HasBounds():
		region, err = atl11.LookupRegion(rc.Name)
		if err != nil {
			return atl11.Region{}, false, err
		}
		return region, true, nil
	}

	region = atl11.Region{Name: rc.Name, XMin: rc.XMin, XMax: rc.XMax, YMin: rc.YMin, YMax: rc.YMax}
	if region.Name == "" {
		region.Name = "custom"
	}
	if err := region.Validate(); err != nil {
		return atl11.Region{}, false, err
	}
	return region, true, nil
}

func (a *App) openSource(ctx context.Context) (storage.Source, error) {
	sc := a.cfg.Source
	switch sc.Type {
	case config.TypeSQLite:
		return sqlite.Open(ctx, sc.Path, a.logger)
	case config.TypeTimescaleDB:
		return timescaledb.New(ctx, sc.ConnectionString, 0, a.logger)
	default:
		return nil, fmt.Errorf("unsupported source type %q", sc.Type)
	}
}

func (a *App) fromSource(ctx context.Context, p *pipeline.Pipeline, region atl11.Region, subset bool) (*pipeline.Result, error) {
	src, err := a.openSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	loaded := len(ds.Points)

	ds.Prepare()
	if subset {
		ds = ds.Subset(region)
		a.logger.Infof("%d of %d points fall inside %s", len(ds.Points), loaded, region.Name)
	}

	if a.cfg.RangeSnapshot == "" {
		result, err := p.Run(ctx, ds)
		if err != nil {
			return nil, err
		}
		result.Summary.Loaded = loaded
		return result, nil
	}

	rangeStart := time.Now()
	ranged, err := p.Ranges(ctx, ds)
	if err != nil {
		return nil, err
	}
	rangeTime := time.Since(rangeStart)

	if err := snapshot.SaveRanges(a.cfg.RangeSnapshot, ds.Cycles, ranged); err != nil {
		return nil, err
	}
	a.logger.Infof("saved %d ranged points to %s", len(ranged), a.cfg.RangeSnapshot)

	trendStart := time.Now()
	points, err := p.Trends(ctx, ranged)
	if err != nil {
		return nil, err
	}

	return &pipeline.Result{
		Points:  points,
		Summary: pipeline.Summarize(loaded, points, rangeTime, time.Since(trendStart)),
	}, nil
}

// fromSnapshot resumes from a saved range stage
func (a *App) fromSnapshot(ctx context.Context, p *pipeline.Pipeline, region atl11.Region, subset bool) (*pipeline.Result, error) {
	_, ranged, err := snapshot.LoadRanges(a.cfg.Source.Path)
	if err != nil {
		return nil, err
	}
	loaded := len(ranged)

	if subset {
		kept := ranged[:0]
		for _, r := range ranged {
			if region.Contains(r.X, r.Y) {
				kept = append(kept, r)
			}
		}
		ranged = kept
		a.logger.Infof("%d of %d ranged points fall inside %s", len(ranged), loaded, region.Name)
	}

	trendStart := time.Now()
	points, err := p.Trends(ctx, ranged)
	if err != nil {
		return nil, err
	}

	return &pipeline.Result{
		Points:  points,
		Summary: pipeline.Summarize(loaded, points, 0, time.Since(trendStart)),
	}, nil
}

func (a *App) findLakes(points []pipeline.PointResult) ([]lakes.Cluster, error) {
	cc := a.cfg.Clusters
	clusters, err := lakes.Detect(points, lakes.Params{
		Eps:        cc.Eps,
		MinSamples: cc.MinSamples,
		MinAbsDhdt: cc.MinAbsDhdt,
	})
	if err != nil {
		return nil, fmt.Errorf("lake detection: %w", err)
	}

	for _, c := range clusters {
		xmin, xmax, ymin, ymax := lakes.Extent(c, points)
		a.logger.Infow("lake candidate",
			"cluster_id", c.ID,
			"draining", c.Draining,
			"points", len(c.RefPts),
			"mean_dhdt", c.MeanDhdt,
			"bounds", [4]float64{xmin, xmax, ymin, ymax},
		)
	}
	a.logger.Infof("found %d lake candidates", len(clusters))

	if cc.Output != "" {
		if err := csvfile.WriteClusters(cc.Output, clusters); err != nil {
			return nil, err
		}
	}
	return clusters, nil
}

func (a *App) openSink(ctx context.Context, sc config.SinkData) (storage.Sink, error) {
	switch sc.Type {
	case config.TypeSQLite:
		return sqlite.Open(ctx, sc.Path, a.logger)
	case config.TypeTimescaleDB:
		return timescaledb.New(ctx, sc.ConnectionString, sc.BatchSize, a.logger)
	case config.TypeCSV:
		return csvfile.NewSink(sc.Path, a.logger), nil
	case config.TypeSnapshot:
		return snapshot.NewSink(sc.Path, a.logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink type %q", sc.Type)
	}
}

func (a *App) writeSink(ctx context.Context, sc config.SinkData, run storage.Run, points []pipeline.PointResult) error {
	sink, err := a.openSink(ctx, sc)
	if err != nil {
		return err
	}
	defer sink.Close()

	return sink.Write(ctx, run, points)
}
