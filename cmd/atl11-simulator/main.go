// Package main writes a synthetic ATL11 dataset for exercising the dhdt pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/chrissnell/dhdt/internal/atl11"
	"github.com/chrissnell/dhdt/internal/log"
	"github.com/chrissnell/dhdt/internal/storage/sqlite"
	"github.com/chrissnell/dhdt/internal/storage/timescaledb"
)

func main() {
	var (
		dbPath     = flag.String("db", "atl11.db", "SQLite database to write the dataset to")
		tsdb       = flag.String("timescaledb", "", "Also write the dataset to this TimescaleDB connection string")
		points     = flag.Int("points", 20000, "Number of reference points")
		firstCycle = flag.Int("first-cycle", 3, "First repeat cycle number")
		cycles     = flag.Int("cycles", 8, "Number of repeat cycles")
		region     = flag.String("region", "kamb", "Region to scatter points over")
		lakes      = flag.Int("lakes", 4, "Number of active lakes")
		radius     = flag.Float64("lake-radius", 8000, "Lake radius in metres")
		gaps       = flag.Float64("gaps", 0.15, "Fraction of samples that are missing")
		flagged    = flag.Float64("flagged", 0.02, "Fraction of samples flagged as bad quality")
		noise      = flag.Float64("noise", 0.05, "Height noise in metres")
		seed       = flag.Int64("seed", 1, "Random seed")
		debug      = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug, nil); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	r, err := atl11.LookupRegion(*region)
	if err != nil {
		log.Fatalf("%v", err)
	}

	opts := Options{
		Points:       *points,
		FirstCycle:   *firstCycle,
		Cycles:       *cycles,
		Region:       r,
		Lakes:        *lakes,
		LakeRadius:   *radius,
		GapFraction:  *gaps,
		FlagFraction: *flagged,
		Noise:        *noise,
	}
	ds, lks := Generate(opts, rand.New(rand.NewSource(*seed)))
	for _, l := range lks {
		log.Infow("simulated lake", "x", l.X, "y", l.Y, "radius", l.Radius, "rate", l.Rate)
	}

	ctx := context.Background()
	logger := log.GetSugaredLogger()

	store, err := sqlite.Open(ctx, *dbPath, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer store.Close()
	if err := store.WriteDataset(ctx, ds); err != nil {
		log.Fatalf("failed to write dataset: %v", err)
	}
	log.Infof("wrote %d points over %d cycles to %s", len(ds.Points), len(ds.Cycles), *dbPath)

	if *tsdb != "" {
		ts, err := timescaledb.New(ctx, *tsdb, 0, logger)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer ts.Close()
		if err := ts.WriteDataset(ctx, ds); err != nil {
			log.Fatalf("failed to write dataset to TimescaleDB: %v", err)
		}
		log.Infof("wrote %d points to TimescaleDB", len(ds.Points))
	}
}
