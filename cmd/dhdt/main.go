package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/dhdt/internal/app"
	"github.com/chrissnell/dhdt/internal/constants"
	"github.com/chrissnell/dhdt/internal/log"
	"github.com/chrissnell/dhdt/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "dhdt.yaml", "Path to the YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dhdt %s\n", constants.Version)
		os.Exit(0)
	}

	// Load configuration before logging so the log file can be configured
	cfgData, err := loadConfig(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	var logFile *log.FileOptions
	if cfgData.Log.File != "" {
		logFile = &log.FileOptions{
			Path:       cfgData.Log.File,
			MaxSizeMB:  cfgData.Log.MaxSizeMB,
			MaxBackups: cfgData.Log.MaxBackups,
			MaxAgeDays: cfgData.Log.MaxAgeDays,
		}
	}
	if err := log.Init(*debug, logFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Create and run the application
	application := app.New(cfgData, log.GetSugaredLogger())
	report, err := application.Run(context.Background())
	if err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}

	log.Infof("run %s finished: %d points, %d trends, %d lake candidates",
		report.Run.ID, len(report.Points), report.Run.Summary.Trended, len(report.Clusters))
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider = config.NewYAMLProvider(filename)
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}
