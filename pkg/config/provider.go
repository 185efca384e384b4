package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// Source and sink types
const (
	TypeSQLite      = "sqlite"
	TypeTimescaleDB = "timescaledb"
	TypeCSV         = "csv"
	TypeSnapshot    = "snapshot"
)

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Pipeline      PipelineData `json:"pipeline"`
	Region        RegionData   `json:"region,omitempty"`
	Source        SourceData   `json:"source"`
	Sinks         []SinkData   `json:"sinks,omitempty"`
	RangeSnapshot string       `json:"range_snapshot,omitempty"`
	Clusters      *ClusterData `json:"clusters,omitempty"`
	Log           LogData      `json:"log,omitempty"`
}

// PipelineData holds the filter thresholds and the executor sizing
type PipelineData struct {
	MinValidHeights int     `json:"min_valid_heights"`
	MinHeightRange  float64 `json:"min_height_range"`
	Workers         int     `json:"workers,omitempty"`
	ChunkSize       int     `json:"chunk_size,omitempty"`
}

// RegionData selects a built-in region by name, or gives explicit bounds.
// An empty region means the whole dataset.
type RegionData struct {
	Name string  `json:"name,omitempty"`
	XMin float64 `json:"xmin,omitempty"`
	XMax float64 `json:"xmax,omitempty"`
	YMin float64 `json:"ymin,omitempty"`
	YMax float64 `json:"ymax,omitempty"`
}

// HasBounds reports whether explicit bounds were given
func (r RegionData) HasBounds() bool {
	return r.XMin != 0 || r.XMax != 0 || r.YMin != 0 || r.YMax != 0
}

// IsEmpty reports whether no region was configured
func (r RegionData) IsEmpty() bool {
	return r.Name == "" && !r.HasBounds()
}

// SourceData says where the ATL11 dataset is read from
type SourceData struct {
	Type             string `json:"type"`
	Path             string `json:"path,omitempty"`
	ConnectionString string `json:"connection_string,omitempty"`
}

// SinkData says where results are written to
type SinkData struct {
	Type             string `json:"type"`
	Path             string `json:"path,omitempty"`
	ConnectionString string `json:"connection_string,omitempty"`
	BatchSize        int    `json:"batch_size,omitempty"`
}

// ClusterData enables lake candidate detection
type ClusterData struct {
	Eps        float64 `json:"eps"`
	MinSamples int     `json:"min_samples"`
	MinAbsDhdt float64 `json:"min_abs_dhdt"`
	// Output is an optional CSV file listing the clusters
	Output string `json:"output,omitempty"`
}

// LogData configures the optional rotating log file
type LogData struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// Defaults
const (
	DefaultMinValidHeights = 2
	DefaultMinHeightRange  = 0.5
	DefaultEps             = 3000
	DefaultMinSamples      = 250
	DefaultMinAbsDhdt      = 0.25
	DefaultLogMaxSizeMB    = 100
	DefaultLogMaxBackups   = 3
)

// ApplyDefaults fills in unset values. MinHeightRange is defaulted by the
// provider since zero is a meaningful threshold.
func (c *ConfigData) ApplyDefaults() {
	if c.Pipeline.MinValidHeights == 0 {
		c.Pipeline.MinValidHeights = DefaultMinValidHeights
	}
	if c.Clusters != nil {
		if c.Clusters.Eps == 0 {
			c.Clusters.Eps = DefaultEps
		}
		if c.Clusters.MinSamples == 0 {
			c.Clusters.MinSamples = DefaultMinSamples
		}
	}
	if c.Log.File != "" {
		if c.Log.MaxSizeMB == 0 {
			c.Log.MaxSizeMB = DefaultLogMaxSizeMB
		}
		if c.Log.MaxBackups == 0 {
			c.Log.MaxBackups = DefaultLogMaxBackups
		}
	}
	c.Source.Type = strings.ToLower(c.Source.Type)
	for i := range c.Sinks {
		c.Sinks[i].Type = strings.ToLower(c.Sinks[i].Type)
	}
}

// Validate checks the configuration and reports every problem found
func (c *ConfigData) Validate() error {
	var errs []error

	if c.Pipeline.MinValidHeights < 1 {
		errs = append(errs, fmt.Errorf("pipeline: min-valid-heights must be at least 1, got %d", c.Pipeline.MinValidHeights))
	}
	if c.Pipeline.MinHeightRange < 0 {
		errs = append(errs, fmt.Errorf("pipeline: min-height-range must not be negative, got %v", c.Pipeline.MinHeightRange))
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, fmt.Errorf("pipeline: workers must not be negative, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("pipeline: chunk-size must not be negative, got %d", c.Pipeline.ChunkSize))
	}

	if c.Region.HasBounds() && (c.Region.XMin >= c.Region.XMax || c.Region.YMin >= c.Region.YMax) {
		errs = append(errs, fmt.Errorf("region: empty bounding box [%v %v %v %v]",
			c.Region.XMin, c.Region.XMax, c.Region.YMin, c.Region.YMax))
	}

	switch c.Source.Type {
	case TypeSQLite, TypeSnapshot:
		if c.Source.Path == "" {
			errs = append(errs, fmt.Errorf("source: %s requires a path", c.Source.Type))
		}
	case TypeTimescaleDB:
		if c.Source.ConnectionString == "" {
			errs = append(errs, errors.New("source: timescaledb requires a connection-string"))
		}
	case "":
		errs = append(errs, errors.New("source: type is required"))
	default:
		errs = append(errs, fmt.Errorf("source: unknown type %q", c.Source.Type))
	}

	for i, s := range c.Sinks {
		switch s.Type {
		case TypeSQLite, TypeCSV, TypeSnapshot:
			if s.Path == "" {
				errs = append(errs, fmt.Errorf("sinks[%d]: %s requires a path", i, s.Type))
			}
		case TypeTimescaleDB:
			if s.ConnectionString == "" {
				errs = append(errs, fmt.Errorf("sinks[%d]: timescaledb requires a connection-string", i))
			}
			if s.BatchSize < 0 {
				errs = append(errs, fmt.Errorf("sinks[%d]: batch-size must not be negative", i))
			}
		default:
			errs = append(errs, fmt.Errorf("sinks[%d]: unknown type %q", i, s.Type))
		}
	}

	if c.Clusters != nil {
		if !(c.Clusters.Eps > 0) {
			errs = append(errs, fmt.Errorf("clusters: eps must be positive, got %v", c.Clusters.Eps))
		}
		if c.Clusters.MinSamples < 1 {
			errs = append(errs, fmt.Errorf("clusters: min-samples must be at least 1, got %d", c.Clusters.MinSamples))
		}
		if c.Clusters.MinAbsDhdt < 0 {
			errs = append(errs, fmt.Errorf("clusters: min-abs-dhdt must not be negative, got %v", c.Clusters.MinAbsDhdt))
		}
	}

	return errors.Join(errs...)
}
