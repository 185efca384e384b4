package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document into a ConfigData with defaults applied.
// It does not validate the result.
func ParseYAML(data []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Pipeline      PipelineYAML  `yaml:"pipeline,omitempty"`
		Region        RegionYAML    `yaml:"region,omitempty"`
		Source        SourceYAML    `yaml:"source"`
		Sinks         []SinkYAML    `yaml:"sinks,omitempty"`
		RangeSnapshot string        `yaml:"range-snapshot,omitempty"`
		Clusters      *ClustersYAML `yaml:"clusters,omitempty"`
		Log           LogYAML       `yaml:"log,omitempty"`
	}

	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Pipeline: PipelineData{
			MinValidHeights: yamlConfig.Pipeline.MinValidHeights,
			MinHeightRange:  DefaultMinHeightRange,
			Workers:         yamlConfig.Pipeline.Workers,
			ChunkSize:       yamlConfig.Pipeline.ChunkSize,
		},
		Region: RegionData{
			Name: yamlConfig.Region.Name,
			XMin: yamlConfig.Region.XMin,
			XMax: yamlConfig.Region.XMax,
			YMin: yamlConfig.Region.YMin,
			YMax: yamlConfig.Region.YMax,
		},
		Source: SourceData{
			Type:             yamlConfig.Source.Type,
			Path:             yamlConfig.Source.Path,
			ConnectionString: yamlConfig.Source.ConnectionString,
		},
		Sinks:         make([]SinkData, len(yamlConfig.Sinks)),
		RangeSnapshot: yamlConfig.RangeSnapshot,
		Log: LogData{
			File:       yamlConfig.Log.File,
			MaxSizeMB:  yamlConfig.Log.MaxSizeMB,
			MaxBackups: yamlConfig.Log.MaxBackups,
			MaxAgeDays: yamlConfig.Log.MaxAgeDays,
		},
	}
	if yamlConfig.Pipeline.MinHeightRange != nil {
		config.Pipeline.MinHeightRange = *yamlConfig.Pipeline.MinHeightRange
	}

	for i, sink := range yamlConfig.Sinks {
		config.Sinks[i] = SinkData{
			Type:             sink.Type,
			Path:             sink.Path,
			ConnectionString: sink.ConnectionString,
			BatchSize:        sink.BatchSize,
		}
	}

	if yamlConfig.Clusters != nil {
		config.Clusters = &ClusterData{
			Eps:        yamlConfig.Clusters.Eps,
			MinSamples: yamlConfig.Clusters.MinSamples,
			MinAbsDhdt: DefaultMinAbsDhdt,
			Output:     yamlConfig.Clusters.Output,
		}
		if yamlConfig.Clusters.MinAbsDhdt != nil {
			config.Clusters.MinAbsDhdt = *yamlConfig.Clusters.MinAbsDhdt
		}
	}

	config.ApplyDefaults()
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the config file
type PipelineYAML struct {
	MinValidHeights int      `yaml:"min-valid-heights,omitempty"`
	MinHeightRange  *float64 `yaml:"min-height-range,omitempty"`
	Workers         int      `yaml:"workers,omitempty"`
	ChunkSize       int      `yaml:"chunk-size,omitempty"`
}

type RegionYAML struct {
	Name string  `yaml:"name,omitempty"`
	XMin float64 `yaml:"xmin,omitempty"`
	XMax float64 `yaml:"xmax,omitempty"`
	YMin float64 `yaml:"ymin,omitempty"`
	YMax float64 `yaml:"ymax,omitempty"`
}

type SourceYAML struct {
	Type             string `yaml:"type"`
	Path             string `yaml:"path,omitempty"`
	ConnectionString string `yaml:"connection-string,omitempty"`
}

type SinkYAML struct {
	Type             string `yaml:"type"`
	Path             string `yaml:"path,omitempty"`
	ConnectionString string `yaml:"connection-string,omitempty"`
	BatchSize        int    `yaml:"batch-size,omitempty"`
}

type ClustersYAML struct {
	Eps        float64  `yaml:"eps,omitempty"`
	MinSamples int      `yaml:"min-samples,omitempty"`
	MinAbsDhdt *float64 `yaml:"min-abs-dhdt,omitempty"`
	Output     string   `yaml:"output,omitempty"`
}

type LogYAML struct {
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max-size-mb,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty"`
	MaxAgeDays int    `yaml:"max-age-days,omitempty"`
}
