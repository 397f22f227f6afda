// Package config loads the YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration. Every field has a usable default; an
// absent file yields a working local setup.
type Config struct {
	// DatabasePath is the sqlite database file.
	DatabasePath string `yaml:"database_path"`

	Archive ArchiveConfig `yaml:"archive"`
	Upload  UploadConfig  `yaml:"upload"`

	// SeriesDepth bounds how many predecessor versions risk history walks.
	SeriesDepth int `yaml:"series_depth"`
}

type ArchiveConfig struct {
	// IndexPath is the local working copy of the archive index file.
	IndexPath string `yaml:"index_path"`

	// MirrorPath is the remote mirror of the index. Blank disables mirroring.
	MirrorPath string `yaml:"mirror_path"`

	// FuzzyThreshold is the minimum label similarity for a fuzzy index
	// match, between 0 and 1.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}

type UploadConfig struct {
	// ScanConflicts runs the license conflict scan on every imported
	// library. Deployments ingesting very large BOMs turn this off and scan
	// during review instead.
	ScanConflicts *bool `yaml:"scan_conflicts"`

	// Concurrency bounds parallel enrichment workers per upload.
	Concurrency int `yaml:"concurrency"`
}

// Default returns the built-in configuration.
func Default() Config {
	on := true
	return Config{
		DatabasePath: "kompline.db",
		Archive: ArchiveConfig{
			IndexPath:      "archive-index.csv",
			FuzzyThreshold: 0.85,
		},
		Upload: UploadConfig{
			ScanConflicts: &on,
			Concurrency:   4,
		},
		SeriesDepth: 5,
	}
}

// Load reads the configuration file at path, filling unset fields with
// defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	if c.Archive.IndexPath == "" {
		c.Archive.IndexPath = d.Archive.IndexPath
	}
	if c.Archive.FuzzyThreshold <= 0 || c.Archive.FuzzyThreshold > 1 {
		c.Archive.FuzzyThreshold = d.Archive.FuzzyThreshold
	}
	if c.Upload.ScanConflicts == nil {
		c.Upload.ScanConflicts = d.Upload.ScanConflicts
	}
	if c.Upload.Concurrency <= 0 {
		c.Upload.Concurrency = d.Upload.Concurrency
	}
	if c.SeriesDepth <= 0 {
		c.SeriesDepth = d.SeriesDepth
	}
}
