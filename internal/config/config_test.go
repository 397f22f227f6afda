package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "kompline.db" || cfg.Archive.FuzzyThreshold != 0.85 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Upload.ScanConflicts == nil || !*cfg.Upload.ScanConflicts {
		t.Error("conflict scan must default to on")
	}
}

func TestLoad_PartialFileKeepsRemainingDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "database_path: /var/lib/kompline/data.db\n" +
		"archive:\n" +
		"  mirror_path: /mnt/share/archive-index.csv\n" +
		"upload:\n" +
		"  scan_conflicts: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "/var/lib/kompline/data.db" {
		t.Errorf("database_path = %q", cfg.DatabasePath)
	}
	if cfg.Archive.MirrorPath != "/mnt/share/archive-index.csv" {
		t.Errorf("mirror_path = %q", cfg.Archive.MirrorPath)
	}
	if cfg.Archive.IndexPath != "archive-index.csv" || cfg.SeriesDepth != 5 {
		t.Errorf("unset fields lost their defaults: %+v", cfg)
	}
	if cfg.Upload.ScanConflicts == nil || *cfg.Upload.ScanConflicts {
		t.Error("explicit scan_conflicts: false was overridden")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database_path: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoad_OutOfRangeThresholdFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("archive:\n  fuzzy_threshold: 7.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Archive.FuzzyThreshold != 0.85 {
		t.Errorf("fuzzy_threshold = %v, want default", cfg.Archive.FuzzyThreshold)
	}
}
