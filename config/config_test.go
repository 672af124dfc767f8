package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	v, err := NewViper("")
	if err != nil {
		t.Fatalf("Failed to create viper: %v", err)
	}

	cfg, err := Load(v, "in", "out")
	if err != nil {
		t.Fatalf("Expected defaults to validate, got: %v", err)
	}

	if cfg.DPI != 300.0 {
		t.Errorf("Expected default DPI 300, got %v", cfg.DPI)
	}
	if cfg.Format != "png" {
		t.Errorf("Expected default format png, got %s", cfg.Format)
	}
	if !cfg.PreserveAspectRatio {
		t.Error("Expected aspect ratio to be preserved by default")
	}
	if cfg.MaxWidth != 0 || cfg.MaxHeight != 0 {
		t.Errorf("Expected unlimited max dimensions, got %dx%d", cfg.MaxWidth, cfg.MaxHeight)
	}
	if cfg.Jobs != 0 {
		t.Errorf("Expected jobs to default to auto (0), got %d", cfg.Jobs)
	}
	if cfg.PageLimitScope != ScopeDocument {
		t.Errorf("Expected document page limit scope, got %s", cfg.PageLimitScope)
	}
	if cfg.Renderer != "pdfium" {
		t.Errorf("Expected pdfium renderer by default, got %s", cfg.Renderer)
	}
	if cfg.Every != 0 {
		t.Errorf("Expected run-once by default, got %v", cfg.Every)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PAGESHOT_DPI", "150")
	t.Setenv("PAGESHOT_FORMAT", "JPG")
	t.Setenv("PAGESHOT_MAX_WIDTH", "1920")
	t.Setenv("PAGESHOT_NO_ASPECT_RATIO", "true")
	t.Setenv("PAGESHOT_EVERY", "10m")

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("Failed to create viper: %v", err)
	}
	cfg, err := Load(v, "in", "out")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DPI != 150 {
		t.Errorf("Expected DPI 150 from env, got %v", cfg.DPI)
	}
	if cfg.Format != "jpg" {
		t.Errorf("Expected format to be lowercased to jpg, got %s", cfg.Format)
	}
	if cfg.MaxWidth != 1920 {
		t.Errorf("Expected max width 1920, got %d", cfg.MaxWidth)
	}
	if cfg.PreserveAspectRatio {
		t.Error("Expected PAGESHOT_NO_ASPECT_RATIO to disable aspect ratio")
	}
	if cfg.Every != 10*time.Minute {
		t.Errorf("Expected every 10m, got %v", cfg.Every)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "pageshot.yaml")
	content := "dpi: 200\nformat: tif\npage-limit-scope: run\njobs: 3\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	v, err := NewViper(cfgFile)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	cfg, err := Load(v, "in", "out")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DPI != 200 || cfg.Format != "tif" || cfg.PageLimitScope != ScopeRun || cfg.Jobs != 3 {
		t.Errorf("Config file values not applied: %+v", cfg)
	}
}

func TestNewViper_MissingConfigFile(t *testing.T) {
	_, err := NewViper("/nonexistent/pageshot.yaml")
	if err == nil {
		t.Error("Expected error for missing config file, got nil")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		DPI:            300,
		JPEGQuality:    95,
		PageLimitScope: ScopeDocument,
		Renderer:       "fitz",
		DatabaseType:   "sqlite",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dpi", func(c *Config) { c.DPI = 0 }},
		{"negative width", func(c *Config) { c.MaxWidth = -1 }},
		{"negative jobs", func(c *Config) { c.Jobs = -2 }},
		{"negative page limit", func(c *Config) { c.PageLimit = -1 }},
		{"jpeg quality too high", func(c *Config) { c.JPEGQuality = 101 }},
		{"unknown scope", func(c *Config) { c.PageLimitScope = "global" }},
		{"unknown renderer", func(c *Config) { c.Renderer = "poppler" }},
		{"unknown database", func(c *Config) { c.DatabaseType = "mysql" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
