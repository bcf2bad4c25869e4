package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"bwexport/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "bitwarden-export"); cfg.Export.Destination != want {
		t.Fatalf("unexpected destination: got %q want %q", cfg.Export.Destination, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "bwexport"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if cfg.Export.MaxParallel != config.Default().Export.MaxParallel {
		t.Fatalf("unexpected max_parallel: %d", cfg.Export.MaxParallel)
	}
	if cfg.Export.Overwrite {
		t.Fatal("expected overwrite disabled by default")
	}
	if cfg.Export.CatalogFile != "items.json" {
		t.Fatalf("unexpected catalog file: %q", cfg.Export.CatalogFile)
	}
	if cfg.BW.Binary != "bw" || cfg.BW.SessionEnv != "BW_SESSION" {
		t.Fatalf("unexpected bw config: %#v", cfg.BW)
	}
	if cfg.CommandTimeout() != 0 {
		t.Fatalf("expected no command timeout, got %v", cfg.CommandTimeout())
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.StateDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected state dir to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bwexport.toml")

	type payload struct {
		BW struct {
			Binary         string `toml:"binary"`
			CommandTimeout int    `toml:"command_timeout"`
		} `toml:"bw"`
		Export struct {
			Destination string `toml:"destination"`
			MaxParallel int    `toml:"max_parallel"`
			Overwrite   bool   `toml:"overwrite"`
		} `toml:"export"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.BW.Binary = "  /opt/bw/bw  "
	custom.BW.CommandTimeout = 90
	custom.Export.Destination = filepath.Join(tempDir, "out")
	custom.Export.MaxParallel = 8
	custom.Export.Overwrite = true
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.BW.Binary != "/opt/bw/bw" {
		t.Fatalf("expected trimmed binary, got %q", cfg.BW.Binary)
	}
	if cfg.CommandTimeout() != 90*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.CommandTimeout())
	}
	if cfg.Export.Destination != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected destination: %q", cfg.Export.Destination)
	}
	if cfg.Export.MaxParallel != 8 || !cfg.Export.Overwrite {
		t.Fatalf("unexpected export config: %#v", cfg.Export)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lower-cased logging config, got %#v", cfg.Logging)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bwexport.toml")
	if err := os.WriteFile(path, []byte("[export]\nmax_paralel = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"zero parallel", func(c *config.Config) { c.Export.MaxParallel = 0 }, "max_parallel"},
		{"catalog with separator", func(c *config.Config) { c.Export.CatalogFile = "dir/items.json" }, "catalog_file"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"negative timeout", func(c *config.Config) { c.BW.CommandTimeout = -1 }, "command_timeout"},
		{"empty binary", func(c *config.Config) { c.BW.Binary = " " }, "bw.binary"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}
