package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Chunk.UseAST {
		t.Error("expected UseAST=true")
	}
	if cfg.Lossless.MinPatternLength != 24 {
		t.Errorf("expected MinPatternLength=24, got %d", cfg.Lossless.MinPatternLength)
	}
	if cfg.Lossless.KeyWidth != 4 {
		t.Errorf("expected KeyWidth=4, got %d", cfg.Lossless.KeyWidth)
	}
	if cfg.Server.MaxUploadBytes != 10<<20 {
		t.Errorf("expected MaxUploadBytes=10MiB, got %d", cfg.Server.MaxUploadBytes)
	}
	if len(cfg.Server.AllowedOrigins) != 4 {
		t.Errorf("expected 4 allowed origins, got %d", len(cfg.Server.AllowedOrigins))
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Level=info, got %s", cfg.Logging.Level)
	}
	if cfg.Cache.Size != 128 || cfg.Cache.TTLSeconds != 300 {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tokentrim.yaml")

	content := `
minify:
  aggressive: true
lossless:
  key_width: 6
server:
  addr: ":9000"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.Minify.Aggressive {
		t.Error("expected Aggressive=true")
	}
	if cfg.Lossless.KeyWidth != 6 {
		t.Errorf("expected KeyWidth=6, got %d", cfg.Lossless.KeyWidth)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected Addr=:9000, got %s", cfg.Server.Addr)
	}
	// Defaults should be preserved for unset values
	if cfg.Lossless.MinPatternLength != 24 {
		t.Errorf("expected MinPatternLength=24 (default), got %d", cfg.Lossless.MinPatternLength)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tokentrim.toml")

	content := `
[chunk]
use_ast = false
max_block_tokens = 200

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.UseAST {
		t.Error("expected UseAST=false")
	}
	if cfg.Chunk.MaxBlockTokens != 200 {
		t.Errorf("expected MaxBlockTokens=200, got %d", cfg.Chunk.MaxBlockTokens)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected Format=json, got %s", cfg.Logging.Format)
	}
	if cfg.Server.RateBurst != 20 {
		t.Errorf("expected RateBurst=20 (default), got %d", cfg.Server.RateBurst)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tokentrim.yaml")

	if err := os.WriteFile(configPath, []byte("minify: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Lossless.KeyWidth != 4 {
		t.Errorf("expected defaults without a config file, got KeyWidth=%d", cfg.Lossless.KeyWidth)
	}

	if err := EnsureDataDir(tmpDir); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(tmpDir, DataDirName, "config.yaml")
	if err := os.WriteFile(nested, []byte("lossless:\n  key_width: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Lossless.KeyWidth != 5 {
		t.Errorf("expected KeyWidth=5 from %s, got %d", nested, cfg.Lossless.KeyWidth)
	}

	top := filepath.Join(tmpDir, "tokentrim.toml")
	if err := os.WriteFile(top, []byte("[lossless]\nkey_width = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Lossless.KeyWidth != 7 {
		t.Errorf("expected tokentrim.toml to win, got KeyWidth=%d", cfg.Lossless.KeyWidth)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"out.yaml", "out.toml"} {
		path := filepath.Join(tmpDir, name)
		cfg := DefaultConfig()
		cfg.Server.Addr = "127.0.0.1:7000"
		cfg.Walk.Excludes = []string{"**/gen/**"}

		if err := cfg.Save(path); err != nil {
			t.Fatalf("%s: save failed: %v", name, err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("%s: load failed: %v", name, err)
		}
		if loaded.Server.Addr != "127.0.0.1:7000" {
			t.Errorf("%s: expected Addr to round-trip, got %s", name, loaded.Server.Addr)
		}
		if len(loaded.Walk.Excludes) != 1 || loaded.Walk.Excludes[0] != "**/gen/**" {
			t.Errorf("%s: expected excludes to round-trip, got %v", name, loaded.Walk.Excludes)
		}
	}
}

func TestArchiveDBPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ArchiveDBPath("/proj"); got != filepath.Join("/proj", ".tokentrim", "archive.db") {
		t.Errorf("unexpected default path %s", got)
	}

	cfg.Archive.Path = "data/bundles.db"
	if got := cfg.ArchiveDBPath("/proj"); got != filepath.Join("/proj", "data", "bundles.db") {
		t.Errorf("unexpected relative path %s", got)
	}

	cfg.Archive.Path = "/var/lib/tokentrim.db"
	if got := cfg.ArchiveDBPath("/proj"); got != "/var/lib/tokentrim.db" {
		t.Errorf("unexpected absolute path %s", got)
	}
}
