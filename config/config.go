package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DataDirName is the per-project directory holding the archive database.
const DataDirName = ".tokentrim"

// Config holds all configuration for TokenTrim.
type Config struct {
	Minify   MinifyConfig   `yaml:"minify" toml:"minify"`
	Chunk    ChunkConfig    `yaml:"chunk" toml:"chunk"`
	Lossless LosslessConfig `yaml:"lossless" toml:"lossless"`
	Walk     WalkConfig     `yaml:"walk" toml:"walk"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Archive  ArchiveConfig  `yaml:"archive" toml:"archive"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// MinifyConfig holds minification defaults.
type MinifyConfig struct {
	Aggressive bool `yaml:"aggressive" toml:"aggressive"`
}

// ChunkConfig holds chunking configuration.
type ChunkConfig struct {
	UseAST         bool `yaml:"use_ast" toml:"use_ast"`                   // parse Go with go/parser
	MaxBlockTokens int  `yaml:"max_block_tokens" toml:"max_block_tokens"` // 0 keeps loose top-level runs whole
}

// LosslessConfig holds lossless codec configuration.
type LosslessConfig struct {
	MinPatternLength int  `yaml:"min_pattern_length" toml:"min_pattern_length"`
	MinOccurrences   int  `yaml:"min_occurrences" toml:"min_occurrences"`
	KeyWidth         int  `yaml:"key_width" toml:"key_width"`
	Indent           bool `yaml:"indent" toml:"indent"`
}

// WalkConfig selects files when a directory is given as input.
type WalkConfig struct {
	Includes     []string `yaml:"includes" toml:"includes"`
	Excludes     []string `yaml:"excludes" toml:"excludes"`
	MaxFileBytes int64    `yaml:"max_file_bytes" toml:"max_file_bytes"`
}

// CacheConfig sizes the in-memory report cache used by long-running
// commands (serve, mcp).
type CacheConfig struct {
	Size       int `yaml:"size" toml:"size"` // 0 disables
	TTLSeconds int `yaml:"ttl_seconds" toml:"ttl_seconds"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr" toml:"addr"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" toml:"rate_limit"` // requests per second per client, 0 disables
	RateBurst      int      `yaml:"rate_burst" toml:"rate_burst"`
}

// ArchiveConfig holds the bundle archive location.
type ArchiveConfig struct {
	Path string `yaml:"path" toml:"path"` // empty means <dir>/.tokentrim/archive.db
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Minify: MinifyConfig{
			Aggressive: false,
		},
		Chunk: ChunkConfig{
			UseAST:         true,
			MaxBlockTokens: 0,
		},
		Lossless: LosslessConfig{
			MinPatternLength: 24,
			MinOccurrences:   2,
			KeyWidth:         4,
			Indent:           true,
		},
		Walk: WalkConfig{
			Includes:     []string{"**/*"},
			Excludes:     []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/dist/**", "**/build/**", "**/__pycache__/**", "**/*.min.js", "**/.tokentrim/**"},
			MaxFileBytes: 10 << 20,
		},
		Cache: CacheConfig{
			Size:       128,
			TTLSeconds: 300,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			MaxUploadBytes: 10 << 20,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:5174", "http://localhost:3000", "http://localhost:80"},
			RateLimit:      10,
			RateBurst:      20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file, or TOML when the path ends
// in .toml. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory. It looks for
// tokentrim.yaml, tokentrim.toml and .tokentrim/config.yaml in that order.
func LoadFromDir(dir string) (*Config, error) {
	for _, path := range []string{
		filepath.Join(dir, "tokentrim.yaml"),
		filepath.Join(dir, "tokentrim.toml"),
		filepath.Join(dir, DataDirName, "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file, or TOML when the path ends in
// .toml.
func (c *Config) Save(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(c)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ArchiveDBPath returns the archive database path for a project dir.
func (c *Config) ArchiveDBPath(dir string) string {
	if c.Archive.Path != "" {
		if filepath.IsAbs(c.Archive.Path) {
			return c.Archive.Path
		}
		return filepath.Join(dir, c.Archive.Path)
	}
	return filepath.Join(dir, DataDirName, "archive.db")
}

// EnsureDataDir ensures the .tokentrim directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, DataDirName), 0755)
}
