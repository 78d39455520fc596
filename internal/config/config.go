// Package config loads runtime configuration from a config file and the
// environment. Precedence, lowest to highest: built-in defaults, config
// file, H3IMD3LL_* environment variables, command-line flags (applied by
// the CLI after Load).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the engine and its CLI.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Query    QueryConfig    `mapstructure:"query"`
	Schema   SchemaConfig   `mapstructure:"schema"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds the ledger database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SnapshotConfig holds the snapshot policy.
type SnapshotConfig struct {
	// Interval is the number of applied facts between automatic
	// snapshots. Zero disables them.
	Interval int64 `mapstructure:"interval"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	// SimilarityThreshold is the default minimum score for fuzzy search
	// matches, in [0, 1].
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	// CaseDepth is the default expansion depth for case building.
	CaseDepth int `mapstructure:"case_depth"`
}

// SchemaConfig points at an investigation schema file. Empty means the
// built-in schema.
type SchemaConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from the given file (optional) and the
// environment.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("H3IMD3LL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.path", "h3imd3ll.db")
	v.SetDefault("snapshot.interval", 1000)
	v.SetDefault("query.similarity_threshold", 0.6)
	v.SetDefault("query.case_depth", 2)
	v.SetDefault("schema.path", "")
}

func (c *Config) validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database path must not be empty")
	}
	if c.Snapshot.Interval < 0 {
		return fmt.Errorf("config: snapshot interval must not be negative")
	}
	if c.Query.SimilarityThreshold < 0 || c.Query.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity threshold must be in [0, 1]")
	}
	if c.Query.CaseDepth < 0 {
		return fmt.Errorf("config: case depth must not be negative")
	}
	return nil
}
