// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"quillfire.xyz/ipgate/internal/core"
)

// Config is the top-level static configuration. Everything here is fixed at
// startup; there is no runtime reload path.
type Config struct {
	Gate     GateConfig     `mapstructure:"gate"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
}

// GateConfig configures the header pipeline core.
type GateConfig struct {
	// BlocklistFile points at a YAML rules file; empty selects the built-in
	// default table.
	BlocklistFile string `mapstructure:"blocklist_file"`
	// VerifyChecksum enables input-checksum verification.
	VerifyChecksum bool `mapstructure:"verify_checksum"`
	// StallBudget bounds firewall-wait stalls in ticks. 0 selects the
	// default; negative disables the bound.
	StallBudget int `mapstructure:"stall_budget"`
}

// PipelineConfig configures the driver around the gate.
type PipelineConfig struct {
	Source     SourceConfig     `mapstructure:"source"`
	Reporters  []ReporterConfig `mapstructure:"reporters"`
	BufferSize int              `mapstructure:"buffer_size"`
}

// SourceConfig selects where headers come from.
type SourceConfig struct {
	Type string `mapstructure:"type"` // "pcap" | "sample"
	Path string `mapstructure:"path"` // pcap file path
}

// ReporterConfig selects a verdict reporter. Options are reporter-specific
// and decoded by the reporter factory.
type ReporterConfig struct {
	Type    string         `mapstructure:"type"` // "console" | "jsonl"
	Options map[string]any `mapstructure:"options"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string           `mapstructure:"level"`  // debug|info|warn|error
	Format string           `mapstructure:"format"` // text|json
	File   FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures the rotating file output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig maps onto lumberjack settings.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Default returns the configuration used when no file is supplied: sample
// source, console reporter, info-level text logging.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Source:    SourceConfig{Type: "sample"},
			Reporters: []ReporterConfig{{Type: "console"}},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML config file into a Config, applying defaults for
// missing sections.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("pipeline.source.type", "sample")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if len(cfg.Pipeline.Reporters) == 0 {
		cfg.Pipeline.Reporters = []ReporterConfig{{Type: "console"}}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parts of the config that would otherwise fail deep
// inside the pipeline.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", core.ErrConfigInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", core.ErrConfigInvalid, c.Log.Format)
	}
	switch c.Pipeline.Source.Type {
	case "sample":
	case "pcap":
		if c.Pipeline.Source.Path == "" {
			return fmt.Errorf("%w: pcap source requires a path", core.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source type %q", core.ErrConfigInvalid, c.Pipeline.Source.Type)
	}
	for i, r := range c.Pipeline.Reporters {
		switch r.Type {
		case "console", "jsonl":
		default:
			return fmt.Errorf("%w: reporter %d has unknown type %q", core.ErrConfigInvalid, i, r.Type)
		}
	}
	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("%w: file log output requires a path", core.ErrConfigInvalid)
	}
	return nil
}
