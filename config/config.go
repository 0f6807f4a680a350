package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/infra/monitoring"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: FRESH_ENGINE__SCORED__TOP_K=5.
const EnvPrefix = "FRESH_"

type Config struct {
	Engine     allocation.Config    `json:"engine"`
	Predictor  factory.ModuleConfig `json:"predictor"`
	Suggester  factory.ModuleConfig `json:"suggester"`
	Metrics    metrics.Config       `json:"metrics"`
	Logging    LoggingConfig        `json:"logging"`
	RunLog     factory.ModuleConfig `json:"run_log"`
	Monitoring monitoring.Config    `json:"monitoring"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Monitoring.Validate(); err != nil {
		return fmt.Errorf("monitoring: %w", err)
	}
	return nil
}

// Load reads the file at path, applies FRESH_ environment overrides, then
// defaults and validation. An empty path loads defaults and env only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
