package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/infra/mqtt"
)

type Config struct {
	Solver    SolverConfig         `json:"solver"`
	Model     ModelConfig          `json:"model"`
	Instances InstancesConfig      `json:"instances"`
	Optimizer OptimizerConfig      `json:"optimizer"`
	Output    OutputConfig         `json:"output"`
	RunLog    factory.ModuleConfig `json:"runlog"`
	Cache     factory.ModuleConfig `json:"cache"`
	Metrics   metrics.Config       `json:"metrics"`
	MQTT      mqtt.Config          `json:"mqtt"`
	Sentry    SentryConfig         `json:"sentry"`
	Server    ServerConfig         `json:"server"`
	Logging   LoggingConfig        `json:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{Model: DefaultModelConfig(), Solver: SolverConfig{TimeLimitSeconds: 20}}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every unset section.
func (c *Config) SetDefaults() {
	c.Solver.SetDefaults()
	c.Instances.SetDefaults()
	c.Optimizer.SetDefaults()
	c.Output.SetDefaults()
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	return errors.Join(
		c.Solver.Validate(),
		c.Model.Validate(),
		c.Output.Validate(),
		c.Sentry.Validate(),
		c.Logging.Validate(),
	)
}

// Load reads path, applies K_ prefixed environment overrides and fills
// defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return nil, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	// Optional environment overrides, K_SOLVER__TYPE sets solver.type
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}
