package grammar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config tunes engine behavior that has no place in the grammar data
// model itself: the iteration guard, and two escape hatches used only by
// tests and diagnostics to isolate whether a given bug lives in the
// engine proper or in the hint/cache optimizations layered on top of it.
type Config struct {
	MaxIterations int  `yaml:"max_iterations"`
	DisableHints  bool `yaml:"disable_hints"`
	DisableCache  bool `yaml:"disable_cache"`
}

// DefaultConfig sets a million-iteration guard, generous enough for any
// real SQL statement, with hints and caching both enabled.
func DefaultConfig() Config {
	return Config{MaxIterations: 1_000_000}
}

// LoadConfig reads a YAML-encoded Config from path, filling any
// unspecified MaxIterations with DefaultConfig's value.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	return cfg, nil
}
