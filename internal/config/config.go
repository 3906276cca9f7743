// Package config loads batchbench configuration: defaults, overlaid by an
// optional YAML file, overridden by CLI flags (precedence handled by the
// CLI layer).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brhoades44/batchbench/internal/workload"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "BATCHBENCH_CONFIG"

// Config is the full batchbench configuration.
type Config struct {
	Log LogConfig `yaml:"log"`
	Run RunConfig `yaml:"run"`
	IO  IOConfig  `yaml:"io"`
	CPU CPUConfig `yaml:"cpu"`
}

// LogConfig mirrors logging.Config in file form.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RunConfig holds strategy sizing and the optional overall deadline.
type RunConfig struct {
	// Workers sizes the goroutine pool strategy.
	Workers int `yaml:"workers"`

	// ProcWorkers sizes the process pool. Zero means the CPU count.
	ProcWorkers int `yaml:"proc_workers"`

	// Timeout is an optional overall run deadline ("30s", "2m"). Empty
	// means no deadline.
	Timeout string `yaml:"timeout"`
}

// IOConfig describes the download scenario.
type IOConfig struct {
	Sites  []string `yaml:"sites"`
	Repeat int      `yaml:"repeat"`
}

// CPUConfig describes the sum-of-squares scenario.
type CPUConfig struct {
	Base  int64 `yaml:"base"`
	Count int   `yaml:"count"`
}

// Default returns the built-in configuration: the classic demo scenario.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Run: RunConfig{
			Workers:     5,
			ProcWorkers: 0,
		},
		IO: IOConfig{
			Sites:  workload.DefaultSites(),
			Repeat: workload.DefaultSiteRepeat,
		},
		CPU: CPUConfig{
			Base:  workload.DefaultNumberBase,
			Count: workload.DefaultNumberCount,
		},
	}
}

// DefaultPath returns the conventional config file location, or an empty
// string when no home directory can be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".batchbench", "config.yaml")
}

// Load builds the effective config. When path is empty the EnvConfigPath
// variable and then the default location are consulted; a missing file at
// those implicit locations is not an error, while an explicitly requested
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config for values no run could accept.
func (c *Config) Validate() error {
	if c.Run.Workers <= 0 {
		return fmt.Errorf("run.workers must be positive, got %d", c.Run.Workers)
	}
	if c.Run.ProcWorkers < 0 {
		return fmt.Errorf("run.proc_workers must be >= 0, got %d", c.Run.ProcWorkers)
	}
	if _, err := c.RunTimeout(); err != nil {
		return err
	}
	if len(c.IO.Sites) == 0 {
		return errors.New("io.sites must list at least one URL")
	}
	if c.IO.Repeat < 1 {
		return fmt.Errorf("io.repeat must be >= 1, got %d", c.IO.Repeat)
	}
	if c.CPU.Base < 0 {
		return fmt.Errorf("cpu.base must be >= 0, got %d", c.CPU.Base)
	}
	if c.CPU.Count < 1 {
		return fmt.Errorf("cpu.count must be >= 1, got %d", c.CPU.Count)
	}
	return nil
}

// RunTimeout parses the configured overall deadline. Zero means none.
func (c *Config) RunTimeout() (time.Duration, error) {
	if c.Run.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Run.Timeout)
	if err != nil {
		return 0, fmt.Errorf("run.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("run.timeout must be >= 0, got %s", d)
	}
	return d, nil
}
