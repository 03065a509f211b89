package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds run defaults loadable from an optional YAML file. Flags
// override whatever is loaded here.
type Config struct {
	Workers        int           `yaml:"workers"`
	MaxRetries     int           `yaml:"max_retries"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	Output         string        `yaml:"output"`
	XLSX           bool          `yaml:"xlsx"`
	Journal        string        `yaml:"journal"`
}

// Default returns the built-in defaults. The worker count follows the host
// CPU count; the rate limit follows the NCBI guidance of 3 requests/second
// for unauthenticated clients.
func Default() Config {
	return Config{
		Workers:        runtime.NumCPU(),
		MaxRetries:     0,
		RequestTimeout: 30 * time.Second,
		RateLimitRPS:   3,
		Output:         "genomes_metadata",
		XLSX:           true,
		Journal:        "genomemeta.db",
	}
}

// DefaultPath returns the per-user config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".genomemeta.yaml"
	}
	return filepath.Join(home, ".genomemeta.yaml")
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error; a file that exists but does not parse is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return cfg, nil
}
