package config

import (
	"fmt"
	"os"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRoot      = "./content"
	DefaultTrimStart = 14
	DefaultWorkers   = 4
)

// Config holds the plot settings. The watermark keys keep their historical
// capitalised names so existing settings files still load.
type Config struct {
	ShowPreliminary bool   `yaml:"ShowPreliminary"`
	ShowWatermark   bool   `yaml:"ShowWatermark"`
	Watermark       string `yaml:"Watermark"`

	Root       string           `yaml:"root"`
	Population model.Population `yaml:"population"`
	Parallel   bool             `yaml:"parallel"`
	Workers    int              `yaml:"workers"`
	TrimStart  int              `yaml:"trim_start"`
	// Now overrides the "Latest data" marker, RFC3339 or YYYY-MM-DD.
	Now string `yaml:"now,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		ShowPreliminary: true,
		Root:            DefaultRoot,
		Workers:         DefaultWorkers,
		TrimStart:       DefaultTrimStart,
	}
}

// Load reads a yaml settings file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: empty root", common.ErrorInvalidValue)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d", common.ErrorInvalidValue, c.Workers)
	}
	if c.TrimStart < 0 {
		return fmt.Errorf("%w: trim_start %d", common.ErrorInvalidValue, c.TrimStart)
	}
	if c.Population.Size < 0 {
		return fmt.Errorf("%w: population size %v", common.ErrorInvalidValue, c.Population.Size)
	}
	if _, err := c.NowTime(time.Time{}); err != nil {
		return err
	}
	return nil
}

// NowTime returns the configured "Latest data" time, or fallback when unset.
func (c *Config) NowTime(fallback time.Time) (time.Time, error) {
	if c.Now == "" {
		return fallback, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if at, err := time.Parse(layout, c.Now); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: now %q", common.ErrorInvalidValue, c.Now)
}
