package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tumorfit/internal/data"
	"github.com/san-kum/tumorfit/internal/fit"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
	"github.com/san-kum/tumorfit/internal/logging"
	"github.com/san-kum/tumorfit/internal/optim"
	"github.com/san-kum/tumorfit/internal/selection"
)

const (
	DefaultScheme  = "euler"
	DefaultDataDir = ".tumorfit"
)

type Config struct {
	Scheme      string              `yaml:"scheme"`
	Oversample  int                 `yaml:"oversample"`
	Parallelism int                 `yaml:"parallelism"`
	Models      []string            `yaml:"models"`
	Random      optim.RandomSearch  `yaml:"random"`
	Pattern     optim.PatternSearch `yaml:"pattern"`
	Synthetic   data.SyntheticSpec  `yaml:"synthetic"`
	DataDir     string              `yaml:"data_dir"`
	Log         LogConfig           `yaml:"log"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	search := optim.DefaultOptions()
	return &Config{
		Scheme:     DefaultScheme,
		Oversample: fit.DefaultOversample,
		Models:     []string{"all"},
		Random:     search.Random,
		Pattern:    search.Pattern,
		Synthetic:  data.DefaultSynthetic(),
		DataDir:    DefaultDataDir,
		Log:        LogConfig{Level: "info"},
	}
}

// Load reads a YAML config file. Keys absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

func (c *Config) Validate() error {
	if _, err := integrators.ParseScheme(c.Scheme); err != nil {
		return err
	}
	if c.Oversample < 0 {
		return fmt.Errorf("config: oversample must not be negative, got %d", c.Oversample)
	}
	if _, err := growth.Select(c.Models); err != nil {
		return err
	}
	if err := c.Random.Validate(); err != nil {
		return err
	}
	if err := c.Pattern.Validate(); err != nil {
		return err
	}
	if err := c.Synthetic.Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c *Config) SearchOptions() optim.Options {
	return optim.Options{Random: c.Random, Pattern: c.Pattern}
}

// CompareOptions builds the comparison settings for a strategy and
// criterion chosen on the command line. An empty scheme uses the
// configured one.
func (c *Config) CompareOptions(strategy, criterion, scheme string) (selection.Options, error) {
	if scheme == "" {
		scheme = c.Scheme
	}
	s, err := integrators.ParseScheme(scheme)
	if err != nil {
		return selection.Options{}, err
	}
	crit, err := selection.ParseCriterion(criterion)
	if err != nil {
		return selection.Options{}, err
	}
	if _, err := optim.NewStrategy(strategy, c.SearchOptions()); err != nil {
		return selection.Options{}, err
	}
	models, err := growth.Select(c.Models)
	if err != nil {
		return selection.Options{}, err
	}

	return selection.Options{
		Criterion:   crit,
		Strategy:    strategy,
		Search:      c.SearchOptions(),
		Scheme:      s,
		Oversample:  c.Oversample,
		Models:      growth.Kinds(models),
		Parallelism: c.Parallelism,
	}, nil
}

// SyntheticSpec resolves a synthetic dataset directive. An empty preset
// selects the configured scenario.
func (c *Config) SyntheticSpec(preset string) (data.SyntheticSpec, error) {
	if preset == "" {
		return c.Synthetic, nil
	}
	spec := GetPreset(preset)
	if spec == nil {
		return data.SyntheticSpec{}, fmt.Errorf("config: unknown preset %q (have %v)", preset, ListPresets())
	}
	return *spec, nil
}
