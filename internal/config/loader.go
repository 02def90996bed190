package config

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TUMORFIT_RANDOM_SIGMA.
const EnvPrefix = "TUMORFIT"

// flagBindings maps viper keys (= YAML paths) to pflag names.
var flagBindings = map[string]string{
	"scheme":               "scheme",
	"oversample":           "oversample",
	"parallelism":          "parallelism",
	"models":               "models",
	"random.seed":          "seed",
	"random.sigma":         "sigma",
	"random.max_failures":  "max-failures",
	"random.threshold":     "threshold",
	"pattern.initial_step": "initial-step",
	"pattern.tolerance":    "tolerance",
	"data_dir":             "data",
	"log.level":            "log-level",
	"log.development":      "dev-log",
}

// Resolve loads the configuration.
// Precedence: flags > env > config file > defaults
// path and flagSet may be empty (e.g. in tests that don't set CLI flags).
func Resolve(path string, flagSet *flag.FlagSet) (*Config, error) {
	base := DefaultConfig()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		base = loaded
	}

	v := viper.New()
	setDefaults(v, base)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flagSet != nil {
		for key, name := range flagBindings {
			if f := flagSet.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	cfg := *base
	cfg.Scheme = v.GetString("scheme")
	cfg.Oversample = v.GetInt("oversample")
	cfg.Parallelism = v.GetInt("parallelism")
	cfg.Models = splitList(v.GetStringSlice("models"))
	cfg.Random.Seed = v.GetInt64("random.seed")
	cfg.Random.Sigma = v.GetFloat64("random.sigma")
	cfg.Random.MaxFailures = v.GetInt("random.max_failures")
	cfg.Random.Threshold = v.GetFloat64("random.threshold")
	cfg.Pattern.InitialStep = v.GetFloat64("pattern.initial_step")
	cfg.Pattern.Tolerance = v.GetFloat64("pattern.tolerance")
	cfg.DataDir = v.GetString("data_dir")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Development = v.GetBool("log.development")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("scheme", c.Scheme)
	v.SetDefault("oversample", c.Oversample)
	v.SetDefault("parallelism", c.Parallelism)
	v.SetDefault("models", c.Models)
	v.SetDefault("random.seed", c.Random.Seed)
	v.SetDefault("random.sigma", c.Random.Sigma)
	v.SetDefault("random.max_failures", c.Random.MaxFailures)
	v.SetDefault("random.threshold", c.Random.Threshold)
	v.SetDefault("pattern.initial_step", c.Pattern.InitialStep)
	v.SetDefault("pattern.tolerance", c.Pattern.Tolerance)
	v.SetDefault("data_dir", c.DataDir)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.development", c.Log.Development)
}

// splitList accepts both repeated values and comma-separated ones, which is
// how lists arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
