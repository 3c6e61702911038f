package bench

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tahsin716/fanout"
	"github.com/tahsin716/fanout/logger"
)

// EnvPrefix prefixes every environment override, e.g. FANOUT_AMOUNT.
const EnvPrefix = "FANOUT_"

// ErrAmountOverflow is returned when a dataset size cannot be represented
// as a slice index on this platform.
var ErrAmountOverflow = errors.New("bench: amount overflows int")

// Config describes one benchmark run.
type Config struct {
	// Amount is the number of elements in each dataset.
	Amount uint64 `yaml:"amount"`

	// Workers is the pool size. Zero would queue tasks that never run and
	// is rejected by Validate.
	Workers int `yaml:"workers"`

	// Cutoff is the range size at or below which the parallel sort stops
	// fanning out. Zero fans out all the way down.
	Cutoff int `yaml:"cutoff"`

	// Verify checks both outputs are sorted after timing.
	Verify bool `yaml:"verify"`

	// Trace exports OpenTelemetry spans for each phase.
	Trace bool `yaml:"trace"`

	// Metrics prints the pool's Prometheus metrics after the run.
	Metrics bool `yaml:"metrics"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration of the reference run: one million
// elements sorted on a pool sized to the hardware concurrency.
func DefaultConfig() Config {
	return Config{
		Amount:   1000000,
		Workers:  fanout.DefaultNumWorkers(),
		Verify:   true,
		LogLevel: "info",
	}
}

// LoadConfig is ReadConfig followed by Validate.
func LoadConfig(path string) (Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ReadConfig returns DefaultConfig overlaid with the YAML file at path (if
// path is non-empty) and then with FANOUT_* environment variables. The
// result is not validated, so callers can apply further overrides first.
func ReadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		// #nosec G304 -- path is supplied by the operator on the command line.
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "AMOUNT"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sAMOUNT: %w", EnvPrefix, err)
		}
		c.Amount = n
	}

	ints := map[string]*int{
		"WORKERS": &c.Workers,
		"CUTOFF":  &c.Cutoff,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"VERIFY":  &c.Verify,
		"TRACE":   &c.Trace,
		"METRICS": &c.Metrics,
	}
	for name, dst := range bools {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := ToIndex(c.Amount); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return fmt.Errorf("bench: workers must be > 0, got %d", c.Workers)
	}
	if c.Cutoff < 0 {
		return fmt.Errorf("bench: cutoff must be >= 0, got %d", c.Cutoff)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	return nil
}

// ToIndex converts a dataset size to an int with an explicit range check, so
// sizes beyond the platform's int are rejected instead of truncated.
func ToIndex(n uint64) (int, error) {
	if n > math.MaxInt {
		return 0, fmt.Errorf("%w: %d", ErrAmountOverflow, n)
	}
	return int(n), nil
}
