package core

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvLogLevel       = "OHS_LOG_LEVEL"
	EnvAsyncWorkers   = "OHS_ASYNC_WORKERS"
	EnvMaxInferPasses = "OHS_MAX_INFER_PASSES"
	EnvUnitPath       = "OHS_UNIT_PATH"

	DefaultAsyncWorkers   = 8
	DefaultMaxInferPasses = 3
)

// Config carries the knobs shared by the loader, analyzer and runtime.
type Config struct {
	LogLevel LogLevel

	// Upper bound on concurrently running async blocks.
	AsyncWorkers int

	// Number of inference passes the analyzer may run before it settles
	// on whatever it has.
	MaxInferPasses int

	// Directory compilation units are resolved from.
	UnitPath string
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:       LogLevelInfo,
		AsyncWorkers:   DefaultAsyncWorkers,
		MaxInferPasses: DefaultMaxInferPasses,
		UnitPath:       ".",
	}
}

// ConfigFromEnv reads the OHS_* variables from the process environment.
func ConfigFromEnv() (*Config, error) {
	return ConfigFromLookup(os.LookupEnv)
}

// ConfigFromLookup is ConfigFromEnv with a pluggable lookup, mostly for tests.
func ConfigFromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		level, err := ParseLogLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}
	if v, ok := lookup(EnvAsyncWorkers); ok && v != "" {
		n, err := positiveInt(EnvAsyncWorkers, v)
		if err != nil {
			return nil, err
		}
		cfg.AsyncWorkers = n
	}
	if v, ok := lookup(EnvMaxInferPasses); ok && v != "" {
		n, err := positiveInt(EnvMaxInferPasses, v)
		if err != nil {
			return nil, err
		}
		cfg.MaxInferPasses = n
	}
	if v, ok := lookup(EnvUnitPath); ok && v != "" {
		cfg.UnitPath = v
	}
	return cfg, nil
}

func positiveInt(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return n, nil
}
