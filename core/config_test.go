package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := ConfigFromLookup(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultAsyncWorkers, cfg.AsyncWorkers)
	assert.Equal(t, DefaultMaxInferPasses, cfg.MaxInferPasses)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, ".", cfg.UnitPath)
}

func TestConfigOverrides(t *testing.T) {
	cfg, err := ConfigFromLookup(lookupFrom(map[string]string{
		EnvLogLevel:       "debug",
		EnvAsyncWorkers:   "2",
		EnvMaxInferPasses: "5",
		EnvUnitPath:       "/tmp/units",
	}))
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, 2, cfg.AsyncWorkers)
	assert.Equal(t, 5, cfg.MaxInferPasses)
	assert.Equal(t, "/tmp/units", cfg.UnitPath)
}

func TestConfigRejectsBadValues(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"level":   {EnvLogLevel: "loud"},
		"workers": {EnvAsyncWorkers: "zero"},
		"passes":  {EnvMaxInferPasses: "-1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ConfigFromLookup(lookupFrom(env))
			assert.Error(t, err)
		})
	}
}
