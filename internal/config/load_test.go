// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
simulator:
  link:
    address: 10.1.2.3
    slot: 2
    backoff:
      max_ms: 5000
  motion:
    steps: 11
    step_ms: 1
  monitor:
    listen: 127.0.0.1:8088
`

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	l := cfg.Simulator.Link
	assert.Equal(t, "10.1.2.3", l.Address)
	assert.Equal(t, 2, l.Slot)
	assert.Equal(t, 0, l.Rack)
	assert.Equal(t, 3, l.CommandBlock)
	assert.Equal(t, 2, l.StatusBlock)
	assert.Equal(t, 500, l.Backoff.InitialMs)
	assert.Equal(t, 5*time.Second, l.Backoff.Max())

	assert.Equal(t, 11, cfg.Simulator.Motion.Steps)
	assert.Equal(t, float64(180), cfg.Simulator.Motion.MaxPosition)
	assert.Equal(t, time.Millisecond, cfg.Simulator.Motion.StepDuration())
	assert.Equal(t, 2*time.Second, cfg.Simulator.Motor.TransitionDelay())
	assert.Equal(t, "127.0.0.1:8088", cfg.Simulator.Monitor.Listen)

	require.NoError(t, Validate(cfg))
}

func TestParse_EmptyDocumentIsDefault(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("simulator:\n  link:\n    adress: 1.2.3.4\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adress")
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", cfg.Simulator.Link.Address)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv_Overrides(t *testing.T) {
	env := map[string]string{
		EnvAddress:       "plc.test:1502",
		EnvRack:          "1",
		EnvStatusBlock:   "7",
		EnvMonitorListen: ":9000",
	}
	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, func(k string) string { return env[k] }))

	l := cfg.Simulator.Link
	assert.Equal(t, "plc.test:1502", l.Address)
	assert.Equal(t, 1, l.Rack)
	assert.Equal(t, 1, l.Slot)
	assert.Equal(t, 3, l.CommandBlock)
	assert.Equal(t, 7, l.StatusBlock)
	assert.Equal(t, ":9000", cfg.Simulator.Monitor.Listen)
}

func TestApplyEnv_BadInteger(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(cfg, func(k string) string {
		if k == EnvSlot {
			return "two"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvSlot)
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CELLSIM_TEST_ONLY_VAR=from-file\n"), 0o600))
	t.Setenv("CELLSIM_TEST_ONLY_VAR", "")
	os.Unsetenv("CELLSIM_TEST_ONLY_VAR")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("CELLSIM_TEST_ONLY_VAR"))
}
