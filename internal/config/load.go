// internal/config/load.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file over Default().
// Keys missing from the file keep their default value; unknown keys are rejected.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML over Default().
func Parse(raw []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: env file %s: %w", path, err)
	}
	return nil
}

// Environment overrides for the connection settings.
const (
	EnvAddress       = "CELLSIM_ADDRESS"
	EnvRack          = "CELLSIM_RACK"
	EnvSlot          = "CELLSIM_SLOT"
	EnvCommandBlock  = "CELLSIM_COMMAND_BLOCK"
	EnvStatusBlock   = "CELLSIM_STATUS_BLOCK"
	EnvMonitorListen = "CELLSIM_MONITOR_LISTEN"
)

// ApplyEnv overlays non-empty environment variables onto cfg.
// lookup is os.Getenv in production.
func ApplyEnv(cfg *Config, lookup func(string) string) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	l := &cfg.Simulator.Link

	if v := lookup(EnvAddress); v != "" {
		l.Address = v
	}
	if v := lookup(EnvMonitorListen); v != "" {
		cfg.Simulator.Monitor.Listen = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvRack, &l.Rack},
		{EnvSlot, &l.Slot},
		{EnvCommandBlock, &l.CommandBlock},
		{EnvStatusBlock, &l.StatusBlock},
	}
	for _, e := range ints {
		v := lookup(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: not an integer", e.key, v)
		}
		*e.dst = n
	}

	return nil
}
