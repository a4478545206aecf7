// internal/config/config.go
package config

import "time"

type Config struct {
	Simulator SimulatorConfig `yaml:"simulator"`
}

type SimulatorConfig struct {
	Link     LinkConfig     `yaml:"link"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Motion   MotionConfig   `yaml:"motion"`
	Motor    MotorConfig    `yaml:"motor"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// ---- LINK ----

type LinkConfig struct {
	Address string `yaml:"address"` // host or host:port
	Rack    int    `yaml:"rack"`
	Slot    int    `yaml:"slot"`

	// Block ids as seen from the simulator.
	CommandBlock int `yaml:"command_block"` // controller outputs, read here
	StatusBlock  int `yaml:"status_block"`  // controller inputs, written here
	BlockOffset  int `yaml:"block_offset"`

	TimeoutMs int           `yaml:"timeout_ms"`
	Backoff   BackoffConfig `yaml:"backoff"`
}

type BackoffConfig struct {
	InitialMs int `yaml:"initial_ms"`
	MaxMs     int `yaml:"max_ms"`
}

// ---- EXCHANGE ----

type ExchangeConfig struct {
	ReadIntervalMs  int `yaml:"read_interval_ms"`
	WriteIntervalMs int `yaml:"write_interval_ms"`
}

// ---- DEVICES ----

type MotionConfig struct {
	MinPosition float64 `yaml:"min_position"`
	MaxPosition float64 `yaml:"max_position"`
	Steps       int     `yaml:"steps"`
	StepMs      int     `yaml:"step_ms"`
}

type MotorConfig struct {
	TransitionMs int `yaml:"transition_ms"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	Listen string `yaml:"listen"` // empty disables the monitor
}

// DefaultModbusPort is appended to addresses given without a port.
const DefaultModbusPort = "502"

// Default returns the reference cell setup. Load overlays the file on it.
func Default() *Config {
	return &Config{
		Simulator: SimulatorConfig{
			Link: LinkConfig{
				Address:      "192.168.0.1",
				Rack:         0,
				Slot:         1,
				CommandBlock: 3,
				StatusBlock:  2,
				TimeoutMs:    1000,
				Backoff: BackoffConfig{
					InitialMs: 500,
					MaxMs:     10000,
				},
			},
			Exchange: ExchangeConfig{
				ReadIntervalMs:  10,
				WriteIntervalMs: 20,
			},
			Motion: MotionConfig{
				MinPosition: 0,
				MaxPosition: 180,
				Steps:       181,
				StepMs:      10,
			},
			Motor: MotorConfig{
				TransitionMs: 2000,
			},
		},
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (l LinkConfig) Timeout() time.Duration { return ms(l.TimeoutMs) }
func (b BackoffConfig) Initial() time.Duration { return ms(b.InitialMs) }
func (b BackoffConfig) Max() time.Duration { return ms(b.MaxMs) }
func (e ExchangeConfig) ReadInterval() time.Duration { return ms(e.ReadIntervalMs) }
func (e ExchangeConfig) WriteInterval() time.Duration { return ms(e.WriteIntervalMs) }
func (m MotionConfig) StepDuration() time.Duration { return ms(m.StepMs) }
func (m MotorConfig) TransitionDelay() time.Duration { return ms(m.TransitionMs) }
