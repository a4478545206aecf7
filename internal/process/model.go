// internal/process/model.go

// Package process aggregates the simulated devices of the cell and maps
// controller commands onto them.
package process

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tamzrod/cellsim/internal/device"
	"github.com/tamzrod/cellsim/internal/signals"
)

// Config is the minimal runtime config the model needs.
type Config struct {
	Motion     device.MotionConfig
	MotorDelay time.Duration
}

// DefaultConfig matches the reference cell.
func DefaultConfig() Config {
	return Config{
		Motion:     device.DefaultMotion,
		MotorDelay: device.DefaultMotorDelay,
	}
}

// Model owns the cell's cylinders and motors.
//
// Device state is guarded per device; the model lock only covers the last
// applied command block. ApplyCommands and CurrentSignals are safe to call
// from different goroutines at any rate.
type Model struct {
	cylinders [signals.NumCylinders]*device.Actuator
	motors    [signals.NumMotors]*device.Motor
	log       *slog.Logger

	mu      sync.RWMutex
	lastCmd signals.CommandSignals
}

// New builds a model with every cylinder at Min and every motor stopped.
func New(cfg Config, clk clockwork.Clock, log *slog.Logger) (*Model, error) {
	if log == nil {
		log = slog.Default()
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	m := &Model{log: log}

	for i := range m.cylinders {
		a, err := device.NewActuator(i+1, cfg.Motion, clk, log)
		if err != nil {
			return nil, fmt.Errorf("process: cylinder %d: %w", i+1, err)
		}
		m.cylinders[i] = a
	}
	for i := range m.motors {
		mot, err := device.NewMotor(i+1, cfg.MotorDelay, clk, log)
		if err != nil {
			return nil, fmt.Errorf("process: motor %d: %w", i+1, err)
		}
		m.motors[i] = mot
	}

	return m, nil
}

// ApplyCommands maps one decoded command block onto the devices.
//
// A cylinder settled at Min extends on ToPlus; one settled at Max retracts on
// ToMinus. A stopped motor starts on Start; a running motor stops when Start
// drops. Devices mid-transition ignore the block. Transitions run
// asynchronously; the device leaves its settled phase before this returns,
// so a sustained command cannot retrigger.
func (m *Model) ApplyCommands(cmd signals.CommandSignals) {
	m.mu.Lock()
	m.lastCmd = cmd
	m.mu.Unlock()

	for i, c := range m.cylinders {
		want := cmd.Cylinders[i]
		if want.ToPlus && c.Extend() {
			m.log.Info("cylinder extending", "cyl", c.ID())
		}
		if want.ToMinus && c.Retract() {
			m.log.Info("cylinder retracting", "cyl", c.ID())
		}
	}

	for i, mot := range m.motors {
		if cmd.MotorStart[i] {
			if mot.Start() {
				m.log.Info("motor starting", "motor", mot.ID())
			}
			continue
		}
		if mot.Stop() {
			m.log.Info("motor stopping", "motor", mot.ID())
		}
	}
}

// CurrentSignals derives the status block from device state.
// Pure read: no side effects.
func (m *Model) CurrentSignals() signals.StatusSignals {
	var s signals.StatusSignals
	for i, c := range m.cylinders {
		st := c.State()
		s.Cylinders[i] = signals.CylinderStatus{AtMin: st.AtMin(), AtMax: st.AtMax()}
	}
	for i, mot := range m.motors {
		s.MotorRunning[i] = mot.Running()
	}
	return s
}

// LastCommands returns the most recently applied command block.
func (m *Model) LastCommands() signals.CommandSignals {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCmd
}

// Cylinder returns cylinder n (one-based), or nil.
func (m *Model) Cylinder(n int) *device.Actuator {
	if n < 1 || n > len(m.cylinders) {
		return nil
	}
	return m.cylinders[n-1]
}

// Motor returns motor n (one-based), or nil.
func (m *Model) Motor(n int) *device.Motor {
	if n < 1 || n > len(m.motors) {
		return nil
	}
	return m.motors[n-1]
}

// Wait blocks until no device has a transition in flight.
// Callers must stop applying commands first.
func (m *Model) Wait() {
	for _, c := range m.cylinders {
		c.Wait()
	}
	for _, mot := range m.motors {
		mot.Wait()
	}
}
