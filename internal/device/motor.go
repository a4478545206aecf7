// internal/device/motor.go
package device

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MotorPhase is the state of a simulated motor.
type MotorPhase int

const (
	Stopped MotorPhase = iota
	Starting
	Running
	Stopping
)

func (p MotorPhase) String() string {
	switch p {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

func (p MotorPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Indicator is the 3-valued display state: off, transitioning, on.
type Indicator int

const (
	IndicatorOff Indicator = iota
	IndicatorTransition
	IndicatorOn
)

func (i Indicator) String() string {
	switch i {
	case IndicatorOff:
		return "off"
	case IndicatorTransition:
		return "transition"
	case IndicatorOn:
		return "on"
	default:
		return "unknown"
	}
}

func (i Indicator) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Indicator maps the phase onto the display state.
func (p MotorPhase) Indicator() Indicator {
	switch p {
	case Running:
		return IndicatorOn
	case Starting, Stopping:
		return IndicatorTransition
	default:
		return IndicatorOff
	}
}

// DefaultMotorDelay is the run-up and run-down time of a motor.
const DefaultMotorDelay = 2 * time.Second

// Motor is a binary output device with a non-instant start and stop.
type Motor struct {
	id    int
	delay time.Duration
	clk   clockwork.Clock
	log   *slog.Logger

	mu    sync.RWMutex
	phase MotorPhase

	inflight sync.WaitGroup
}

// NewMotor creates a stopped motor.
func NewMotor(id int, delay time.Duration, clk clockwork.Clock, log *slog.Logger) (*Motor, error) {
	if delay < 0 {
		return nil, errors.New("device: motor transition delay must be >= 0")
	}
	return &Motor{
		id:    id,
		delay: delay,
		clk:   orRealClock(clk),
		log:   orDefaultLogger(log).With("motor", id),
		phase: Stopped,
	}, nil
}

// ID returns the one-based motor number.
func (m *Motor) ID() int { return m.id }

// Delay returns the transition delay.
func (m *Motor) Delay() time.Duration { return m.delay }

// Phase returns the current phase.
func (m *Motor) Phase() MotorPhase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Running is the motor's feedback signal: true only once fully started.
func (m *Motor) Running() bool {
	return m.Phase() == Running
}

// InFlight reports whether a start or stop is in progress.
func (m *Motor) InFlight() bool {
	p := m.Phase()
	return p == Starting || p == Stopping
}

// Start begins run-up. It only acts when Stopped.
func (m *Motor) Start() bool {
	return m.begin(Stopped, Starting, Running)
}

// Stop begins run-down. It only acts when Running.
func (m *Motor) Stop() bool {
	return m.begin(Running, Stopping, Stopped)
}

// Wait blocks until the in-flight transition, if any, has completed.
func (m *Motor) Wait() {
	m.inflight.Wait()
}

func (m *Motor) begin(from, via, to MotorPhase) bool {
	m.mu.Lock()
	if m.phase != from {
		m.mu.Unlock()
		return false
	}
	m.phase = via
	m.inflight.Add(1)
	m.mu.Unlock()

	go m.transition(newTransitionID(), via, to)
	return true
}

func (m *Motor) transition(tid string, via, to MotorPhase) {
	defer m.inflight.Done()

	log := m.log.With("transition", tid)
	log.Debug("motor transition started", "phase", via, "delay", m.delay)

	m.clk.Sleep(m.delay)

	m.mu.Lock()
	m.phase = to
	m.mu.Unlock()

	log.Debug("motor transition finished", "phase", to)
}
