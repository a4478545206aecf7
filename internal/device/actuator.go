// internal/device/actuator.go
package device

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ActuatorPhase is the state of a two-position cylinder.
type ActuatorPhase int

const (
	AtMin ActuatorPhase = iota
	MovingToMax
	AtMax
	MovingToMin
)

func (p ActuatorPhase) String() string {
	switch p {
	case AtMin:
		return "at_min"
	case MovingToMax:
		return "moving_to_max"
	case AtMax:
		return "at_max"
	case MovingToMin:
		return "moving_to_min"
	default:
		return "unknown"
	}
}

func (p ActuatorPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// MotionConfig describes how a cylinder travels between its end positions.
// The stroke takes (Steps-1)*StepDuration.
type MotionConfig struct {
	Min          float64
	Max          float64
	Steps        int // position samples per stroke, including both ends
	StepDuration time.Duration
}

// DefaultMotion is a 0..180 stroke in 181 samples, 10ms apart (1.8s).
var DefaultMotion = MotionConfig{
	Min:          0,
	Max:          180,
	Steps:        181,
	StepDuration: 10 * time.Millisecond,
}

// Validate checks that the motion can be interpolated.
func (c MotionConfig) Validate() error {
	if c.Max <= c.Min {
		return errors.New("device: motion max must be greater than min")
	}
	if c.Steps < 2 {
		return errors.New("device: motion needs at least 2 steps")
	}
	if c.StepDuration < 0 {
		return errors.New("device: motion step duration must be >= 0")
	}
	return nil
}

// Duration is the wall-clock time of one full stroke.
func (c MotionConfig) Duration() time.Duration {
	return time.Duration(c.Steps-1) * c.StepDuration
}

// ActuatorState is an immutable view of a cylinder.
type ActuatorState struct {
	Phase    ActuatorPhase `json:"phase"`
	Position float64       `json:"position"`
}

// AtMin reports the retracted end sensor. False while moving.
func (s ActuatorState) AtMin() bool { return s.Phase == AtMin }

// AtMax reports the extended end sensor. False while moving.
func (s ActuatorState) AtMax() bool { return s.Phase == AtMax }

// Actuator is a simulated two-position linear cylinder.
// It starts retracted at Min. Position only changes inside its motion goroutine.
type Actuator struct {
	id  int
	cfg MotionConfig
	clk clockwork.Clock
	log *slog.Logger

	mu       sync.RWMutex
	phase    ActuatorPhase
	position float64

	inflight sync.WaitGroup
}

// NewActuator creates a cylinder pinned at cfg.Min.
func NewActuator(id int, cfg MotionConfig, clk clockwork.Clock, log *slog.Logger) (*Actuator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Actuator{
		id:       id,
		cfg:      cfg,
		clk:      orRealClock(clk),
		log:      orDefaultLogger(log).With("cyl", id),
		phase:    AtMin,
		position: cfg.Min,
	}, nil
}

// ID returns the one-based cylinder number.
func (a *Actuator) ID() int { return a.id }

// Config returns the motion parameters.
func (a *Actuator) Config() MotionConfig { return a.cfg }

// State returns a consistent phase/position pair.
func (a *Actuator) State() ActuatorState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return ActuatorState{Phase: a.phase, Position: a.position}
}

// InFlight reports whether a motion goroutine owns the cylinder.
func (a *Actuator) InFlight() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.phase == MovingToMax || a.phase == MovingToMin
}

// Extend starts a stroke to Max. It only acts when settled at Min and
// reports whether a motion was started.
func (a *Actuator) Extend() bool {
	return a.start(AtMin, MovingToMax, AtMax, a.cfg.Min, a.cfg.Max)
}

// Retract starts a stroke to Min. It only acts when settled at Max.
func (a *Actuator) Retract() bool {
	return a.start(AtMax, MovingToMin, AtMin, a.cfg.Max, a.cfg.Min)
}

// Wait blocks until the in-flight motion, if any, has settled.
func (a *Actuator) Wait() {
	a.inflight.Wait()
}

func (a *Actuator) start(from, moving, settle ActuatorPhase, origin, target float64) bool {
	a.mu.Lock()
	if a.phase != from {
		a.mu.Unlock()
		return false
	}
	a.phase = moving
	a.inflight.Add(1)
	a.mu.Unlock()

	go a.move(newTransitionID(), moving, settle, origin, target)
	return true
}

func (a *Actuator) move(tid string, moving, settle ActuatorPhase, origin, target float64) {
	defer a.inflight.Done()

	log := a.log.With("transition", tid)
	log.Debug("motion started", "phase", moving, "duration", a.cfg.Duration())

	// The end sample and the end sensor are published together.
	last := a.cfg.Steps - 1
	for i := 0; i < last; i++ {
		pos := origin + (target-origin)*float64(i)/float64(last)

		a.mu.Lock()
		a.position = pos
		a.mu.Unlock()

		a.clk.Sleep(a.cfg.StepDuration)
	}

	a.mu.Lock()
	a.position = target
	a.phase = settle
	a.mu.Unlock()

	log.Debug("motion finished", "phase", settle)
}
