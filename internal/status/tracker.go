// internal/status/tracker.go
package status

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tracker owns the health snapshot of one loop.
// The loop reports every tick; a 1Hz ticker counts seconds spent not OK.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
	clk  clockwork.Clock
}

// NewTracker starts in HealthUnknown.
func NewTracker(loop string, clk clockwork.Clock) *Tracker {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Tracker{
		snap: Snapshot{Loop: loop, Health: HealthUnknown},
		clk:  clk,
	}
}

// Observe records the outcome of one exchanged tick.
// It reports whether health or the error text changed, so callers can log
// transitions instead of every failed tick.
func (t *Tracker) Observe(err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Ticks++

	if err == nil {
		changed := t.snap.Health != HealthOK

		// Recovery resets error state.
		t.snap.Health = HealthOK
		t.snap.LastError = ""
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.LastOK = t.clk.Now()
		return changed
	}

	t.snap.Failures++
	msg := err.Error()
	changed := t.snap.Health != HealthError || t.snap.LastError != msg

	t.snap.Health = HealthError
	t.snap.LastError = msg
	t.snap.LastErrorCode = ErrorCode(err)
	// NOTE: seconds_in_error increments on the 1Hz ticker only.
	return changed
}

// Skip records a tick that did no I/O because the link was down.
func (t *Tracker) Skip() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Ticks++
	t.snap.Skipped++

	changed := t.snap.Health != HealthStale
	t.snap.Health = HealthStale
	return changed
}

// TickSecond advances SecondsInError while not OK. It never wraps.
func (t *Tracker) TickSecond() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.Health == HealthOK {
		return
	}
	if t.snap.SecondsInError < MaxSecondsInError {
		t.snap.SecondsInError++
	}
}

// Snapshot returns a copy of the current health.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Run drives TickSecond at 1Hz until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := t.clk.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.TickSecond()
		}
	}
}
