// internal/device/device.go

// Package device holds the simulated field devices of the cell.
//
// Each device owns its state behind its own lock. A state change that takes
// time (cylinder motion, motor run-up) is performed by a single transition
// goroutine per device; while it is in flight the device refuses new
// requests. All waiting goes through the injected clock.
package device

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"
)

func orDefaultLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func orRealClock(c clockwork.Clock) clockwork.Clock {
	if c == nil {
		return clockwork.NewRealClock()
	}
	return c
}

func newTransitionID() string {
	return xid.New().String()
}
