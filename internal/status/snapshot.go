// internal/status/snapshot.go
package status

import (
	"errors"
	"time"
)

// ---- HEALTH CODES ----

// Health is the state of one exchange loop as seen from its last tick.
type Health uint16

// HealthUnknown represents the boot state, before the first tick.
const HealthUnknown Health = 0

// HealthOK represents a loop whose last tick exchanged a block.
const HealthOK Health = 1

// HealthError represents a loop whose last tick failed.
const HealthError Health = 2

// HealthStale represents a loop skipping ticks because the link is down.
const HealthStale Health = 3

func (h Health) String() string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	default:
		return "invalid"
	}
}

func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// MaxSecondsInError caps SecondsInError; it must not wrap.
const MaxSecondsInError = 65535

// Snapshot is an immutable copy of a loop's health.
type Snapshot struct {
	Loop           string    `json:"loop"`
	Health         Health    `json:"health"`
	LastError      string    `json:"last_error,omitempty"`
	LastErrorCode  uint16    `json:"last_error_code"`
	SecondsInError uint16    `json:"seconds_in_error"`
	Ticks          uint64    `json:"ticks"`
	Failures       uint64    `json:"failures"`
	Skipped        uint64    `json:"skipped"`
	LastOK         time.Time `json:"last_ok"`
}

// ErrorCode extracts a best-effort code from an error without assuming concrete types.
// Errors that do not expose a code map to 1 (generic error). nil maps to 0.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
