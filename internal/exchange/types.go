// internal/exchange/types.go
package exchange

import (
	"time"

	"github.com/tamzrod/cellsim/internal/signals"
)

// Link abstracts the controller memory operations the loops need.
// The loops depend on block geometry only.
type Link interface {
	Connected() bool
	ReadBlock(block, offset, length int) ([]byte, error)
	WriteBlock(block, offset int, data []byte) error
}

// CommandSink receives decoded command blocks.
type CommandSink interface {
	ApplyCommands(cmd signals.CommandSignals)
}

// StatusSource produces the status block content.
type StatusSource interface {
	CurrentSignals() signals.StatusSignals
}

// Config is the minimal runtime config the loops need.
type Config struct {
	CommandBlock  int // read by the simulator
	StatusBlock   int // written by the simulator
	Offset        int // byte offset of both blocks
	ReadInterval  time.Duration
	WriteInterval time.Duration
}

// TickResult is what one loop tick did.
type TickResult struct {
	Loop string
	At   time.Time

	// Skipped means the link was down and no I/O was attempted.
	Skipped bool

	// Block is the raw block read or written, if any.
	Block []byte

	Err error // non-nil means the tick failed
}
