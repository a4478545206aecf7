// internal/link/link.go

// Package link connects the simulator to the controller's memory blocks.
package link

import (
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
)

// Link is the contract the exchange loops use.
// Implementations must be safe for concurrent use by both loops.
type Link interface {
	Connected() bool
	ReadBlock(block, offset, length int) ([]byte, error)
	WriteBlock(block, offset int, data []byte) error
}

// Connection status strings, as shown next to the connection settings.
const (
	StatusNotConnected = "Not connected"
	StatusConnected    = "Connected"
)

// ConnError is a failed connection attempt. The simulator keeps running
// disconnected and retries.
type ConnError struct {
	Address string
	Rack    int
	Slot    int
	Err     error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("link: connect %s (rack=%d slot=%d): %v", e.Address, e.Rack, e.Slot, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// IOError is a failed block read or write. It costs one tick.
type IOError struct {
	Op     string // "read" or "write"
	Block  int
	Offset int
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("link: %s block=%d offset=%d: %v", e.Op, e.Block, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Code is the Modbus exception code when the device answered with one,
// 1 otherwise.
func (e *IOError) Code() uint16 {
	var mbErr *modbus.ModbusError
	if errors.As(e.Err, &mbErr) {
		return uint16(mbErr.ExceptionCode)
	}
	return 1
}
