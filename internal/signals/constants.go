// internal/signals/constants.go
package signals

// Command/status block layout constants.
// These values define the exchange protocol with the controller and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// BlockSize is the size in bytes of both the command and the status block.
const BlockSize = 2

// NumCylinders is the number of simulated two-position cylinders.
const NumCylinders = 4

// NumMotors is the number of simulated motors.
const NumMotors = 4

// signalsPerUnit is the number of bits one cylinder+motor pair occupies.
// Unit n (zero-based) owns bits 3n (minus), 3n+1 (plus), 3n+2 (motor).
const signalsPerUnit = 3

// NumSignals is the number of interpreted bits per block.
// Bits 12..15 (byte 1, bits 4..7) are unused: written as 0, ignored on read.
const NumSignals = NumCylinders * signalsPerUnit

// ---- ADDRESSING ----

// Address is a zero-based (byte, bit) position inside a block.
type Address struct {
	Byte int `json:"byte"`
	Bit  int `json:"bit"`
}

func addressOf(index int) Address {
	return Address{Byte: index / 8, Bit: index % 8}
}

// CylinderMinusAddr is the address of cylN ToMinus (command) / AtMin (status).
func CylinderMinusAddr(cyl int) Address { return addressOf(cyl * signalsPerUnit) }

// CylinderPlusAddr is the address of cylN ToPlus (command) / AtMax (status).
func CylinderPlusAddr(cyl int) Address { return addressOf(cyl*signalsPerUnit + 1) }

// MotorAddr is the address of motN Start (command) / Running (status).
func MotorAddr(mot int) Address { return addressOf(mot*signalsPerUnit + 2) }
