// internal/signals/codec.go
package signals

import "fmt"

// SizeError reports a buffer that cannot hold a full block.
// It means the configured block and the controller's block disagree on layout.
type SizeError struct {
	Op   string
	Want int
	Got  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("signals: %s: block needs %d bytes, got %d", e.Op, e.Want, e.Got)
}

// DecodeCommands unpacks a command block.
// Bytes past BlockSize and unused bits are never interpreted.
// No IO. No side effects.
func DecodeCommands(buf []byte) (CommandSignals, error) {
	var c CommandSignals
	if len(buf) < BlockSize {
		return c, &SizeError{Op: "decode commands", Want: BlockSize, Got: len(buf)}
	}
	for n := 0; n < NumCylinders; n++ {
		c.Cylinders[n].ToMinus = getBool(buf, CylinderMinusAddr(n))
		c.Cylinders[n].ToPlus = getBool(buf, CylinderPlusAddr(n))
	}
	for n := 0; n < NumMotors; n++ {
		c.MotorStart[n] = getBool(buf, MotorAddr(n))
	}
	return c, nil
}

// EncodeCommands packs a command block. Used by controller stand-ins.
func EncodeCommands(c CommandSignals) []byte {
	buf := make([]byte, BlockSize)
	for n := 0; n < NumCylinders; n++ {
		setBool(buf, CylinderMinusAddr(n), c.Cylinders[n].ToMinus)
		setBool(buf, CylinderPlusAddr(n), c.Cylinders[n].ToPlus)
	}
	for n := 0; n < NumMotors; n++ {
		setBool(buf, MotorAddr(n), c.MotorStart[n])
	}
	return buf
}

// DecodeStatus unpacks a status block.
func DecodeStatus(buf []byte) (StatusSignals, error) {
	var s StatusSignals
	if len(buf) < BlockSize {
		return s, &SizeError{Op: "decode status", Want: BlockSize, Got: len(buf)}
	}
	for n := 0; n < NumCylinders; n++ {
		s.Cylinders[n].AtMin = getBool(buf, CylinderMinusAddr(n))
		s.Cylinders[n].AtMax = getBool(buf, CylinderPlusAddr(n))
	}
	for n := 0; n < NumMotors; n++ {
		s.MotorRunning[n] = getBool(buf, MotorAddr(n))
	}
	return s, nil
}

// EncodeStatus packs a status block into a fresh BlockSize buffer.
func EncodeStatus(s StatusSignals) []byte {
	buf := make([]byte, BlockSize)
	// cannot fail: buf is exactly BlockSize
	_ = EncodeStatusInto(buf, s)
	return buf
}

// EncodeStatusInto packs a status block into the first BlockSize bytes of dst.
// The whole block is rewritten, so unused bits end up 0.
func EncodeStatusInto(dst []byte, s StatusSignals) error {
	if len(dst) < BlockSize {
		return &SizeError{Op: "encode status", Want: BlockSize, Got: len(dst)}
	}
	for i := 0; i < BlockSize; i++ {
		dst[i] = 0
	}
	for n := 0; n < NumCylinders; n++ {
		setBool(dst, CylinderMinusAddr(n), s.Cylinders[n].AtMin)
		setBool(dst, CylinderPlusAddr(n), s.Cylinders[n].AtMax)
	}
	for n := 0; n < NumMotors; n++ {
		setBool(dst, MotorAddr(n), s.MotorRunning[n])
	}
	return nil
}

// ---- helpers (pure geometry) ----

func getBool(buf []byte, a Address) bool {
	return buf[a.Byte]&(1<<uint(a.Bit)) != 0
}

func setBool(buf []byte, a Address, v bool) {
	if v {
		buf[a.Byte] |= 1 << uint(a.Bit)
	} else {
		buf[a.Byte] &^= 1 << uint(a.Bit)
	}
}
