// internal/signals/signals.go
package signals

import "fmt"

// CylinderCommand is what the controller asks of one cylinder.
type CylinderCommand struct {
	ToMinus bool `json:"to_minus"`
	ToPlus  bool `json:"to_plus"`
}

// CylinderStatus is the pair of end-position sensors of one cylinder.
type CylinderStatus struct {
	AtMin bool `json:"at_min"`
	AtMax bool `json:"at_max"`
}

// CommandSignals is the decoded command block (controller outputs).
// It is a value type: copies are immutable snapshots.
type CommandSignals struct {
	Cylinders  [NumCylinders]CylinderCommand `json:"cylinders"`
	MotorStart [NumMotors]bool               `json:"motor_start"`
}

// StatusSignals is the status block content (controller inputs).
type StatusSignals struct {
	Cylinders    [NumCylinders]CylinderStatus `json:"cylinders"`
	MotorRunning [NumMotors]bool              `json:"motor_running"`
}

// Named is one signal with its display name.
type Named struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
	Value   bool    `json:"value"`
}

// Named lists the command signals in block order, using the controller-side
// output names (qCyl1toMinus, qCyl1toPlus, qMot1start, ...).
func (c CommandSignals) Named() []Named {
	out := make([]Named, 0, NumSignals)
	for n := 0; n < NumCylinders; n++ {
		out = append(out,
			Named{Name: fmt.Sprintf("qCyl%dtoMinus", n+1), Address: CylinderMinusAddr(n), Value: c.Cylinders[n].ToMinus},
			Named{Name: fmt.Sprintf("qCyl%dtoPlus", n+1), Address: CylinderPlusAddr(n), Value: c.Cylinders[n].ToPlus},
			Named{Name: fmt.Sprintf("qMot%dstart", n+1), Address: MotorAddr(n), Value: c.MotorStart[n]},
		)
	}
	return out
}

// Named lists the status signals in block order, using the controller-side
// input names (iCyl1minus, iCyl1plus, iMot1running, ...).
func (s StatusSignals) Named() []Named {
	out := make([]Named, 0, NumSignals)
	for n := 0; n < NumCylinders; n++ {
		out = append(out,
			Named{Name: fmt.Sprintf("iCyl%dminus", n+1), Address: CylinderMinusAddr(n), Value: s.Cylinders[n].AtMin},
			Named{Name: fmt.Sprintf("iCyl%dplus", n+1), Address: CylinderPlusAddr(n), Value: s.Cylinders[n].AtMax},
			Named{Name: fmt.Sprintf("iMot%drunning", n+1), Address: MotorAddr(n), Value: s.MotorRunning[n]},
		)
	}
	return out
}
