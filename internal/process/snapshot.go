// internal/process/snapshot.go
package process

import (
	"github.com/tamzrod/cellsim/internal/device"
	"github.com/tamzrod/cellsim/internal/signals"
)

// CylinderView is what a display needs to draw one cylinder.
type CylinderView struct {
	ID       int                  `json:"id"`
	Phase    device.ActuatorPhase `json:"phase"`
	Position float64              `json:"position"`
	Min      float64              `json:"min"`
	Max      float64              `json:"max"`
}

// MotorView is what a display needs to draw one motor.
type MotorView struct {
	ID        int               `json:"id"`
	Phase     device.MotorPhase `json:"phase"`
	Indicator device.Indicator  `json:"indicator"`
}

// Snapshot is an immutable copy of the whole cell.
// Status is derived from the same device reads as the views.
type Snapshot struct {
	Cylinders [signals.NumCylinders]CylinderView `json:"cylinders"`
	Motors    [signals.NumMotors]MotorView       `json:"motors"`
	Commands  signals.CommandSignals             `json:"commands"`
	Status    signals.StatusSignals              `json:"status"`
}

// Snapshot captures the cell for presentation.
func (m *Model) Snapshot() Snapshot {
	var snap Snapshot

	snap.Commands = m.LastCommands()

	for i, c := range m.cylinders {
		st := c.State()
		cfg := c.Config()
		snap.Cylinders[i] = CylinderView{
			ID:       c.ID(),
			Phase:    st.Phase,
			Position: st.Position,
			Min:      cfg.Min,
			Max:      cfg.Max,
		}
		snap.Status.Cylinders[i] = signals.CylinderStatus{AtMin: st.AtMin(), AtMax: st.AtMax()}
	}

	for i, mot := range m.motors {
		p := mot.Phase()
		snap.Motors[i] = MotorView{
			ID:        mot.ID(),
			Phase:     p,
			Indicator: p.Indicator(),
		}
		snap.Status.MotorRunning[i] = p == device.Running
	}

	return snap
}
