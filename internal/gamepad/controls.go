package gamepad

import (
	"fmt"
	"math/bits"
)

// Control is one glyph of the controller diagram.
type Control uint8

const (
	A Control = iota
	B
	X
	Y
	L1
	R1
	L2
	R2
	LS
	RS
	DPadUp
	DPadDown
	DPadLeft
	DPadRight
	Start
	Select

	numControls
)

var controlNames = [numControls]string{
	A:         "A",
	B:         "B",
	X:         "X",
	Y:         "Y",
	L1:        "L1",
	R1:        "R1",
	L2:        "L2",
	R2:        "R2",
	LS:        "LS",
	RS:        "RS",
	DPadUp:    "DPadUp",
	DPadDown:  "DPadDown",
	DPadLeft:  "DPadLeft",
	DPadRight: "DPadRight",
	Start:     "start",
	Select:    "select",
}

// Controls lists every control in diagram order.
var Controls = func() []Control {
	cs := make([]Control, numControls)
	for i := range cs {
		cs[i] = Control(i)
	}
	return cs
}()

func (c Control) String() string {
	if c < numControls {
		return controlNames[c]
	}
	return fmt.Sprintf("Control(%d)", uint8(c))
}

// buttonIndexMap maps a standard button index to its control.
// Indices 12-15 are the d-pad fallback for controllers that report it as buttons.
var buttonIndexMap = [...]Control{
	0:  A,
	1:  B,
	2:  X,
	3:  Y,
	4:  L1,
	5:  R1,
	6:  L2,
	7:  R2,
	8:  Select,
	9:  Start,
	10: LS,
	11: RS,
	12: DPadUp,
	13: DPadDown,
	14: DPadLeft,
	15: DPadRight,
}

// ControlForButton returns the control of standard button index i. Only
// indices 0-15 have one.
func ControlForButton(i int) (Control, bool) {
	if i < 0 || i >= len(buttonIndexMap) {
		return 0, false
	}
	return buttonIndexMap[i], true
}

// ActiveSet is the set of controls active in one frame.
type ActiveSet uint16

func (s ActiveSet) Has(c Control) bool { return c < numControls && s&(1<<c) != 0 }

func (s ActiveSet) With(c Control) ActiveSet {
	if c >= numControls {
		return s
	}
	return s | 1<<c
}

func (s ActiveSet) Len() int { return bits.OnesCount16(uint16(s)) }

// Controls returns the members in diagram order.
func (s ActiveSet) Controls() []Control {
	out := make([]Control, 0, s.Len())
	for _, c := range Controls {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s ActiveSet) String() string {
	return fmt.Sprint(s.Controls())
}
