package gamepad

import "math"

const (
	buttonThreshold = 0.1
	stickThreshold  = 0.1
	dpadThreshold   = 0.5
	// dpadAxis carries a hat switch on many non-standard pads.
	// Only up/down are read from it; left/right come from buttons 14/15.
	dpadAxis = 9
)

// Highlight computes which controls are active in s.
// Each rule is evaluated on its own, so one control may be hit by several.
func Highlight(s *Snapshot) ActiveSet {
	var set ActiveSet
	if s == nil {
		return set
	}

	for i, b := range s.Buttons {
		c, ok := ControlForButton(i)
		if !ok {
			continue
		}
		if b.Pressed || b.Value > buttonThreshold {
			set = set.With(c)
		}
	}

	if len(s.Axes) > dpadAxis {
		switch v := s.Axes[dpadAxis]; {
		case v > dpadThreshold:
			set = set.With(DPadDown)
		case v < -dpadThreshold:
			set = set.With(DPadUp)
		}
	}

	if math.Abs(s.Axis(0)) > stickThreshold || math.Abs(s.Axis(1)) > stickThreshold {
		set = set.With(LS)
	}
	if math.Abs(s.Axis(2)) > stickThreshold || math.Abs(s.Axis(3)) > stickThreshold {
		set = set.With(RS)
	}
	return set
}
