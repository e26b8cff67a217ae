package gamepad

import "math"

const (
	deadzone = 0.05
	// triggerPressed is the analog level at which a trigger also reports Pressed.
	triggerPressed = 0.5

	hatUp    uint8 = 0x01
	hatRight uint8 = 0x02
	hatDown  uint8 = 0x04
	hatLeft  uint8 = 0x08
)

// Standard layout indices that ControlForButton does not name.
const (
	buttonHome      = 16
	standardButtons = 17
	standardAxes    = 4
)

// Standard layout axis indices.
const (
	axisLeftX = iota
	axisLeftY
	axisRightX
	axisRightY
)

// AxisMapping routes a raw axis to a standard axis, or to a standard button
// when IsTrigger is set.
type AxisMapping struct {
	Index     int32
	Target    int
	IsTrigger bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// ButtonMapping routes a raw button index to a standard button index.
type ButtonMapping struct {
	Index  int32
	Target int
}

// DeviceMapping holds the complete mapping for a specific device type.
// A mapping with Raw set passes the device through unchanged.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
	Raw     bool
}

// RawInput is what a joystick reports in one poll, before mapping.
type RawInput struct {
	Axes    []int16
	Buttons []bool
	Hat     uint8
	HasHat  bool
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

// Fill writes the mapped buttons, axes and mapping type of in into s.
func (m *DeviceMapping) Fill(s *Snapshot, in RawInput) {
	if m.Raw {
		fillRaw(s, in)
		return
	}

	buttons := make([]Button, standardButtons)
	axes := make([]float64, standardAxes)

	for _, bm := range m.Buttons {
		if int(bm.Index) >= len(in.Buttons) || !in.Buttons[bm.Index] {
			continue
		}
		buttons[bm.Target] = Button{Pressed: true, Value: 1}
	}

	for _, am := range m.Axes {
		if int(am.Index) >= len(in.Axes) {
			continue
		}
		raw := in.Axes[am.Index]
		if am.IsTrigger {
			v := ApplyDeadzone(NormalizeTrigger(raw, am.RawMin, am.RawMax), deadzone)
			if b := &buttons[am.Target]; v > b.Value {
				b.Value = v
				b.Pressed = b.Pressed || v >= triggerPressed
			}
			continue
		}
		axes[am.Target] = ApplyDeadzone(NormalizeAxis(raw), deadzone)
	}

	if m.HasHat && in.HasHat {
		for i, bit := range [...]uint8{hatUp, hatDown, hatLeft, hatRight} {
			if in.Hat&bit != 0 {
				buttons[12+i] = Button{Pressed: true, Value: 1}
			}
		}
	}

	s.Mapping = MappingStandard
	s.Buttons = buttons
	s.Axes = axes
}

// fillRaw keeps the device's own indices. The hat's vertical component is
// reported on axis 9, as browsers do for many generic pads.
func fillRaw(s *Snapshot, in RawInput) {
	buttons := make([]Button, len(in.Buttons))
	for i, pressed := range in.Buttons {
		if pressed {
			buttons[i] = Button{Pressed: true, Value: 1}
		}
	}

	axes := make([]float64, len(in.Axes), max(len(in.Axes), dpadAxis+1))
	for i, raw := range in.Axes {
		axes[i] = NormalizeAxis(raw)
	}
	if in.HasHat && len(axes) <= dpadAxis {
		axes = axes[:dpadAxis+1]
		switch {
		case in.Hat&hatUp != 0:
			axes[dpadAxis] = -1
		case in.Hat&hatDown != 0:
			axes[dpadAxis] = 1
		}
	}

	s.Mapping = ""
	s.Buttons = buttons
	s.Axes = axes
}

// Built-in mappings for common controllers.

var xboxMapping = &DeviceMapping{
	Name: "xbox",
	Axes: []AxisMapping{
		{Index: 0, Target: axisLeftX},
		{Index: 1, Target: axisLeftY},
		{Index: 2, Target: axisRightX},
		{Index: 3, Target: axisRightY},
		{Index: 4, Target: 6, IsTrigger: true, RawMin: -32768, RawMax: 32767},
		{Index: 5, Target: 7, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: 0},  // A
		{Index: 1, Target: 1},  // B
		{Index: 2, Target: 2},  // X
		{Index: 3, Target: 3},  // Y
		{Index: 4, Target: 4},  // LB
		{Index: 5, Target: 5},  // RB
		{Index: 6, Target: 8},  // View
		{Index: 7, Target: 9},  // Menu
		{Index: 8, Target: 10}, // L3
		{Index: 9, Target: 11}, // R3
		{Index: 10, Target: buttonHome},
	},
	HasHat: true,
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: []AxisMapping{
		{Index: 0, Target: axisLeftX},
		{Index: 1, Target: axisLeftY},
		{Index: 2, Target: axisRightX},
		{Index: 3, Target: axisRightY},
		{Index: 4, Target: 6, IsTrigger: true, RawMin: -32768, RawMax: 32767},
		{Index: 5, Target: 7, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: 0},          // Cross (×)
		{Index: 1, Target: 1},          // Circle (○)
		{Index: 2, Target: 2},          // Square (□)
		{Index: 3, Target: 3},          // Triangle (△)
		{Index: 4, Target: 8},          // Share / Create
		{Index: 5, Target: buttonHome}, // PS button
		{Index: 6, Target: 9},          // Options
		{Index: 7, Target: 10},         // L3
		{Index: 8, Target: 11},         // R3
		{Index: 9, Target: 4},          // L1
		{Index: 10, Target: 5},         // R1
	},
	HasHat: true,
}

var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	Axes: []AxisMapping{
		{Index: 0, Target: axisLeftX},
		{Index: 1, Target: axisLeftY},
		{Index: 2, Target: axisRightX},
		{Index: 3, Target: axisRightY},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: 0},
		{Index: 1, Target: 1},
		{Index: 2, Target: 2},
		{Index: 3, Target: 3},
		{Index: 4, Target: 4},
		{Index: 5, Target: 5},
		{Index: 6, Target: 8},
		{Index: 7, Target: 9},
		{Index: 8, Target: 10},
		{Index: 9, Target: 11},
		{Index: 10, Target: buttonHome},
		{Index: 11, Target: 6}, // ZL
		{Index: 12, Target: 7}, // ZR
	},
	HasHat: true,
}

var genericMapping = &DeviceMapping{
	Name: "generic",
	Raw:  true,
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the appropriate mapping for a device identified by vendor/product ID.
// Unknown devices get the raw pass-through mapping.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}
