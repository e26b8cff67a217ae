package gamepad

import "time"

// MappingStandard is reported by snapshots whose buttons and axes follow the
// standard layout of ControlForButton.
const MappingStandard = "standard"

type Button struct {
	Pressed bool
	Value   float64
}

// Snapshot is one frame's read-only view of a controller.
type Snapshot struct {
	Index     int
	ID        string
	Mapping   string
	Timestamp time.Time
	Buttons   []Button
	Axes      []float64
}

// Axis returns axis i, or 0 when the snapshot has no such axis.
func (s *Snapshot) Axis(i int) float64 {
	if s == nil || i < 0 || i >= len(s.Axes) {
		return 0
	}
	return s.Axes[i]
}

// Clone returns a deep copy so a platform can keep writing its own buffers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Buttons = append([]Button(nil), s.Buttons...)
	c.Axes = append([]float64(nil), s.Axes...)
	return &c
}

// First returns the first occupied slot in platform order, or nil.
func First(slots []*Snapshot) *Snapshot {
	for _, s := range slots {
		if s != nil {
			return s
		}
	}
	return nil
}

type EventKind int

const (
	Connected EventKind = iota
	Disconnected
	// Unsupported is sent once when the platform cannot poll controllers at all.
	Unsupported
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Unsupported:
		return "unsupported"
	}
	return "unknown"
}

type Event struct {
	Kind     EventKind
	Slot     int
	Snapshot *Snapshot
}

// Platform is the source of controller snapshots and connect/disconnect events.
type Platform interface {
	// Snapshots returns every slot; empty slots are nil.
	Snapshots() []*Snapshot
	Events() <-chan Event
}
