package loop

import "github.com/soar/padview/internal/gamepad"

// Surface renders highlights and connection status.
type Surface interface {
	ClearAllHighlights()
	SetHighlight(c gamepad.Control, active bool)
	SetStatus(connected bool, label string)
}

// Flusher is implemented by surfaces that batch a frame's commands.
// Flush is called once after every frame and every handled event.
type Flusher interface {
	Flush()
}

// Multi fans every command out to several surfaces in order.
type Multi []Surface

func (m Multi) ClearAllHighlights() {
	for _, s := range m {
		s.ClearAllHighlights()
	}
}

func (m Multi) SetHighlight(c gamepad.Control, active bool) {
	for _, s := range m {
		s.SetHighlight(c, active)
	}
}

func (m Multi) SetStatus(connected bool, label string) {
	for _, s := range m {
		s.SetStatus(connected, label)
	}
}

func (m Multi) Flush() {
	for _, s := range m {
		if f, ok := s.(Flusher); ok {
			f.Flush()
		}
	}
}

// apply renders set on s: one clear, then every control.
func apply(s Surface, set gamepad.ActiveSet) {
	s.ClearAllHighlights()
	for _, c := range gamepad.Controls {
		s.SetHighlight(c, set.Has(c))
	}
}

func flush(s Surface) {
	if f, ok := s.(Flusher); ok {
		f.Flush()
	}
}
