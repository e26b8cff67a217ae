package loop

import (
	"fmt"

	"github.com/soar/padview/internal/gamepad"
)

const (
	labelDisconnected = "Not detected. Connect your controller."
	labelUnsupported  = "Not supported"
)

type Status struct {
	Connected bool
	Label     string
}

// StatusFor formats the status shown for s; nil means disconnected.
func StatusFor(s *gamepad.Snapshot) Status {
	if s == nil {
		return Status{Label: labelDisconnected}
	}
	mapping := s.Mapping
	if mapping == "" {
		mapping = "non-standard"
	}
	return Status{
		Connected: true,
		Label:     fmt.Sprintf("Controller detected: %s (%s mapping)", s.ID, mapping),
	}
}

// Reporter writes connection status to a surface.
type Reporter struct {
	surface Surface
}

func NewReporter(s Surface) *Reporter { return &Reporter{surface: s} }

func (r *Reporter) Report(s *gamepad.Snapshot) Status {
	st := StatusFor(s)
	r.surface.SetStatus(st.Connected, st.Label)
	return st
}

func (r *Reporter) Unsupported() Status {
	st := Status{Label: labelUnsupported}
	r.surface.SetStatus(st.Connected, st.Label)
	return st
}
