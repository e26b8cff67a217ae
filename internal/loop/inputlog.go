package loop

import (
	"github.com/soar/padview/internal/gamepad"
	"github.com/soar/padview/internal/logger"
)

// InputLog is a Surface that logs the active set and status whenever they
// change between flushes.
type InputLog struct {
	log *logger.Logger

	active, lastActive gamepad.ActiveSet
	status, lastStatus Status
	flushed            bool
}

func NewInputLog(log *logger.Logger) *InputLog { return &InputLog{log: log} }

func (l *InputLog) ClearAllHighlights() { l.active = 0 }

func (l *InputLog) SetHighlight(c gamepad.Control, active bool) {
	if active {
		l.active = l.active.With(c)
	}
}

func (l *InputLog) SetStatus(connected bool, label string) {
	l.status = Status{Connected: connected, Label: label}
}

func (l *InputLog) Flush() {
	if l.flushed && l.active == l.lastActive && l.status == l.lastStatus {
		return
	}
	if !l.flushed || l.status != l.lastStatus {
		l.log.Debug().Bool("connected", l.status.Connected).Str("label", l.status.Label).Msg("Status")
	}
	if l.active != l.lastActive {
		l.log.Debug().Stringer("active", l.active).Msg("Input")
	}
	l.lastActive, l.lastStatus = l.active, l.status
	l.flushed = true
}
