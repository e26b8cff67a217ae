// Package loop drives the per-frame sample → highlight → render cycle.
//
// Everything in a Driver runs in one execution context: Run serializes
// platform events and due frames, so a tick never overlaps another tick or
// an event handler and no locking is needed around the loop state.
package loop

import (
	"context"

	"github.com/soar/padview/internal/gamepad"
	"github.com/soar/padview/internal/logger"
	"github.com/soar/padview/internal/metrics"
)

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Driver owns the loop state: whether a frame is scheduled and its handle.
type Driver struct {
	platform  gamepad.Platform
	scheduler FrameScheduler
	surface   Surface
	reporter  *Reporter
	log       *logger.Logger
	metrics   *metrics.Metrics

	state  State
	handle FrameHandle
}

func NewDriver(p gamepad.Platform, sched FrameScheduler, s Surface, log *logger.Logger, m *metrics.Metrics) *Driver {
	return &Driver{
		platform:  p,
		scheduler: sched,
		surface:   s,
		reporter:  NewReporter(s),
		log:       log,
		metrics:   m,
	}
}

func (d *Driver) State() State { return d.state }

// Start reports the initial status and starts the loop if a controller is
// already present.
func (d *Driver) Start() {
	first := gamepad.First(d.platform.Snapshots())
	d.reporter.Report(first)
	if first != nil {
		d.start()
	}
	flush(d.surface)
}

// HandleEvent applies a platform connect/disconnect event.
func (d *Driver) HandleEvent(ev gamepad.Event) {
	d.metrics.ControllerEvent(ev.Kind.String())
	defer flush(d.surface)

	switch ev.Kind {
	case gamepad.Connected:
		d.log.Info().Int("slot", ev.Slot).Str("id", idOf(ev.Snapshot)).Msg("Controller connected")
		d.reporter.Report(ev.Snapshot)
		d.start()

	case gamepad.Disconnected:
		d.log.Info().Int("slot", ev.Slot).Str("id", idOf(ev.Snapshot)).Msg("Controller disconnected")
		remaining := gamepad.First(d.platform.Snapshots())
		d.reporter.Report(remaining)
		if remaining == nil {
			d.stop()
		}

	case gamepad.Unsupported:
		d.log.Warn().Msg("Controller polling is not supported on this system")
		d.reporter.Unsupported()
	}
}

// Tick runs one sample-and-render cycle and schedules the next one.
func (d *Driver) Tick() {
	if d.state != Running {
		return
	}

	snap := gamepad.First(d.platform.Snapshots())
	set := gamepad.Highlight(snap)
	d.reporter.Report(snap)
	apply(d.surface, set)
	flush(d.surface)
	d.metrics.Frame(set.Len())

	d.handle = d.scheduler.ScheduleNextFrame(d.Tick)
}

// Run is the execution context of the driver. It returns when ctx is done
// or events is closed.
func (d *Driver) Run(ctx context.Context, frames <-chan func(), events <-chan gamepad.Event) {
	d.Start()
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.HandleEvent(ev)
		case fn := <-frames:
			fn()
		}
	}
}

func (d *Driver) start() {
	if d.state == Running {
		return
	}
	d.state = Running
	d.handle = d.scheduler.ScheduleNextFrame(d.Tick)
	d.metrics.LoopRunning(true)
	d.log.Debug().Msg("Frame loop started")
}

func (d *Driver) stop() {
	if d.state == Stopped {
		return
	}
	d.scheduler.CancelScheduledFrame(d.handle)
	d.handle = 0
	d.state = Stopped
	apply(d.surface, 0)
	d.metrics.LoopRunning(false)
	d.log.Debug().Msg("Frame loop stopped")
}

func idOf(s *gamepad.Snapshot) string {
	if s == nil {
		return ""
	}
	return s.ID
}
