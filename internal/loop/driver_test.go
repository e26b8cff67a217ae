package loop

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/soar/padview/internal/gamepad"
	"github.com/soar/padview/internal/logger"
	"github.com/soar/padview/internal/metrics"
)

type fakePlatform struct {
	mu     sync.Mutex
	slots  []*gamepad.Snapshot
	events chan gamepad.Event
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		slots:  make([]*gamepad.Snapshot, 4),
		events: make(chan gamepad.Event, 8),
	}
}

func (p *fakePlatform) Snapshots() []*gamepad.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*gamepad.Snapshot(nil), p.slots...)
}

func (p *fakePlatform) Events() <-chan gamepad.Event { return p.events }

func (p *fakePlatform) connect(slot int, s *gamepad.Snapshot) gamepad.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.Index = slot
	p.slots[slot] = s
	return gamepad.Event{Kind: gamepad.Connected, Slot: slot, Snapshot: s}
}

func (p *fakePlatform) disconnect(slot int) gamepad.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slots[slot]
	p.slots[slot] = nil
	return gamepad.Event{Kind: gamepad.Disconnected, Slot: slot, Snapshot: s}
}

// manualScheduler holds at most the frames the driver asked for; tests run them.
type manualScheduler struct {
	next      FrameHandle
	pending   map[FrameHandle]func()
	cancelled []FrameHandle
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{pending: make(map[FrameHandle]func())}
}

func (m *manualScheduler) ScheduleNextFrame(fn func()) FrameHandle {
	m.next++
	m.pending[m.next] = fn
	return m.next
}

func (m *manualScheduler) CancelScheduledFrame(h FrameHandle) {
	m.cancelled = append(m.cancelled, h)
	delete(m.pending, h)
}

// frame runs every pending callback once.
func (m *manualScheduler) frame() int {
	due := m.pending
	m.pending = make(map[FrameHandle]func())
	for _, fn := range due {
		fn()
	}
	return len(due)
}

type recordingSurface struct {
	highlights map[gamepad.Control]bool
	status     Status
	clears     int
	sets       int
	flushes    int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{highlights: make(map[gamepad.Control]bool)}
}

func (r *recordingSurface) ClearAllHighlights() {
	r.clears++
	clear(r.highlights)
}

func (r *recordingSurface) SetHighlight(c gamepad.Control, active bool) {
	r.sets++
	r.highlights[c] = active
}

func (r *recordingSurface) SetStatus(connected bool, label string) {
	r.status = Status{Connected: connected, Label: label}
}

func (r *recordingSurface) Flush() { r.flushes++ }

func (r *recordingSurface) active() gamepad.ActiveSet {
	var s gamepad.ActiveSet
	for c, on := range r.highlights {
		if on {
			s = s.With(c)
		}
	}
	return s
}

type fixture struct {
	platform *fakePlatform
	sched    *manualScheduler
	surface  *recordingSurface
	metrics  *metrics.Metrics
	reg      *prometheus.Registry
	driver   *Driver
}

func newFixture() *fixture {
	f := &fixture{
		platform: newFakePlatform(),
		sched:    newManualScheduler(),
		surface:  newRecordingSurface(),
		reg:      prometheus.NewRegistry(),
	}
	f.metrics = metrics.New(f.reg)
	f.driver = NewDriver(f.platform, f.sched, f.surface, logger.Nop(), f.metrics)
	return f
}

// metric reads a single-series counter or gauge from the registry.
func (f *fixture) metric(name string) float64 {
	mfs, err := f.reg.Gather()
	if err != nil {
		return -1
	}
	for _, mf := range mfs {
		if mf.GetName() != name || len(mf.GetMetric()) == 0 {
			continue
		}
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	return -1
}

func pad(id string, pressed ...int) *gamepad.Snapshot {
	s := &gamepad.Snapshot{ID: id, Mapping: gamepad.MappingStandard, Buttons: make([]gamepad.Button, 17), Axes: make([]float64, 4)}
	for _, i := range pressed {
		s.Buttons[i].Pressed = true
	}
	return s
}

func TestStartWithoutController(t *testing.T) {
	f := newFixture()
	f.driver.Start()

	if f.driver.State() != Stopped {
		t.Errorf("state = %v", f.driver.State())
	}
	if f.surface.status != StatusFor(nil) || f.surface.status.Connected {
		t.Errorf("status = %+v", f.surface.status)
	}
	if len(f.sched.pending) != 0 {
		t.Error("frame scheduled without a controller")
	}
	if f.surface.active() != 0 {
		t.Errorf("active = %v", f.surface.active())
	}
}

func TestStartWithControllerPresent(t *testing.T) {
	f := newFixture()
	f.platform.connect(2, pad("pad", 0))
	f.driver.Start()

	if f.driver.State() != Running {
		t.Fatalf("state = %v", f.driver.State())
	}
	if f.sched.frame() != 1 {
		t.Fatal("no frame scheduled")
	}
	if got := f.surface.active(); got != gamepad.ActiveSet(0).With(gamepad.A) {
		t.Errorf("active = %v", got)
	}
	if !f.surface.status.Connected {
		t.Errorf("status = %+v", f.surface.status)
	}
}

func TestTickRendersAllControls(t *testing.T) {
	f := newFixture()
	f.driver.HandleEvent(f.platform.connect(0, pad("pad", 1, 9)))
	f.surface.clears, f.surface.sets = 0, 0

	f.sched.frame()

	if f.surface.clears != 1 {
		t.Errorf("%d clears per frame", f.surface.clears)
	}
	if f.surface.sets != len(gamepad.Controls) {
		t.Errorf("%d highlight calls per frame", f.surface.sets)
	}
	want := gamepad.ActiveSet(0).With(gamepad.B).With(gamepad.Start)
	if got := f.surface.active(); got != want {
		t.Errorf("active = %v, want %v", got, want)
	}
	if len(f.sched.pending) != 1 {
		t.Errorf("%d frames pending after a tick", len(f.sched.pending))
	}
}

func TestTickFollowsLiveState(t *testing.T) {
	f := newFixture()
	p := pad("pad")
	f.driver.HandleEvent(f.platform.connect(0, p))
	f.sched.frame()
	if f.surface.active() != 0 {
		t.Fatalf("active = %v", f.surface.active())
	}

	p.Axes[2] = 0.8
	f.sched.frame()
	if got := f.surface.active(); got != gamepad.ActiveSet(0).With(gamepad.RS) {
		t.Errorf("active = %v", got)
	}

	p.Axes[2] = 0
	f.sched.frame()
	if f.surface.active() != 0 {
		t.Errorf("highlight kept after release: %v", f.surface.active())
	}
}

func TestTickIdempotent(t *testing.T) {
	f := newFixture()
	f.driver.HandleEvent(f.platform.connect(0, pad("pad", 4, 7)))

	f.sched.frame()
	active, status := f.surface.active(), f.surface.status
	f.sched.frame()
	if f.surface.active() != active || f.surface.status != status {
		t.Errorf("second frame differs: %v %+v vs %v %+v", f.surface.active(), f.surface.status, active, status)
	}
}

func TestConnectWhileRunningDoesNotReschedule(t *testing.T) {
	f := newFixture()
	f.driver.HandleEvent(f.platform.connect(0, pad("a")))
	f.driver.HandleEvent(f.platform.connect(1, pad("b")))

	if len(f.sched.pending) != 1 {
		t.Errorf("%d frames pending, want 1", len(f.sched.pending))
	}
	if f.surface.status != StatusFor(f.platform.slots[1]) {
		t.Errorf("status = %+v, want the new controller", f.surface.status)
	}
}

func TestDisconnectWithRemainingController(t *testing.T) {
	f := newFixture()
	f.driver.HandleEvent(f.platform.connect(0, pad("a")))
	b := pad("b", 3)
	f.driver.HandleEvent(f.platform.connect(1, b))
	f.sched.frame()

	f.driver.HandleEvent(f.platform.disconnect(0))

	if f.driver.State() != Running {
		t.Fatalf("state = %v", f.driver.State())
	}
	if f.surface.status != StatusFor(b) {
		t.Errorf("status = %+v, want %+v", f.surface.status, StatusFor(b))
	}
	if len(f.sched.cancelled) != 0 {
		t.Errorf("frames cancelled: %v", f.sched.cancelled)
	}

	f.sched.frame()
	if got := f.surface.active(); got != gamepad.ActiveSet(0).With(gamepad.Y) {
		t.Errorf("active = %v, want b's buttons", got)
	}
}

func TestDisconnectLastController(t *testing.T) {
	f := newFixture()
	f.driver.HandleEvent(f.platform.connect(0, pad("a", 0)))
	f.sched.frame()
	handle := f.driver.handle

	f.driver.HandleEvent(f.platform.disconnect(0))

	if f.driver.State() != Stopped {
		t.Fatalf("state = %v", f.driver.State())
	}
	if len(f.sched.cancelled) != 1 || f.sched.cancelled[0] != handle {
		t.Errorf("cancelled %v, want [%d]", f.sched.cancelled, handle)
	}
	if len(f.sched.pending) != 0 {
		t.Errorf("%d frames still pending", len(f.sched.pending))
	}
	if f.surface.status.Connected || f.surface.status.Label != labelDisconnected {
		t.Errorf("status = %+v", f.surface.status)
	}
	if f.surface.active() != 0 {
		t.Errorf("highlights left on: %v", f.surface.active())
	}
	expected := `
# HELP padview_loop_running 1 while per-frame sampling is scheduled.
# TYPE padview_loop_running gauge
padview_loop_running 0
`
	if err := testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "padview_loop_running"); err != nil {
		t.Error(err)
	}

	// a late tick after stop does nothing
	f.driver.Tick()
	if len(f.sched.pending) != 0 {
		t.Error("stopped driver scheduled a frame")
	}
}

func TestReconnectRestartsLoop(t *testing.T) {
	f := newFixture()
	f.driver.HandleEvent(f.platform.connect(0, pad("a")))
	f.driver.HandleEvent(f.platform.disconnect(0))
	f.driver.HandleEvent(f.platform.connect(0, pad("a")))

	if f.driver.State() != Running || len(f.sched.pending) != 1 {
		t.Errorf("state = %v, %d pending", f.driver.State(), len(f.sched.pending))
	}
}

func TestUnsupported(t *testing.T) {
	f := newFixture()
	f.driver.Start()
	f.driver.HandleEvent(gamepad.Event{Kind: gamepad.Unsupported})

	if f.surface.status.Label != labelUnsupported || f.surface.status.Connected {
		t.Errorf("status = %+v", f.surface.status)
	}
	if f.driver.State() != Stopped {
		t.Errorf("state = %v", f.driver.State())
	}
}

func TestEventsFlushSurface(t *testing.T) {
	f := newFixture()
	f.driver.Start()
	f.driver.HandleEvent(f.platform.connect(0, pad("a")))
	f.sched.frame()
	if f.surface.flushes != 3 {
		t.Errorf("%d flushes, want 3", f.surface.flushes)
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture()
	f.driver.HandleEvent(f.platform.connect(0, pad("a", 0, 1)))
	f.sched.frame()
	f.sched.frame()

	if got := f.metric("padview_frames_total"); got != 2 {
		t.Errorf("frames_total = %v", got)
	}
	if got := f.metric("padview_active_controls"); got != 2 {
		t.Errorf("active_controls = %v", got)
	}
	if got := f.metric("padview_loop_running"); got != 1 {
		t.Errorf("loop_running = %v", got)
	}
}

func TestRun(t *testing.T) {
	p := newFakePlatform()
	surface := newRecordingSurface()
	clock := NewFrameClock(time.Millisecond)
	defer clock.Close()
	d := NewDriver(p, clock, surface, logger.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, clock.C(), p.Events())
		close(done)
	}()

	p.events <- p.connect(0, pad("a", 2))

	// give the loop a few frames; state is only read after Run returns
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if d.State() != Stopped {
		t.Errorf("state after Run = %v", d.State())
	}
	if surface.flushes < 3 {
		t.Errorf("%d flushes, the loop did not tick", surface.flushes)
	}
}
