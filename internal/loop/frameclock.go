package loop

import (
	"sync"
	"time"
)

type FrameHandle uint64

// FrameScheduler runs a callback once, before the next frame.
type FrameScheduler interface {
	ScheduleNextFrame(fn func()) FrameHandle
	CancelScheduledFrame(h FrameHandle)
}

// FrameClock is a FrameScheduler driven by wall-clock timers. Due callbacks
// are not run by the clock itself; they are delivered on C() so the owner of
// the execution context runs them.
type FrameClock struct {
	interval time.Duration
	due      chan func()
	done     chan struct{}

	mu      sync.Mutex
	next    FrameHandle
	pending map[FrameHandle]*frame
	closed  bool
}

type frame struct {
	fn    func()
	timer *time.Timer
}

func NewFrameClock(interval time.Duration) *FrameClock {
	return &FrameClock{
		interval: interval,
		due:      make(chan func(), 1),
		done:     make(chan struct{}),
		pending:  make(map[FrameHandle]*frame),
	}
}

// C delivers due frames.
func (c *FrameClock) C() <-chan func() { return c.due }

func (c *FrameClock) ScheduleNextFrame(fn func()) FrameHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	h := c.next
	if c.closed {
		return h
	}
	f := &frame{fn: fn}
	f.timer = time.AfterFunc(c.interval, func() {
		select {
		case c.due <- func() { c.run(h) }:
		case <-c.done:
		}
	})
	c.pending[h] = f
	return h
}

func (c *FrameClock) CancelScheduledFrame(h FrameHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.pending[h]; ok {
		f.timer.Stop()
		delete(c.pending, h)
	}
}

// run executes h unless it was cancelled after its timer fired.
func (c *FrameClock) run(h FrameHandle) {
	c.mu.Lock()
	f, ok := c.pending[h]
	delete(c.pending, h)
	c.mu.Unlock()
	if ok {
		f.fn()
	}
}

// Close stops every pending frame.
func (c *FrameClock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	for h, f := range c.pending {
		f.timer.Stop()
		delete(c.pending, h)
	}
}
