package gamepad

import (
	"context"
	"sync"
)

const (
	DefaultSlots = 4
	eventBuffer  = 64
)

// Slots is the Platform side of a controller backend: a fixed number of
// slots and the event stream that announces changes to them. A backend
// fills and empties slots from one goroutine; any goroutine may read them.
type Slots struct {
	mu     sync.RWMutex
	slots  []*Snapshot
	events chan Event
}

func NewSlots(n int) *Slots {
	if n <= 0 {
		n = DefaultSlots
	}
	return &Slots{
		slots:  make([]*Snapshot, n),
		events: make(chan Event, eventBuffer),
	}
}

func (s *Slots) Len() int { return len(s.slots) }

func (s *Slots) Events() <-chan Event { return s.events }

// Snapshots returns a copy of every slot.
func (s *Slots) Snapshots() []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Snapshot, len(s.slots))
	for i, snap := range s.slots {
		out[i] = snap.Clone()
	}
	return out
}

// Free returns the lowest empty slot, or -1 when all are taken.
func (s *Slots) Free() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, snap := range s.slots {
		if snap == nil {
			return i
		}
	}
	return -1
}

// Connect fills slot i and then announces it. It returns false when ctx
// ended before the event was delivered.
func (s *Slots) Connect(ctx context.Context, i int, snap *Snapshot) bool {
	s.Update(i, snap)
	return s.emit(ctx, Event{Kind: Connected, Slot: i, Snapshot: snap.Clone()})
}

// Update replaces the snapshot in slot i without an event.
func (s *Slots) Update(i int, snap *Snapshot) {
	s.mu.Lock()
	s.slots[i] = snap
	s.mu.Unlock()
}

// Disconnect empties slot i and then announces it with the last snapshot.
func (s *Slots) Disconnect(ctx context.Context, i int) bool {
	s.mu.Lock()
	gone := s.slots[i]
	s.slots[i] = nil
	s.mu.Unlock()
	return s.emit(ctx, Event{Kind: Disconnected, Slot: i, Snapshot: gone})
}

// Unsupported announces that this platform cannot poll controllers.
func (s *Slots) Unsupported(ctx context.Context) bool {
	return s.emit(ctx, Event{Kind: Unsupported})
}

// Clear empties every slot without events, for shutdown.
func (s *Slots) Clear() {
	s.mu.Lock()
	clear(s.slots)
	s.mu.Unlock()
}

func (s *Slots) emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
