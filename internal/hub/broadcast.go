package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/soar/padview/internal/gamepad"
	"github.com/soar/padview/internal/logger"
	"github.com/soar/padview/internal/metrics"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster is the render surface behind the web page. It collects one
// frame of highlight and status commands and, on Flush, broadcasts what
// changed since the last flush.
type Broadcaster struct {
	hub     *Hub
	log     *logger.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	pending    frame
	lastState  frame
	seq        int64
	deltaCount int64
}

func NewBroadcaster(h *Hub, log *logger.Logger, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{hub: h, log: log, metrics: m}
}

func (b *Broadcaster) ClearAllHighlights() {
	b.mu.Lock()
	b.pending.active = 0
	b.mu.Unlock()
}

func (b *Broadcaster) SetHighlight(c gamepad.Control, active bool) {
	b.mu.Lock()
	if active {
		b.pending.active = b.pending.active.With(c)
	} else {
		b.pending.active &^= gamepad.ActiveSet(0).With(c)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) SetStatus(connected bool, label string) {
	b.mu.Lock()
	b.pending.connected = connected
	b.pending.label = label
	b.mu.Unlock()
}

// Flush broadcasts the pending frame as a delta, or as a full message every
// deltaCountSync changes. Nothing is sent when nothing changed.
func (b *Broadcaster) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.pending
	delta := ComputeDelta(b.lastState, state)
	b.lastState = state
	if delta.IsEmpty() {
		return
	}

	b.seq++
	b.deltaCount++
	if b.deltaCount >= deltaCountSync {
		b.deltaCount = 0
		b.send(NewFullMessage(b.seq, state.state()))
		return
	}
	b.send(NewDeltaMessage(b.seq, delta))
}

// Run periodically resends the full state while a controller is connected.
// Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.mu.Lock()
			if b.lastState.connected {
				b.seq++
				b.send(NewFullMessage(b.seq, b.lastState.state()))
			}
			b.mu.Unlock()
		}
	}
}

// FullMessage encodes the last flushed state for a single client.
func (b *Broadcaster) FullMessage() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := json.Marshal(NewFullMessage(b.seq, b.lastState.state()))
	if err != nil {
		b.log.Error().Err(err).Msg("Error marshaling full message")
		return nil
	}
	return data
}

// send must be called with b.mu held.
func (b *Broadcaster) send(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error().Err(err).Str("type", msg.Type).Msg("Error marshaling message")
		return
	}
	b.metrics.Message(msg.Type)
	b.hub.Broadcast(data)
}
