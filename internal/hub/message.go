package hub

import (
	"time"

	"github.com/soar/padview/internal/gamepad"
)

const (
	TypeFull   = "full"
	TypeDelta  = "delta"
	TypeResync = "resync"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string        `json:"type"`              // "full" or "delta"
	Seq       int64         `json:"seq"`               // Sequence number for ordering
	Timestamp int64         `json:"timestamp"`         // Unix timestamp in milliseconds
	Data      *FrameState   `json:"data,omitempty"`    // Complete state for type "full"
	Changes   *DeltaChanges `json:"changes,omitempty"` // Changed fields for type "delta"
}

// FrameState is the whole diagram: status plus every control's highlight.
type FrameState struct {
	Connected  bool            `json:"connected"`
	Label      string          `json:"label"`
	Highlights map[string]bool `json:"highlights"`
}

type DeltaChanges struct {
	Connected  *bool           `json:"connected,omitempty"`
	Label      *string         `json:"label,omitempty"`
	Highlights map[string]bool `json:"highlights,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Connected == nil && d.Label == nil && len(d.Highlights) == 0
}

// frame is what the broadcaster accumulates between flushes.
type frame struct {
	connected bool
	label     string
	active    gamepad.ActiveSet
}

func (f frame) state() *FrameState {
	hl := make(map[string]bool, len(gamepad.Controls))
	for _, c := range gamepad.Controls {
		hl[c.String()] = f.active.Has(c)
	}
	return &FrameState{Connected: f.connected, Label: f.label, Highlights: hl}
}

// ComputeDelta returns the fields of next that differ from prev.
func ComputeDelta(prev, next frame) *DeltaChanges {
	d := &DeltaChanges{}
	if prev.connected != next.connected {
		d.Connected = &next.connected
	}
	if prev.label != next.label {
		d.Label = &next.label
	}
	if changed := prev.active ^ next.active; changed != 0 {
		d.Highlights = make(map[string]bool, changed.Len())
		for _, c := range changed.Controls() {
			d.Highlights[c.String()] = next.active.Has(c)
		}
	}
	return d
}

// NewFullMessage creates a "full" type message containing the complete state.
func NewFullMessage(seq int64, state *FrameState) *WSMessage {
	return &WSMessage{
		Type:      TypeFull,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      state,
	}
}

// NewDeltaMessage creates a "delta" type message containing only changed fields.
func NewDeltaMessage(seq int64, changes *DeltaChanges) *WSMessage {
	return &WSMessage{
		Type:      TypeDelta,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type string `json:"type"`
}
