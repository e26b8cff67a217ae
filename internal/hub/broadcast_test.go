package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/soar/padview/internal/gamepad"
	"github.com/soar/padview/internal/logger"
)

func startHub(t *testing.T) (*Hub, *Broadcaster) {
	t.Helper()
	h := NewHub(logger.Nop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h, NewBroadcaster(h, logger.Nop(), nil)
}

func connect(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := NewClient(h, nil)
	n := h.Len()
	h.Register(c)
	deadline := time.Now().Add(time.Second)
	for h.Len() == n {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
	return c
}

func receive(t *testing.T, c *Client) *WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %s: %v", data, err)
		}
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	default:
	}
}

func render(b *Broadcaster, connected bool, label string, set gamepad.ActiveSet) {
	b.ClearAllHighlights()
	for _, c := range gamepad.Controls {
		b.SetHighlight(c, set.Has(c))
	}
	b.SetStatus(connected, label)
	b.Flush()
}

func TestBroadcasterSendsDeltas(t *testing.T) {
	h, b := startHub(t)
	c := connect(t, h)

	render(b, false, "", 0)
	expectNothing(t, c)

	render(b, true, "pad", gamepad.ActiveSet(0).With(gamepad.B))
	msg := receive(t, c)
	if msg.Type != TypeDelta || msg.Seq != 1 {
		t.Fatalf("message = %+v", msg)
	}
	ch := msg.Changes
	if ch == nil || ch.Connected == nil || !*ch.Connected || ch.Label == nil || *ch.Label != "pad" {
		t.Fatalf("changes = %+v", ch)
	}
	if len(ch.Highlights) != 1 || !ch.Highlights["B"] {
		t.Errorf("highlights = %v", ch.Highlights)
	}

	render(b, true, "pad", gamepad.ActiveSet(0).With(gamepad.B))
	expectNothing(t, c)

	render(b, true, "pad", 0)
	msg = receive(t, c)
	if msg.Seq != 2 || msg.Changes.Label != nil || msg.Changes.Highlights["B"] {
		t.Errorf("release message = %+v", msg.Changes)
	}
}

func TestBroadcasterPeriodicFull(t *testing.T) {
	h, b := startHub(t)
	c := connect(t, h)

	var last *WSMessage
	for i := 0; i < deltaCountSync; i++ {
		var set gamepad.ActiveSet
		if i%2 == 0 {
			set = set.With(gamepad.Y)
		}
		render(b, true, "pad", set)
		last = receive(t, c)
		if i < deltaCountSync-1 && last.Type != TypeDelta {
			t.Fatalf("message %d is %s", i, last.Type)
		}
	}
	if last.Type != TypeFull || last.Seq != deltaCountSync || last.Data == nil {
		t.Fatalf("message %d = %+v", deltaCountSync, last)
	}
	if !last.Data.Connected || last.Data.Label != "pad" || last.Data.Highlights["Y"] {
		t.Errorf("full state = %+v", last.Data)
	}
}

func TestFullMessageReflectsLastFlush(t *testing.T) {
	_, b := startHub(t)
	b.SetStatus(true, "pending")

	var msg WSMessage
	if err := json.Unmarshal(b.FullMessage(), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeFull || msg.Data.Connected {
		t.Errorf("unflushed state leaked: %+v", msg.Data)
	}

	b.Flush()
	if err := json.Unmarshal(b.FullMessage(), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Seq != 1 || !msg.Data.Connected || msg.Data.Label != "pending" {
		t.Errorf("full = %+v", msg.Data)
	}
}

func TestHubSendToUnregistered(t *testing.T) {
	h, _ := startHub(t)
	c := NewClient(h, nil)
	if h.Send(c, []byte("x")) {
		t.Error("send to unregistered client succeeded")
	}
	connect(t, h)
	if h.Send(c, []byte("x")) {
		t.Error("send succeeded after another client registered")
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h, _ := startHub(t)
	c := connect(t, h)
	h.Unregister(c)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("unexpected message")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	if h.Len() != 0 {
		t.Errorf("%d clients left", h.Len())
	}
}

func TestClientResync(t *testing.T) {
	h, b := startHub(t)
	c := connect(t, h)

	render(b, true, "pad", gamepad.ActiveSet(0).With(gamepad.R1))
	receive(t, c)

	c.Handle(b, []byte(`{"type":"resync"}`))
	msg := receive(t, c)
	if msg.Type != TypeFull || !msg.Data.Highlights["R1"] {
		t.Errorf("resync = %+v", msg)
	}

	c.Handle(b, []byte(`{"type":"nope"}`))
	c.Handle(b, []byte(`not json`))
	expectNothing(t, c)
}
