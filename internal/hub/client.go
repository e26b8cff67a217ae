package hub

import (
	"encoding/json"

	"github.com/lxzan/gws"
)

const sendBuffer = 256

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *gws.Conn
	send chan []byte
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *gws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
// It returns once the hub has dropped the client.
func (c *Client) WritePump() {
	defer c.conn.WriteClose(1000, nil)

	for msg := range c.send {
		if err := c.conn.WriteMessage(gws.OpcodeText, msg); err != nil {
			break
		}
	}
}

// Handle processes one message received from the client.
func (c *Client) Handle(b *Broadcaster, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.log.Warn().Err(err).Msg("Error parsing client message")
		return
	}

	switch msg.Type {
	case TypeResync:
		if data := b.FullMessage(); data != nil {
			c.hub.Send(c, data)
		}
	default:
		c.hub.log.Debug().Str("type", msg.Type).Msg("Unknown client message")
	}
}

// Events adapts the hub to gws connection callbacks.
type Events struct {
	gws.BuiltinEventHandler

	hub         *Hub
	broadcaster *Broadcaster
}

const clientKey = "client"

func NewEvents(h *Hub, b *Broadcaster) *Events {
	return &Events{hub: h, broadcaster: b}
}

// Attach queues the current state for a freshly upgraded connection and
// registers it. The state is queued first so it precedes any broadcast.
func (e *Events) Attach(socket *gws.Conn) *Client {
	client := NewClient(e.hub, socket)
	socket.Session().Store(clientKey, client)
	if data := e.broadcaster.FullMessage(); data != nil {
		client.send <- data
	}
	e.hub.Register(client)
	return client
}

func (e *Events) OnClose(socket *gws.Conn, err error) {
	if v, ok := socket.Session().Load(clientKey); ok {
		e.hub.Unregister(v.(*Client))
	}
}

func (e *Events) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (e *Events) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	v, ok := socket.Session().Load(clientKey)
	if !ok {
		return
	}
	v.(*Client).Handle(e.broadcaster, message.Bytes())
}
