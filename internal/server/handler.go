package server

import (
	"net/http"

	"github.com/lxzan/gws"
	"github.com/soar/padview/internal/hub"
	"github.com/soar/padview/internal/logger"
)

type webSocketHandler struct {
	upgrader *gws.Upgrader
	events   *hub.Events
	log      *logger.Logger
}

func newWebSocketHandler(h *hub.Hub, b *hub.Broadcaster, log *logger.Logger) *webSocketHandler {
	events := hub.NewEvents(h, b)
	return &webSocketHandler{
		upgrader: gws.NewUpgrader(events, &gws.ServerOption{
			Recovery:          gws.Recovery,
			PermessageDeflate: gws.PermessageDeflate{Enabled: true},
		}),
		events: events,
		log:    log,
	}
}

func (wh *webSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := wh.upgrader.Upgrade(w, r)
	if err != nil {
		wh.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := wh.events.Attach(socket)

	// Start write pump
	go client.WritePump()
	go socket.ReadLoop()
}
