package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewWSHandler returns GET /ws: upgrades the connection and attaches it to
// the dashboard hub.
func NewWSHandler(hub *ws.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := ws.NewClient(hub, conn)
		client.Register()
		go client.WritePump()
		go client.ReadPump()
	}
}
