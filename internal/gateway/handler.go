package gateway

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSHandler upgrades HTTP requests into hub connections.
type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewWSHandler creates the upgrade handler for a hub.
func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  hub.cfg.ReadBufferSize,
			WriteBufferSize: hub.cfg.WriteBufferSize,
			CheckOrigin:     hub.cfg.CheckOrigin,
		},
	}
}

// ServeWS accepts one client. The role selector is mandatory; an unknown or
// missing role rejects the connection before the upgrade.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	role, ok := ParseRole(r.URL.Query().Get("role"))
	if !ok {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	c := &Connection{
		ID:          uuid.New().String(),
		Role:        role,
		conn:        conn,
		send:        make(chan []byte, h.hub.cfg.SendBuffer),
		hub:         h.hub,
		ConnectedAt: time.Now(),
	}

	h.hub.register(c)

	go c.writePump()
	go c.readPump()
}

// RegisterRoutes attaches the WebSocket endpoint to the mux.
func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.ServeWS)
}
