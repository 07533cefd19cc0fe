package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Role partitions connections into the three disjoint client sets. Every
// connection subscribes to exactly one role at accept time.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCaptain Role = "captain"
	RolePlayer  Role = "player"
)

// ParseRole maps the role selector from the connect URL. Unknown or missing
// selectors reject the connection.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(s)) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCaptain:
		return RoleCaptain, true
	case RolePlayer:
		return RolePlayer, true
	}
	return "", false
}

// Config holds the WebSocket and poll-loop settings for the hub.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	PollInterval    time.Duration
	MaxMessageSize  int64
	MaxImageBytes   int
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the default hub configuration. The read limit is
// generous because question images travel inline as data URLs.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		PollInterval:    250 * time.Millisecond,
		MaxMessageSize:  8 << 20,
		MaxImageBytes:   5 << 20,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Connection is one live client. Captain seat state (device id and picked
// team) lives on the connection and is guarded by the hub mutex; the
// device-team binding itself is keyed by device and survives the
// connection.
type Connection struct {
	ID   string
	Role Role

	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	ConnectedAt time.Time

	deviceID string
	teamID   int // 0 = no team picked
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.removeConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump feeds inbound messages to the hub until the socket dies.
func (c *Connection) readPump() {
	defer func() {
		c.hub.removeConnection(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected close")
			}
			break
		}
		c.hub.handleMessage(c, message)
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
	}
}
