package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// rooms is guarded by hub.mu
	rooms map[string]struct{}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.WithError(err).Debug("Client read failed")
			}
			return
		}
		c.handle(data)
	}
}

func (c *client) handle(data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.hub.logger.WithError(err).Debug("Ignoring malformed client frame")
		return
	}

	room := strings.TrimSpace(cmd.Room)
	if room == "" {
		return
	}

	switch cmd.Action {
	case ActionJoinRoom:
		c.hub.join(c, room)
	case ActionLeaveRoom:
		c.hub.leave(c, room)
	default:
		c.hub.logger.WithField("action", cmd.Action).Debug("Unknown client action")
		return
	}

	c.hub.logger.WithFields(logrus.Fields{
		"action": cmd.Action,
		"room":   room,
	}).Debug("Room membership changed")
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
