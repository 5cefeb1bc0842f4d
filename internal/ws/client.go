package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nmarofsky/DatingApp/internal/common"
	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256
)

// FrameHandler processes one inbound frame. A returned error is reported to
// this client only, as an Error event.
type FrameHandler func(ctx context.Context, frame *Frame) error

// Client represents a single WebSocket connection
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	id       string
	username string

	onFrame FrameHandler
	onClose func()
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, connectionID, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		id:       connectionID,
		username: username,
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Username returns the authenticated user of the connection
func (c *Client) Username() string {
	return c.username
}

// OnFrame sets the inbound frame handler. Without one, frames are ignored.
func (c *Client) OnFrame(fn FrameHandler) {
	c.onFrame = fn
}

// OnClose sets the teardown hook. It runs exactly once when the read pump
// exits, including after a panic in a frame handler.
func (c *Client) OnClose(fn func()) {
	c.onClose = fn
}

// ReadPump reads frames until the connection fails, then tears down
func (c *Client) ReadPump() {
	log := logger.WithConnection(c.username, c.id)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("ws: frame handler panicked")
		}
		c.runOnClose()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("ws: unexpected close")
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type == "" {
		framesReceived.WithLabelValues("invalid", "rejected").Inc()
		c.hub.SendToConnection(c.id, NewEvent(domain.EventError, ErrorPayload{Message: "malformed frame"}))
		return
	}
	if c.onFrame == nil {
		framesReceived.WithLabelValues(frame.Type, "ignored").Inc()
		return
	}

	if err := c.onFrame(c.hub.Context(), &frame); err != nil {
		framesReceived.WithLabelValues(frame.Type, "fault").Inc()
		c.hub.SendToConnection(c.id, NewEvent(domain.EventError, ErrorPayload{Message: common.ClientMessage(err)}))
		return
	}
	framesReceived.WithLabelValues(frame.Type, "ok").Inc()
}

func (c *Client) runOnClose() {
	if c.onClose == nil {
		return
	}
	fn := c.onClose
	c.onClose = nil
	defer func() {
		if r := recover(); r != nil {
			logger.WithConnection(c.username, c.id).Error().
				Str("panic", fmt.Sprint(r)).Msg("ws: teardown panicked")
		}
	}()
	fn()
}

// WritePump sends queued events and keepalive pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message) //nolint:errcheck
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
