package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/megabuster785/collab-whiteboard/internal/protocol"
)

// Client is one websocket-backed session. It implements domain.Connection:
// the hub and everything below it only see the interface.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string

	send chan []byte

	quit      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded websocket connection with a fresh connection
// id and a buffered send queue.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, 256),
		quit: make(chan struct{}),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ID returns the opaque connection identifier.
func (c *Client) ID() string { return c.id }

// Send enqueues one outbound frame without blocking. A full queue means the
// peer is too slow; the frame is dropped and the caller informed.
func (c *Client) Send(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Close tears the session down. Safe to call more than once; the pumps exit
// on the closed quit channel and connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.conn.Close()
	})
}

// ReadPump pumps frames from the websocket into the hub's event queue. It
// runs in its own goroutine; when it exits the client is unregistered.
func (c *Client) ReadPump() {
	logCtx := logrus.WithField("conn_id", c.id)
	defer func() {
		// Request cleanup from the hub. If the hub queue is saturated, wait
		// briefly rather than leaking the membership entries.
		select {
		case c.hub.messages <- Message{Type: "unregister", Conn: c}:
		case <-time.After(1 * time.Second):
			logCtx.Warn("Timeout sending unregister message to hub channel")
		}
		c.Close()
		logCtx.Info("ReadPump exited")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			logCtx.Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			// A frame that is not a valid envelope is ignored, never fatal
			// to the connection.
			logCtx.Debug("Dropping frame that is not a valid event envelope")
			continue
		}

		if !c.hub.QueueMessage(Message{Type: "event", Conn: c, Envelope: env}) {
			logCtx.Warn("Hub message channel full, dropping client event")
		}
	}
}

// WritePump pumps frames from the send queue to the websocket and keeps the
// connection alive with periodic pings. It runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	logCtx := logrus.WithField("conn_id", c.id)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Info("WritePump exited")
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}

		case <-c.quit:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
