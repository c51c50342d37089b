// Package hub is the broadcast engine: a single event loop that owns every
// inbound client event, drives the room registry through the services, and
// fans resulting events out to the right sessions.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
	"github.com/megabuster785/collab-whiteboard/internal/protocol"
	"github.com/megabuster785/collab-whiteboard/internal/service"
)

// Websocket timing and sizing constants shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Committed strokes carry their
	// full point list, so this is far larger than a chat-style limit.
	maxMessageSize = 64 * 1024
)

// Message is one unit of work for the hub loop.
type Message struct {
	Type     string // "register", "unregister", "event"
	Conn     domain.Connection
	Envelope protocol.Envelope // only for Type "event"
}

// Hub serializes all mutating room traffic through one goroutine. Events
// are applied and their outbound frames enqueued to per-session ordered
// queues before the next event is taken, so every member of a room observes
// the same total order of draw and clear events, equal to arrival order.
type Hub struct {
	messages chan Message
	done     chan struct{}

	// Live sessions by connection id, for shutdown.
	conns map[string]domain.Connection

	roomService   *service.RoomService
	collabService *service.CollaborationService

	log *logrus.Entry
}

// NewHub creates a hub wired to the given services.
func NewHub(roomService *service.RoomService, collabService *service.CollaborationService) *Hub {
	if roomService == nil {
		panic("RoomService cannot be nil for Hub")
	}
	if collabService == nil {
		panic("CollaborationService cannot be nil for Hub")
	}
	return &Hub{
		messages:      make(chan Message, 512),
		done:          make(chan struct{}),
		conns:         make(map[string]domain.Connection),
		roomService:   roomService,
		collabService: collabService,
		log:           logrus.WithField("component", "hub"),
	}
}

// Run starts the hub's event loop. It should run in its own goroutine and
// returns after Stop is called.
func (h *Hub) Run() {
	h.log.Info("Hub is running")
	for {
		select {
		case msg := <-h.messages:
			h.process(msg)
		case <-h.done:
			h.log.Info("Hub is shutting down")
			for _, conn := range h.conns {
				conn.Close()
			}
			return
		}
	}
}

// Stop terminates the event loop and closes every live session.
func (h *Hub) Stop() {
	close(h.done)
}

// QueueMessage enqueues work for the hub loop without blocking. It reports
// false when the queue is full and the message was dropped.
func (h *Hub) QueueMessage(msg Message) bool {
	select {
	case h.messages <- msg:
		return true
	default:
		h.log.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"event":        msg.Envelope.Event,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// process applies one unit of work. All room mutation happens here, on the
// loop goroutine; that is the serialization point the ordering guarantees
// rest on.
func (h *Hub) process(msg Message) {
	switch msg.Type {
	case "register":
		h.registerConn(msg.Conn)
	case "unregister":
		h.unregisterConn(msg.Conn)
	case "event":
		h.dispatch(msg.Conn, msg.Envelope)
	default:
		h.log.Warnf("Received unknown hub message type: %s", msg.Type)
	}
}

func (h *Hub) registerConn(conn domain.Connection) {
	if conn == nil {
		h.log.Error("Attempted to register a nil connection")
		return
	}
	h.conns[conn.ID()] = conn
	h.log.WithField("conn_id", conn.ID()).Info("Connection registered")
}

// unregisterConn removes the connection from every room it joined and
// notifies the remaining members of each. Exactly one cleanup cycle runs per
// disconnect; afterwards no event referencing the handle is emitted again.
func (h *Hub) unregisterConn(conn domain.Connection) {
	if conn == nil {
		h.log.Error("Attempted to unregister a nil connection")
		return
	}
	if _, ok := h.conns[conn.ID()]; !ok {
		return // already cleaned up
	}
	delete(h.conns, conn.ID())

	departures := h.roomService.Leave(context.Background(), conn.ID())
	for _, dep := range departures {
		h.sendTo(dep.Conns, protocol.EventUserLeft, protocol.ConnPayload{ConnID: conn.ID()})
		h.sendTo(dep.Conns, protocol.EventUserList, protocol.UserListPayload{Users: dep.Remaining})
	}
	conn.Close()
	h.log.WithFields(logrus.Fields{
		"conn_id": conn.ID(),
		"rooms":   len(departures),
	}).Info("Connection unregistered")
}

// dispatch routes one inbound event. Events without a handler (leave-room,
// chat traffic) are logged and dropped.
func (h *Hub) dispatch(conn domain.Connection, env protocol.Envelope) {
	switch env.Event {
	case protocol.EventCreateRoom:
		h.handleCreateRoom(conn, env.Data)
	case protocol.EventJoinRoom:
		h.handleJoinRoom(conn, env.Data)
	case protocol.EventDrawAction:
		h.handleDrawAction(conn, env.Data)
	case protocol.EventClearCanvas:
		h.handleClearCanvas(conn, env.Data)
	default:
		h.log.WithFields(logrus.Fields{
			"conn_id": conn.ID(),
			"event":   env.Event,
		}).Debug("Ignoring unknown event")
	}
}

func (h *Hub) handleCreateRoom(conn domain.Connection, data json.RawMessage) {
	var req protocol.CreateRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendOne(conn, protocol.EventError, protocol.MessagePayload{Message: "Invalid create-room payload."})
		return
	}

	_, err := h.roomService.CreateRoom(context.Background(), req.RoomID, req.IsPrivate, req.AllowedUsers, req.CreatorUsername)
	switch {
	case err == nil:
		h.sendOne(conn, protocol.EventRoomCreated, protocol.RoomCreatedPayload{RoomID: req.RoomID})
	case errors.Is(err, service.ErrRoomExists):
		h.sendOne(conn, protocol.EventRoomExists, protocol.MessagePayload{Message: "Room already exists."})
	case errors.Is(err, service.ErrInvalidRoomID):
		h.sendOne(conn, protocol.EventError, protocol.MessagePayload{Message: "Invalid roomId"})
	default:
		h.sendOne(conn, protocol.EventError, protocol.MessagePayload{Message: "Failed to create room."})
	}
}

func (h *Hub) handleJoinRoom(conn domain.Connection, data json.RawMessage) {
	var req protocol.JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendOne(conn, protocol.EventAccessDenied, protocol.MessagePayload{Message: "Missing room or username."})
		return
	}

	res, err := h.roomService.JoinRoom(context.Background(), req.RoomID, req.Username, req.IsCreator, conn)
	if err != nil {
		msg := "Room does not exist."
		if req.RoomID == "" || req.Username == "" {
			msg = "Missing room or username."
		}
		h.sendOne(conn, protocol.EventAccessDenied, protocol.MessagePayload{Message: msg})
		return
	}

	// The joiner gets its tier and the full ordered history; everyone else
	// gets a presence notice; the whole room, joiner included, gets the
	// refreshed member list.
	h.sendOne(conn, protocol.EventSetPermission, protocol.PermissionPayload{Permission: res.Permission})
	h.sendOne(conn, protocol.EventCanvasHistory, protocol.HistoryPayload{Actions: res.History})
	h.sendExcept(res.Conns, conn.ID(), protocol.EventUserJoined, protocol.UserJoinedPayload{Username: domain.NormalizeUsername(req.Username)})
	h.sendTo(res.Conns, protocol.EventUserList, protocol.UserListPayload{Users: res.Members})
}

func (h *Hub) handleDrawAction(conn domain.Connection, data json.RawMessage) {
	var req protocol.DrawActionRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" || req.Action == nil {
		// Malformed input is dropped without a user-visible signal.
		h.log.WithField("conn_id", conn.ID()).Debug("Dropping malformed draw-action")
		return
	}

	action, _, conns, err := h.collabService.ProcessDrawAction(context.Background(), req.RoomID, *req.Action, conn.ID())
	if err != nil {
		return // dropped silently; only the offending request degrades
	}

	h.sendTo(conns, protocol.EventDrawAction, protocol.ActionPayload{Action: action})
	h.sendTo(conns, protocol.EventUserIsDrawing, protocol.ConnPayload{ConnID: conn.ID()})
}

func (h *Hub) handleClearCanvas(conn domain.Connection, data json.RawMessage) {
	var req protocol.ClearCanvasRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		return
	}

	conns, err := h.collabService.ClearCanvas(context.Background(), req.RoomID, conn.ID())
	if err != nil {
		return
	}
	h.sendTo(conns, protocol.EventClearCanvas, nil)
}

// sendOne marshals and enqueues a frame for a single session.
func (h *Hub) sendOne(conn domain.Connection, event string, payload any) {
	frame, err := protocol.Marshal(event, payload)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("Failed to marshal outbound event")
		return
	}
	if !conn.Send(frame) {
		h.log.WithFields(logrus.Fields{
			"conn_id": conn.ID(),
			"event":   event,
		}).Warn("Session send queue full, frame dropped")
	}
}

// sendTo fans one frame out to a set of sessions. The frame is marshalled
// once; a full queue on one slow session never blocks the others.
func (h *Hub) sendTo(conns []domain.Connection, event string, payload any) {
	if len(conns) == 0 {
		return
	}
	frame, err := protocol.Marshal(event, payload)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("Failed to marshal outbound event")
		return
	}
	for _, conn := range conns {
		if !conn.Send(frame) {
			h.log.WithFields(logrus.Fields{
				"conn_id": conn.ID(),
				"event":   event,
			}).Warn("Session send queue full during broadcast, skipping")
		}
	}
}

func (h *Hub) sendExcept(conns []domain.Connection, excludeID, event string, payload any) {
	filtered := make([]domain.Connection, 0, len(conns))
	for _, c := range conns {
		if c.ID() == excludeID {
			continue
		}
		filtered = append(filtered, c)
	}
	h.sendTo(filtered, event, payload)
}
