// Package protocol defines the JSON wire format spoken over the websocket:
// a single envelope carrying an event name and its payload, in both
// directions.
package protocol

import (
	"encoding/json"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
)

// Inbound event names.
const (
	EventCreateRoom  = "create-room"
	EventJoinRoom    = "join-room"
	EventDrawAction  = "draw-action"
	EventClearCanvas = "clear-canvas"
)

// Outbound event names.
const (
	EventRoomCreated   = "room-created"
	EventRoomExists    = "room-exists"
	EventError         = "error"
	EventAccessDenied  = "access-denied"
	EventSetPermission = "set-permission"
	EventCanvasHistory = "canvas-history"
	EventUserList      = "user-list"
	EventUserJoined    = "user-joined"
	EventUserIsDrawing = "user-is-drawing"
	EventUserLeft      = "user-left"
	// EventDrawAction and EventClearCanvas are relayed under their inbound
	// names.
)

// Envelope frames every websocket message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateRoomRequest asks the server to register a new room.
type CreateRoomRequest struct {
	RoomID          string               `json:"roomId"`
	IsPrivate       bool                 `json:"isPrivate"`
	AllowedUsers    []domain.AccessEntry `json:"allowedUsers"`
	CreatorUsername string               `json:"creatorUsername"`
}

// JoinRoomRequest asks to join an existing room under a username. IsCreator
// is the client's claim to creator status, honored unless the allow-list
// contradicts it.
type JoinRoomRequest struct {
	RoomID    string `json:"roomId"`
	Username  string `json:"username"`
	IsCreator bool   `json:"isCreator"`
}

// DrawActionRequest commits one drawing action to a room.
type DrawActionRequest struct {
	RoomID string         `json:"roomId"`
	Action *domain.Action `json:"action"`
}

// ClearCanvasRequest wipes a room's history.
type ClearCanvasRequest struct {
	RoomID string `json:"roomId"`
}

// Outbound payloads.

type MessagePayload struct {
	Message string `json:"message"`
}

type RoomCreatedPayload struct {
	RoomID string `json:"roomId"`
}

type PermissionPayload struct {
	Permission domain.Permission `json:"permission"`
}

type HistoryPayload struct {
	Actions []domain.Action `json:"actions"`
}

type UserListPayload struct {
	Users []domain.Member `json:"users"`
}

type UserJoinedPayload struct {
	Username string `json:"username"`
}

type ActionPayload struct {
	Action domain.Action `json:"action"`
}

// ConnPayload identifies a session by its connection handle, for presence
// events (user-is-drawing, user-left).
type ConnPayload struct {
	ConnID string `json:"connId"`
}

// Marshal frames an event and its payload into a wire message.
func Marshal(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
