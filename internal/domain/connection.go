package domain

// Connection is the handle for one live client session. The hub owns the
// websocket-backed implementation; the registry and services only ever see
// this interface, which keeps the engine testable with in-memory fakes.
type Connection interface {
	// ID is the opaque connection identifier, unique per session.
	ID() string
	// Send enqueues one outbound frame. It must not block; it reports false
	// when the frame was dropped because the session's queue is full.
	Send(message []byte) bool
	// Close tears the session down. Safe to call more than once.
	Close()
}

// Member is one live membership entry as exposed to other room members.
// A username may appear multiple times (several tabs or devices); entries
// are keyed by connection, not by user.
type Member struct {
	Username string `json:"username"`
	ConnID   string `json:"connId"`
}
