package registry

import "errors"

var (
	// ErrInvalidRoomID means the supplied room identifier is empty or blank.
	ErrInvalidRoomID = errors.New("registry: invalid room id")
	// ErrRoomExists means a room with that identifier is already registered.
	ErrRoomExists = errors.New("registry: room already exists")
	// ErrRoomNotFound means no room is registered under that identifier.
	ErrRoomNotFound = errors.New("registry: room not found")
)
