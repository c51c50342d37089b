package service

import "errors"

var (
	ErrInvalidRoomID   = errors.New("invalid room id")
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrMalformedAction = errors.New("malformed action")
	ErrInternalServer  = errors.New("internal server error")
)
