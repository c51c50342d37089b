package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
	"github.com/megabuster785/collab-whiteboard/internal/registry"
)

// CollaborationService handles the real-time drawing path: committing
// actions to a room's log and wiping the canvas.
//
// Permission is deliberately not re-checked here. Enforcement of the view
// tier lives in the client UI; a member admitted at view can still emit a
// draw-action the server will log and relay. See DESIGN.md.
type CollaborationService struct {
	registry *registry.Registry
}

func NewCollaborationService(reg *registry.Registry) *CollaborationService {
	if reg == nil {
		panic("Registry cannot be nil for CollaborationService")
	}
	return &CollaborationService{registry: reg}
}

// ProcessDrawAction validates and commits one action, returning the stored
// action, its sequence index and the connections to relay it to (sender
// excluded). Failures surface as errors the caller drops silently; a
// malformed or misaddressed action never errors the connection.
func (s *CollaborationService) ProcessDrawAction(ctx context.Context, roomID string, action domain.Action, senderID string) (domain.Action, int, []domain.Connection, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": senderID, "tool": action.Tool})

	room, err := s.registry.Get(roomID)
	if err != nil {
		logCtx.Debug("Dropping draw action for unknown room")
		return domain.Action{}, 0, nil, ErrRoomNotFound
	}

	idx, conns, err := room.Append(action, senderID)
	if err != nil {
		logCtx.WithError(err).Warn("Dropping malformed draw action")
		return domain.Action{}, 0, nil, ErrMalformedAction
	}

	logCtx.WithField("seq", idx).Debug("Action committed")
	return action, idx, conns, nil
}

// ClearCanvas truncates a room's history and returns the connections to
// notify, excluding the sender.
func (s *CollaborationService) ClearCanvas(ctx context.Context, roomID, senderID string) ([]domain.Connection, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": senderID})

	room, err := s.registry.Get(roomID)
	if err != nil {
		logCtx.Debug("Dropping clear for unknown room")
		return nil, ErrRoomNotFound
	}

	conns := room.Clear(senderID)
	logCtx.Info("Canvas cleared")
	return conns, nil
}
