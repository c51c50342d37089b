package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
	"github.com/megabuster785/collab-whiteboard/internal/registry"
)

// RoomService handles room lifecycle and admission: creating rooms and
// joining connections to them under the resolved permission tier.
type RoomService struct {
	registry *registry.Registry
}

// RoomInfo is the read-side summary exposed over HTTP for the lobby page.
type RoomInfo struct {
	RoomID      string `json:"roomId"`
	IsPrivate   bool   `json:"isPrivate"`
	MemberCount int    `json:"memberCount"`
	ActionCount int    `json:"actionCount"`
}

// JoinResult is what a successful join delivers: the tier, the history
// snapshot, the refreshed member list and the live connections of the room.
type JoinResult struct {
	Permission domain.Permission
	History    []domain.Action
	Members    []domain.Member
	Conns      []domain.Connection
}

func NewRoomService(reg *registry.Registry) *RoomService {
	if reg == nil {
		panic("Registry cannot be nil for RoomService")
	}
	return &RoomService{registry: reg}
}

// CreateRoom registers a new room and returns its finalized allow-list, with
// every username normalized and the creator of a private room guaranteed an
// owner entry.
func (s *RoomService) CreateRoom(ctx context.Context, roomID string, isPrivate bool, allowed []domain.AccessEntry, creator string) ([]domain.AccessEntry, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "private": isPrivate})

	room, err := s.registry.Create(roomID, isPrivate, allowed, creator)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidRoomID):
			logCtx.Warn("Rejected room creation: invalid room id")
			return nil, ErrInvalidRoomID
		case errors.Is(err, registry.ErrRoomExists):
			logCtx.Info("Rejected room creation: room already exists")
			return nil, ErrRoomExists
		}
		logCtx.WithError(err).Error("Failed to create room")
		return nil, ErrInternalServer
	}

	logCtx.Info("Room created")
	return room.AllowList(), nil
}

// JoinRoom admits a connection into a room. Missing identity or an
// unregistered room both surface as ErrAccessDenied, matching the join-time
// failure surface clients see.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, username string, claimsCreator bool, conn domain.Connection) (*JoinResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "username": username, "conn_id": conn.ID()})

	if roomID == "" || domain.NormalizeUsername(username) == "" {
		logCtx.Warn("Join rejected: missing room or username")
		return nil, ErrAccessDenied
	}

	room, err := s.registry.Get(roomID)
	if err != nil {
		logCtx.Warn("Join rejected: room does not exist")
		return nil, ErrAccessDenied
	}

	snap := room.Join(username, claimsCreator, conn)
	logCtx.WithField("permission", snap.Permission).Info("User joined room")
	return &JoinResult{
		Permission: snap.Permission,
		History:    snap.History,
		Members:    snap.Members,
		Conns:      snap.Conns,
	}, nil
}

// Leave removes the connection from every room it had joined and returns
// one departure per affected room, for the presence fan-out. Partial cleanup
// is not possible: the registry visits every room in one pass.
func (s *RoomService) Leave(ctx context.Context, connID string) []registry.Departure {
	departures := s.registry.RemoveConn(connID)
	if len(departures) > 0 {
		logrus.WithFields(logrus.Fields{"conn_id": connID, "rooms": len(departures)}).Info("Connection left rooms")
	}
	return departures
}

// Info returns the read-side summary for one room.
func (s *RoomService) Info(ctx context.Context, roomID string) (*RoomInfo, error) {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	members, actions := room.Stats()
	return &RoomInfo{
		RoomID:      room.ID(),
		IsPrivate:   room.IsPrivate(),
		MemberCount: members,
		ActionCount: actions,
	}, nil
}
