package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
	"github.com/megabuster785/collab-whiteboard/internal/registry"
	"github.com/megabuster785/collab-whiteboard/internal/service"
)

type fakeConn struct {
	id     string
	closed bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(msg []byte) bool { return true }

func (f *fakeConn) Close() { f.closed = true }

func newServices(t *testing.T) (*service.RoomService, *service.CollaborationService) {
	t.Helper()
	reg := registry.NewRegistry(0)
	return service.NewRoomService(reg), service.NewCollaborationService(reg)
}

func TestCreateRoomReturnsFinalizedAllowList(t *testing.T) {
	rooms, _ := newServices(t)
	ctx := context.Background()

	list, err := rooms.CreateRoom(ctx, "room-1", true, []domain.AccessEntry{
		{Username: " Bob ", Permission: domain.PermissionEdit},
	}, "Carol")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob", list[0].Username)
	assert.Equal(t, domain.AccessEntry{Username: "carol", Permission: domain.PermissionOwner}, list[1])
}

func TestCreateRoomErrorMapping(t *testing.T) {
	rooms, _ := newServices(t)
	ctx := context.Background()

	_, err := rooms.CreateRoom(ctx, "", false, nil, "")
	assert.ErrorIs(t, err, service.ErrInvalidRoomID)

	_, err = rooms.CreateRoom(ctx, "room-1", false, nil, "")
	require.NoError(t, err)

	_, err = rooms.CreateRoom(ctx, "room-1", false, nil, "")
	assert.ErrorIs(t, err, service.ErrRoomExists)
}

func TestJoinRoomDeniesMissingIdentityOrUnknownRoom(t *testing.T) {
	rooms, _ := newServices(t)
	ctx := context.Background()
	conn := &fakeConn{id: "c1"}

	_, err := rooms.JoinRoom(ctx, "", "alice", false, conn)
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	_, err = rooms.JoinRoom(ctx, "room-1", "   ", false, conn)
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	_, err = rooms.JoinRoom(ctx, "ghost", "alice", false, conn)
	assert.ErrorIs(t, err, service.ErrAccessDenied)
}

func TestJoinRoomDeliversPermissionHistoryAndMembers(t *testing.T) {
	rooms, collab := newServices(t)
	ctx := context.Background()

	_, err := rooms.CreateRoom(ctx, "room-1", true, []domain.AccessEntry{
		{Username: "alice", Permission: domain.PermissionOwner},
	}, "")
	require.NoError(t, err)

	first := &fakeConn{id: "c1"}
	res, err := rooms.JoinRoom(ctx, "room-1", "Alice", false, first)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionOwner, res.Permission)
	assert.Empty(t, res.History)
	require.Len(t, res.Members, 1)

	stroke := domain.Action{Tool: domain.ToolPen, Points: []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	_, _, _, err = collab.ProcessDrawAction(ctx, "room-1", stroke, first.ID())
	require.NoError(t, err)

	second := &fakeConn{id: "c2"}
	res, err = rooms.JoinRoom(ctx, "room-1", "bob", false, second)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionView, res.Permission)
	assert.Len(t, res.History, 1, "late joiner replays the committed history")
	assert.Len(t, res.Members, 2)
}

func TestLeaveReturnsOneDeparturePerRoom(t *testing.T) {
	rooms, _ := newServices(t)
	ctx := context.Background()

	_, err := rooms.CreateRoom(ctx, "room-a", false, nil, "")
	require.NoError(t, err)
	_, err = rooms.CreateRoom(ctx, "room-b", false, nil, "")
	require.NoError(t, err)

	conn := &fakeConn{id: "c1"}
	_, err = rooms.JoinRoom(ctx, "room-a", "alice", false, conn)
	require.NoError(t, err)
	_, err = rooms.JoinRoom(ctx, "room-b", "alice", false, conn)
	require.NoError(t, err)

	departures := rooms.Leave(ctx, "c1")
	assert.Len(t, departures, 2)

	assert.Empty(t, rooms.Leave(ctx, "c1"), "cleanup runs exactly once")
}

func TestRoomInfo(t *testing.T) {
	rooms, collab := newServices(t)
	ctx := context.Background()

	_, err := rooms.Info(ctx, "ghost")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)

	_, err = rooms.CreateRoom(ctx, "room-1", true, nil, "carol")
	require.NoError(t, err)

	conn := &fakeConn{id: "c1"}
	_, err = rooms.JoinRoom(ctx, "room-1", "carol", true, conn)
	require.NoError(t, err)

	stroke := domain.Action{Tool: domain.ToolPen, Points: []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	_, _, _, err = collab.ProcessDrawAction(ctx, "room-1", stroke, conn.ID())
	require.NoError(t, err)

	info, err := rooms.Info(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "room-1", info.RoomID)
	assert.True(t, info.IsPrivate)
	assert.Equal(t, 1, info.MemberCount)
	assert.Equal(t, 1, info.ActionCount)
}
