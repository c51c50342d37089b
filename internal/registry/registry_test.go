package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
)

type fakeConn struct {
	id     string
	closed bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(msg []byte) bool { return true }

func (f *fakeConn) Close() { f.closed = true }

func penStroke(username string) domain.Action {
	return domain.Action{
		Tool:     domain.ToolPen,
		Color:    "#000000",
		Points:   []domain.Point{{X: 0, Y: 0}, {X: 5, Y: 5}},
		Username: username,
	}
}

func TestCreateRejectsBlankRoomID(t *testing.T) {
	reg := NewRegistry(0)

	_, err := reg.Create("", false, nil, "")
	assert.ErrorIs(t, err, ErrInvalidRoomID)

	_, err = reg.Create("   ", false, nil, "")
	assert.ErrorIs(t, err, ErrInvalidRoomID)
}

func TestCreateCollisionLeavesAllowListUnchanged(t *testing.T) {
	reg := NewRegistry(0)

	room, err := reg.Create("room-1", true, []domain.AccessEntry{
		{Username: "Alice", Permission: domain.PermissionEdit},
	}, "Carol")
	require.NoError(t, err)

	first := room.AllowList()

	_, err = reg.Create("room-1", true, []domain.AccessEntry{
		{Username: "mallory", Permission: domain.PermissionOwner},
	}, "mallory")
	assert.ErrorIs(t, err, ErrRoomExists)

	again, err := reg.Get("room-1")
	require.NoError(t, err)
	assert.Equal(t, first, again.AllowList(), "the colliding create must not touch the allow-list")
}

func TestCreateNormalizesUsernamesAndInsertsCreatorAsOwner(t *testing.T) {
	reg := NewRegistry(0)

	room, err := reg.Create("room-1", true, []domain.AccessEntry{
		{Username: "  Bob ", Permission: domain.PermissionEdit},
	}, "Carol")
	require.NoError(t, err)

	list := room.AllowList()
	require.Len(t, list, 2)
	assert.Equal(t, domain.AccessEntry{Username: "bob", Permission: domain.PermissionEdit}, list[0])
	assert.Equal(t, domain.AccessEntry{Username: "carol", Permission: domain.PermissionOwner}, list[1])
}

func TestCreateRaisesCreatorBelowOwner(t *testing.T) {
	reg := NewRegistry(0)

	room, err := reg.Create("room-1", true, []domain.AccessEntry{
		{Username: "carol", Permission: domain.PermissionView},
	}, "Carol")
	require.NoError(t, err)

	perm, ok := room.access.get("carol")
	require.True(t, ok)
	assert.Equal(t, domain.PermissionOwner, perm)
}

func TestCreatePublicRoomDoesNotInsertCreator(t *testing.T) {
	reg := NewRegistry(0)

	room, err := reg.Create("room-1", false, nil, "Carol")
	require.NoError(t, err)
	assert.Empty(t, room.AllowList())
}

func TestResolveOrAdmit(t *testing.T) {
	reg := NewRegistry(0)
	room, err := reg.Create("room-1", true, []domain.AccessEntry{
		{Username: "alice", Permission: domain.PermissionOwner},
	}, "")
	require.NoError(t, err)

	// Case-insensitive match against an existing entry.
	assert.Equal(t, domain.PermissionOwner, room.ResolveOrAdmit("Alice", false))

	// Unknown user without a creator claim is admitted at view and recorded.
	assert.Equal(t, domain.PermissionView, room.ResolveOrAdmit("bob", false))
	perm, ok := room.access.get("bob")
	require.True(t, ok)
	assert.Equal(t, domain.PermissionView, perm)

	// Unknown user claiming creator status is admitted as owner: the claim
	// is trusted whenever the allow-list does not contradict it.
	assert.Equal(t, domain.PermissionOwner, room.ResolveOrAdmit("dave", true))

	// An existing entry wins over the claim.
	assert.Equal(t, domain.PermissionView, room.ResolveOrAdmit("Bob", true))
}

func TestAppendAssignsSequenceAndExcludesSender(t *testing.T) {
	reg := NewRegistry(0)
	room, err := reg.Create("room-1", false, nil, "")
	require.NoError(t, err)

	sender := &fakeConn{id: "c1"}
	other := &fakeConn{id: "c2"}
	room.Join("alice", false, sender)
	room.Join("bob", false, other)

	idx, conns, err := room.Append(penStroke("alice"), sender.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	require.Len(t, conns, 1)
	assert.Equal(t, "c2", conns[0].ID())

	idx, _, err = room.Append(penStroke("bob"), other.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestAppendRejectsMalformedAction(t *testing.T) {
	reg := NewRegistry(0)
	room, err := reg.Create("room-1", false, nil, "")
	require.NoError(t, err)

	_, _, err = room.Append(domain.Action{Tool: "spray"}, "c1")
	assert.Error(t, err)
	assert.Empty(t, room.Replay(), "a rejected action must not reach the log")
}

func TestClearIsIdempotentAndResetsSequence(t *testing.T) {
	reg := NewRegistry(0)
	room, err := reg.Create("room-1", false, nil, "")
	require.NoError(t, err)

	_, _, err = room.Append(penStroke("alice"), "c1")
	require.NoError(t, err)
	_, _, err = room.Append(penStroke("alice"), "c1")
	require.NoError(t, err)

	room.Clear("c1")
	assert.Empty(t, room.Replay())

	room.Clear("c1")
	assert.Empty(t, room.Replay())

	idx, _, err := room.Append(penStroke("alice"), "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "first append after clear starts the sequence over")
	assert.Len(t, room.Replay(), 1)
}

func TestJoinSnapshotExcludesLaterAppends(t *testing.T) {
	reg := NewRegistry(0)
	room, err := reg.Create("room-1", false, nil, "")
	require.NoError(t, err)

	_, _, err = room.Append(penStroke("alice"), "c1")
	require.NoError(t, err)

	snap := room.Join("bob", false, &fakeConn{id: "c2"})
	require.Len(t, snap.History, 1)

	_, _, err = room.Append(penStroke("alice"), "c1")
	require.NoError(t, err)
	assert.Len(t, snap.History, 1, "an append after the join must not appear in the snapshot")
}

func TestJoinAllowsDuplicateUsernames(t *testing.T) {
	reg := NewRegistry(0)
	room, err := reg.Create("room-1", false, nil, "")
	require.NoError(t, err)

	room.Join("alice", false, &fakeConn{id: "tab-1"})
	snap := room.Join("Alice", false, &fakeConn{id: "tab-2"})

	require.Len(t, snap.Members, 2)
	assert.Equal(t, "alice", snap.Members[0].Username)
	assert.Equal(t, "alice", snap.Members[1].Username)
}

func TestRemoveConnSpansAllRooms(t *testing.T) {
	reg := NewRegistry(0)
	roomA, err := reg.Create("room-a", false, nil, "")
	require.NoError(t, err)
	roomB, err := reg.Create("room-b", false, nil, "")
	require.NoError(t, err)
	roomC, err := reg.Create("room-c", false, nil, "")
	require.NoError(t, err)

	conn := &fakeConn{id: "c1"}
	stayer := &fakeConn{id: "c2"}
	roomA.Join("alice", false, conn)
	roomB.Join("alice", false, conn)
	roomB.Join("bob", false, stayer)
	roomC.Join("bob", false, stayer)

	departures := reg.RemoveConn("c1")
	require.Len(t, departures, 2, "one departure per room the connection had joined")

	for _, dep := range departures {
		for _, m := range dep.Remaining {
			assert.NotEqual(t, "c1", m.ConnID)
		}
	}
	assert.Len(t, roomC.Members(), 1, "rooms the connection never joined are untouched")

	// A second pass finds nothing left to remove.
	assert.Empty(t, reg.RemoveConn("c1"))
}

func TestHistoryLimitKeepsNewestEntries(t *testing.T) {
	reg := NewRegistry(2)
	room, err := reg.Create("room-1", false, nil, "")
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		_, _, err := room.Append(penStroke(name), "c1")
		require.NoError(t, err)
	}

	history := room.Replay()
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].Username)
	assert.Equal(t, "c", history[1].Username)
}

func TestGetUnknownRoom(t *testing.T) {
	reg := NewRegistry(0)
	_, err := reg.Get("nope")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
