package registry

import (
	"sync"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
)

// Room is the per-room aggregate: the allow-list, the action log and the
// live member set live behind one mutex so every mutation of a room is
// serialized through a single point. That lock is what makes the total
// ordering of draw and clear events structural rather than incidental.
type Room struct {
	id      string
	private bool

	mu      sync.Mutex
	access  *accessList
	log     *actionLog
	members memberSet
}

// JoinSnapshot is everything a join observes atomically: the resolved tier,
// the history at join time, the membership after the join, and the live
// connections to fan presence updates out to.
type JoinSnapshot struct {
	Permission domain.Permission
	History    []domain.Action
	Members    []domain.Member
	Conns      []domain.Connection
}

func newRoom(id string, private bool, allowed []domain.AccessEntry, creator string, historyLimit int) *Room {
	r := &Room{
		id:      id,
		private: private,
		access:  newAccessList(allowed),
		log:     newActionLog(historyLimit),
	}
	// A private room always lists its creator as owner. An existing lower
	// tier is raised; owner is never downgraded.
	if key := domain.NormalizeUsername(creator); private && key != "" {
		r.access.ensureAtLeast(key, domain.PermissionOwner)
	}
	return r
}

func (r *Room) ID() string { return r.id }

func (r *Room) IsPrivate() bool { return r.private }

// AllowList returns a copy of the current allow-list.
func (r *Room) AllowList() []domain.AccessEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.access.snapshot()
}

// ResolveOrAdmit resolves the tier for a username, admitting unknown users.
// An existing allow-list entry wins; otherwise a claimed creator is admitted
// as owner and anyone else as view. The admission policy trusts the claim:
// any client that can name the room and asserts creator status becomes owner
// unless the allow-list contradicts it.
func (r *Room) ResolveOrAdmit(username string, claimsCreator bool) domain.Permission {
	key := domain.NormalizeUsername(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveOrAdmitLocked(key, claimsCreator)
}

func (r *Room) resolveOrAdmitLocked(key string, claimsCreator bool) domain.Permission {
	if perm, ok := r.access.get(key); ok {
		return perm
	}
	perm := domain.PermissionView
	if claimsCreator {
		perm = domain.PermissionOwner
	}
	r.access.put(key, perm)
	return perm
}

// Join atomically resolves the tier, snapshots the history and registers the
// connection as a member. No action appended after Join returns is part of
// the snapshot, and no snapshot entry is re-delivered live, because both the
// append path and Join hold the room lock.
func (r *Room) Join(username string, claimsCreator bool, conn domain.Connection) JoinSnapshot {
	key := domain.NormalizeUsername(username)
	r.mu.Lock()
	defer r.mu.Unlock()

	perm := r.resolveOrAdmitLocked(key, claimsCreator)
	history := r.log.replay()
	r.members.add(key, conn)
	return JoinSnapshot{
		Permission: perm,
		History:    history,
		Members:    r.members.list(),
		Conns:      r.members.conns(""),
	}
}

// Append validates and commits one action, returning its sequence index and
// the connections to relay it to (the sender excluded).
func (r *Room) Append(action domain.Action, senderID string) (int, []domain.Connection, error) {
	if err := action.Validate(); err != nil {
		return 0, nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.log.append(action)
	return idx, r.members.conns(senderID), nil
}

// Clear truncates the action log and returns the connections to notify,
// excluding the sender which has already cleared its local view.
func (r *Room) Clear(senderID string) []domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.clear()
	return r.members.conns(senderID)
}

// Replay returns the committed history in order.
func (r *Room) Replay() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.replay()
}

// Members returns the current membership listing.
func (r *Room) Members() []domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members.list()
}

// removeConn drops the connection from the member set. It reports whether
// the connection was a member and returns the remaining membership and the
// connections still attached.
func (r *Room) removeConn(connID string) (bool, []domain.Member, []domain.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.members.removeConn(connID)
	if !removed {
		return false, nil, nil
	}
	return true, r.members.list(), r.members.conns("")
}

// Stats returns the live member count and committed action count.
func (r *Room) Stats() (members, actions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members.entries), r.log.len()
}
