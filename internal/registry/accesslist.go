package registry

import "github.com/megabuster785/collab-whiteboard/internal/domain"

// accessList is a room's allow-list: an ordered list of normalized usernames
// and their tiers. Usernames are unique within the list; insertion order is
// preserved so clients see a stable listing.
type accessList struct {
	entries []domain.AccessEntry
}

func newAccessList(supplied []domain.AccessEntry) *accessList {
	l := &accessList{}
	for _, e := range supplied {
		key := domain.NormalizeUsername(e.Username)
		if key == "" {
			continue
		}
		perm := e.Permission
		if !perm.Valid() {
			perm = domain.PermissionView
		}
		l.put(key, perm)
	}
	return l
}

// get returns the tier for a normalized username key.
func (l *accessList) get(key string) (domain.Permission, bool) {
	for _, e := range l.entries {
		if e.Username == key {
			return e.Permission, true
		}
	}
	return "", false
}

// put inserts or replaces the entry for key.
func (l *accessList) put(key string, perm domain.Permission) {
	for i, e := range l.entries {
		if e.Username == key {
			l.entries[i].Permission = perm
			return
		}
	}
	l.entries = append(l.entries, domain.AccessEntry{Username: key, Permission: perm})
}

// ensureAtLeast inserts key at perm, or raises an existing entry to perm if
// it currently sits at a lower tier. Higher tiers are never downgraded.
func (l *accessList) ensureAtLeast(key string, perm domain.Permission) {
	if current, ok := l.get(key); ok {
		if current.Rank() >= perm.Rank() {
			return
		}
	}
	l.put(key, perm)
}

// snapshot returns a copy of the list for callers outside the room lock.
func (l *accessList) snapshot() []domain.AccessEntry {
	out := make([]domain.AccessEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
