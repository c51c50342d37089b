package registry

import "github.com/megabuster785/collab-whiteboard/internal/domain"

// memberSet tracks the live connections joined to one room, in join order.
// Duplicate usernames are allowed (multiple tabs or devices); entries are
// keyed by connection handle.
type memberSet struct {
	entries []memberEntry
}

type memberEntry struct {
	username string
	conn     domain.Connection
}

func (s *memberSet) add(username string, conn domain.Connection) {
	s.entries = append(s.entries, memberEntry{username: username, conn: conn})
}

// removeConn drops every entry matching the connection id and reports
// whether anything was removed.
func (s *memberSet) removeConn(connID string) bool {
	kept := s.entries[:0]
	removed := false
	for _, e := range s.entries {
		if e.conn.ID() == connID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

// list returns the membership as exposed to clients.
func (s *memberSet) list() []domain.Member {
	out := make([]domain.Member, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, domain.Member{Username: e.username, ConnID: e.conn.ID()})
	}
	return out
}

// conns returns the live connections, optionally excluding one id.
func (s *memberSet) conns(excludeID string) []domain.Connection {
	out := make([]domain.Connection, 0, len(s.entries))
	for _, e := range s.entries {
		if excludeID != "" && e.conn.ID() == excludeID {
			continue
		}
		out = append(out, e.conn)
	}
	return out
}
