package registry

import "github.com/megabuster785/collab-whiteboard/internal/domain"

// actionLog is the append-only ordered drawing history for one room.
// Insertion order is display order and is the single source of truth
// replayed to every newly joined session.
type actionLog struct {
	entries []domain.Action
	seq     int // next sequence index; resets on clear
	limit   int // max retained entries, 0 = unbounded
}

func newActionLog(limit int) *actionLog {
	return &actionLog{limit: limit}
}

// append stores a copy of the action and returns its assigned sequence
// index (monotonic per room, starting at 0). Validation happens upstream.
func (l *actionLog) append(a domain.Action) int {
	idx := l.seq
	l.seq++
	l.entries = append(l.entries, a.Clone())
	if l.limit > 0 && len(l.entries) > l.limit {
		// Drop the oldest entries; the ordering guarantee holds over the
		// retained suffix.
		overflow := len(l.entries) - l.limit
		l.entries = append(l.entries[:0], l.entries[overflow:]...)
	}
	return idx
}

// replay returns the committed entries in original order.
func (l *actionLog) replay() []domain.Action {
	out := make([]domain.Action, len(l.entries))
	copy(out, l.entries)
	return out
}

// clear truncates the log. The next append is assigned index 0 again.
func (l *actionLog) clear() {
	l.entries = nil
	l.seq = 0
}

func (l *actionLog) len() int {
	return len(l.entries)
}
