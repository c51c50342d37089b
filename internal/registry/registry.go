// Package registry owns the process-wide set of rooms and the per-room
// aggregates of allow-list, action log and live membership. Rooms are never
// evicted; they live for the process lifetime and all state is lost on
// restart.
package registry

import (
	"strings"
	"sync"

	"github.com/megabuster785/collab-whiteboard/internal/domain"
)

// Registry maps room identifiers to their aggregates. The map itself is
// guarded by an RWMutex; each room serializes its own mutations.
type Registry struct {
	mu           sync.RWMutex
	rooms        map[string]*Room
	historyLimit int
}

// Departure describes the effect of a disconnect on one room: who is left
// and which connections should receive the presence update.
type Departure struct {
	Room      *Room
	Remaining []domain.Member
	Conns     []domain.Connection
}

// NewRegistry returns an empty registry. historyLimit caps each room's
// retained history; 0 keeps it unbounded.
func NewRegistry(historyLimit int) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		historyLimit: historyLimit,
	}
}

// Create registers a new room with its privacy flag and allow-list, ensuring
// a private room's creator appears at owner tier. Room identifiers are
// case-sensitive and must be non-blank.
func (g *Registry) Create(roomID string, private bool, allowed []domain.AccessEntry, creator string) (*Room, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, ErrInvalidRoomID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.rooms[roomID]; exists {
		return nil, ErrRoomExists
	}
	room := newRoom(roomID, private, allowed, creator, g.historyLimit)
	g.rooms[roomID] = room
	return room, nil
}

// Get returns the room registered under roomID.
func (g *Registry) Get(roomID string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RemoveConn removes the connection from every room it had joined and
// returns one Departure per affected room. A disconnect triggers exactly one
// cleanup cycle per room; rooms the connection never joined are untouched.
func (g *Registry) RemoveConn(connID string) []Departure {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	var departures []Departure
	for _, r := range rooms {
		if removed, remaining, conns := r.removeConn(connID); removed {
			departures = append(departures, Departure{Room: r, Remaining: remaining, Conns: conns})
		}
	}
	return departures
}

// Len returns the number of registered rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
