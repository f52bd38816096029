package chat

import (
	"sync"
)

// Session is a live participant connection as seen by the registry.
// Send must not block; delivery is best-effort.
type Session interface {
	ID() string
	Send(payload []byte)
}

// Registry tracks which sessions belong to which rooms and provides
// best-effort broadcast. It is an in-process map; a multi-process
// deployment would need this state in a shared store instead.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]Session),
	}
}

// Join registers the session under the room. Joining twice has no
// additional effect.
func (r *Registry) Join(roomID string, sess Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]Session)
		r.rooms[roomID] = members
	}
	members[sess.ID()] = sess
}

// Leave removes the session from the room. No-op when not a member.
func (r *Registry) Leave(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Broadcast delivers the payload to every current member of the room.
// Holding the lock across the member loop keeps payloads FIFO per room
// relative to the order Broadcast was called.
func (r *Registry) Broadcast(roomID string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sess := range r.rooms[roomID] {
		sess.Send(payload)
	}
}

// DropSession removes the session from every room it belongs to.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID, members := range r.rooms {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Members returns the session IDs currently registered under the room.
func (r *Registry) Members(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.rooms[roomID]))
	for id := range r.rooms[roomID] {
		ids = append(ids, id)
	}

	return ids
}
