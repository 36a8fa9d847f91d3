package game

import (
	"sort"
	"sync"
)

// Registry holds all live rooms and the room each identity is seated in.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	seats map[string]string // identity -> room id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		seats: make(map[string]string),
	}
}

// GetOrCreate returns the room with the given id, creating an empty one if it
// does not exist. created reports which happened.
func (r *Registry) GetOrCreate(id string) (room *Room, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[id]; ok {
		return room, false
	}
	room = newRoom(id)
	r.rooms[id] = room
	return room, true
}

// Get returns a room by id.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Delete removes a room and releases every seat in it. Deleting an unknown
// room is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return
	}
	for _, pid := range room.order {
		if r.seats[pid] == id {
			delete(r.seats, pid)
		}
	}
	delete(r.rooms, id)
}

// Locate returns the room id an identity is seated in.
func (r *Registry) Locate(identity string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.seats[identity]
	return id, ok
}

func (r *Registry) bind(identity, roomID string) {
	r.mu.Lock()
	r.seats[identity] = roomID
	r.mu.Unlock()
}

func (r *Registry) unbind(identity string) {
	r.mu.Lock()
	delete(r.seats, identity)
	r.mu.Unlock()
}

// IDs returns all room ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
