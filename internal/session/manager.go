package session

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Manager tracks live connections and which rooms they listen to. It
// delivers game events without blocking: a client whose buffer is full
// misses the message.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
	log     *log.Logger
}

// NewManager creates an empty connection manager.
func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		log:     logger,
	}
}

// Connect registers a client for id, replacing any previous one.
func (m *Manager) Connect(id string) *Client {
	c := &Client{ID: id, Send: make(chan []byte, SendBuffer)}
	m.mu.Lock()
	if old, ok := m.clients[id]; ok {
		close(old.Send)
	}
	m.clients[id] = c
	m.mu.Unlock()
	return c
}

// Disconnect closes the client's channel and drops it from every room.
func (m *Manager) Disconnect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return
	}
	close(c.Send)
	delete(m.clients, id)
	for roomID, members := range m.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// client returns a connection by id.
func (m *Manager) client(id string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	return c, ok
}

// Len returns the number of live connections.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Subscribe adds identity to a room's broadcast list.
func (m *Manager) Subscribe(roomID, identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		m.rooms[roomID] = members
	}
	members[identity] = struct{}{}
}

// Unsubscribe removes identity from a room's broadcast list.
func (m *Manager) Unsubscribe(roomID, identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.rooms[roomID]
	if !ok {
		return
	}
	delete(members, identity)
	if len(members) == 0 {
		delete(m.rooms, roomID)
	}
}

// CloseRoom drops every subscription to a room.
func (m *Manager) CloseRoom(roomID string) {
	m.mu.Lock()
	delete(m.rooms, roomID)
	m.mu.Unlock()
}

// Members returns the identities subscribed to a room, sorted.
func (m *Manager) Members(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms[roomID]))
	for id := range m.rooms[roomID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Send delivers an event to one connection.
func (m *Manager) Send(identity, event string, payload any) {
	msg, err := Encode(event, payload)
	if err != nil {
		m.log.Error("encode event", "event", event, "err", err)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[identity]
	if !ok {
		return
	}
	if !c.trySend(msg) {
		m.log.Warn("dropped message, buffer full", "player", identity, "event", event)
	}
}

// Broadcast delivers an event to every connection subscribed to a room.
func (m *Manager) Broadcast(roomID, event string, payload any) {
	msg, err := Encode(event, payload)
	if err != nil {
		m.log.Error("encode event", "event", event, "err", err)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id := range m.rooms[roomID] {
		c, ok := m.clients[id]
		if !ok {
			continue
		}
		if !c.trySend(msg) {
			m.log.Warn("dropped message, buffer full", "player", id, "room", roomID, "event", event)
		}
	}
}
