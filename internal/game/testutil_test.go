package game

import (
	"io"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"dominoes/internal/game/domino"
)

// sent is one notification captured by recordingNotifier.
type sent struct {
	to      string // identity, or "room:<id>" for broadcasts
	event   string
	payload any
}

// recordingNotifier records every notification in order.
type recordingNotifier struct {
	mu      sync.Mutex
	events  []sent
	members map[string]map[string]bool
	closed  []string
}

func newRecorder() *recordingNotifier {
	return &recordingNotifier{members: make(map[string]map[string]bool)}
}

func (n *recordingNotifier) Subscribe(roomID, identity string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.members[roomID] == nil {
		n.members[roomID] = make(map[string]bool)
	}
	n.members[roomID][identity] = true
}

func (n *recordingNotifier) Unsubscribe(roomID, identity string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.members[roomID], identity)
}

func (n *recordingNotifier) CloseRoom(roomID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.members, roomID)
	n.closed = append(n.closed, roomID)
}

func (n *recordingNotifier) Send(identity, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sent{to: identity, event: event, payload: payload})
}

func (n *recordingNotifier) Broadcast(roomID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sent{to: "room:" + roomID, event: event, payload: payload})
}

// last returns the most recent notification to `to` with the given event.
func (n *recordingNotifier) last(to, event string) (sent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].to == to && n.events[i].event == event {
			return n.events[i], true
		}
	}
	return sent{}, false
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.event == event {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

func setupTest(t *testing.T) (*Coordinator, *Registry, *recordingNotifier) {
	t.Helper()
	reg := NewRegistry()
	rec := newRecorder()
	c := NewCoordinator(reg, rec, rand.New(rand.NewPCG(42, 1)), log.New(io.Discard))
	return c, reg, rec
}

func mustJoin(t *testing.T, c *Coordinator, roomID string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := c.Join(roomID, id, "name-"+id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
}

// startedRoom seats ids in "R1", deals as the first id, and returns the room.
func startedRoom(t *testing.T, c *Coordinator, reg *Registry, ids ...string) *Room {
	t.Helper()
	mustJoin(t, c, "R1", ids...)
	if err := c.DealAndStart("R1", ids[0]); err != nil {
		t.Fatalf("deal: %v", err)
	}
	room, ok := reg.Get("R1")
	if !ok {
		t.Fatal("room missing after deal")
	}
	return room
}

// assertConserved checks that pool, hands and board together hold each
// tile of the set exactly once.
func assertConserved(t *testing.T, room *Room) {
	t.Helper()
	counts := map[domino.Tile]int{}
	for _, tile := range room.Pool {
		counts[tile.Canonical()]++
	}
	for _, tile := range room.Board {
		counts[tile.Canonical()]++
	}
	for _, id := range room.order {
		for _, tile := range room.players[id].Hand {
			counts[tile.Canonical()]++
		}
	}
	total := 0
	for _, want := range domino.NewSet() {
		if counts[want] != 1 {
			t.Fatalf("tile %v appears %d times", want, counts[want])
		}
		total += counts[want]
	}
	if total != domino.SetSize || len(counts) != domino.SetSize {
		t.Fatalf("expected %d distinct tiles, got %d", domino.SetSize, len(counts))
	}
}

// pickTile returns a tile from the player's hand matching (or not matching)
// the board.
func pickTile(p *Player, board domino.Board, valid bool) (domino.Tile, bool) {
	for _, tile := range p.Hand {
		if domino.IsValidMove(tile, board) == valid {
			return tile, true
		}
	}
	return domino.Tile{}, false
}
