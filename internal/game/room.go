package game

import (
	"slices"

	"dominoes/internal/game/domino"
)

// Capacity is the number of seats in a room.
const Capacity = 4

// HandSize is the number of tiles dealt to each player.
const HandSize = 7

// Status represents the room lifecycle.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusStarted Status = "started"
	StatusOver    Status = "over"
)

// Player is a seated participant.
type Player struct {
	ID    string
	Name  string
	Hand  []domino.Tile
	Score int // reserved for scoring variants
}

// handIndex returns the index of t in the hand, matching pips exactly.
func (p *Player) handIndex(t domino.Tile) int {
	return slices.Index(p.Hand, t)
}

// Room is one game instance. It is only mutated through the Coordinator.
type Room struct {
	ID      string
	Status  Status
	HostID  string
	Turn    string
	Pool    []domino.Tile
	Board   domino.Board
	players map[string]*Player
	order   []string // join order
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		Status:  StatusWaiting,
		Pool:    domino.NewSet(),
		players: make(map[string]*Player),
	}
}

// PlayerCount returns the number of seated players.
func (r *Room) PlayerCount() int {
	return len(r.order)
}

// Player returns a seated player, or nil.
func (r *Room) Player(id string) *Player {
	return r.players[id]
}

// PlayerIDs returns seated identities in join order.
func (r *Room) PlayerIDs() []string {
	return slices.Clone(r.order)
}

// Started reports whether tiles have been dealt.
func (r *Room) Started() bool {
	return r.Status == StatusStarted
}

func (r *Room) seat(p *Player) {
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
}

func (r *Room) unseat(id string) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	delete(r.players, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return p
}

// nextAfter returns the seated player following id in join order, wrapping.
// When id is no longer seated, pos is where id used to sit.
func (r *Room) nextAfter(id string, pos int) string {
	if len(r.order) == 0 {
		return ""
	}
	if i := slices.Index(r.order, id); i >= 0 {
		return r.order[(i+1)%len(r.order)]
	}
	return r.order[pos%len(r.order)]
}

// RosterEntry is the public view of a player. Hand contents stay private.
type RosterEntry struct {
	ID       string `json:"identity"`
	Name     string `json:"name"`
	HandSize int    `json:"handSize"`
}

// Roster returns seated players in join order.
func (r *Room) Roster() []RosterEntry {
	out := make([]RosterEntry, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		out = append(out, RosterEntry{ID: p.ID, Name: p.Name, HandSize: len(p.Hand)})
	}
	return out
}

// Summary is the public state of a room.
type Summary struct {
	ID       string        `json:"roomId"`
	Status   Status        `json:"status"`
	HostID   string        `json:"host"`
	Turn     string        `json:"turn,omitempty"`
	PoolSize int           `json:"poolSize"`
	Board    []domino.Tile `json:"board"`
	Players  []RosterEntry `json:"players"`
}

func (r *Room) summary() Summary {
	board := slices.Clone([]domino.Tile(r.Board))
	if board == nil {
		board = []domino.Tile{}
	}
	return Summary{
		ID:       r.ID,
		Status:   r.Status,
		HostID:   r.HostID,
		Turn:     r.Turn,
		PoolSize: len(r.Pool),
		Board:    board,
		Players:  r.Roster(),
	}
}
