package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"dominoes/internal/game/domino"
)

// Outbound event names.
const (
	EventIsHost       = "is-host"
	EventPlayerUpdate = "player-update"
	EventRoomJoined   = "room-joined"
	EventError        = "error"
	EventYourHand     = "your-hand"
	EventGameState    = "game-state"
	EventTurnUpdate   = "turn-update"
	EventBoardUpdate  = "board-update"
	EventGameOver     = "game-over"
	EventDominoDrawn  = "domino-drawn"
)

// Notifier delivers events to connections. Calls must not block.
type Notifier interface {
	Subscribe(roomID, identity string)
	Unsubscribe(roomID, identity string)
	CloseRoom(roomID string)
	Send(identity, event string, payload any)
	Broadcast(roomID, event string, payload any)
}

// RoomJoined is sent to a player after a successful join.
type RoomJoined struct {
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
}

// GameState announces a status change to the room.
type GameState struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Turn    string `json:"turn"`
}

// GameOver names the winner of a match.
type GameOver struct {
	Winner string `json:"winner"`
}

// MatchResult describes a finished match.
type MatchResult struct {
	RoomID     string
	Winner     string
	WinnerName string
	Players    []string
	Placed     int
}

// Coordinator runs the room state machine. Every operation, including the
// notifications it emits, runs under one lock, so requests are processed one
// at a time across all rooms.
type Coordinator struct {
	mu     sync.Mutex
	rooms  *Registry
	notify Notifier
	rng    *rand.Rand
	log    *log.Logger
}

// NewCoordinator creates a coordinator over rooms. A nil rng is seeded randomly.
func NewCoordinator(rooms *Registry, notify Notifier, rng *rand.Rand, logger *log.Logger) *Coordinator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Coordinator{
		rooms:  rooms,
		notify: notify,
		rng:    rng,
		log:    logger,
	}
}

// Join seats identity in roomID, creating the room if needed. The creator
// becomes host.
func (c *Coordinator) Join(roomID, identity, name string) error {
	roomID = strings.TrimSpace(roomID)
	name = strings.TrimSpace(name)
	if roomID == "" || identity == "" || name == "" {
		return fmt.Errorf("%w: roomId and name required", ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.rooms.Locate(identity); ok {
		return fmt.Errorf("%w in room %s", ErrAlreadySeated, current)
	}
	if room, ok := c.rooms.Get(roomID); ok {
		if room.PlayerCount() >= Capacity {
			return ErrRoomFull
		}
		if room.Started() {
			return ErrAlreadyStarted
		}
	}

	room, created := c.rooms.GetOrCreate(roomID)
	room.seat(&Player{ID: identity, Name: name})
	c.rooms.bind(identity, roomID)
	if created {
		room.HostID = identity
		c.log.Info("room created", "room", roomID, "host", identity)
	}
	c.log.Debug("player joined", "room", roomID, "player", identity, "seated", room.PlayerCount())

	c.notify.Subscribe(roomID, identity)
	c.notify.Send(identity, EventIsHost, room.HostID == identity)
	c.notify.Send(identity, EventRoomJoined, RoomJoined{Name: name, RoomID: roomID})
	c.notify.Broadcast(roomID, EventPlayerUpdate, room.Roster())
	return nil
}

// DealAndStart shuffles the pool, deals every seated player a hand and picks
// a random player to move first. Only the host may start.
func (c *Coordinator) DealAndStart(roomID, requester string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if room.HostID != requester {
		return ErrNotHost
	}
	if room.Started() {
		return ErrAlreadyStarted
	}
	if room.PlayerCount() == 0 {
		return fmt.Errorf("%w: no players seated", ErrValidation)
	}

	domino.Shuffle(room.Pool, c.rng)
	for _, id := range room.order {
		p := room.players[id]
		n := min(HandSize, len(room.Pool))
		p.Hand = append(p.Hand, room.Pool[:n]...)
		room.Pool = room.Pool[n:]
	}
	room.Status = StatusStarted
	room.Turn = room.order[c.rng.IntN(len(room.order))]
	c.log.Info("game started", "room", roomID, "players", room.PlayerCount(), "turn", room.Turn)

	for _, id := range room.order {
		c.notify.Send(id, EventYourHand, slices.Clone(room.players[id].Hand))
	}
	c.notify.Broadcast(roomID, EventGameState, GameState{
		Status:  StatusStarted,
		Message: "Game started",
		Turn:    room.Turn,
	})
	c.notify.Broadcast(roomID, EventPlayerUpdate, room.Roster())
	return nil
}

// turnHolder returns the room and player when requester may act.
func (c *Coordinator) turnHolder(roomID, requester string) (*Room, *Player, error) {
	room, ok := c.rooms.Get(roomID)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	if !room.Started() {
		return nil, nil, ErrGameNotStarted
	}
	if room.Turn != requester {
		return nil, nil, ErrNotYourTurn
	}
	p := room.Player(requester)
	if p == nil {
		return nil, nil, ErrNotYourTurn
	}
	return room, p, nil
}

// PlaceTile moves tile from the requester's hand onto the board. When the
// hand empties the match ends, the room is deleted and a result is returned.
func (c *Coordinator) PlaceTile(roomID, requester string, tile domino.Tile, side domino.Side) (*MatchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, p, err := c.turnHolder(roomID, requester)
	if err != nil {
		return nil, err
	}
	i := p.handIndex(tile)
	if i < 0 {
		return nil, fmt.Errorf("%w: %v", ErrTileNotInHand, tile)
	}
	if !domino.IsValidMove(tile, room.Board) {
		return nil, fmt.Errorf("%w: %v does not match the board", ErrInvalidMove, tile)
	}
	board, ok := room.Board.Attach(tile, side)
	if !ok {
		return nil, fmt.Errorf("%w: %v does not match the %s end", ErrInvalidMove, tile, side)
	}

	p.Hand = slices.Delete(p.Hand, i, i+1)
	room.Board = board

	if len(p.Hand) == 0 {
		return c.finish(room, requester), nil
	}

	room.Turn = room.nextAfter(requester, 0)
	c.notify.Broadcast(roomID, EventTurnUpdate, room.Turn)
	c.notify.Broadcast(roomID, EventBoardUpdate, slices.Clone([]domino.Tile(room.Board)))
	c.notify.Broadcast(roomID, EventPlayerUpdate, room.Roster())
	return nil, nil
}

func (c *Coordinator) finish(room *Room, winner string) *MatchResult {
	room.Status = StatusOver
	room.Turn = ""
	result := &MatchResult{
		RoomID:  room.ID,
		Winner:  winner,
		Players: room.PlayerIDs(),
		Placed:  len(room.Board),
	}
	if p := room.Player(winner); p != nil {
		result.WinnerName = p.Name
	}
	c.notify.Broadcast(room.ID, EventBoardUpdate, slices.Clone([]domino.Tile(room.Board)))
	c.notify.Broadcast(room.ID, EventGameOver, GameOver{Winner: winner})
	c.notify.CloseRoom(room.ID)
	c.rooms.Delete(room.ID)
	c.log.Info("game over", "room", room.ID, "winner", winner)
	return result
}

// DrawTile moves one tile from the pool into the requester's hand. The turn
// does not advance.
func (c *Coordinator) DrawTile(roomID, requester string) (domino.Tile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, p, err := c.turnHolder(roomID, requester)
	if err != nil {
		return domino.Tile{}, err
	}
	if len(room.Pool) == 0 {
		return domino.Tile{}, ErrPoolEmpty
	}
	t := room.Pool[0]
	room.Pool = room.Pool[1:]
	p.Hand = append(p.Hand, t)

	c.notify.Send(requester, EventDominoDrawn, t)
	c.notify.Broadcast(roomID, EventPlayerUpdate, room.Roster())
	return t, nil
}

// Disconnect releases the seat held by identity, if any. Empty rooms are
// deleted; a departing host or turn holder is replaced by the next player.
func (c *Coordinator) Disconnect(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	roomID, ok := c.rooms.Locate(identity)
	if !ok {
		return
	}
	room, ok := c.rooms.Get(roomID)
	if !ok {
		c.rooms.unbind(identity)
		return
	}

	pos := slices.Index(room.order, identity)
	p := room.unseat(identity)
	c.rooms.unbind(identity)
	c.notify.Unsubscribe(roomID, identity)
	c.log.Debug("player left", "room", roomID, "player", identity)

	if room.PlayerCount() == 0 {
		c.notify.CloseRoom(roomID)
		c.rooms.Delete(roomID)
		c.log.Info("room closed", "room", roomID)
		return
	}

	if room.Started() && p != nil && len(p.Hand) > 0 {
		room.Pool = append(room.Pool, p.Hand...)
		domino.Shuffle(room.Pool, c.rng)
	}
	if room.HostID == identity {
		room.HostID = room.order[0]
		c.log.Info("host reassigned", "room", roomID, "host", room.HostID)
		c.notify.Send(room.HostID, EventIsHost, true)
	}
	if room.Started() && room.Turn == identity {
		room.Turn = room.nextAfter(identity, pos)
		c.notify.Broadcast(roomID, EventTurnUpdate, room.Turn)
	}
	c.notify.Broadcast(roomID, EventPlayerUpdate, room.Roster())
}

// Rooms returns the public state of every live room.
func (c *Coordinator) Rooms() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.rooms.IDs()
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		if room, ok := c.rooms.Get(id); ok {
			out = append(out, room.summary())
		}
	}
	return out
}

// Room returns the public state of one room.
func (c *Coordinator) Room(roomID string) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.rooms.Get(roomID)
	if !ok {
		return Summary{}, ErrRoomNotFound
	}
	return room.summary(), nil
}
