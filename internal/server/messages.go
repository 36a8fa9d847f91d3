package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"dominoes/internal/game"
	"dominoes/internal/game/domino"
	"dominoes/internal/session"
)

// Inbound event names.
const (
	EventJoinRoom       = "join-room"
	EventShuffleAndDeal = "shuffle-and-deal"
	EventPlaceDomino    = "place-domino"
	EventDrawDomino     = "draw-domino"
)

// EventWelcome tells a new connection its identity.
const EventWelcome = "welcome"

type welcomePayload struct {
	Identity string `json:"identity"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type joinRoomRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type roomRequest struct {
	RoomID string `json:"roomId"`
}

type placeDominoRequest struct {
	RoomID string       `json:"roomId"`
	Tile   *domino.Tile `json:"tile"`
	Side   string       `json:"side,omitempty"`
}

// request is one decoded inbound event.
type request interface {
	validate() error
}

func (r *joinRoomRequest) validate() error {
	r.RoomID = strings.TrimSpace(r.RoomID)
	r.Name = strings.TrimSpace(r.Name)
	if r.RoomID == "" || r.Name == "" {
		return fmt.Errorf("%w: roomId and name required", game.ErrValidation)
	}
	return nil
}

func (r *roomRequest) validate() error {
	r.RoomID = strings.TrimSpace(r.RoomID)
	if r.RoomID == "" {
		return fmt.Errorf("%w: roomId required", game.ErrValidation)
	}
	return nil
}

func (r *placeDominoRequest) validate() error {
	r.RoomID = strings.TrimSpace(r.RoomID)
	if r.RoomID == "" || r.Tile == nil {
		return fmt.Errorf("%w: roomId and tile required", game.ErrValidation)
	}
	if !r.Tile.Valid() {
		return fmt.Errorf("%w: tile %v out of range", game.ErrValidation, *r.Tile)
	}
	if _, err := domino.ParseSide(r.Side); err != nil {
		return fmt.Errorf("%w: %v", game.ErrValidation, err)
	}
	return nil
}

// decodeRequest maps an envelope to its fixed payload shape and validates it.
func decodeRequest(msg session.Message) (request, error) {
	var req request
	switch msg.Type {
	case EventJoinRoom:
		req = &joinRoomRequest{}
	case EventShuffleAndDeal, EventDrawDomino:
		req = &roomRequest{}
	case EventPlaceDomino:
		req = &placeDominoRequest{}
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", game.ErrValidation, msg.Type)
	}
	if len(msg.Payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", game.ErrValidation)
	}
	if err := json.Unmarshal(msg.Payload, req); err != nil {
		return nil, fmt.Errorf("%w: malformed %s payload", game.ErrValidation, msg.Type)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req, nil
}
