package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"dominoes/internal/game"
	"dominoes/internal/game/domino"
	"dominoes/internal/session"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: s.opts.Origins}
	if len(s.opts.Origins) == 0 {
		opts.InsecureSkipVerify = true // allow any origin
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.log.Warn("websocket accept", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	identity := uuid.NewString()
	client := s.hub.Connect(identity)
	s.log.Debug("connected", "player", identity, "remote", r.RemoteAddr)

	s.hub.Send(identity, EventWelcome, welcomePayload{Identity: identity})

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range client.Send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg session.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reject(identity, "", errInvalidMessage)
			continue
		}
		s.handleMessage(identity, msg)
	}

	s.coord.Disconnect(identity)
	s.hub.Disconnect(identity)
	s.log.Debug("disconnected", "player", identity)
}

var errInvalidMessage = errors.New("invalid message")

func (s *Server) handleMessage(identity string, msg session.Message) {
	req, err := decodeRequest(msg)
	if err != nil {
		s.reject(identity, msg.Type, err)
		return
	}

	switch req := req.(type) {
	case *joinRoomRequest:
		err = s.coord.Join(req.RoomID, identity, req.Name)
	case *roomRequest:
		if msg.Type == EventShuffleAndDeal {
			err = s.coord.DealAndStart(req.RoomID, identity)
		} else {
			_, err = s.coord.DrawTile(req.RoomID, identity)
		}
	case *placeDominoRequest:
		var result *game.MatchResult
		side, _ := domino.ParseSide(req.Side)
		result, err = s.coord.PlaceTile(req.RoomID, identity, *req.Tile, side)
		if err == nil && result != nil {
			s.recordMatch(result)
		}
	}
	if err != nil {
		s.reject(identity, msg.Type, err)
	}
}

// reject answers the requester only.
func (s *Server) reject(identity, event string, err error) {
	s.log.Debug("request rejected", "player", identity, "event", event, "err", err)
	s.hub.Send(identity, game.EventError, errorPayload{Message: err.Error()})
}
