package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/arl/statsviz"
	"github.com/charmbracelet/log"

	"dominoes/internal/game"
	"dominoes/internal/session"
	"dominoes/internal/storage"
)

// Options tune the HTTP surface.
type Options struct {
	// Origins are the websocket origin patterns accepted. Empty accepts any.
	Origins []string
	// Statsviz mounts the runtime dashboard at /debug/statsviz.
	Statsviz bool
}

// Server is the HTTP server.
type Server struct {
	mux   *http.ServeMux
	coord *game.Coordinator
	hub   *session.Manager
	store *storage.Store // nil disables match history
	log   *log.Logger
	opts  Options
}

// New creates a server with all routes.
func New(coord *game.Coordinator, hub *session.Manager, store *storage.Store, logger *log.Logger, opts Options) *Server {
	s := &Server{
		mux:   http.NewServeMux(),
		coord: coord,
		hub:   hub,
		store: store,
		log:   logger,
		opts:  opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.HandleFunc("GET /api/rooms/{id}", s.handleGetRoom)
	s.mux.HandleFunc("GET /api/matches", s.handleListMatches)
	s.mux.HandleFunc("GET /api/matches/{id}", s.handleGetMatch)
	s.mux.HandleFunc("GET /api/players/{identity}/wins", s.handlePlayerWins)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)

	if s.opts.Statsviz {
		if err := statsviz.Register(s.mux); err != nil {
			s.log.Error("register statsviz", "err", err)
		}
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"rooms":       len(s.coord.Rooms()),
		"connections": s.hub.Len(),
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Rooms())
}

// roomView is a room summary plus the connections listening to it.
type roomView struct {
	game.Summary
	Connected []string `json:"connected"`
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	room, err := s.coord.Room(id)
	if errors.Is(err, game.ErrRoomNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, roomView{Summary: room, Connected: s.hub.Members(id)})
}

const defaultMatchLimit = 20

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	limit := defaultMatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []storage.MatchRow{})
		return
	}
	rows, err := s.store.ListMatches(limit)
	if err != nil {
		s.log.Error("list matches", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load matches"})
		return
	}
	if rows == nil {
		rows = []storage.MatchRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
		return
	}
	m, err := s.store.GetMatch(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
		return
	}
	if err != nil {
		s.log.Error("get match", "id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load match"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handlePlayerWins(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	wins := 0
	if s.store != nil {
		n, err := s.store.Wins(identity)
		if err != nil {
			s.log.Error("count wins", "player", identity, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load wins"})
			return
		}
		wins = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"identity": identity, "wins": wins})
}

// recordMatch stores a finished match. Failures are logged, never surfaced to players.
func (s *Server) recordMatch(result *game.MatchResult) {
	if s.store == nil || result == nil {
		return
	}
	id, err := s.store.RecordMatch(storage.MatchRow{
		RoomID:     result.RoomID,
		Winner:     result.Winner,
		WinnerName: result.WinnerName,
		Players:    result.Players,
		Placed:     result.Placed,
	})
	if err != nil {
		s.log.Error("record match", "room", result.RoomID, "err", err)
		return
	}
	s.log.Debug("match recorded", "id", id, "room", result.RoomID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
