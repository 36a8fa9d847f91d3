package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MatchRow is one finished match.
type MatchRow struct {
	ID         int64     `json:"id"`
	RoomID     string    `json:"roomId"`
	Winner     string    `json:"winner"`
	WinnerName string    `json:"winnerName"`
	Players    []string  `json:"players"`
	Placed     int       `json:"tilesPlaced"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store handles SQLite persistence of match results. Live room state is
// never stored.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id      TEXT NOT NULL,
			winner       TEXT NOT NULL,
			winner_name  TEXT NOT NULL DEFAULT '',
			players_json TEXT NOT NULL,
			placed       INTEGER NOT NULL DEFAULT 0,
			finished_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS matches_winner ON matches(winner);
	`)
	return err
}

// RecordMatch inserts a finished match and returns its id.
func (s *Store) RecordMatch(m MatchRow) (int64, error) {
	players, err := json.Marshal(m.Players)
	if err != nil {
		return 0, fmt.Errorf("marshal players: %w", err)
	}
	if m.FinishedAt.IsZero() {
		m.FinishedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		"INSERT INTO matches (room_id, winner, winner_name, players_json, placed, finished_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.RoomID, m.Winner, m.WinnerName, string(players), m.Placed, m.FinishedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetMatch retrieves a match by id.
func (s *Store) GetMatch(id int64) (*MatchRow, error) {
	row := s.db.QueryRow(
		"SELECT id, room_id, winner, winner_name, players_json, placed, finished_at FROM matches WHERE id = ?", id,
	)
	return scanMatch(row)
}

// ListMatches returns the most recent matches, newest first. A limit of zero
// or less returns every match.
func (s *Store) ListMatches(limit int) ([]MatchRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		"SELECT id, room_id, winner, winner_name, players_json, placed, finished_at FROM matches ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []MatchRow
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// Wins returns how many matches identity has won.
func (s *Store) Wins(identity string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM matches WHERE winner = ?", identity).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(sc scanner) (*MatchRow, error) {
	var m MatchRow
	var players string
	if err := sc.Scan(&m.ID, &m.RoomID, &m.Winner, &m.WinnerName, &players, &m.Placed, &m.FinishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(players), &m.Players); err != nil {
		return nil, fmt.Errorf("unmarshal players: %w", err)
	}
	return &m, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
