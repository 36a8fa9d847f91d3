package server

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"nhooyr.io/websocket"

	"dominoes/internal/game"
	"dominoes/internal/session"
	"dominoes/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	srv   *Server
	coord *game.Coordinator
	hub   *session.Manager
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return newTestEnv(t, store)
}

func newTestEnv(t *testing.T, store *storage.Store) *testEnv {
	t.Helper()
	logger := log.New(io.Discard)
	hub := session.NewManager(logger)
	coord := game.NewCoordinator(game.NewRegistry(), hub, rand.New(rand.NewPCG(3, 5)), logger)
	srv := New(coord, hub, store, logger, Options{})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, srv: srv, coord: coord, hub: hub, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
}

// dial opens a websocket and reads the welcome message. The caller is
// responsible for closing the connection.
func dial(t *testing.T, ts *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	msg := readUntil(t, ctx, conn, EventWelcome)
	welcome := decodePayload[welcomePayload](t, msg)
	if welcome.Identity == "" {
		t.Fatal("expected identity in welcome")
	}
	return conn, welcome.Identity
}

// sendWS marshals and sends a typed WebSocket message.
func sendWS(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg, err := session.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// readWS reads and unmarshals a single WebSocket message.
func readWS(ctx context.Context, conn *websocket.Conn) (session.Message, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return session.Message{}, err
	}
	var msg session.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return session.Message{}, err
	}
	return msg, nil
}

// readUntil discards messages until one of the given type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) session.Message {
	t.Helper()
	for {
		msg, err := readWS(ctx, conn)
		if err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
}

// readError waits for an "error" message and returns its text.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	return decodePayload[errorPayload](t, readUntil(t, ctx, conn, game.EventError)).Message
}

func decodePayload[T any](t *testing.T, msg session.Message) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		t.Fatalf("unmarshal %s payload: %v", msg.Type, err)
	}
	return v
}

// joinRoom sends join-room and waits for the joiner's roster update.
func joinRoom(t *testing.T, ctx context.Context, conn *websocket.Conn, roomID, name string) []game.RosterEntry {
	t.Helper()
	sendWS(t, ctx, conn, EventJoinRoom, joinRoomRequest{RoomID: roomID, Name: name})
	return decodePayload[[]game.RosterEntry](t, readUntil(t, ctx, conn, game.EventPlayerUpdate))
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
