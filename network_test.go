package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startServer(t *testing.T) (*World, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := DefaultConfig()
	cfg.FoodTarget = 5
	world := NewWorld(cfg, testLogger())
	go world.Run(ctx)

	srv := httptest.NewServer(NewRouter(world, testLogger()))
	t.Cleanup(srv.Close)
	return world, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads JSON frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if kind != websocket.TextMessage {
			t.Fatalf("json session got frame kind %d", kind)
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		if f.Type == typ {
			return f
		}
	}
}

func TestWebSocketJoinFlow(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv, "")

	if err := conn.WriteJSON(ClientMessage{Type: MsgJoin, Name: "alice", Color: "#123456"}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	welcome := decodePayload[WelcomePayload](t, readUntil(t, conn, MsgWelcome))
	if welcome.ID == "" || welcome.WorldHeight != DefaultConfig().WorldHeight {
		t.Fatalf("welcome = %+v", welcome)
	}

	state := decodePayload[GameStatePayload](t, readUntil(t, conn, MsgGameState))
	if state.PlayerID != welcome.ID {
		t.Fatalf("state addressed to %q, want %q", state.PlayerID, welcome.ID)
	}
	if p := state.Players[welcome.ID]; p.Name != "alice" || !p.Alive {
		t.Fatalf("own player view = %+v", p)
	}

	if err := conn.WriteJSON(ClientMessage{Type: MsgPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	readUntil(t, conn, MsgPong)
}

func TestWebSocketLeaveOnDisconnect(t *testing.T) {
	_, srv := startServer(t)
	watcher := dial(t, srv, "")
	if err := watcher.WriteJSON(ClientMessage{Type: MsgJoin, Name: "watcher"}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	readUntil(t, watcher, MsgWelcome)

	leaver := dial(t, srv, "")
	if err := leaver.WriteJSON(ClientMessage{Type: MsgJoin, Name: "leaver"}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	id := decodePayload[WelcomePayload](t, readUntil(t, leaver, MsgWelcome)).ID
	leaver.Close()

	left := decodePayload[PlayerLeftPayload](t, readUntil(t, watcher, MsgPlayerLeft))
	if left.ID != id {
		t.Fatalf("playerLeft id = %q, want %q", left.ID, id)
	}
}

func TestWebSocketMsgpackCodec(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv, "?codec=msgpack")

	join, err := msgpack.Marshal(&ClientMessage{Type: MsgJoin, Name: "bob"})
	if err != nil {
		t.Fatalf("encode join: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for welcome: %v", err)
		}
		if kind != websocket.BinaryMessage {
			t.Fatalf("msgpack session got frame kind %d", kind)
		}
		var msg struct {
			Type    string             `msgpack:"type"`
			Payload msgpack.RawMessage `msgpack:"payload"`
		}
		if err := msgpack.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if msg.Type != MsgWelcome {
			continue
		}
		var welcome WelcomePayload
		if err := msgpack.Unmarshal(msg.Payload, &welcome); err != nil {
			t.Fatalf("decode welcome: %v", err)
		}
		if welcome.ID == "" || welcome.TickRate != DefaultTickRate {
			t.Fatalf("welcome = %+v", welcome)
		}
		return
	}
}

func TestHTTPEndpoints(t *testing.T) {
	world, srv := startServer(t)
	conn := dial(t, srv, "")
	if err := conn.WriteJSON(ClientMessage{Type: MsgJoin, Name: "carol"}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	readUntil(t, conn, MsgWelcome)
	readUntil(t, conn, MsgLeaderboard)

	deadline := time.Now().Add(5 * time.Second)
	for world.Stats().Players == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	var stats Stats
	err = json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Players != 1 || stats.Sessions != 1 || stats.Food != 5 {
		t.Fatalf("stats = %+v", stats)
	}

	resp, err = http.Get(srv.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	var board []LeaderboardEntry
	err = json.NewDecoder(resp.Body).Decode(&board)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].Name != "carol" {
		t.Fatalf("leaderboard = %+v", board)
	}

	resp, err = http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get banner: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("banner status = %d", resp.StatusCode)
	}
}
