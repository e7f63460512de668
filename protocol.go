package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"snakez/server/game"
)

// Client -> server message types
const (
	MsgJoin      = "join"
	MsgDirection = "direction"
	MsgPing      = "ping"
)

// Server -> client message types
const (
	MsgWelcome      = "welcome"
	MsgGameState    = "gameState"
	MsgLeaderboard  = "leaderboard"
	MsgGameOver     = "gameOver"
	MsgPlayerJoined = "playerJoined"
	MsgPlayerLeft   = "playerLeft"
	MsgPong         = "pong"
)

// ErrUnknownMessage is returned when a client sends a message type the server does not handle.
var ErrUnknownMessage = errors.New("unknown message type")

// ClientMessage represents incoming messages from clients
type ClientMessage struct {
	Type  string  `json:"type" msgpack:"type"`
	Name  string  `json:"name,omitempty" msgpack:"name,omitempty"`
	Color string  `json:"color,omitempty" msgpack:"color,omitempty"`
	X     float64 `json:"x,omitempty" msgpack:"x,omitempty"`
	Y     float64 `json:"y,omitempty" msgpack:"y,omitempty"`
}

// ServerMessage represents outgoing messages to clients
type ServerMessage struct {
	Type    string `json:"type" msgpack:"type"`
	Payload any    `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// WelcomePayload is sent after a player joins
type WelcomePayload struct {
	ID          string  `json:"id" msgpack:"id"`
	WorldWidth  float64 `json:"worldWidth" msgpack:"worldWidth"`
	WorldHeight float64 `json:"worldHeight" msgpack:"worldHeight"`
	TickRate    int     `json:"tickRate" msgpack:"tickRate"`
}

// GameStatePayload is the authoritative snapshot sent every tick
type GameStatePayload struct {
	Players  map[string]PlayerView `json:"players" msgpack:"players"`
	Food     []FoodView            `json:"food" msgpack:"food"`
	PlayerID string                `json:"playerId" msgpack:"playerId"`
}

// PlayerView is the public state of one snake
type PlayerView struct {
	ID    string         `json:"id" msgpack:"id"`
	Name  string         `json:"name" msgpack:"name"`
	Color string         `json:"color" msgpack:"color"`
	Body  []game.Segment `json:"body" msgpack:"body"`
	Score int            `json:"score" msgpack:"score"`
	Alive bool           `json:"alive" msgpack:"alive"`
}

// FoodView is the public state of one pellet
type FoodView struct {
	ID    uint64  `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Size  float64 `json:"size" msgpack:"size"`
	Color string  `json:"color" msgpack:"color"`
	Value int     `json:"value" msgpack:"value"`
}

// LeaderboardEntry represents a leaderboard entry
type LeaderboardEntry struct {
	ID     string `json:"id" msgpack:"id"`
	Name   string `json:"name" msgpack:"name"`
	Score  int    `json:"score" msgpack:"score"`
	Length int    `json:"length" msgpack:"length"`
}

// GameOverPayload is sent to the owner of a snake when it dies
type GameOverPayload struct {
	Score  int `json:"score" msgpack:"score"`
	Length int `json:"length" msgpack:"length"`
}

// PlayerJoinedPayload announces a new player to everyone else
type PlayerJoinedPayload struct {
	ID    string `json:"id" msgpack:"id"`
	Name  string `json:"name" msgpack:"name"`
	Color string `json:"color" msgpack:"color"`
}

// PlayerLeftPayload announces a departure to everyone else
type PlayerLeftPayload struct {
	ID string `json:"id" msgpack:"id"`
}

// Codec turns messages into websocket frames and back.
type Codec interface {
	Name() string
	FrameType() int
	Encode(msg ServerMessage) ([]byte, error)
	Decode(data []byte) (ClientMessage, error)
}

type jsonCodec struct{}

func (jsonCodec) Name() string   { return "json" }
func (jsonCodec) FrameType() int { return websocket.TextMessage }

func (jsonCodec) Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if len(data) == 0 {
		return msg, fmt.Errorf("decode json: empty frame")
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode json: %w", err)
	}
	return msg, nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return "msgpack" }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(msg ServerMessage) ([]byte, error) {
	return msgpack.Marshal(&msg)
}

func (msgpackCodec) Decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if len(data) == 0 {
		return msg, fmt.Errorf("decode msgpack: empty frame")
	}
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode msgpack: %w", err)
	}
	return msg, nil
}

// JSONCodec and MsgpackCodec are the supported wire formats.
var (
	JSONCodec    Codec = jsonCodec{}
	MsgpackCodec Codec = msgpackCodec{}
)

// CodecByName returns the codec for a query parameter value, defaulting to JSON.
func CodecByName(name string) Codec {
	if name == MsgpackCodec.Name() {
		return MsgpackCodec
	}
	return JSONCodec
}

func newPlayerView(sn *game.Snake) PlayerView {
	body := make([]game.Segment, len(sn.Body))
	copy(body, sn.Body)
	return PlayerView{
		ID:    sn.ID,
		Name:  sn.Name,
		Color: sn.Color,
		Body:  body,
		Score: sn.Score,
		Alive: sn.Alive,
	}
}

func newFoodView(f *game.Food) FoodView {
	return FoodView{ID: f.ID, X: f.X, Y: f.Y, Size: f.Size, Color: f.Color, Value: f.Value}
}

func newLeaderboard(rows []game.Standing) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, LeaderboardEntry{ID: r.ID, Name: r.Name, Score: r.Score, Length: r.Length})
	}
	return out
}
