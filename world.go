package main

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"snakez/server/game"
)

// Conn is the world's view of a connected client.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Stats is a read-only summary published after every tick.
type Stats struct {
	Tick       uint64  `json:"tick"`
	Sessions   int     `json:"sessions"`
	Players    int     `json:"players"`
	Food       int     `json:"food"`
	Overruns   uint64  `json:"overruns"`
	LastTickMs float64 `json:"lastTickMs"`
}

// Inbox commands. They are applied on the world goroutine only.
type (
	connectCmd struct {
		SessionID string
		Conn      Conn
		Codec     Codec
	}
	joinCmd struct {
		SessionID string
		Name      string
		Color     string
	}
	steerCmd struct {
		SessionID string
		Direction game.Vec2
	}
	leaveCmd struct {
		SessionID string
	}
	reloadCmd struct {
		Config Config
	}
)

type session struct {
	id       string
	conn     Conn
	codec    Codec
	playerID string
}

// World owns the authoritative simulation and every connected session.
// All state below the inbox is touched only by the goroutine running Run.
type World struct {
	inbox  chan any
	logger *slog.Logger

	cfg      Config
	sim      *game.Sim
	sessions map[string]*session
	owners   map[string]string // player id -> session id
	tick     uint64
	overruns uint64
	lastTick time.Time

	stats       atomic.Pointer[Stats]
	leaderboard atomic.Pointer[[]LeaderboardEntry]
}

// NewWorld creates a world with a full food pool.
func NewWorld(cfg Config, logger *slog.Logger) *World {
	cfg.normalize()
	w := &World{
		inbox:    make(chan any, InputQueueSize),
		logger:   logger,
		cfg:      cfg,
		sim:      game.NewSim(game.ServerTuning, cfg.WorldWidth, cfg.WorldHeight, cfg.FoodTarget, rand.New(rand.NewSource(time.Now().UnixNano()))),
		sessions: make(map[string]*session),
		owners:   make(map[string]string),
	}
	w.stats.Store(&Stats{Food: len(w.sim.Arena.Food)})
	empty := []LeaderboardEntry{}
	w.leaderboard.Store(&empty)
	return w
}

// Run drives the world at the configured tick rate until ctx is cancelled.
// A tick that overruns its interval is logged; the ticker drops the ticks it
// missed rather than queueing them, so there is no catch-up burst.
func (w *World) Run(ctx context.Context) {
	interval := w.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("world started", "tickRate", w.cfg.TickRate, "food", w.cfg.FoodTarget)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("world stopped", "ticks", w.tick)
			return
		case cmd := <-w.inbox:
			w.handle(cmd)
		case now := <-ticker.C:
			w.drainInbox()
			w.Tick(now)
			if next := w.cfg.TickInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Connect registers a session. It receives leaderboards until it leaves,
// and snapshots once it has joined with a live snake.
func (w *World) Connect(sessionID string, conn Conn, codec Codec) {
	w.inbox <- connectCmd{SessionID: sessionID, Conn: conn, Codec: codec}
}

// Join spawns a snake for the session.
func (w *World) Join(sessionID, name, color string) {
	w.inbox <- joinCmd{SessionID: sessionID, Name: name, Color: color}
}

// Steer queues a direction change. It never blocks; when the inbox is full the input is dropped.
func (w *World) Steer(sessionID string, dir game.Vec2) bool {
	select {
	case w.inbox <- steerCmd{SessionID: sessionID, Direction: dir}:
		return true
	default:
		w.logger.Warn("input queue full, dropping input", "session", sessionID)
		return false
	}
}

// Leave removes the session and its snake.
func (w *World) Leave(sessionID string) {
	w.inbox <- leaveCmd{SessionID: sessionID}
}

// Reload applies the hot-reloadable parts of cfg.
func (w *World) Reload(cfg Config) {
	w.inbox <- reloadCmd{Config: cfg}
}

// Stats returns the summary published by the last tick.
func (w *World) Stats() Stats {
	return *w.stats.Load()
}

// Leaderboard returns the leaderboard published by the last tick.
func (w *World) Leaderboard() []LeaderboardEntry {
	return *w.leaderboard.Load()
}

func (w *World) drainInbox() {
	for {
		select {
		case cmd := <-w.inbox:
			w.handle(cmd)
		default:
			return
		}
	}
}

func (w *World) handle(cmd any) {
	switch c := cmd.(type) {
	case connectCmd:
		w.sessions[c.SessionID] = &session{id: c.SessionID, conn: c.Conn, codec: c.Codec}
		w.logger.Debug("session connected", "session", c.SessionID, "codec", c.Codec.Name())
	case joinCmd:
		w.handleJoin(c)
	case steerCmd:
		if s := w.sessions[c.SessionID]; s != nil && s.playerID != "" {
			w.sim.Steer(s.playerID, c.Direction)
		}
	case leaveCmd:
		w.handleLeave(c.SessionID)
	case reloadCmd:
		w.handleReload(c.Config)
	}
}

func (w *World) handleJoin(c joinCmd) {
	s := w.sessions[c.SessionID]
	if s == nil {
		return
	}
	if sn := w.sim.Get(s.playerID); sn != nil && sn.Alive {
		// Already playing; resend the welcome.
		w.sendWelcome(s, sn)
		return
	}

	sn := w.sim.Spawn(c.Name, c.Color, nil, w.clock())
	s.playerID = sn.ID
	w.owners[sn.ID] = s.id

	w.sendWelcome(s, sn)
	w.broadcastExcept(s.id, ServerMessage{
		Type:    MsgPlayerJoined,
		Payload: PlayerJoinedPayload{ID: sn.ID, Name: sn.Name, Color: sn.Color},
	})
	w.logger.Info("player joined", "name", sn.Name, "player", sn.ID, "players", w.sim.LiveCount())
}

func (w *World) sendWelcome(s *session, sn *game.Snake) {
	w.send(s, ServerMessage{
		Type: MsgWelcome,
		Payload: WelcomePayload{
			ID:          sn.ID,
			WorldWidth:  w.sim.Arena.Bounds.Width,
			WorldHeight: w.sim.Arena.Bounds.Height,
			TickRate:    w.cfg.TickRate,
		},
	})
	w.send(s, ServerMessage{Type: MsgGameState, Payload: w.snapshot(sn.ID)})
}

func (w *World) handleLeave(sessionID string) {
	s := w.sessions[sessionID]
	if s == nil {
		return
	}
	delete(w.sessions, sessionID)
	_ = s.conn.Close()

	if s.playerID == "" {
		return
	}
	name := ""
	if sn := w.sim.Get(s.playerID); sn != nil {
		name = sn.Name
	}
	w.sim.Remove(s.playerID)
	delete(w.owners, s.playerID)
	w.broadcastExcept(sessionID, ServerMessage{
		Type:    MsgPlayerLeft,
		Payload: PlayerLeftPayload{ID: s.playerID},
	})
	w.logger.Info("player left", "name", name, "player", s.playerID, "players", w.sim.LiveCount())
}

func (w *World) handleReload(cfg Config) {
	cfg.normalize()
	w.cfg.FoodTarget = cfg.FoodTarget
	w.cfg.LeaderboardSize = cfg.LeaderboardSize
	w.cfg.GraceWindowMs = cfg.GraceWindowMs
	w.cfg.TickRate = cfg.TickRate
	w.sim.Arena.FoodTarget = cfg.FoodTarget
	// Replenish only ever adds, so a lowered target drops the surplus here.
	for id := range w.sim.Arena.Food {
		if len(w.sim.Arena.Food) <= cfg.FoodTarget {
			break
		}
		delete(w.sim.Arena.Food, id)
	}
	w.sim.Arena.Replenish()
	w.logger.Info("world settings updated",
		"food", cfg.FoodTarget, "leaderboard", cfg.LeaderboardSize,
		"graceMs", cfg.GraceWindowMs, "tickRate", cfg.TickRate)
}

// Tick runs one simulation step at now and pushes the results to every session.
func (w *World) Tick(now time.Time) {
	start := time.Now()
	interval := w.cfg.TickInterval()

	res := w.sim.Step(now)
	for _, sn := range res.Died {
		w.logger.Info("player died", "name", sn.Name, "player", sn.ID, "score", sn.Score, "length", sn.Length())
		if s := w.sessions[w.owners[sn.ID]]; s != nil {
			w.send(s, ServerMessage{
				Type:    MsgGameOver,
				Payload: GameOverPayload{Score: sn.Score, Length: sn.Length()},
			})
		}
	}
	board := newLeaderboard(w.sim.Standings(w.cfg.LeaderboardSize))
	w.broadcastState()
	w.broadcast(ServerMessage{Type: MsgLeaderboard, Payload: board})

	for _, id := range w.sim.Reap(now, w.cfg.GraceWindow()) {
		delete(w.owners, id)
	}

	w.tick++
	took := time.Since(start)
	if took > interval {
		w.overruns++
		w.logger.Warn("tick overrun", "tick", w.tick, "took", took, "interval", interval)
	}
	if !w.lastTick.IsZero() {
		if drift := now.Sub(w.lastTick) - interval; drift > interval {
			w.logger.Warn("tick drift", "tick", w.tick, "drift", drift)
		}
	}
	w.lastTick = now

	w.leaderboard.Store(&board)
	w.stats.Store(&Stats{
		Tick:       w.tick,
		Sessions:   len(w.sessions),
		Players:    w.sim.LiveCount(),
		Food:       len(w.sim.Arena.Food),
		Overruns:   w.overruns,
		LastTickMs: float64(took) / float64(time.Millisecond),
	})
}

// snapshot builds the full world view addressed to playerID.
// Dead snakes are included with Alive false until they are reaped.
func (w *World) snapshot(playerID string) GameStatePayload {
	players := make(map[string]PlayerView, len(w.sim.Snakes))
	for id, sn := range w.sim.Snakes {
		players[id] = newPlayerView(sn)
	}
	food := make([]FoodView, 0, len(w.sim.Arena.Food))
	for _, f := range w.sim.Arena.Food {
		food = append(food, newFoodView(f))
	}
	sort.Slice(food, func(i, j int) bool { return food[i].ID < food[j].ID })
	return GameStatePayload{Players: players, Food: food, PlayerID: playerID}
}

// broadcastState sends the snapshot to every session with a live snake.
func (w *World) broadcastState() {
	var base *GameStatePayload
	for _, s := range w.sessions {
		sn := w.sim.Get(s.playerID)
		if sn == nil || !sn.Alive {
			continue
		}
		if base == nil {
			snap := w.snapshot("")
			base = &snap
		}
		state := *base
		state.PlayerID = sn.ID
		w.send(s, ServerMessage{Type: MsgGameState, Payload: state})
	}
}

// broadcast sends msg to every session, encoding once per codec.
func (w *World) broadcast(msg ServerMessage) {
	w.broadcastExcept("", msg)
}

func (w *World) broadcastExcept(skip string, msg ServerMessage) {
	encoded := make(map[string][]byte, 2)
	for id, s := range w.sessions {
		if id == skip {
			continue
		}
		data, ok := encoded[s.codec.Name()]
		if !ok {
			var err error
			data, err = s.codec.Encode(msg)
			if err != nil {
				w.logger.Error("encode failed", "type", msg.Type, "codec", s.codec.Name(), "err", err)
				continue
			}
			encoded[s.codec.Name()] = data
		}
		w.deliver(s, msg.Type, data)
	}
}

func (w *World) send(s *session, msg ServerMessage) {
	data, err := s.codec.Encode(msg)
	if err != nil {
		w.logger.Error("encode failed", "type", msg.Type, "codec", s.codec.Name(), "err", err)
		return
	}
	w.deliver(s, msg.Type, data)
}

// deliver hands a frame to one session. A failing recipient only loses this frame.
func (w *World) deliver(s *session, msgType string, data []byte) {
	if err := s.conn.Send(data); err != nil {
		w.logger.Debug("dropped frame", "session", s.id, "type", msgType, "err", err)
	}
}

func (w *World) clock() time.Time {
	if !w.lastTick.IsZero() {
		return w.lastTick
	}
	return time.Now()
}
