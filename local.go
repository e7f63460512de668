package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"snakez/server/game"
)

const (
	// World units covered by one terminal cell. Cells are about twice as tall as wide.
	cellWidth  = 10.0
	cellHeight = 20.0

	frameInterval = 16 * time.Millisecond
	boardWidth    = 24
	playerName    = "You"
)

// LocalGame is a single-player session against bots, stepped in-process.
type LocalGame struct {
	sim     *game.Sim
	cfg     Config
	rng     *rand.Rand
	pointer *game.PointerPolicy
	player  *game.Snake
	over    bool
	result  GameOverPayload
}

// NewLocalGame creates a local game with the player and cfg.BotCount bots.
func NewLocalGame(cfg Config, rng *rand.Rand, now time.Time) *LocalGame {
	cfg.normalize()
	g := &LocalGame{cfg: cfg, rng: rng}
	g.Restart(now)
	return g
}

// Restart throws away the current round and starts a fresh one.
func (g *LocalGame) Restart(now time.Time) {
	g.sim = game.NewSim(game.LocalTuning, g.cfg.WorldWidth, g.cfg.WorldHeight, g.cfg.FoodTarget, g.rng)
	g.pointer = &game.PointerPolicy{}
	g.player = g.sim.Spawn(playerName, game.DefaultColor, g.pointer, now)
	g.over = false
	g.result = GameOverPayload{}

	for i := 0; i < g.cfg.BotCount; i++ {
		hue := float64(i) * 360 / float64(g.cfg.BotCount)
		color := colorful.Hsv(hue, 0.7, 0.95).Hex()
		g.sim.Spawn(fmt.Sprintf("Bot%d", i+1), color, game.NewBotPolicy(g.rng), now)
	}
}

// Step advances the round to now. It reports whether the player died during this step.
func (g *LocalGame) Step(now time.Time) bool {
	res := g.sim.Step(now)
	died := false
	for _, sn := range res.Died {
		if sn == g.player {
			g.over = true
			g.result = GameOverPayload{Score: sn.Score, Length: sn.Length()}
			died = true
		}
	}
	g.sim.Reap(now, g.cfg.GraceWindow())
	return died
}

// Over reports whether the player is dead.
func (g *LocalGame) Over() bool { return g.over }

// Player returns the player's snake. It stays valid after the snake is reaped.
func (g *LocalGame) Player() *game.Snake { return g.player }

// RunLocal drives g on screen until the player quits or ctx is cancelled.
func RunLocal(ctx context.Context, screen tcell.Screen, g *LocalGame, logger *slog.Logger) error {
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	logger.Info("local game started", "bots", g.cfg.BotCount)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || handleEvent(screen, g, ev, time.Now()) {
				logger.Info("local game finished", "score", g.player.Score)
				return nil
			}
		case now := <-ticker.C:
			if g.Step(now) {
				logger.Info("player died", "score", g.result.Score, "length", g.result.Length)
			}
			drawLocal(screen, g)
			screen.Show()
		}
	}
}

// handleEvent applies one terminal event. It returns true when the player quits.
func handleEvent(screen tcell.Screen, g *LocalGame, ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		screen.Sync()
	case *tcell.EventMouse:
		w, h := screen.Size()
		x, y := ev.Position()
		g.pointer.Aim(cellToWorld(g.camera(), w, h, x, y))
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyEnter:
			if g.over {
				g.Restart(now)
			}
		case tcell.KeyUp:
			g.pointer.Push(game.Vec2{Y: -1})
		case tcell.KeyDown:
			g.pointer.Push(game.Vec2{Y: 1})
		case tcell.KeyLeft:
			g.pointer.Push(game.Vec2{X: -1})
		case tcell.KeyRight:
			g.pointer.Push(game.Vec2{X: 1})
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return true
			case 'w', 'W':
				g.pointer.Push(game.Vec2{Y: -1})
			case 's', 'S':
				g.pointer.Push(game.Vec2{Y: 1})
			case 'a', 'A':
				g.pointer.Push(game.Vec2{X: -1})
			case 'd', 'D':
				g.pointer.Push(game.Vec2{X: 1})
			}
		}
	}
	return false
}

// camera is the world point shown at the centre of the screen.
func (g *LocalGame) camera() game.Vec2 {
	if len(g.player.Body) == 0 {
		return game.Vec2{X: g.cfg.WorldWidth / 2, Y: g.cfg.WorldHeight / 2}
	}
	return g.player.Head().Pos()
}

func cellToWorld(cam game.Vec2, w, h, x, y int) game.Vec2 {
	return game.Vec2{
		X: cam.X + float64(x-w/2)*cellWidth,
		Y: cam.Y + float64(y-h/2)*cellHeight,
	}
}

func worldToCell(cam game.Vec2, w, h int, p game.Vec2) (int, int, bool) {
	dx := (p.X - cam.X) / cellWidth
	dy := (p.Y - cam.Y) / cellHeight
	x := w/2 + int(math.Round(dx))
	y := h/2 + int(math.Round(dy))
	return x, y, x >= 0 && y >= 0 && x < w && y < h
}

func drawLocal(screen tcell.Screen, g *LocalGame) {
	screen.Clear()
	w, h := screen.Size()
	cam := g.camera()

	drawBounds(screen, cam, w, h, g.sim.Arena.Bounds)

	for _, f := range g.sim.Arena.Food {
		if x, y, ok := worldToCell(cam, w, h, f.Pos()); ok {
			screen.SetContent(x, y, '·', nil, tcell.StyleDefault.Foreground(tcell.GetColor(f.Color)))
		}
	}

	for _, sn := range g.sim.Snakes {
		style := tcell.StyleDefault.Foreground(tcell.GetColor(sn.Color))
		if !sn.Alive {
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
		// Tail first so the head is drawn on top.
		for i := len(sn.Body) - 1; i >= 0; i-- {
			x, y, ok := worldToCell(cam, w, h, sn.Body[i].Pos())
			if !ok {
				continue
			}
			r := 'o'
			if i == 0 {
				r = '@'
			}
			screen.SetContent(x, y, r, nil, style)
		}
	}

	hud := fmt.Sprintf(" Score %d  Length %d  Players %d ", g.player.Score, g.player.Length(), g.sim.LiveCount())
	putText(screen, 0, 0, hud, tcell.StyleDefault.Reverse(true))
	drawLeaderboard(screen, w, g.sim.Standings(g.cfg.LeaderboardSize), g.player.ID)

	if g.over {
		drawGameOver(screen, w, h, g.result)
	}
}

func drawBounds(screen tcell.Screen, cam game.Vec2, w, h int, bounds game.Rect) {
	style := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := cellToWorld(cam, w, h, x, y)
			if !bounds.Contains(p) {
				screen.SetContent(x, y, '░', nil, style)
			}
		}
	}
}

func drawLeaderboard(screen tcell.Screen, w int, rows []game.Standing, playerID string) {
	x := w - boardWidth
	if x < 0 {
		return
	}
	title := tcell.StyleDefault.Bold(true)
	putText(screen, x, 0, runewidth.FillRight(" Leaderboard", boardWidth), title)
	for i, r := range rows {
		score := fmt.Sprintf("%d", r.Score)
		nameWidth := boardWidth - 4 - runewidth.StringWidth(score) - 1
		name := runewidth.FillRight(runewidth.Truncate(r.Name, nameWidth, "…"), nameWidth)
		line := fmt.Sprintf("%2d. %s %s", i+1, name, score)
		style := tcell.StyleDefault
		if r.ID == playerID {
			style = style.Foreground(tcell.GetColor(game.DefaultColor))
		}
		putText(screen, x, i+1, line, style)
	}
}

func drawGameOver(screen tcell.Screen, w, h int, res GameOverPayload) {
	lines := []string{
		"GAME OVER",
		fmt.Sprintf("Score %d   Length %d", res.Score, res.Length),
		"Enter to play again, q to quit",
	}
	style := tcell.StyleDefault.Bold(true)
	top := h/2 - len(lines)/2
	for i, line := range lines {
		x := (w - runewidth.StringWidth(line)) / 2
		putText(screen, x, top+i, line, style)
	}
}

// putText writes s at (x, y), advancing by each rune's display width and
// stopping at the right edge.
func putText(screen tcell.Screen, x, y int, s string, st tcell.Style) {
	sw, _ := screen.Size()
	for _, r := range s {
		if x >= sw {
			break
		}
		screen.SetContent(x, y, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
}
