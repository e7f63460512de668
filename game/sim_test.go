package game

import (
	"math/rand"
	"testing"
	"time"
)

func newTestSim(t Tuning, food int) *Sim {
	return NewSim(t, WorldWidth, WorldHeight, food, rand.New(rand.NewSource(42)))
}

func place(sim *Sim, x, y float64, dir Vec2, now time.Time) *Snake {
	sn := NewSnake("p", "", Vec2{X: x, Y: y}, sim.Tuning, now)
	sn.Direction = dir
	sim.Snakes[sn.ID] = sn
	return sn
}

func TestNewSimFillsFoodPool(t *testing.T) {
	sim := newTestSim(ServerTuning, DefaultFoodTarget)
	if got := len(sim.Arena.Food); got != DefaultFoodTarget {
		t.Fatalf("food = %d, want %d", got, DefaultFoodTarget)
	}
	for _, f := range sim.Arena.Food {
		if f.Size < MinFoodSize || f.Size >= MaxFoodSize {
			t.Fatalf("food size %f outside [%f, %f)", f.Size, MinFoodSize, MaxFoodSize)
		}
		if f.Value != FoodValue(f.Size) {
			t.Fatalf("food value %d does not match size %f", f.Value, f.Size)
		}
		if !sim.Arena.Bounds.Contains(f.Pos()) {
			t.Fatalf("food outside the world: %+v", f)
		}
	}
}

func TestStepEatsAndReplenishesFood(t *testing.T) {
	sim := newTestSim(LocalTuning, 20)
	now := time.Unix(0, 0)
	for id := range sim.Arena.Food {
		delete(sim.Arena.Food, id)
	}
	sim.Arena.Food[999] = &Food{ID: 999, X: 100, Y: 100, Size: 8, Value: 8}
	sim.Arena.Replenish()
	// Keep the random pellets away from the test snake.
	for id, f := range sim.Arena.Food {
		if id != 999 && Distance(f.Pos(), Vec2{X: 100, Y: 100}) < 60 {
			f.X, f.Y = 3000, 3000
		}
	}

	sn := place(sim, 105, 100, Vec2{X: 1}, now)
	now = now.Add(time.Millisecond)
	res := sim.Step(now)

	if sn.Score != 8 {
		t.Fatalf("score = %d, want 8", sn.Score)
	}
	if res.FoodEaten != 1 || res.Spawned != 1 {
		t.Fatalf("eaten/spawned = %d/%d, want 1/1", res.FoodEaten, res.Spawned)
	}
	if _, ok := sim.Arena.Food[999]; ok {
		t.Fatalf("eaten pellet still present")
	}
	if got := len(sim.Arena.Food); got != 20 {
		t.Fatalf("food after step = %d, want 20", got)
	}
}

func TestStepHeadOnCollisionKillsBoth(t *testing.T) {
	sim := newTestSim(ServerTuning, 0)
	now := time.Unix(0, 0)
	a := place(sim, 1000, 1000, Vec2{X: 1}, now)
	b := place(sim, 1020, 1000, Vec2{X: -1}, now)

	now = now.Add(16 * time.Millisecond)
	res := sim.Step(now)

	if a.Alive || b.Alive {
		t.Fatalf("alive after head-on: a=%v b=%v", a.Alive, b.Alive)
	}
	if len(res.Died) != 2 {
		t.Fatalf("died = %d, want 2", len(res.Died))
	}
	if !a.DiedAt.Equal(now) || !b.DiedAt.Equal(now) {
		t.Fatalf("death times not recorded")
	}
}

func TestStepBoundaryDeathIsReported(t *testing.T) {
	sim := newTestSim(ServerTuning, 0)
	now := time.Unix(0, 0)
	sn := place(sim, 3969, 2000, Vec2{X: 1}, now)

	now = now.Add(16 * time.Millisecond)
	res := sim.Step(now)
	if sn.Alive || len(res.Died) != 1 || res.Died[0] != sn {
		t.Fatalf("boundary death not reported: alive=%v died=%d", sn.Alive, len(res.Died))
	}
}

func TestStepKeepsInvariantsOverManyTicks(t *testing.T) {
	sim := newTestSim(ServerTuning, DefaultFoodTarget)
	now := time.Unix(0, 0)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 8; i++ {
		sim.Spawn("bot", "", NewBotPolicy(rand.New(rand.NewSource(int64(i)))), now)
	}
	scores := map[string]int{}

	for tick := 0; tick < 600; tick++ {
		now = now.Add(time.Duration(10+rng.Intn(20)) * time.Millisecond)
		sim.Step(now)

		if got := len(sim.Arena.Food); got != DefaultFoodTarget {
			t.Fatalf("tick %d: food = %d, want %d", tick, got, DefaultFoodTarget)
		}
		for id, sn := range sim.Snakes {
			if sn.Score < scores[id] {
				t.Fatalf("tick %d: score decreased for %s", tick, id)
			}
			scores[id] = sn.Score
			if !sn.Alive {
				continue
			}
			if sn.Length() < 1 {
				t.Fatalf("tick %d: live snake with empty body", tick)
			}
			for _, seg := range sn.Body {
				if seg.Size < sim.Tuning.MinSize() {
					t.Fatalf("tick %d: segment size %f below floor", tick, seg.Size)
				}
			}
		}
	}
}

func TestReapHonoursGraceWindow(t *testing.T) {
	sim := newTestSim(ServerTuning, 0)
	now := time.Unix(0, 0)
	dead := place(sim, 500, 500, Vec2{}, now)
	live := place(sim, 1500, 1500, Vec2{}, now)
	dead.Kill(now)

	if got := sim.Reap(now.Add(4*time.Second), 5*time.Second); len(got) != 0 {
		t.Fatalf("reaped %v before the grace window ended", got)
	}
	got := sim.Reap(now.Add(5*time.Second), 5*time.Second)
	if len(got) != 1 || got[0] != dead.ID {
		t.Fatalf("reaped %v, want [%s]", got, dead.ID)
	}
	if sim.Get(live.ID) == nil {
		t.Fatalf("live snake reaped")
	}
}

func TestStandingsOrderAndLimit(t *testing.T) {
	sim := newTestSim(ServerTuning, 0)
	now := time.Unix(0, 0)
	for i := 0; i < 12; i++ {
		sn := place(sim, 300+float64(i)*100, 500, Vec2{}, now)
		sn.Score = i * 10
	}
	deadTop := place(sim, 300, 3000, Vec2{}, now)
	deadTop.Score = 10000
	deadTop.Kill(now)

	board := sim.Standings(10)
	if len(board) != 10 {
		t.Fatalf("standings = %d, want 10", len(board))
	}
	if board[0].Score != 110 {
		t.Fatalf("top score = %d, want 110", board[0].Score)
	}
	for i := 1; i < len(board); i++ {
		if board[i].Score > board[i-1].Score {
			t.Fatalf("standings out of order at %d", i)
		}
	}
	for _, row := range board {
		if row.ID == deadTop.ID {
			t.Fatalf("dead snake on the leaderboard")
		}
	}
}

func TestSteerIgnoresUnknownAndDead(t *testing.T) {
	sim := newTestSim(ServerTuning, 0)
	now := time.Unix(0, 0)
	sn := place(sim, 500, 500, Vec2{}, now)

	if sim.Steer("nope", Vec2{X: 1}) {
		t.Fatalf("steered an unknown snake")
	}
	if !sim.Steer(sn.ID, Vec2{X: 3, Y: 4}) {
		t.Fatalf("steer rejected a valid vector")
	}
	if sn.Direction != (Vec2{X: 0.6, Y: 0.8}) {
		t.Fatalf("direction = %+v, want normalised (0.6, 0.8)", sn.Direction)
	}
	if sim.Steer(sn.ID, Vec2{}) {
		t.Fatalf("zero vector accepted")
	}
	if sn.Direction != (Vec2{X: 0.6, Y: 0.8}) {
		t.Fatalf("zero vector changed direction to %+v", sn.Direction)
	}
	sn.Kill(now)
	if sim.Steer(sn.ID, Vec2{X: 1}) {
		t.Fatalf("steered a dead snake")
	}
}
