package game

import (
	"math/rand"
	"testing"
	"time"
)

func TestBotSeeksNearbyFood(t *testing.T) {
	sim := newTestSim(LocalTuning, 0)
	now := time.Unix(0, 0)
	sim.Arena.Food[1] = &Food{ID: 1, X: 1150, Y: 1000, Size: 6, Value: 6}
	bot := place(sim, 1000, 1000, Vec2{}, now)

	policy := NewBotPolicy(rand.New(rand.NewSource(1)))
	dir := policy.Steer(bot, sim, now)
	n, ok := dir.Normalize()
	if !ok || n.X < 0.99 {
		t.Fatalf("bot direction = %+v, want toward +x food", dir)
	}
}

func TestBotFleesLongerSnake(t *testing.T) {
	sim := newTestSim(LocalTuning, 0)
	now := time.Unix(0, 0)
	bot := place(sim, 1000, 1000, Vec2{}, now)
	big := place(sim, 1000, 1060, Vec2{}, now)
	big.Body = append(big.Body, Segment{X: 1000, Y: 1085, Size: 17}, Segment{X: 1000, Y: 1110, Size: 17})

	policy := NewBotPolicy(rand.New(rand.NewSource(1)))
	dir := policy.Steer(bot, sim, now)
	n, ok := dir.Normalize()
	if !ok || n.Y > -0.99 {
		t.Fatalf("bot direction = %+v, want away from threat (-y)", dir)
	}
}

func TestBotReplansOnlyAfterThinkInterval(t *testing.T) {
	sim := newTestSim(LocalTuning, 0)
	now := time.Unix(0, 0)
	bot := place(sim, 1000, 1000, Vec2{X: 1}, now)
	policy := NewBotPolicy(rand.New(rand.NewSource(1)))
	policy.Steer(bot, sim, now)

	// Food appears right after planning; the bot only notices it on the next plan.
	sim.Arena.Food[1] = &Food{ID: 1, X: 1000, Y: 1100, Size: 6, Value: 6}
	if policy.food != nil {
		t.Fatalf("bot planned before the think interval elapsed")
	}
	policy.Steer(bot, sim, now.Add(BotThinkMin+BotThinkJitter))
	if policy.food == nil || policy.food.ID != 1 {
		t.Fatalf("bot did not pick up food after re-planning")
	}
}

func TestPointerPolicyAimsAtTarget(t *testing.T) {
	sim := newTestSim(LocalTuning, 0)
	now := time.Unix(0, 0)
	sn := place(sim, 1000, 1000, Vec2{}, now)

	var p PointerPolicy
	if dir := p.Steer(sn, sim, now); !dir.IsZero() {
		t.Fatalf("unaimed pointer returned %+v", dir)
	}
	p.Aim(Vec2{X: 1000, Y: 900})
	if dir := p.Steer(sn, sim, now); dir.Y >= 0 || dir.X != 0 {
		t.Fatalf("pointer direction = %+v, want -y", dir)
	}
	p.Push(Vec2{X: 1})
	if dir := p.Steer(sn, sim, now); dir != (Vec2{X: 1}) {
		t.Fatalf("pushed direction = %+v, want +x", dir)
	}
}

func TestQuadtreeQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	a := NewArena(WorldWidth, WorldHeight, 500, rng)
	qt := a.Index()

	for i := 0; i < 50; i++ {
		center := Vec2{X: rng.Float64() * WorldWidth, Y: rng.Float64() * WorldHeight}
		radius := 20 + rng.Float64()*300

		want := map[uint64]bool{}
		for _, f := range a.Food {
			if Distance(center, f.Pos()) <= radius+f.Size {
				want[f.ID] = true
			}
		}
		got := map[uint64]bool{}
		for _, item := range qt.QueryCircle(center, radius, nil) {
			f := item.(*Food)
			if got[f.ID] {
				t.Fatalf("duplicate result %d", f.ID)
			}
			got[f.ID] = true
		}
		if len(got) != len(want) {
			t.Fatalf("query %d: got %d items, want %d", i, len(got), len(want))
		}
		for id := range want {
			if !got[id] {
				t.Fatalf("query %d: missing food %d", i, id)
			}
		}
	}
}
