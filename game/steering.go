package game

import (
	"math"
	"math/rand"
	"time"
)

// Bot behaviour constants
const (
	BotFoodRadius   = 200.0
	BotDangerRadius = 100.0
	BotThinkMin     = 500 * time.Millisecond
	BotThinkJitter  = 500 * time.Millisecond
	BotWanderChance = 0.05
)

// PointerPolicy steers toward the last world point it was aimed at.
// It is fed from the same goroutine that steps the sim.
type PointerPolicy struct {
	target Vec2
	dir    Vec2
	aimed  bool
}

// Aim points the snake at a world position.
func (p *PointerPolicy) Aim(target Vec2) {
	p.target = target
	p.aimed = true
}

// Push sets a fixed heading, replacing any pointer target.
func (p *PointerPolicy) Push(dir Vec2) {
	p.dir = dir
	p.aimed = false
}

// Steer implements Steering.
func (p *PointerPolicy) Steer(self *Snake, _ *Sim, _ time.Time) Vec2 {
	if !p.aimed {
		return p.dir
	}
	return p.target.Sub(self.Head().Pos())
}

// BotPolicy is the autonomous steering used for offline opponents.
// It re-plans every 0.5 to 1 s. Food in range wins over fleeing the nearest
// longer snake, and with neither it wanders.
type BotPolicy struct {
	rng      *rand.Rand
	nextPlan time.Time
	food     *Food
	threat   *Vec2
}

// NewBotPolicy creates a bot policy drawing randomness from rng.
func NewBotPolicy(rng *rand.Rand) *BotPolicy {
	return &BotPolicy{rng: rng}
}

// Steer implements Steering.
func (b *BotPolicy) Steer(self *Snake, sim *Sim, now time.Time) Vec2 {
	head := self.Head().Pos()

	if !now.Before(b.nextPlan) {
		b.plan(self, sim)
		b.nextPlan = now.Add(BotThinkMin + time.Duration(b.rng.Int63n(int64(BotThinkJitter))))
	}

	if b.food != nil {
		if _, ok := sim.Arena.Food[b.food.ID]; ok {
			return b.food.Pos().Sub(head)
		}
		b.food = nil
	}
	if b.threat != nil {
		return head.Sub(*b.threat)
	}
	if b.rng.Float64() < BotWanderChance {
		angle := b.rng.Float64() * 2 * math.Pi
		return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
	}
	if self.Direction.IsZero() {
		// A bot that has never moved picks a heading straight away.
		angle := b.rng.Float64() * 2 * math.Pi
		return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
	}
	return Vec2{}
}

func (b *BotPolicy) plan(self *Snake, sim *Sim) {
	head := self.Head().Pos()

	b.food = nil
	best := math.Inf(1)
	for _, f := range sim.FoodNear(head, BotFoodRadius) {
		if d := Distance(head, f.Pos()); d < best && d < BotFoodRadius {
			best = d
			b.food = f
		}
	}

	b.threat = nil
	best = math.Inf(1)
	for _, o := range sim.Snakes {
		if o.ID == self.ID || !o.Alive || o.Length() <= self.Length() {
			continue
		}
		oh := o.Head().Pos()
		if d := Distance(head, oh); d < BotDangerRadius && d < best {
			best = d
			b.threat = &oh
		}
	}
}
