package game

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Steering supplies a direction for a snake each step. A zero result keeps the current heading.
type Steering interface {
	Steer(self *Snake, sim *Sim, now time.Time) Vec2
}

// Standing is one leaderboard row.
type Standing struct {
	ID     string
	Name   string
	Score  int
	Length int
}

// StepResult describes what happened during one Step.
type StepResult struct {
	Died      []*Snake
	FoodEaten int
	Spawned   int
}

// Sim is one self-contained simulation: snakes, food and the rules that move them.
// It is not safe for concurrent use; callers serialise access.
type Sim struct {
	Tuning Tuning
	Arena  *Arena
	Snakes map[string]*Snake

	policies  map[string]Steering
	foodIndex *Quadtree
}

// NewSim creates a simulation with a full food pool.
func NewSim(t Tuning, width, height float64, foodTarget int, rng *rand.Rand) *Sim {
	return &Sim{
		Tuning:   t,
		Arena:    NewArena(width, height, foodTarget, rng),
		Snakes:   make(map[string]*Snake),
		policies: make(map[string]Steering),
	}
}

// Spawn adds a new live snake at a random spawn position.
// policy may be nil for snakes steered from outside through Steer.
func (s *Sim) Spawn(name, color string, policy Steering, now time.Time) *Snake {
	sn := NewSnake(name, color, s.Arena.SpawnPosition(), s.Tuning, now)
	for s.Snakes[sn.ID] != nil {
		sn.ID = uuid.NewString()
	}
	s.Snakes[sn.ID] = sn
	if policy != nil {
		s.policies[sn.ID] = policy
	}
	return sn
}

// Get returns the snake with the given id, or nil.
func (s *Sim) Get(id string) *Snake {
	return s.Snakes[id]
}

// Remove deletes a snake immediately. Unknown ids are ignored.
func (s *Sim) Remove(id string) {
	delete(s.Snakes, id)
	delete(s.policies, id)
}

// Steer sets the direction of a live snake. Unknown or dead snakes and
// unusable vectors are ignored; it reports whether the direction changed.
func (s *Sim) Steer(id string, dir Vec2) bool {
	sn := s.Snakes[id]
	if sn == nil || !sn.Alive {
		return false
	}
	return sn.SetDirection(dir)
}

// Step advances the whole simulation to now.
//
// Every live snake is moved and eats first; collisions are then evaluated against
// the post-move positions of all snakes that survived movement, and deaths are
// applied only after that pass. Two heads meeting therefore both die.
func (s *Sim) Step(now time.Time) StepResult {
	var res StepResult
	live := s.live()
	s.foodIndex = s.Arena.Index()

	for _, sn := range live {
		if p := s.policies[sn.ID]; p != nil {
			sn.SetDirection(p.Steer(sn, s, now))
		}
	}

	movers := make([]*Snake, 0, len(live))
	for _, sn := range live {
		elapsed := now.Sub(sn.LastUpdate)
		sn.LastUpdate = now
		if !Advance(sn, elapsed, s.Tuning, s.Arena.Bounds) {
			sn.DiedAt = now
			res.Died = append(res.Died, sn)
			continue
		}
		res.FoodEaten += EatFood(sn, s.Arena.Food, s.foodIndex)
		movers = append(movers, sn)
	}

	var crashed []*Snake
	for _, sn := range movers {
		if HitsOther(sn, movers, s.Tuning.CollisionTolerance) ||
			HitsSelf(sn, s.Tuning.SelfSkip, s.Tuning.CollisionTolerance) {
			crashed = append(crashed, sn)
		}
	}
	for _, sn := range crashed {
		sn.Kill(now)
		res.Died = append(res.Died, sn)
	}

	res.Spawned = s.Arena.Replenish()
	s.foodIndex = nil
	return res
}

// Reap removes snakes that have been dead for at least grace and returns their ids.
func (s *Sim) Reap(now time.Time, grace time.Duration) []string {
	var removed []string
	for id, sn := range s.Snakes {
		if !sn.Alive && now.Sub(sn.DiedAt) >= grace {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		s.Remove(id)
	}
	return removed
}

// Standings returns up to n live snakes ordered by score, highest first.
func (s *Sim) Standings(n int) []Standing {
	live := s.live()
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].Score > live[j].Score
	})
	if n >= 0 && len(live) > n {
		live = live[:n]
	}
	out := make([]Standing, 0, len(live))
	for _, sn := range live {
		out = append(out, Standing{ID: sn.ID, Name: sn.Name, Score: sn.Score, Length: sn.Length()})
	}
	return out
}

// FoodNear returns pellets within radius of p. During a Step it reuses the
// step's index; outside one it builds a fresh index.
func (s *Sim) FoodNear(p Vec2, radius float64) []*Food {
	idx := s.foodIndex
	if idx == nil {
		idx = s.Arena.Index()
	}
	var out []*Food
	for _, item := range idx.QueryCircle(p, radius, nil) {
		f, ok := item.(*Food)
		if !ok {
			continue
		}
		if _, present := s.Arena.Food[f.ID]; present {
			out = append(out, f)
		}
	}
	return out
}

// LiveCount returns the number of live snakes.
func (s *Sim) LiveCount() int {
	n := 0
	for _, sn := range s.Snakes {
		if sn.Alive {
			n++
		}
	}
	return n
}

// live returns the live snakes sorted by id so a step is independent of map order.
func (s *Sim) live() []*Snake {
	out := make([]*Snake, 0, len(s.Snakes))
	for _, sn := range s.Snakes {
		if sn.Alive {
			out = append(out, sn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
