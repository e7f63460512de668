package game

import "math/rand"

// Arena owns the world bounds and the food pool.
type Arena struct {
	Bounds     Rect
	Food       map[uint64]*Food
	FoodTarget int
	rng        *rand.Rand
	nextFoodID uint64
}

// NewArena creates an arena of the given size and fills the food pool to target.
func NewArena(width, height float64, foodTarget int, rng *rand.Rand) *Arena {
	a := &Arena{
		Bounds:     Rect{Width: width, Height: height},
		Food:       make(map[uint64]*Food, foodTarget),
		FoodTarget: foodTarget,
		rng:        rng,
		nextFoodID: 1,
	}
	a.Replenish()
	return a
}

// Replenish spawns food until the pool holds FoodTarget pellets. It never removes food.
// It returns the number of pellets added.
func (a *Arena) Replenish() int {
	added := 0
	for len(a.Food) < a.FoodTarget {
		f := NewFood(a.nextFoodID, a.rng, a.Bounds)
		a.Food[f.ID] = f
		a.nextFoodID++
		added++
	}
	return added
}

// SpawnPosition returns a uniformly random point inset by SpawnMargin from every edge.
func (a *Arena) SpawnPosition() Vec2 {
	inner := a.Bounds.Inset(SpawnMargin)
	if inner.Width <= 0 || inner.Height <= 0 {
		return Vec2{X: a.Bounds.X + a.Bounds.Width/2, Y: a.Bounds.Y + a.Bounds.Height/2}
	}
	return Vec2{
		X: inner.X + a.rng.Float64()*inner.Width,
		Y: inner.Y + a.rng.Float64()*inner.Height,
	}
}

// Index builds a quadtree over the current food pool.
func (a *Arena) Index() *Quadtree {
	qt := NewQuadtree(a.Bounds, 8)
	for _, f := range a.Food {
		qt.Insert(f)
	}
	return qt
}
