package game

import (
	"math"
	"math/rand"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Segment is one point of a snake body. Size doubles as the collision radius.
type Segment struct {
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	Size float64 `json:"size" msgpack:"size"`
}

// Pos returns the segment centre.
func (s Segment) Pos() Vec2 {
	return Vec2{X: s.X, Y: s.Y}
}

// Snake is a controllable body, human or bot. The steering source is not part of it.
type Snake struct {
	ID         string
	Name       string
	Color      string
	Body       []Segment
	Direction  Vec2
	Speed      float64
	Score      int
	Alive      bool
	LastUpdate time.Time
	DiedAt     time.Time
}

// NewSnake creates a live snake with a single segment at pos.
func NewSnake(name, color string, pos Vec2, t Tuning, now time.Time) *Snake {
	return &Snake{
		ID:         uuid.NewString(),
		Name:       SanitizeName(name),
		Color:      SanitizeColor(color),
		Body:       []Segment{{X: pos.X, Y: pos.Y, Size: t.SpawnSize}},
		Speed:      t.Speed,
		Alive:      true,
		LastUpdate: now,
	}
}

// Head returns the head segment. The body must not be empty.
func (s *Snake) Head() Segment {
	return s.Body[0]
}

// Length returns the number of body segments.
func (s *Snake) Length() int {
	return len(s.Body)
}

// SetDirection normalises dir and stores it. Zero-length and non-finite
// vectors are ignored and leave the current direction in place.
func (s *Snake) SetDirection(dir Vec2) bool {
	n, ok := dir.Normalize()
	if !ok {
		return false
	}
	s.Direction = n
	return true
}

// Kill marks the snake dead. Calling it on a dead snake has no effect.
func (s *Snake) Kill(now time.Time) {
	if !s.Alive {
		return
	}
	s.Alive = false
	s.DiedAt = now
}

// SanitizeName truncates to MaxNameLen runes and substitutes a default for empty names.
func SanitizeName(name string) string {
	if name == "" {
		return DefaultName
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		name = string([]rune(name)[:MaxNameLen])
	}
	return name
}

// SanitizeColor returns a normalised hex colour, or DefaultColor if c does not parse.
func SanitizeColor(c string) string {
	parsed, err := colorful.Hex(c)
	if err != nil {
		return DefaultColor
	}
	return parsed.Hex()
}

// Food is a pellet. It is immutable until eaten.
type Food struct {
	ID    uint64
	X     float64
	Y     float64
	Size  float64
	Color string
	Value int
}

// Pos returns the food centre.
func (f *Food) Pos() Vec2 {
	return Vec2{X: f.X, Y: f.Y}
}

// NewFood creates a food item at a uniformly random position inside bounds.
func NewFood(id uint64, rng *rand.Rand, bounds Rect) *Food {
	size := MinFoodSize + rng.Float64()*(MaxFoodSize-MinFoodSize)
	return &Food{
		ID:    id,
		X:     bounds.X + rng.Float64()*bounds.Width,
		Y:     bounds.Y + rng.Float64()*bounds.Height,
		Size:  size,
		Color: FoodColors[rng.Intn(len(FoodColors))],
		Value: FoodValue(size),
	}
}

// FoodValue is the score a pellet of the given size is worth.
func FoodValue(size float64) int {
	return int(math.Floor(size))
}
