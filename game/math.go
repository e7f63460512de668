package game

import "math"

// Vec2 represents a 2D vector
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Add adds two vectors
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub subtracts two vectors
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul multiplies a vector by a scalar
func (v Vec2) Mul(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Length returns the magnitude of the vector
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Normalize returns a unit vector in the same direction.
// ok is false for zero-length or non-finite input, in which case the zero vector is returned.
func (v Vec2) Normalize() (Vec2, bool) {
	if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
		return Vec2{}, false
	}
	length := v.Length()
	if length == 0 {
		return Vec2{}, false
	}
	return Vec2{X: v.X / length, Y: v.Y / length}, true
}

// Distance returns the distance between two points
func Distance(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Rect represents an axis-aligned bounding box
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains checks if a point is inside the rectangle
func (r Rect) Contains(point Vec2) bool {
	return point.X >= r.X && point.X <= r.X+r.Width &&
		point.Y >= r.Y && point.Y <= r.Y+r.Height
}

// Inset shrinks the rectangle by margin on every side.
func (r Rect) Inset(margin float64) Rect {
	return Rect{X: r.X + margin, Y: r.Y + margin, Width: r.Width - 2*margin, Height: r.Height - 2*margin}
}

// CircleIntersectsRect checks if a circle intersects with a rectangle
func CircleIntersectsRect(center Vec2, radius float64, rect Rect) bool {
	closestX := math.Max(rect.X, math.Min(center.X, rect.X+rect.Width))
	closestY := math.Max(rect.Y, math.Min(center.Y, rect.Y+rect.Height))

	distanceX := center.X - closestX
	distanceY := center.Y - closestY
	return distanceX*distanceX+distanceY*distanceY <= radius*radius
}
