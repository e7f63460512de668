package game

import (
	"math"
	"time"
)

// Advance moves s forward by elapsed time. It returns false if the step killed
// the snake at the boundary; the body is left untouched in that case.
// A zero direction, zero elapsed time or a dead snake is a no-op.
func Advance(s *Snake, elapsed time.Duration, t Tuning, bounds Rect) bool {
	if !s.Alive || s.Direction.IsZero() || len(s.Body) == 0 {
		return s.Alive
	}

	dt := elapsed
	if dt > t.MaxStep {
		dt = t.MaxStep
	}
	if dt <= 0 {
		return true
	}
	frames := float64(dt) / float64(t.ReferenceFrame)

	pos := s.Body[0].Pos().Add(s.Direction.Mul(s.Speed * frames))
	next := Segment{X: pos.X, Y: pos.Y, Size: t.HeadSize(len(s.Body))}

	if OutOfBounds(next.Pos(), bounds, t.BoundaryMargin) {
		s.Alive = false
		return false
	}

	s.Body = append(s.Body, Segment{})
	copy(s.Body[1:], s.Body)
	s.Body[0] = next

	target := t.TargetLength(s.Score)
	for len(s.Body) > target {
		s.Body = s.Body[:len(s.Body)-1]
	}

	relax(s.Body, t)
	return true
}

// relax pulls each segment toward its predecessor once, spring style.
func relax(body []Segment, t Tuning) {
	for i := 1; i < len(body); i++ {
		cur := &body[i]
		prev := body[i-1]
		dx := prev.X - cur.X
		dy := prev.Y - cur.Y
		dist := math.Hypot(dx, dy)
		if dist > t.SegmentSpacing {
			ratio := (dist - t.SegmentSpacing) / dist * t.FollowRate
			cur.X += dx * ratio
			cur.Y += dy * ratio
		}
		cur.Size = t.SegmentSize(i)
	}
}

// OutOfBounds reports whether p lies within margin of any edge of bounds.
func OutOfBounds(p Vec2, bounds Rect, margin float64) bool {
	return p.X < bounds.X+margin || p.X > bounds.X+bounds.Width-margin ||
		p.Y < bounds.Y+margin || p.Y > bounds.Y+bounds.Height-margin
}
