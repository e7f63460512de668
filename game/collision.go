package game

import "math"

// Overlaps reports whether two circles interpenetrate by more than tolerance.
// It is symmetric in a and b.
func Overlaps(a, b Segment, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) < a.Size+b.Size-tolerance
}

// EatFood removes every pellet overlapping the head of s and credits its value.
// index may be nil, in which case every pellet is tested. It returns the number eaten.
func EatFood(s *Snake, pool map[uint64]*Food, index *Quadtree) int {
	if !s.Alive || len(s.Body) == 0 {
		return 0
	}
	head := s.Head()

	var candidates []*Food
	if index != nil {
		for _, item := range index.QueryCircle(head.Pos(), head.Size, nil) {
			if f, ok := item.(*Food); ok {
				candidates = append(candidates, f)
			}
		}
	} else {
		candidates = make([]*Food, 0, len(pool))
		for _, f := range pool {
			candidates = append(candidates, f)
		}
	}

	eaten := 0
	for _, f := range candidates {
		// The index is built once per tick; skip pellets another snake already took.
		if _, ok := pool[f.ID]; !ok {
			continue
		}
		if Overlaps(head, Segment{X: f.X, Y: f.Y, Size: f.Size}, 0) {
			s.Score += f.Value
			delete(pool, f.ID)
			eaten++
		}
	}
	return eaten
}

// HitsOther reports whether the head of s overlaps any segment of another live snake.
func HitsOther(s *Snake, others []*Snake, tolerance float64) bool {
	head := s.Head()
	for _, o := range others {
		if o == s || o.ID == s.ID || !o.Alive {
			continue
		}
		for _, seg := range o.Body {
			if Overlaps(head, seg, tolerance) {
				return true
			}
		}
	}
	return false
}

// HitsSelf reports whether the head of s overlaps its own body past the first skip segments.
func HitsSelf(s *Snake, skip int, tolerance float64) bool {
	head := s.Head()
	for i := skip; i < len(s.Body); i++ {
		if Overlaps(head, s.Body[i], tolerance) {
			return true
		}
	}
	return false
}
