package game

// maxQuadDepth stops subdivision when many items share a point.
const maxQuadDepth = 8

// Item is anything that can be stored in the quadtree.
type Item interface {
	Pos() Vec2
	Radius() float64
}

// Radius implements Item.
func (f *Food) Radius() float64 { return f.Size }

// Quadtree is a spatial partitioning data structure for proximity queries
type Quadtree struct {
	Bounds   Rect
	Capacity int
	Items    []Item
	Divided  bool
	NW       *Quadtree
	NE       *Quadtree
	SW       *Quadtree
	SE       *Quadtree
	depth    int
}

// NewQuadtree creates a new quadtree with the given bounds and capacity
func NewQuadtree(bounds Rect, capacity int) *Quadtree {
	return newQuadtree(bounds, capacity, 0)
}

func newQuadtree(bounds Rect, capacity, depth int) *Quadtree {
	return &Quadtree{
		Bounds:   bounds,
		Capacity: capacity,
		Items:    make([]Item, 0, capacity),
		depth:    depth,
	}
}

// Insert adds an item to the quadtree. Items outside the bounds are rejected.
func (qt *Quadtree) Insert(item Item) bool {
	if !qt.Bounds.Contains(item.Pos()) {
		return false
	}

	if !qt.Divided && (len(qt.Items) < qt.Capacity || qt.depth >= maxQuadDepth) {
		qt.Items = append(qt.Items, item)
		return true
	}

	if !qt.Divided {
		qt.Subdivide()
	}
	return qt.insertChild(item)
}

func (qt *Quadtree) insertChild(item Item) bool {
	return qt.NW.Insert(item) || qt.NE.Insert(item) || qt.SW.Insert(item) || qt.SE.Insert(item)
}

// Subdivide splits the quadtree into four sub-quadrants
func (qt *Quadtree) Subdivide() {
	x := qt.Bounds.X
	y := qt.Bounds.Y
	w := qt.Bounds.Width / 2
	h := qt.Bounds.Height / 2
	d := qt.depth + 1

	qt.NW = newQuadtree(Rect{X: x, Y: y, Width: w, Height: h}, qt.Capacity, d)
	qt.NE = newQuadtree(Rect{X: x + w, Y: y, Width: w, Height: h}, qt.Capacity, d)
	qt.SW = newQuadtree(Rect{X: x, Y: y + h, Width: w, Height: h}, qt.Capacity, d)
	qt.SE = newQuadtree(Rect{X: x + w, Y: y + h, Width: w, Height: h}, qt.Capacity, d)

	qt.Divided = true

	// Each item goes to exactly one child so queries never see duplicates.
	for _, item := range qt.Items {
		qt.insertChild(item)
	}
	qt.Items = nil
}

// QueryCircle returns all items whose circle touches the circle at center.
func (qt *Quadtree) QueryCircle(center Vec2, radius float64, found []Item) []Item {
	if !CircleIntersectsRect(center, radius+maxItemReach, qt.Bounds) {
		return found
	}

	for _, item := range qt.Items {
		if Distance(center, item.Pos()) <= radius+item.Radius() {
			found = append(found, item)
		}
	}

	if qt.Divided {
		found = qt.NW.QueryCircle(center, radius, found)
		found = qt.NE.QueryCircle(center, radius, found)
		found = qt.SW.QueryCircle(center, radius, found)
		found = qt.SE.QueryCircle(center, radius, found)
	}

	return found
}

// maxItemReach widens node pruning so items centred just outside a node's
// bounds but reaching into the query circle are still found.
const maxItemReach = MaxFoodSize
