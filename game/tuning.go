package game

import "time"

const (
	// World configuration
	WorldWidth  = 4000.0
	WorldHeight = 4000.0
	SpawnMargin = 200.0

	// Food configuration
	DefaultFoodTarget = 150
	MinFoodSize       = 5.0
	MaxFoodSize       = 13.0

	// Player identity
	MaxNameLen   = 15
	DefaultName  = "Anonymous"
	DefaultColor = "#FF6B6B"
)

// FoodColors is the palette food colours are drawn from.
var FoodColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#F8C471", "#85C1E9",
}

// Tuning holds the physics constants for one run mode.
// Server and local modes use different presets; each must be self-consistent.
type Tuning struct {
	Speed     float64 // units per reference frame
	SpawnSize float64

	HeadBaseSize float64
	HeadMinSize  float64
	HeadShrink   float64 // head size lost per body segment

	BodyBaseSize float64
	BodyMinSize  float64
	BodyTaper    float64 // size lost per segment index

	MinLength     int
	BaseLength    int
	GrowthDivisor int

	SegmentSpacing float64
	FollowRate     float64

	MaxStep        time.Duration
	ReferenceFrame time.Duration

	BoundaryMargin     float64
	CollisionTolerance float64
	SelfSkip           int
}

// ServerTuning is used by the networked fixed-tick simulation.
var ServerTuning = Tuning{
	Speed:              2.0,
	SpawnSize:          15,
	HeadBaseSize:       15,
	HeadMinSize:        10,
	HeadShrink:         0.1,
	BodyBaseSize:       18,
	BodyMinSize:        10,
	BodyTaper:          0.3,
	MinLength:          3,
	BaseLength:         3,
	GrowthDivisor:      5,
	SegmentSpacing:     25,
	FollowRate:         0.1,
	MaxStep:            50 * time.Millisecond,
	ReferenceFrame:     16 * time.Millisecond,
	BoundaryMargin:     30,
	CollisionTolerance: 8,
	SelfSkip:           8,
}

// LocalTuning is used by the offline frame-driven simulation.
var LocalTuning = Tuning{
	Speed:              2.5,
	SpawnSize:          18,
	HeadBaseSize:       18,
	HeadMinSize:        12,
	HeadShrink:         0.05,
	BodyBaseSize:       18,
	BodyMinSize:        10,
	BodyTaper:          0.3,
	MinLength:          4,
	BaseLength:         4,
	GrowthDivisor:      3,
	SegmentSpacing:     25,
	FollowRate:         0.1,
	MaxStep:            50 * time.Millisecond,
	ReferenceFrame:     16 * time.Millisecond,
	BoundaryMargin:     30,
	CollisionTolerance: 8,
	SelfSkip:           8,
}

// MinSize is the floor no segment size may fall below.
func (t Tuning) MinSize() float64 {
	if t.HeadMinSize < t.BodyMinSize {
		return t.HeadMinSize
	}
	return t.BodyMinSize
}

// TargetLength is the body length a snake with the given score converges to.
func (t Tuning) TargetLength(score int) int {
	n := score/t.GrowthDivisor + t.BaseLength
	if n < t.MinLength {
		return t.MinLength
	}
	return n
}

// HeadSize is the size of a new head for a body of the given length.
func (t Tuning) HeadSize(bodyLen int) float64 {
	s := t.HeadBaseSize - float64(bodyLen)*t.HeadShrink
	if s < t.HeadMinSize {
		return t.HeadMinSize
	}
	return s
}

// SegmentSize is the size of the body segment at index i.
func (t Tuning) SegmentSize(i int) float64 {
	s := t.BodyBaseSize - float64(i)*t.BodyTaper
	if s < t.BodyMinSize {
		return t.BodyMinSize
	}
	return s
}
