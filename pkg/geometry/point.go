package geometry

import (
	"fmt"
	"math"
)

// Location tags a point with its relation to the track.
type Location int

const (
	Normal Location = iota
	CollisionLeft
	CollisionRight
	Finish
	FinishLine
	// OnStart marks a start position on the start line.
	OnStart
)

var locationNames = map[Location]string{
	Normal:         "normal",
	CollisionLeft:  "leftCol",
	CollisionRight: "rightCol",
	Finish:         "finish",
	FinishLine:     "finishLine",
	OnStart:        "onStart",
}

func (l Location) String() string {
	if name, ok := locationNames[l]; ok {
		return name
	}
	return "unknown"
}

func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Location) UnmarshalText(text []byte) error {
	for loc, name := range locationNames {
		if name == string(text) {
			*l = loc
			return nil
		}
	}
	return fmt.Errorf("unknown location %q", string(text))
}

// IsCollision reports whether the tag marks a boundary hit.
func (l Location) IsCollision() bool {
	return l == CollisionLeft || l == CollisionRight
}

// Point is a grid coordinate. Coordinates are kept as floats because
// intersection points must not be rounded, but reads go through IntX/IntY.
type Point struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Location Location `json:"location"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) IntX() int {
	return round(p.X)
}

func (p Point) IntY() int {
	return round(p.Y)
}

// Rounded returns the grid cell of p, keeping its location tag.
func (p Point) Rounded() Point {
	return Point{X: float64(p.IntX()), Y: float64(p.IntY()), Location: p.Location}
}

// IsEqual compares p against the grid cell of o.
func (p Point) IsEqual(o Point) bool {
	return p.X == float64(o.IntX()) && p.Y == float64(o.IntY())
}

func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + float64(dx), Y: p.Y + float64(dy)}
}

func (p Point) WithLocation(l Location) Point {
	p.Location = l
	return p
}

func (p Point) String() string {
	return fmt.Sprintf("x = %d, y = %d", p.IntX(), p.IntY())
}

// round is half-up rounding, so -2.5 goes to -2.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Side is one side of the track (or of a directed segment).
type Side int

const (
	Left  Side = 1
	Right Side = -1
)

func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// Segment is an ordered pair of points. Side classification is relative to
// the travel from First to Last.
type Segment struct {
	First Point `json:"first"`
	Last  Point `json:"last"`
}

func NewSegment(first, last Point) Segment {
	return Segment{First: first, Last: last}
}

func (s Segment) MidPoint() Point {
	return Point{X: (s.First.X + s.Last.X) / 2, Y: (s.First.Y + s.Last.Y) / 2}
}

func (s Segment) Reverse() Segment {
	return Segment{First: s.Last, Last: s.First}
}

func (s Segment) Length() float64 {
	return Distance(s.First, s.Last)
}

func (s Segment) Points() []Point {
	return []Point{s.First, s.Last}
}
