package geometry

import (
	"math"
)

// Position classifies how two segments meet.
type Position int

const (
	Outside Position = -1
	Edge    Position = 0
	Inside  Position = 1
)

func (p Position) String() string {
	switch p {
	case Inside:
		return "inside"
	case Edge:
		return "edge"
	}
	return "outside"
}

const (
	// BisectorOffset is how far from the vertex the bisector point lies.
	BisectorOffset = 10
	probeLength    = 1000
)

// Octant directions of a segment, screen coordinates (y grows down).
const (
	North = iota + 1
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Intersect reports how segment a-b meets segment c-d and where their
// lines cross. Parallel or degenerate segments are always Outside. Both
// segments are classified by their own parameter, so swapping them gives
// the same answer.
func Intersect(a, b, c, d Point) (Position, Point) {
	rx, ry := b.X-a.X, b.Y-a.Y
	sx, sy := d.X-c.X, d.Y-c.Y
	qx, qy := c.X-a.X, c.Y-a.Y

	// explicit conversions keep the products from being fused
	denom := float64(rx*sy) - float64(ry*sx)
	t := (float64(qx*sy) - float64(qy*sx)) / denom
	u := (float64(qx*ry) - float64(qy*rx)) / denom
	if denom == 0 || math.IsInf(t, 0) || math.IsNaN(t) || math.IsInf(u, 0) || math.IsNaN(u) {
		return Outside, Point{}
	}

	at := crossing(a, b, c, d, t, u)
	first := parameterPosition(t)
	second := parameterPosition(u)
	switch {
	case first == Inside && second == Inside:
		return Inside, at
	case first == Edge && second == Edge:
		return Edge, at
	case first == Edge && second == Inside, first == Inside && second == Edge:
		return Edge, at
	}
	return Outside, at
}

// crossing is the unrounded meeting point of the lines a-b and c-d. An
// endpoint is returned as is, and an axis aligned segment pins its axis.
func crossing(a, b, c, d Point, t, u float64) Point {
	switch {
	case t == 0:
		return Point{X: a.X, Y: a.Y}
	case t == 1:
		return Point{X: b.X, Y: b.Y}
	case u == 0:
		return Point{X: c.X, Y: c.Y}
	case u == 1:
		return Point{X: d.X, Y: d.Y}
	}

	at := Point{
		X: ((a.X + (b.X-a.X)*t) + (c.X + (d.X-c.X)*u)) / 2,
		Y: ((a.Y + (b.Y-a.Y)*t) + (c.Y + (d.Y-c.Y)*u)) / 2,
	}
	switch {
	case a.X == b.X:
		at.X = a.X
	case c.X == d.X:
		at.X = c.X
	}
	switch {
	case a.Y == b.Y:
		at.Y = a.Y
	case c.Y == d.Y:
		at.Y = c.Y
	}
	return at
}

// IntersectSegment is Intersect against a segment value.
func IntersectSegment(a, b Point, s Segment) (Position, Point) {
	return Intersect(a, b, s.First, s.Last)
}

// Crosses is true when a-b touches or crosses s.
func Crosses(a, b Point, s Segment) bool {
	pos, _ := IntersectSegment(a, b, s)
	return pos != Outside
}

// parameterPosition places a point on a segment by its parameter along it.
func parameterPosition(v float64) Position {
	switch {
	case v == 0 || v == 1:
		return Edge
	case v > 0 && v < 1:
		return Inside
	}
	return Outside
}

// SideOf classifies p against the directed segment. Points on the line are Right.
func SideOf(p Point, s Segment) Side {
	ux := s.Last.X - s.First.X
	uy := s.Last.Y - s.First.Y
	vx := p.X - s.First.X
	vy := p.Y - s.First.Y
	if ux*vy-uy*vx >= 0 {
		return Right
	}
	return Left
}

// Distance is the euclidean distance rounded to two decimals.
func Distance(p1, p2 Point) float64 {
	d := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	return math.Floor(d*100+0.5) / 100
}

// FindNearest returns the first point of pts closest to from.
func FindNearest(from Point, pts []Point) (int, Point, bool) {
	if len(pts) == 0 {
		return -1, Point{}, false
	}
	minIndex := 0
	for i := 1; i < len(pts); i++ {
		if Distance(from, pts[minIndex]) > Distance(from, pts[i]) {
			minIndex = i
		}
	}
	return minIndex, pts[minIndex], true
}

// AngleBisectorPoint returns the point on the bisector of the angle
// prev-mid-next, on the requested side, BisectorOffset away from mid.
// It returns false when two consecutive points coincide.
func AngleBisectorPoint(prev, mid, next Point, side Side) (Point, bool) {
	a := Distance(mid, next)
	b := Distance(prev, mid)
	c := Distance(prev, next)
	if a == 0 || b == 0 {
		return Point{}, false
	}

	var gamma float64
	if a == b {
		gamma = math.Pi / 2
	} else {
		gamma = math.Acos(clamp((c*c-a*a-b*b)/(-2*a*b), -1, 1))
	}
	if SideOf(next, NewSegment(prev, mid)) != side {
		gamma = 2*math.Pi - gamma
	}
	if side == Right {
		gamma = -gamma
	}
	return RotatePoint(prev, mid, gamma/2, BisectorOffset), true
}

// RotatePoint scales rotated towards center to the given length and turns it
// by angle around center. The result is truncated to the grid.
func RotatePoint(rotated, center Point, angle, length float64) Point {
	dist := Distance(rotated, center)
	if dist == 0 {
		return center.Rounded()
	}
	koef := length / dist
	tempX := rotated.X + (center.X-rotated.X)*(1-koef)
	tempY := rotated.Y + (center.Y-rotated.Y)*(1-koef)
	sin, cos := math.Sincos(angle)
	endX := (tempX-center.X)*cos - (tempY-center.Y)*sin
	endY := (tempX-center.X)*sin + (tempY-center.Y)*cos
	return Point{X: math.Trunc(center.X + endX), Y: math.Trunc(center.Y + endY)}
}

// QuadraticRoots solves ax^2+bx+c=0.
func QuadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		return nil
	}
	d := b*b - 4*a*c
	switch {
	case d > 0:
		sq := math.Sqrt(d)
		return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
	case d == 0:
		return []float64{-b / (2 * a)}
	}
	return nil
}

// PerpendicularRay returns a far point on the perpendicular raised from the
// last point of s, on the requested side.
func PerpendicularRay(s Segment, side Side) Point {
	start := s.Last
	ux := s.First.X - start.X
	uy := s.First.Y - start.Y
	nx, ny := -uy, ux
	if side == Left {
		nx, ny = uy, -ux
	}
	return Point{X: math.Trunc(start.X + nx*probeLength), Y: math.Trunc(start.Y + ny*probeLength)}
}

// BaseOfAltitude projects p onto the line of s.
func BaseOfAltitude(s Segment, p Point) Point {
	ux := s.Last.X - s.First.X
	uy := s.Last.Y - s.First.Y
	nx, ny := -uy, ux
	den := nx*uy - ny*ux
	if den == 0 {
		return s.First
	}
	t := (p.Y*ux - s.First.Y*ux - p.X*uy + s.First.X*uy) / den
	return Point{X: math.Trunc(p.X + t*nx), Y: math.Trunc(p.Y + t*ny)}
}

// DistFromSegment is the distance of p from the line of s.
func DistFromSegment(s Segment, p Point) float64 {
	length := math.Hypot(s.Last.X-s.First.X, s.Last.Y-s.First.Y)
	if length == 0 {
		return Distance(s.First, p)
	}
	return math.Abs((p.X-s.First.X)*(s.Last.Y-s.First.Y)-(p.Y-s.First.Y)*(s.Last.X-s.First.X)) / length
}

// Octant returns the direction of first->second, 0 when the points coincide.
func Octant(first, second Point) int {
	ux := second.X - first.X
	uy := second.Y - first.Y
	switch {
	case ux == 0 && uy < 0:
		return North
	case ux > 0 && uy < 0:
		return NorthEast
	case ux > 0 && uy == 0:
		return East
	case ux > 0 && uy > 0:
		return SouthEast
	case ux == 0 && uy > 0:
		return South
	case ux < 0 && uy > 0:
		return SouthWest
	case ux < 0 && uy == 0:
		return West
	case ux < 0 && uy < 0:
		return NorthWest
	}
	return 0
}

// Extend returns the point reached by continuing from->to by factor times its length.
func Extend(from, to Point, factor float64) Point {
	return Point{X: to.X + (to.X-from.X)*factor, Y: to.Y + (to.Y-from.Y)*factor}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
