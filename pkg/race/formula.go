package race

import (
	"math"

	"formulagame/pkg/geometry"
)

// Velocity is the last move of a formula in grid squares. Forward is the
// change of y, Lateral the change of x.
type Velocity struct {
	Forward int `json:"forward"`
	Lateral int `json:"lateral"`
}

// Direction names the dominant axis of a move.
type Direction int

const (
	DirectionLateral Direction = iota
	DirectionForward
)

// Formula is one racer: its trace on the paper and the race statistics.
type Formula struct {
	Name          string
	points        []geometry.Point
	velocity      Velocity
	moves         int
	distance      float64
	wait          int
	winner        bool
	collision     geometry.Segment
	historyLength int
}

func NewFormula(name string, historyLength int) *Formula {
	f := &Formula{Name: name, historyLength: historyLength}
	f.Reset()
	return f
}

// Reset clears the trace and statistics. The start velocity is kept.
func (f *Formula) Reset() {
	f.points = nil
	f.moves = 1
	f.distance = 1
	f.wait = 0
	f.winner = false
	f.collision = geometry.Segment{}
}

// AddPoint appends p to the trace. The velocity becomes the rounded move
// from the previous point and the oldest points drop out of the history.
func (f *Formula) AddPoint(p geometry.Point) {
	if len(f.points) > 0 {
		last := f.points[len(f.points)-1]
		f.velocity = Velocity{Forward: p.IntY() - last.IntY(), Lateral: p.IntX() - last.IntX()}
	}
	f.points = append(f.points, p)
	if f.historyLength > 0 && len(f.points)-1 > f.historyLength {
		f.points = f.points[1:]
	}
}

func (f *Formula) SetHistoryLength(length int) {
	f.historyLength = length
	for length > 0 && len(f.points) > length {
		f.points = f.points[1:]
	}
}

func (f *Formula) Points() []geometry.Point {
	return append([]geometry.Point(nil), f.points...)
}

func (f *Formula) Len() int {
	return len(f.points)
}

func (f *Formula) Last() geometry.Point {
	if len(f.points) == 0 {
		return geometry.Point{}
	}
	return f.points[len(f.points)-1]
}

func (f *Formula) PreLast() geometry.Point {
	if len(f.points) < 2 {
		return f.Last()
	}
	return f.points[len(f.points)-2]
}

func (f *Formula) Velocity() Velocity {
	return f.velocity
}

// SetVelocity sets the velocity used before the formula has moved.
func (f *Formula) SetVelocity(v Velocity) {
	f.velocity = v
}

// MaxSpeed is the longer axis of the move from the last point to click.
func (f *Formula) MaxSpeed(click geometry.Point) int {
	last := f.Last()
	forward := abs(click.IntY() - last.IntY())
	lateral := abs(click.IntX() - last.IntX())
	if forward > lateral {
		return forward
	}
	return lateral
}

// MaxDirect tells which axis dominates the move to click. Ties are lateral.
func (f *Formula) MaxDirect(click geometry.Point) Direction {
	last := f.Last()
	if abs(click.IntY()-last.IntY()) > abs(click.IntX()-last.IntX()) {
		return DirectionForward
	}
	return DirectionLateral
}

func (f *Formula) Moves() int {
	return f.moves
}

func (f *Formula) MovesUp(count int) {
	f.moves += count
}

func (f *Formula) Distance() float64 {
	return f.distance
}

// LengthUp adds the length of the last move.
func (f *Formula) LengthUp() {
	if len(f.points) < 2 {
		return
	}
	f.distance += round2(gridDistance(f.PreLast(), f.Last()))
}

// LengthBetween adds the distance between two points, used when the move
// ends on the finish line instead of the clicked point.
func (f *Formula) LengthBetween(p1, p2 geometry.Point) {
	f.distance = round2(f.distance + gridDistance(p1, p2))
}

func (f *Formula) Wait() int {
	return f.wait
}

func (f *Formula) SetWait(wait int) {
	f.wait = wait
}

func (f *Formula) Win() bool {
	return f.winner
}

func (f *Formula) SetWin(win bool) {
	f.winner = win
}

// Collision is the segment the formula crashed into last.
func (f *Formula) Collision() geometry.Segment {
	return f.collision
}

func (f *Formula) SetCollision(s geometry.Segment) {
	f.collision = s
}

func gridDistance(p1, p2 geometry.Point) float64 {
	return math.Hypot(float64(p2.IntX()-p1.IntX()), float64(p2.IntY()-p1.IntY()))
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
