package tracks

import (
	"fmt"

	"formulagame/pkg/geometry"
)

// Track is the race course: two boundaries, both running from the start
// line to the finish line. Build indices mark the last point of each side
// that is already matched against the opposite side.
type Track struct {
	left          []geometry.Point
	right         []geometry.Point
	parallelLeft  []geometry.Point
	parallelRight []geometry.Point
	leftIndex     int
	rightIndex    int
	maxWidth      int
	maxHeight     int
	ready         bool
}

func NewTrack() *Track {
	return &Track{}
}

// Line returns the boundary of the given side. The slice must not be modified.
func (t *Track) Line(side geometry.Side) []geometry.Point {
	if side == geometry.Left {
		return t.left
	}
	return t.right
}

func (t *Track) Left() []geometry.Point {
	return t.left
}

func (t *Track) Right() []geometry.Point {
	return t.right
}

// Parallel returns the constraint line the given side must not cross while
// it is being built.
func (t *Track) Parallel(side geometry.Side) []geometry.Point {
	if side == geometry.Left {
		return t.parallelLeft
	}
	return t.parallelRight
}

func (t *Track) SetParallel(side geometry.Side, line []geometry.Point) {
	if side == geometry.Left {
		t.parallelLeft = line
	} else {
		t.parallelRight = line
	}
}

func (t *Track) Index(side geometry.Side) int {
	if side == geometry.Left {
		return t.leftIndex
	}
	return t.rightIndex
}

func (t *Track) SetIndex(side geometry.Side, index int) {
	if side == geometry.Left {
		t.leftIndex = index
	} else {
		t.rightIndex = index
	}
}

func (t *Track) AddPoint(side geometry.Side, p geometry.Point) {
	p = p.Rounded().WithLocation(geometry.Normal)
	if side == geometry.Left {
		t.left = append(t.left, p)
	} else {
		t.right = append(t.right, p)
	}
	t.ready = (t.leftIndex == len(t.left)-1 && len(t.left) > 1 && t.rightIndex >= len(t.right)-4) ||
		(t.rightIndex == len(t.right)-1 && len(t.right) > 1 && t.leftIndex >= len(t.left)-4)
	t.checkMaximum(p)
}

// ChangePoint overwrites the point at index, used when editing a finished track.
func (t *Track) ChangePoint(side geometry.Side, index int, p geometry.Point) {
	line := t.Line(side)
	if index < 0 || index >= len(line) {
		return
	}
	line[index] = p.Rounded().WithLocation(geometry.Normal)
	t.calculateDimension()
}

func (t *Track) RemoveLastPoint(side geometry.Side) {
	line := t.Line(side)
	if len(line) == 0 {
		return
	}
	line = line[:len(line)-1]
	if side == geometry.Left {
		t.left = line
	} else {
		t.right = line
	}

	idx := t.Index(side)
	if idx > 0 && idx >= len(line) {
		idx--
		t.SetIndex(side, idx)
		opp := side.Opposite()
		if t.Index(opp) > idx {
			t.SetIndex(opp, t.Index(opp)-1)
		}
	}
	t.calculateDimension()
}

// SetLines replaces both boundaries, as when a stored track is loaded.
func (t *Track) SetLines(left, right []geometry.Point) {
	t.Reset()
	for _, p := range left {
		t.left = append(t.left, p.Rounded().WithLocation(geometry.Normal))
	}
	for _, p := range right {
		t.right = append(t.right, p.Rounded().WithLocation(geometry.Normal))
	}
	t.leftIndex = len(t.left) - 1
	t.rightIndex = len(t.right) - 1
	t.ready = len(t.left) > 1 && len(t.right) > 1
	t.calculateDimension()
}

// Long returns the side with more points, left on a tie.
func (t *Track) Long() []geometry.Point {
	return t.Line(t.LongSide())
}

func (t *Track) Short() []geometry.Point {
	return t.Line(t.ShortSide())
}

func (t *Track) LongSide() geometry.Side {
	if len(t.left) >= len(t.right) {
		return geometry.Left
	}
	return geometry.Right
}

func (t *Track) ShortSide() geometry.Side {
	if len(t.left) < len(t.right) {
		return geometry.Left
	}
	return geometry.Right
}

// Start runs from the first left point to the first right point.
func (t *Track) Start() geometry.Segment {
	if len(t.left) == 0 || len(t.right) == 0 {
		return geometry.Segment{}
	}
	return geometry.NewSegment(t.left[0], t.right[0])
}

// Finish runs from the last left point to the last right point.
func (t *Track) Finish() geometry.Segment {
	if len(t.left) == 0 || len(t.right) == 0 {
		return geometry.Segment{}
	}
	return geometry.NewSegment(t.left[len(t.left)-1], t.right[len(t.right)-1])
}

// FinishIndexes walks the side with more unmatched points and moves the
// opposite index forward while its points keep getting closer.
func (t *Track) FinishIndexes() {
	if len(t.left)-t.leftIndex >= len(t.right)-t.rightIndex {
		for l := t.leftIndex + 1; l < len(t.left); l++ {
			t.rightIndex = matchForward(t.left[l], t.right, t.rightIndex)
			t.leftIndex++
		}
		return
	}
	for r := t.rightIndex + 1; r < len(t.right); r++ {
		t.leftIndex = matchForward(t.right[r], t.left, t.leftIndex)
		t.rightIndex++
	}
}

func matchForward(p geometry.Point, line []geometry.Point, from int) int {
	oldDist := 5000.0
	index := from
	for i := from; i < len(line); i++ {
		dist := geometry.Distance(p, line[i])
		if dist > oldDist {
			break
		}
		oldDist = dist
		index = i
	}
	return index
}

// FreeDrawing is true once the opposite side is matched up to its end, so
// the built side no longer has to follow it.
func (t *Track) FreeDrawing(side, opp geometry.Side) bool {
	return len(t.Line(side)) > t.Index(side) && t.Index(opp) >= len(t.Line(opp))-2
}

// SwitchStart swaps start and finish by reversing both boundaries.
func (t *Track) SwitchStart() {
	left := reversed(t.right)
	right := reversed(t.left)
	t.left, t.right = left, right
	t.leftIndex = len(t.left) - 1
	t.rightIndex = len(t.right) - 1
}

func reversed(line []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}

func (t *Track) Reset() {
	*t = Track{}
}

func (t *Track) Ready() bool {
	return t.ready
}

func (t *Track) SetReady(ready bool) {
	t.ready = ready
}

// ReadyForDraw is true when both sides have at least one segment beyond the start.
func (t *Track) ReadyForDraw() bool {
	return len(t.left) > 2 && len(t.right) > 2
}

func (t *Track) MaxWidth() int {
	return t.maxWidth
}

func (t *Track) MaxHeight() int {
	return t.maxHeight
}

func (t *Track) checkMaximum(p geometry.Point) {
	if x := p.IntX(); x > t.maxWidth {
		t.maxWidth = x
	}
	if y := p.IntY(); y > t.maxHeight {
		t.maxHeight = y
	}
}

func (t *Track) calculateDimension() {
	t.maxWidth, t.maxHeight = 0, 0
	for _, p := range t.left {
		t.checkMaximum(p)
	}
	for _, p := range t.right {
		t.checkMaximum(p)
	}
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	c := *t
	c.left = append([]geometry.Point(nil), t.left...)
	c.right = append([]geometry.Point(nil), t.right...)
	c.parallelLeft = append([]geometry.Point(nil), t.parallelLeft...)
	c.parallelRight = append([]geometry.Point(nil), t.parallelRight...)
	return &c
}

func (t *Track) String() string {
	return fmt.Sprintf("left size = %d, right size = %d", len(t.left), len(t.right))
}
