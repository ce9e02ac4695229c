package tracks

import (
	"formulagame/pkg/geometry"
)

// Hint explains why a building or editing click was refused.
type Hint int

const (
	NoHint Hint = iota
	HintWrongStart
	HintIdenticalPoints
	HintForward
	HintCrossing
	HintThroughStart
	HintRightSideFirst
	HintLeftSideFirst
	HintChooseSide
	HintMovePoints
	HintBadMove
)

var hintMessages = map[Hint]string{
	HintWrongStart:      "Start the second side on one of the offered points",
	HintIdenticalPoints: "The point is identical with the last point of the side",
	HintForward:         "The side has to lead forward",
	HintCrossing:        "Sides of the track must not cross",
	HintThroughStart:    "The side must not go through the start",
	HintRightSideFirst:  "Finish the right side first",
	HintLeftSideFirst:   "Finish the left side first",
	HintChooseSide:      "Choose a side of the track",
	HintMovePoints:      "Drag a point of the track to a new position",
	HintBadMove:         "The moved point would make the track cross itself",
}

func (h Hint) String() string {
	return hintMessages[h]
}

// BuildResult reports what a building click did.
type BuildResult struct {
	Added bool
	Hint  Hint
	// ReadyChecked is set when readiness was evaluated, Ready holds the verdict.
	ReadyChecked bool
	Ready        bool
}

// Builder lets a user draw a track side by side. The first side is free
// apart from self crossings. The second side starts and ends on suggested
// points and has to stay on its half of the parallel constraint line.
type Builder struct {
	track   *Track
	side    geometry.Side
	options []geometry.Point
}

func NewBuilder(t *Track) *Builder {
	if t == nil {
		t = NewTrack()
	}
	return &Builder{track: t}
}

func (b *Builder) Track() *Track {
	return b.track
}

func (b *Builder) SetTrack(t *Track) {
	b.track = t
	b.side = 0
	b.options = nil
}

// Side is the side currently built, zero when none is chosen.
func (b *Builder) Side() geometry.Side {
	return b.side
}

// Options are the suggested start or finish points of the second side.
func (b *Builder) Options() []geometry.Point {
	return b.options
}

func (b *Builder) oppSide() geometry.Side {
	return b.side.Opposite()
}

// StartBuild chooses the side to draw. A side can't be started while the
// opposite one has a single point.
func (b *Builder) StartBuild(side geometry.Side) Hint {
	opp := b.track.Line(side.Opposite())
	if len(opp) == 1 {
		if side == geometry.Left {
			return HintRightSideFirst
		}
		return HintLeftSideFirst
	}

	b.side = side
	b.createBounds()
	switch {
	case len(opp) > 1 && len(b.track.Line(side)) == 0:
		b.options = b.startTurns()
	case len(opp) > 1:
		b.options = b.finishTurns()
	}
	return NoHint
}

// BuildPoint tries to append click to the current side.
func (b *Builder) BuildPoint(click geometry.Point) BuildResult {
	if b.side == 0 {
		return BuildResult{Hint: HintChooseSide}
	}
	click = click.Rounded()
	actLine := b.track.Line(b.side)
	oppLine := b.track.Line(b.oppSide())

	if len(oppLine) > 0 {
		switch {
		case len(actLine) == 0 && containsPoint(b.options, click):
			b.options = append(b.finishTurns(), click)
			b.track.AddPoint(b.side, click)
			b.track.SetParallel(b.side, prepend(b.track.Parallel(b.side), click))
			return BuildResult{Added: true}
		case len(actLine) == 0:
			return BuildResult{Hint: HintWrongStart}
		case actLine[len(actLine)-1].IsEqual(click):
			return BuildResult{Hint: HintIdenticalPoints}
		}
		if hint := b.checkSecondSide(click); hint != NoHint {
			return BuildResult{Hint: hint}
		}
		b.track.AddPoint(b.side, click)
		ready := b.track.Ready() && containsPoint(b.options, click)
		if ready {
			b.track.FinishIndexes()
		}
		return BuildResult{Added: true, ReadyChecked: true, Ready: ready}
	}

	if len(actLine) <= 1 {
		if len(actLine) == 0 {
			b.options = []geometry.Point{click}
		}
		b.track.AddPoint(b.side, click)
		return BuildResult{Added: true}
	}
	if actLine[len(actLine)-1].IsEqual(click) {
		return BuildResult{Hint: HintIdenticalPoints}
	}
	if crossesOwn(actLine, click) {
		return BuildResult{Hint: HintCrossing}
	}
	if hint := b.checkDirection(actLine, click); hint != NoHint {
		return BuildResult{Hint: hint}
	}
	b.track.AddPoint(b.side, click)
	return BuildResult{Added: true}
}

// DeletePoint removes the last point of the current side and refreshes the
// suggested points.
func (b *Builder) DeletePoint() BuildResult {
	if b.side == 0 {
		return BuildResult{Hint: HintChooseSide}
	}
	opp := b.oppSide()
	if len(b.track.Line(b.side)) == 0 {
		return BuildResult{}
	}

	b.track.RemoveLastPoint(b.side)
	if parallel := b.track.Parallel(opp); len(parallel) > 0 {
		b.track.SetParallel(opp, parallel[:len(parallel)-1])
	}

	actLine := b.track.Line(b.side)
	oppLine := b.track.Line(opp)
	switch {
	case len(actLine) == 0 && len(oppLine) > 1:
		b.options = b.startTurns()
	case len(actLine) == 0:
		b.options = nil
	case len(oppLine) == 0:
		b.options = []geometry.Point{actLine[0]}
	case len(oppLine) > 1:
		b.options = append(b.finishTurns(), actLine[0])
	}

	if len(actLine) == 0 {
		return BuildResult{}
	}
	ready := b.track.Ready() && containsPoint(b.options, actLine[len(actLine)-1])
	return BuildResult{ReadyChecked: ready, Ready: ready}
}

func (b *Builder) checkDirection(actLine []geometry.Point, click geometry.Point) Hint {
	if len(actLine) < 2 {
		return NoHint
	}
	preLast, last := actLine[len(actLine)-2], actLine[len(actLine)-1]
	lastSegment := geometry.NewSegment(preLast, last)
	if geometry.SideOf(click, lastSegment) == b.oppSide() &&
		geometry.Distance(preLast, last) >= geometry.Distance(preLast, geometry.BaseOfAltitude(lastSegment, click)) {
		return HintForward
	}
	return NoHint
}

func (b *Builder) checkSecondSide(click geometry.Point) Hint {
	side, opp := b.side, b.oppSide()
	actLine := b.track.Line(side)
	oppLine := b.track.Line(opp)
	last := actLine[len(actLine)-1]

	if pos, _ := geometry.IntersectSegment(last, click, b.track.Start()); pos == geometry.Inside {
		return HintThroughStart
	}

	oppIndex := clampIndex(b.track.Index(opp), len(oppLine))
	trackEnd := geometry.NewSegment(last, oppLine[oppIndex])
	if len(actLine) == 1 && geometry.SideOf(click, trackEnd) != side {
		return HintForward
	}
	if crossesOwn(actLine, click) {
		return HintCrossing
	}
	if crossesLine(oppLine, last, click) {
		return HintCrossing
	}
	if hint := b.checkDirection(actLine, click); hint != NoHint {
		return hint
	}
	if b.track.FreeDrawing(side, opp) {
		b.track.SetIndex(side, len(actLine))
		return NoHint
	}

	parallel := b.track.Parallel(side)
	if len(actLine) == 1 {
		if len(parallel) > 1 && geometry.SideOf(click, geometry.NewSegment(parallel[0], parallel[1])) == side {
			return HintForward
		}
	} else if crossesLine(parallel, last, click) {
		return HintForward
	}

	// advance the opposite build index over every control segment the move passes
	for index := b.track.Index(opp); ; index++ {
		var prev, center, next geometry.Point
		switch {
		case index < len(oppLine)-2:
			prev, center, next = oppLine[index], oppLine[index+1], oppLine[index+2]
		case index == len(oppLine)-2 && index > 0:
			prev, center, next = oppLine[index-1], oppLine[index], oppLine[index+1]
		default:
			b.track.SetIndex(side, len(actLine))
			return NoHint
		}
		sidePoint, ok := geometry.AngleBisectorPoint(prev, center, next, side)
		if !ok {
			continue
		}
		if pos, _ := geometry.Intersect(last, click, center, sidePoint); pos >= geometry.Edge {
			b.track.SetIndex(opp, index+1)
		}
	}
}

// createBounds rebuilds the parallel constraint line of the current side
// from the bisectors of the opposite side.
func (b *Builder) createBounds() {
	side := b.side
	oppLine := b.track.Line(b.oppSide())
	if len(oppLine) <= 2 {
		return
	}

	var parallel []geometry.Point
	if own := b.track.Line(side); len(own) > 0 {
		parallel = append(parallel, own[0])
	}
	for i := 1; i < len(oppLine)-1; i++ {
		sidePoint, ok := geometry.AngleBisectorPoint(oppLine[i-1], oppLine[i], oppLine[i+1], side)
		if !ok {
			continue
		}
		parallel = append(parallel, sidePoint)
		if len(parallel) <= 3 {
			continue
		}
		if i == len(oppLine)-2 {
			parallel = straighten(append(parallel, oppLine[len(oppLine)-1]))
			parallel = parallel[:len(parallel)-1]
		} else {
			parallel = straighten(parallel)
		}
	}
	b.track.SetParallel(side, parallel)
}

// straighten returns a copy of line where every loop closed by the last
// segment is collapsed into the crossing point.
func straighten(line []geometry.Point) []geometry.Point {
	out := append([]geometry.Point(nil), line...)
	if len(out) < 4 {
		return out
	}
	for i := 0; i < len(out)-3; i++ {
		lastSegment := geometry.NewSegment(out[len(out)-2], out[len(out)-1])
		pos, at := geometry.IntersectSegment(out[i], out[i+1], lastSegment)
		if pos == geometry.Outside {
			continue
		}
		for k := i + 1; k < len(out)-1; k++ {
			out[k] = at
		}
	}
	return out
}

func (b *Builder) finishTurns() []geometry.Point {
	oppLine := b.track.Line(b.oppSide())
	if len(oppLine) < 2 {
		return nil
	}
	preLast, last := oppLine[len(oppLine)-2], oppLine[len(oppLine)-1]
	return b.possibilities(geometry.Octant(preLast, last), last)
}

func (b *Builder) startTurns() []geometry.Point {
	oppLine := b.track.Line(b.oppSide())
	if len(oppLine) < 2 {
		return nil
	}
	return b.possibilities(geometry.Octant(oppLine[0], oppLine[1]), oppLine[0])
}

// possibilities lists points 3 to 7 squares away from center, placed so the
// start or finish line comes out horizontal or vertical.
func (b *Builder) possibilities(octant int, center geometry.Point) []geometry.Point {
	k := 1
	if b.side == geometry.Right {
		k = -1
	}
	var points []geometry.Point
	for i := 3; i < 8; i++ {
		d := k * i
		switch octant {
		case geometry.North:
			points = append(points, center.Add(-d, 0))
		case geometry.NorthEast:
			points = append(points, center.Add(-d, 0), center.Add(0, -d))
		case geometry.East:
			points = append(points, center.Add(0, -d))
		case geometry.SouthEast:
			points = append(points, center.Add(d, 0), center.Add(0, -d))
		case geometry.South:
			points = append(points, center.Add(d, 0))
		case geometry.SouthWest:
			points = append(points, center.Add(d, 0), center.Add(0, d))
		case geometry.West:
			points = append(points, center.Add(0, d))
		case geometry.NorthWest:
			points = append(points, center.Add(-d, 0), center.Add(0, d))
		}
	}
	return points
}

func crossesOwn(line []geometry.Point, click geometry.Point) bool {
	if len(line) < 2 {
		return false
	}
	last := line[len(line)-1]
	for i := 0; i < len(line)-2; i++ {
		if pos, _ := geometry.Intersect(last, click, line[i], line[i+1]); pos != geometry.Outside {
			return true
		}
	}
	return false
}

func crossesLine(line []geometry.Point, last, click geometry.Point) bool {
	for i := 0; i < len(line)-1; i++ {
		if pos, _ := geometry.Intersect(last, click, line[i], line[i+1]); pos != geometry.Outside {
			return true
		}
	}
	return false
}

func containsPoint(points []geometry.Point, p geometry.Point) bool {
	for _, o := range points {
		if o.IsEqual(p) {
			return true
		}
	}
	return false
}

func prepend(line []geometry.Point, p geometry.Point) []geometry.Point {
	return append([]geometry.Point{p}, line...)
}

func clampIndex(index, length int) int {
	if index >= length {
		return length - 1
	}
	if index < 0 {
		return 0
	}
	return index
}
