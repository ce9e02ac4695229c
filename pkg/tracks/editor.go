package tracks

import "formulagame/pkg/geometry"

// Editor moves interior points of a finished track. The first and the
// last point of each side hold the start and the finish and can't move.
type Editor struct {
	track *Track
	side  geometry.Side
	index int
}

func NewEditor(t *Track) *Editor {
	return &Editor{track: t}
}

// Grab selects the interior point under click, left side first.
func (e *Editor) Grab(click geometry.Point) bool {
	e.side, e.index = 0, 0
	for _, side := range []geometry.Side{geometry.Left, geometry.Right} {
		line := e.track.Line(side)
		for i := 1; i < len(line)-1; i++ {
			if click.IsEqual(line[i]) {
				e.side, e.index = side, i
				return true
			}
		}
	}
	return false
}

// Grabbed returns the selected point, if any.
func (e *Editor) Grabbed() (geometry.Side, int, bool) {
	return e.side, e.index, e.index > 0
}

// Move puts the grabbed point on click when neither of its two new edges
// touches the opposite side or crosses its own side. The selection is
// released either way.
func (e *Editor) Move(click geometry.Point) bool {
	side, index := e.side, e.index
	e.side, e.index = 0, 0
	if index == 0 {
		return true
	}

	click = click.Rounded()
	own := e.track.Line(side)
	prev, next := own[index-1], own[index+1]

	opp := e.track.Line(side.Opposite())
	for i := 0; i < len(opp)-1; i++ {
		s := geometry.NewSegment(opp[i], opp[i+1])
		if geometry.Crosses(click, prev, s) || geometry.Crosses(click, next, s) {
			return false
		}
	}
	for i := 0; i < len(own)-1; i++ {
		if i >= index-1 && i <= index {
			continue
		}
		s := geometry.NewSegment(own[i], own[i+1])
		if a, _ := geometry.IntersectSegment(click, prev, s); a == geometry.Inside {
			return false
		}
		if b, _ := geometry.IntersectSegment(click, next, s); b == geometry.Inside {
			return false
		}
	}

	e.track.ChangePoint(side, index, click)
	return true
}
