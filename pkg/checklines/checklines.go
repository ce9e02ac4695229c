package checklines

import (
	"formulagame/pkg/geometry"
	"formulagame/pkg/tracks"
)

// Analyze splits the track into checklines the computer drives through.
// Every point of the long side is paired with a point of the short side,
// skipped short points are paired back with the long side. Each line runs
// from the left side to the right side. The first line is the start and
// the last one the finish.
func Analyze(t *tracks.Track) []geometry.Segment {
	lines := []geometry.Segment{t.Start()}
	long, short := t.Long(), t.Short()
	if len(long) < 2 || len(short) < 2 {
		return append(lines, t.Finish())
	}

	a := analyzer{
		long:      long,
		short:     short,
		longSide:  t.LongSide(),
		shortSide: t.ShortSide(),
	}

	low := 0
	for k := 1; k < len(long)-1; k++ {
		start := long[k]
		edge := geometry.NewSegment(long[k-1], start)
		act := a.opposite(edge, low)
		act = a.nearest(edge, low, act)
		if low != act {
			low++
		}
		lines = append(lines, a.line(start, short[act]))

		// short points skipped by the perpendicular go in before the line just added
		for low < act {
			op := short[low]
			_, start, _ = geometry.FindNearest(op, []geometry.Point{long[k-1], start})
			lines = insertBeforeLast(lines, a.line(start, op))
			low++
		}
		low = act
	}

	low++
	start := long[len(long)-2]
	for ; low < len(short)-1; low++ {
		lines = append(lines, a.line(start, short[low]))
	}
	return append(lines, t.Finish())
}

type analyzer struct {
	long, short         []geometry.Point
	longSide, shortSide geometry.Side
}

// opposite finds the short side point hit by the perpendicular raised at
// the end of edge, searching from low. A miss falls back to the last point.
func (a analyzer) opposite(edge geometry.Segment, low int) int {
	end := geometry.PerpendicularRay(edge, a.longSide)
	for i := low; i < len(a.short)-1; i++ {
		pos, at := geometry.Intersect(edge.Last, end, a.short[i], a.short[i+1])
		switch pos {
		case geometry.Inside:
			if geometry.Distance(a.short[i], at) <= geometry.Distance(a.short[i+1], at) {
				return i
			}
			return i + 1
		case geometry.Edge:
			return i + 1
		}
	}
	if low < len(a.short)-1 {
		return len(a.short) - 1
	}
	return low
}

// nearest returns the short side point in (min, max] closest to the end of
// edge, keeping only points that lie on the short side of edge.
func (a analyzer) nearest(edge geometry.Segment, min, max int) int {
	index := min
	for i := min + 1; i <= max; i++ {
		if geometry.Distance(edge.Last, a.short[index]) > geometry.Distance(edge.Last, a.short[i]) &&
			geometry.SideOf(a.short[i], edge) == a.shortSide {
			index = i
		}
	}
	return index
}

func (a analyzer) line(longPoint, shortPoint geometry.Point) geometry.Segment {
	if a.longSide == geometry.Left {
		return geometry.NewSegment(longPoint, shortPoint)
	}
	return geometry.NewSegment(shortPoint, longPoint)
}

func insertBeforeLast(lines []geometry.Segment, s geometry.Segment) []geometry.Segment {
	lines = append(lines, s)
	lines[len(lines)-1], lines[len(lines)-2] = lines[len(lines)-2], lines[len(lines)-1]
	return lines
}
