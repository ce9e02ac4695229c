package opponent

import (
	"formulagame/pkg/geometry"
)

// wallProbe stretches a move far ahead to look for the wall it runs into.
const wallProbe = 100

// Moderate crosses as many checklines as it can while it is still able to
// brake before the next wall. Once only the finish is ahead it sprints.
type Moderate struct {
	index  int
	sprint bool
}

func (m *Moderate) Reset() {
	m.index = 0
	m.sprint = false
}

func (m *Moderate) CheckLinesIndex() int {
	return m.index
}

func (m *Moderate) SelectTurn(v View) geometry.Point {
	last := v.Racer.Last()
	clean := v.Candidates.Clean()
	switch {
	case len(clean) == 0:
		return nearest(last, v.Candidates.Collisions())
	case len(clean) == 1:
		return clean[0]
	case len(v.CheckLines) < 2:
		return nearest(last, clean)
	case m.sprint:
		return m.fastest(v, clean)
	}
	return m.bestMove(v, clean)
}

func (m *Moderate) fastest(v View, clean []geometry.Point) geometry.Point {
	finish := v.CheckLines[len(v.CheckLines)-1].MidPoint()
	best := clean[0]
	maxSpeed := v.Racer.MaxSpeed(best)
	minDist := geometry.Distance(finish, best)
	for _, p := range clean[1:] {
		speed := v.Racer.MaxSpeed(p)
		dist := geometry.Distance(finish, p)
		if speed > maxSpeed || (speed == maxSpeed && dist < minDist) {
			best, maxSpeed, minDist = p, speed, dist
		}
	}
	return best
}

func (m *Moderate) bestMove(v View, clean []geometry.Point) geometry.Point {
	var best geometry.Point
	found := false
	maxCount := 0
	target := v.CheckLines[min(m.index+1, len(v.CheckLines)-1)].MidPoint()

	for _, p := range clean {
		count := m.crossed(v, p)
		wallDist := 0.0
		if hit, ok := m.wallAhead(v, p); ok {
			wallDist = geometry.Distance(hit, p)
		}
		braking := float64(BrakingDistance(v.Racer.MaxSpeed(p)))
		if wallDist != 0 && wallDist <= braking {
			continue
		}

		switch {
		case !found || count > maxCount:
			best, found, maxCount = p, true, count
		case count == maxCount:
			speed, bestSpeed := v.Racer.MaxSpeed(p), v.Racer.MaxSpeed(best)
			if speed > bestSpeed ||
				(speed == bestSpeed && geometry.Distance(p, target) < geometry.Distance(best, target)) {
				best = p
			}
		}
	}

	if !found {
		best = nearest(v.Racer.Last(), clean)
	}
	m.correctIndex(v, best)
	return best
}

// crossed counts the checklines ahead that the move to p crosses in a row.
func (m *Moderate) crossed(v View, p geometry.Point) int {
	count := 0
	for i := m.index + 1; i < len(v.CheckLines); i++ {
		if !geometry.Crosses(v.Racer.Last(), p, v.CheckLines[i]) {
			break
		}
		count++
	}
	return count
}

// wallAhead finds where the move to p, stretched forward, meets the walls
// between consecutive checklines. A move back over the last passed
// checkline has no wall to worry about.
func (m *Moderate) wallAhead(v View, p geometry.Point) (geometry.Point, bool) {
	last := v.Racer.Last()
	lines := v.CheckLines
	if geometry.Crosses(last, p, lines[m.index]) {
		return geometry.Point{}, false
	}
	far := geometry.Extend(last, p, wallProbe)
	for i := m.index; i < len(lines)-1; i++ {
		walls := []geometry.Segment{
			geometry.NewSegment(lines[i].First, lines[i+1].First),
			geometry.NewSegment(lines[i].Last, lines[i+1].Last),
		}
		for _, wall := range walls {
			if pos, at := geometry.IntersectSegment(last, far, wall); pos != geometry.Outside {
				return at, true
			}
		}
	}
	return geometry.Point{}, false
}

func (m *Moderate) correctIndex(v View, best geometry.Point) {
	for i := m.index + 1; i < len(v.CheckLines); i++ {
		if !geometry.Crosses(v.Racer.Last(), best, v.CheckLines[i]) {
			break
		}
		m.index++
	}
	m.sprint = m.index >= len(v.CheckLines)-2
}
