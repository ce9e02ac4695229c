package race

import "formulagame/pkg/geometry"

// Kind of a lattice slot.
type Kind int

const (
	Absent Kind = iota
	Clean
	Collision
)

func (k Kind) String() string {
	switch k {
	case Clean:
		return "clean"
	case Collision:
		return "collision"
	}
	return "absent"
}

// Candidate is one slot of the 3x3 lattice of next moves. Point carries the
// Finish or FinishLine tag of a clean move. Hit is where a collision move
// meets the wall, or where a finishing move crosses the finish line.
type Candidate struct {
	Kind  Kind             `json:"kind"`
	Point geometry.Point   `json:"point"`
	Hit   geometry.Point   `json:"hit"`
	Wall  geometry.Segment `json:"wall"`
}

// CandidateSet is indexed by keypad slot: (dy+1)*3 + (dx+1).
type CandidateSet [9]Candidate

func slotOf(dx, dy int) int {
	return (dy+1)*3 + (dx + 1)
}

// Clean returns the points of the clean candidates in slot order.
func (s CandidateSet) Clean() []geometry.Point {
	return s.points(Clean)
}

// Collisions returns the points of the collision candidates in slot order.
func (s CandidateSet) Collisions() []geometry.Point {
	return s.points(Collision)
}

func (s CandidateSet) points(kind Kind) []geometry.Point {
	var out []geometry.Point
	for _, c := range s {
		if c.Kind == kind {
			out = append(out, c.Point)
		}
	}
	return out
}

// Find returns the slot of the existing candidate on the grid cell of p.
func (s CandidateSet) Find(p geometry.Point) (int, bool) {
	for i, c := range s {
		if c.Kind != Absent && c.Point.IsEqual(p) {
			return i, true
		}
	}
	return -1, false
}

// Nearest returns the slot of the candidate of the given kind closest to from.
func (s CandidateSet) Nearest(from geometry.Point, kind Kind) (int, bool) {
	best := -1
	for i, c := range s {
		if c.Kind != kind {
			continue
		}
		if best < 0 || geometry.Distance(from, s[best].Point) > geometry.Distance(from, c.Point) {
			best = i
		}
	}
	return best, best >= 0
}

func (s CandidateSet) Count() int {
	n := 0
	for _, c := range s {
		if c.Kind != Absent {
			n++
		}
	}
	return n
}

// lattice lays the candidate slots around center. Outside crash mode the
// corners are always present, the sides only with nine turns and the center
// with five or nine. After a crash only the center and the sides are offered.
func lattice(center geometry.Point, turns TurnsCount, crash bool) CandidateSet {
	var set CandidateSet
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			var exists bool
			switch {
			case dx != 0 && dy != 0:
				exists = !crash
			case dx == 0 && dy == 0:
				exists = turns == FiveTurns || turns == NineTurns
			default:
				exists = turns == NineTurns || crash
			}
			if exists {
				set[slotOf(dx, dy)] = Candidate{Kind: Clean, Point: center.Add(dx, dy)}
			}
		}
	}
	return set
}
