package opponent

import (
	"math"

	"formulagame/pkg/geometry"
	"formulagame/pkg/race"
)

const (
	checkLineScore = 20
	noFinish       = 5000
)

// Easy drives towards the farthest point it can still brake for. Every
// checkline crossed by a move is worth checkLineScore, the distance to the
// middle of the next two checklines is subtracted.
type Easy struct {
	index int
}

func (e *Easy) Reset() {
	e.index = 0
}

func (e *Easy) CheckLinesIndex() int {
	return e.index
}

func (e *Easy) SelectTurn(v View) geometry.Point {
	last := v.Racer.Last()
	clean := v.Candidates.Clean()
	if len(clean) == 0 {
		return nearest(last, v.Candidates.Collisions())
	}
	lines := v.CheckLines
	if len(lines) < 2 {
		return nearest(last, clean)
	}

	newIndex := e.index
	var best geometry.Point
	found := false
	maxScore := 0.0
	finishDist := noFinish

loop:
	for _, p := range clean {
		switch {
		case p.Location == geometry.Finish:
			best, found = p, true
			break loop
		case p.Location == geometry.FinishLine:
			finishDist = 0
			best, found = p, true
		case finishDist == noFinish:
			k, score := 1, checkLineScore
			for e.index+k < len(lines)-1 && geometry.Crosses(last, p, lines[e.index+k]) {
				k++
				score += checkLineScore
			}
			next := e.index + k
			if next > len(lines)-1 {
				next = len(lines) - 1
			}
			if e.brakedCrash(v.Racer, lines[next-1], lines[next], p) {
				continue
			}

			dist := lineDist(v.Racer, next, p, lines)
			braking := float64(BrakingDistance(v.Racer.MaxSpeed(p)))
			value := float64(score) - dist[2]
			if next == len(lines)-1 {
				if value > maxScore {
					maxScore = value
					best, found = p, true
					if geometry.Crosses(last, p, lines[next-1]) {
						newIndex = next - 1
					}
				}
			} else if (dist[0] >= braking || dist[1] >= braking) && value > maxScore {
				maxScore = value
				if k > 1 {
					newIndex = next - 1
				}
				best, found = p, true
			}
		}
	}

	if !found {
		best = nearest(last, clean)
		if e.index+1 < len(lines) && geometry.Crosses(last, best, lines[e.index+1]) {
			newIndex = e.index + 1
		}
	}
	e.index = newIndex
	return best
}

// brakedCrash slows the move to p by one square per turn on both axes until
// the slower one stops, and tells whether that path meets the walls between
// the prev and next checklines.
func (e *Easy) brakedCrash(f *race.Formula, prev, next geometry.Segment, p geometry.Point) bool {
	last := f.Last()
	moveX := p.IntX() - last.IntX()
	moveY := p.IntY() - last.IntY()
	stop := p
	for {
		moveX = towardZero(moveX)
		moveY = towardZero(moveY)
		stop = stop.Add(moveX, moveY)
		if moveX == 0 || moveY == 0 {
			break
		}
	}

	walls := []geometry.Segment{
		geometry.NewSegment(prev.First, next.First),
		geometry.NewSegment(prev.Last, next.Last),
	}
	for _, wall := range walls {
		if wall.First.IsEqual(wall.Last) {
			continue
		}
		if geometry.Crosses(last, stop, wall) {
			return true
		}
	}
	return false
}

func towardZero(v int) int {
	switch {
	case v > 0:
		return v - 1
	case v < 0:
		return v + 1
	}
	return 0
}

// lineDist measures p against the checkline at index and the one after it.
// The first two values are the distances along the faster axis, negative
// when the line lies behind the move. The third is the distance to the
// middle of both lines.
func lineDist(f *race.Formula, index int, p geometry.Point, lines []geometry.Segment) [3]float64 {
	act := lines[index]
	next := act
	if index+1 < len(lines) {
		next = lines[index+1]
	}
	mid1 := act.MidPoint()
	mid2 := next.MidPoint()
	midDist := geometry.Distance(geometry.NewSegment(mid1, mid2).MidPoint(), p)

	last := f.Last()
	if f.MaxDirect(p) == race.DirectionForward {
		return [3]float64{
			axisDist(last.IntY(), p.IntY(), mid1.IntY()),
			axisDist(last.IntY(), p.IntY(), mid2.IntY()),
			midDist,
		}
	}
	return [3]float64{
		axisDist(last.IntX(), p.IntX(), mid1.IntX()),
		axisDist(last.IntX(), p.IntX(), mid2.IntX()),
		midDist,
	}
}

func axisDist(from, to, mid int) float64 {
	d := math.Abs(float64(to - mid))
	if (to > from && mid >= to) || (to < from && mid <= to) {
		return d
	}
	return -d
}
