package opponent

import (
	"strings"

	"github.com/pkg/errors"

	"formulagame/pkg/geometry"
	"formulagame/pkg/race"
)

// View is what a policy sees of the race when it is on turn.
type View struct {
	Racer      *race.Formula
	Candidates race.CandidateSet
	CheckLines []geometry.Segment
}

// Policy picks the next point of the computer formula among its candidates.
type Policy interface {
	SelectTurn(v View) geometry.Point
	Reset()
	CheckLinesIndex() int
}

const (
	EasyName     = "easy"
	ModerateName = "moderate"
)

func New(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case EasyName:
		return &Easy{}, nil
	case ModerateName:
		return &Moderate{}, nil
	}
	return nil, errors.Errorf("unknown opponent %q", name)
}

// BrakingDistance approximates the squares needed to stop from speed, e.g.
// 4+3+2+1 from speed 5.
func BrakingDistance(speed int) int {
	if speed <= 1 {
		return 0
	}
	return speed * (speed - 1) / 2
}

func nearest(from geometry.Point, points []geometry.Point) geometry.Point {
	_, p, _ := geometry.FindNearest(from, points)
	return p
}
