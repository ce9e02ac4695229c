package race

import (
	"fmt"

	"formulagame/pkg/geometry"
	"formulagame/pkg/queues"
	"formulagame/pkg/tracks"
)

// crashRadius is how far from the wall a crashed formula restarts.
const crashRadius = 0.75

// Result is the outcome of a finished race. Winner is 0 on a draw.
type Result struct {
	Winner   int     `json:"winner"`
	Draw     bool    `json:"draw"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Moves    int     `json:"moves"`
	Message  string  `json:"message"`
}

// Engine resolves the turns of two formulas on one track. It is not safe
// for concurrent use.
type Engine struct {
	racers       [3]*Formula
	actID        int
	rivalID      int
	stage        Stage
	settings     Settings
	track        *tracks.Track
	paper        tracks.Paper
	candidates   CandidateSet
	startOptions []geometry.Point
	events       *queues.Queue[Event]
	result       *Result
}

func NewEngine(settings Settings) *Engine {
	e := &Engine{
		actID:    1,
		rivalID:  2,
		stage:    BuildLeft,
		settings: settings,
		track:    tracks.NewTrack(),
		paper:    tracks.DefaultPaper(),
		events:   queues.NewQueue[Event](),
	}
	e.racers[1] = NewFormula("Player 1", settings.History)
	e.racers[2] = NewFormula("Player 2", settings.History)
	return e
}

func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) SetSettings(s Settings) {
	e.settings = s
	e.racers[1].SetHistoryLength(s.History)
	e.racers[2].SetHistoryLength(s.History)
}

func (e *Engine) Track() *tracks.Track {
	return e.track
}

func (e *Engine) Paper() tracks.Paper {
	return e.paper
}

func (e *Engine) SetTrack(t *tracks.Track, paper tracks.Paper) {
	e.track = t
	e.paper = paper
}

func (e *Engine) Stage() Stage {
	return e.stage
}

func (e *Engine) SetStage(s Stage) {
	e.stage = s
}

// ActID is the racer on turn, 0 before the race starts.
func (e *Engine) ActID() int {
	if e.stage < FirstTurn {
		return 0
	}
	return e.actID
}

// Formula returns racer 1 or 2.
func (e *Engine) Formula(id int) *Formula {
	if id != 1 && id != 2 {
		return nil
	}
	return e.racers[id]
}

func (e *Engine) Candidates() CandidateSet {
	return e.candidates
}

func (e *Engine) StartOptions() []geometry.Point {
	return append([]geometry.Point(nil), e.startOptions...)
}

// Result is nil until the race is over.
func (e *Engine) Result() *Result {
	return e.result
}

// Events drains the events queued since the last call.
func (e *Engine) Events() []Event {
	return e.events.Drain()
}

// Reset clears both formulas and the turn state. The stage is left to the caller.
func (e *Engine) Reset() {
	e.racers[1].Reset()
	e.racers[2].Reset()
	e.actID, e.rivalID = 1, 2
	e.candidates = CandidateSet{}
	e.startOptions = nil
	e.result = nil
}

// Prepare resets the race and offers the start positions of the current track.
func (e *Engine) Prepare() []geometry.Point {
	e.Reset()
	e.startOptions = e.StartPositions(e.track.Start())
	e.stage = FirstTurn
	return e.StartOptions()
}

// StartPositions lists the grid points strictly inside the start line, tagged
// OnStart, and sets the start velocity of both formulas perpendicular to it.
func (e *Engine) StartPositions(start geometry.Segment) []geometry.Point {
	var points []geometry.Point
	first, second := start.First, start.Last
	var v Velocity
	if first.IntX() == second.IntX() {
		x := float64(first.IntX())
		from, to := second.IntY(), first.IntY()
		v.Lateral = -1
		if second.IntY() > first.IntY() {
			from, to = first.IntY(), second.IntY()
			v.Lateral = 1
		}
		for y := from + 1; y < to; y++ {
			points = append(points, geometry.NewPoint(x, float64(y)).WithLocation(geometry.OnStart))
		}
	} else {
		y := float64(first.IntY())
		from, to := second.IntX(), first.IntX()
		v.Forward = 1
		if second.IntX() > first.IntX() {
			from, to = first.IntX(), second.IntX()
			v.Forward = -1
		}
		for x := from + 1; x < to; x++ {
			points = append(points, geometry.NewPoint(float64(x), y).WithLocation(geometry.OnStart))
		}
	}
	e.racers[1].SetVelocity(v)
	e.racers[2].SetVelocity(v)
	return points
}

// Turn plays click for the racer on turn. It returns false when the click
// matches no option, in which case nothing changes. In the automatic stages
// the click is ignored and the closest option is played.
func (e *Engine) Turn(click geometry.Point) bool {
	var accepted bool
	switch e.stage {
	case FirstTurn:
		accepted = e.firstTurn(click)
	case NormalTurn:
		accepted = e.normalTurn(click)
	case AutoCrash:
		accepted = e.autoCrash()
	case AutoFinish:
		accepted = e.autoFinish()
	}
	if accepted {
		e.CheckWinner()
	}
	return accepted
}

func (e *Engine) firstTurn(click geometry.Point) bool {
	index := -1
	for i, p := range e.startOptions {
		if p.IsEqual(click) {
			index = i
			break
		}
	}
	if index < 0 {
		return false
	}

	act := e.racers[e.actID]
	start := e.startOptions[index]
	v := act.Velocity()
	act.AddPoint(start)
	act.AddPoint(start.Add(v.Lateral, v.Forward))
	if e.actID == 1 {
		options := make([]geometry.Point, 0, len(e.startOptions)-1)
		options = append(options, e.startOptions[:index]...)
		e.startOptions = append(options, e.startOptions[index+1:]...)
	} else {
		e.startOptions = nil
		e.stage = NormalTurn
		e.nextTurn(e.rivalID, act.Last())
	}
	e.swap()
	return true
}

func (e *Engine) normalTurn(click geometry.Point) bool {
	slot, ok := e.candidates.Find(click)
	if !ok {
		return false
	}
	c := e.candidates[slot]
	act := e.racers[e.actID]
	if c.Kind == Collision {
		e.crash(c)
		return true
	}

	act.AddPoint(c.Point)
	act.MovesUp(1)
	if c.Point.Location == geometry.Finish && geometry.SideOf(c.Point, e.track.Finish()) == geometry.Left {
		act.LengthBetween(act.PreLast(), c.Hit)
		act.SetWin(true)
		e.waitTurn(TaskInterFinish)
		return true
	}
	act.LengthUp()
	e.waitTurn(TaskNormal)
	return true
}

func (e *Engine) autoCrash() bool {
	act := e.racers[e.actID]
	slot, ok := e.candidates.Nearest(act.Last(), Collision)
	if !ok {
		return false
	}
	e.stage = NormalTurn
	e.crash(e.candidates[slot])
	return true
}

func (e *Engine) autoFinish() bool {
	act := e.racers[e.actID]
	slot, ok := e.candidates.Nearest(act.Last(), Clean)
	if !ok {
		return false
	}
	c := e.candidates[slot]
	hit := c.Point
	if c.Point.Location == geometry.Finish || c.Point.Location == geometry.FinishLine {
		hit = c.Hit
	}
	act.AddPoint(c.Point)
	act.LengthBetween(hit, act.PreLast())
	act.MovesUp(1)
	act.SetWin(true)
	if e.actID == 1 {
		e.stage = NormalTurn
		e.waitTurn(TaskInterFinish)
	}
	return true
}

// crash moves the formula on turn to the wall and puts it out for one turn
// more than its speed.
func (e *Engine) crash(c Candidate) {
	act := e.racers[e.actID]
	act.MovesUp(1)
	speed := act.MaxSpeed(c.Point)
	act.SetWait(speed + 1)
	e.events.Push(Event{Kind: EventCrash, Racer: e.actID, Speed: speed})
	act.MovesUp(speed)
	act.AddPoint(c.Hit)
	act.SetCollision(c.Wall)
	act.LengthUp()
	if e.settings.Finish == FinishCollision {
		e.racers[e.rivalID].SetWin(true)
		e.announce()
		return
	}
	e.waitTurn(TaskBothCrash)
}

func (e *Engine) waitTurn(task WaitTask) {
	act := e.racers[e.actID]
	rival := e.racers[e.rivalID]
	res := ResolveWaits(act.Wait(), rival.Wait(), task)
	act.SetWait(res.MoverWait)
	rival.SetWait(res.RivalWait)

	switch res.Action {
	case RivalMoves:
		e.swap()
		e.nextTurn(e.actID, act.Last())
	case RivalRecovers:
		e.swap()
		e.crashTurn()
	case MoverMoves:
		e.nextTurn(e.actID, rival.Last())
	case MoverRecovers:
		e.crashTurn()
	case RaceOver:
		e.announce()
	}
}

func (e *Engine) swap() {
	e.actID, e.rivalID = e.rivalID, e.actID
}

// nextTurn lays the options of formula id around its last point moved by its
// velocity, and switches to an automatic stage when every option of a kind
// lies off the paper.
func (e *Engine) nextTurn(id int, rivalLast geometry.Point) {
	f := e.racers[id]
	v := f.Velocity()
	center := f.Last().Rounded().Add(v.Lateral, v.Forward)
	e.candidates = e.divide(lattice(center, e.settings.Turns, false), f.Last(), rivalLast)

	clean := e.candidates.Clean()
	bad := e.candidates.Collisions()
	turnLast := e.countOutside(clean)
	turnOut := e.countOutside(bad)
	switch {
	case turnOut == int(e.settings.Turns), len(clean) == 0 && turnOut > 0 && turnOut == len(bad):
		e.stage = AutoCrash
		e.events.Push(Event{Kind: EventHint, Racer: id, Hint: HintNextCloseTurn})
	case turnLast > 0 && turnLast == len(clean):
		e.stage = AutoFinish
		e.events.Push(Event{Kind: EventHint, Racer: id, Hint: HintNextCloseTurn})
	}
}

func (e *Engine) countOutside(points []geometry.Point) int {
	n := 0
	for _, p := range points {
		if e.paper.IsOutside(p) {
			n++
		}
	}
	return n
}

// divide classifies every option of set by the move from origin. The rival's
// cell is never offered.
func (e *Engine) divide(set CandidateSet, origin, rivalLast geometry.Point) CandidateSet {
	start := e.track.Start()
	finish := e.track.Finish()
	for i := range set {
		c := &set[i]
		if c.Kind == Absent {
			continue
		}
		if c.Point.IsEqual(rivalLast) {
			*c = Candidate{}
			continue
		}

		hit, wall, collided := e.boundaryHit(origin, c.Point)
		finishPos, finishAt := geometry.IntersectSegment(origin, c.Point, finish)
		if collided {
			if finishPos != geometry.Outside && geometry.Distance(origin, finishAt) < geometry.Distance(origin, hit) {
				c.Point = c.Point.WithLocation(geometry.Finish)
				c.Hit = finishAt
				continue
			}
			c.Kind = Collision
			c.Hit = hit
			c.Wall = wall
			continue
		}

		// crossing the start backwards is a crash
		if pos, at := geometry.IntersectSegment(origin, c.Point, start); pos != geometry.Outside &&
			geometry.SideOf(c.Point, start) == geometry.Right {
			c.Kind = Collision
			c.Hit = at.WithLocation(geometry.CollisionRight)
			c.Wall = start
			continue
		}
		switch finishPos {
		case geometry.Inside:
			c.Point = c.Point.WithLocation(geometry.Finish)
			c.Hit = finishAt
		case geometry.Edge:
			c.Point = c.Point.WithLocation(geometry.FinishLine)
			c.Hit = finishAt
		}
	}
	return set
}

// boundaryHit finds the first boundary segment the move touches, left side first.
func (e *Engine) boundaryHit(origin, p geometry.Point) (geometry.Point, geometry.Segment, bool) {
	sides := []struct {
		line []geometry.Point
		tag  geometry.Location
	}{
		{e.track.Left(), geometry.CollisionLeft},
		{e.track.Right(), geometry.CollisionRight},
	}
	for _, side := range sides {
		for k := 0; k+1 < len(side.line); k++ {
			wall := geometry.NewSegment(side.line[k], side.line[k+1])
			if pos, at := geometry.IntersectSegment(origin, p, wall); pos != geometry.Outside {
				return at.WithLocation(side.tag), wall, true
			}
		}
	}
	return geometry.Point{}, geometry.Segment{}, false
}

// crashTurn restarts the formula on turn next to its crash point, on the
// perpendicular to the wall and on the track side of it. Only the center
// and the four orthogonal neighbours are offered.
func (e *Engine) crashTurn() {
	act := e.racers[e.actID]
	hit := act.Last()
	wall := act.Collision()
	ux := wall.Last.X - wall.First.X
	uy := wall.Last.Y - wall.First.Y

	var center geometry.Point
	if ux == 0 {
		dx := 1
		if (hit.Location == geometry.CollisionLeft && uy > 0) || (hit.Location == geometry.CollisionRight && uy < 0) {
			dx = -1
		}
		center = geometry.NewPoint(float64(hit.IntX()+dx), float64(hit.IntY()))
	} else {
		m, n := hit.X, hit.Y
		c := -ux*m - uy*n
		roots := geometry.QuadraticRoots(
			ux*ux+uy*uy,
			2*uy*c+2*m*uy*ux-2*n*ux*ux,
			c*c+2*c*m*ux+ux*ux*(n*n+m*m-crashRadius*crashRadius),
		)
		center = hit
		if len(roots) > 0 {
			center = geometry.NewPoint((-uy*roots[0]-c)/ux, roots[0])
		}
		if len(roots) > 1 {
			second := geometry.NewPoint((-uy*roots[1]-c)/ux, roots[1])
			switch hit.Location {
			case geometry.CollisionLeft:
				if geometry.SideOf(center, wall) != geometry.Right {
					center = second
				}
			case geometry.CollisionRight:
				if geometry.SideOf(center, wall) != geometry.Left {
					center = second
				}
			}
		}
		center = center.Rounded().WithLocation(geometry.Normal)
	}

	act.AddPoint(center)
	e.candidates = e.divide(lattice(center, e.settings.Turns, true), center, e.racers[e.rivalID].Last())
}

// CheckWinner ends the race once a winner is certain. With the second chance
// finish racer 2 gets one more turn after racer 1 crosses the finish.
func (e *Engine) CheckWinner() {
	if e.stage == GameOver {
		return
	}
	r1, r2 := e.racers[1], e.racers[2]
	switch {
	case r2.Win(),
		r1.Win() && e.settings.Finish != FinishSecondChance,
		r1.Win() && e.ActID() == 1:
		e.announce()
	}
}

func (e *Engine) announce() {
	e.stage = GameOver
	e.candidates = CandidateSet{}
	res := decide(e.racers[1], e.racers[2])
	e.result = &res
	e.events.Push(Event{Kind: EventWinner, Racer: res.Winner, Result: &res})
}

// decide picks the winner among the flagged formulas. Two finishers are
// compared by distance and equal distances are a draw.
func decide(r1, r2 *Formula) Result {
	winner := 0
	switch {
	case r1.Win() && r2.Win():
		switch {
		case r1.Distance() < r2.Distance():
			winner = 1
		case r2.Distance() < r1.Distance():
			winner = 2
		}
	case r1.Win():
		winner = 1
	case r2.Win():
		winner = 2
	}

	if winner == 0 {
		return Result{
			Draw:     true,
			Distance: r1.Distance(),
			Moves:    r1.Moves(),
			Message:  fmt.Sprintf("Draw! Both formulas drove %.2f squares", r1.Distance()),
		}
	}
	f := r1
	if winner == 2 {
		f = r2
	}
	return Result{
		Winner:   winner,
		Name:     f.Name,
		Distance: f.Distance(),
		Moves:    f.Moves(),
		Message:  fmt.Sprintf("%s wins after %d moves and %.2f squares", f.Name, f.Moves(), f.Distance()),
	}
}
