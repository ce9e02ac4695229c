package race

import (
	"testing"

	"formulagame/pkg/geometry"
	"formulagame/pkg/tracks"
)

func pt(x, y int) geometry.Point {
	return geometry.NewPoint(float64(x), float64(y))
}

func line(coords ...int) []geometry.Point {
	out := make([]geometry.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, pt(coords[i], coords[i+1]))
	}
	return out
}

// newEngine builds an engine on a track given by its two boundaries.
func newEngine(settings Settings, left, right []geometry.Point) *Engine {
	track := tracks.NewTrack()
	track.SetLines(left, right)
	e := NewEngine(settings)
	e.SetTrack(track, tracks.PaperFor(track))
	return e
}

// corridor heads north from the start at y=40 to the finish at y=10.
func corridor(settings Settings) *Engine {
	return newEngine(settings, line(10, 40, 10, 30, 10, 20, 10, 10), line(20, 40, 20, 30, 20, 20, 20, 10))
}

func play(t *testing.T, e *Engine, clicks ...geometry.Point) {
	t.Helper()
	for _, click := range clicks {
		if !e.Turn(click) {
			t.Fatalf("turn %v refused in stage %s", click, e.Stage())
		}
	}
}

func TestLattice(t *testing.T) {
	cases := []struct {
		name  string
		turns TurnsCount
		crash bool
		slots []int
	}{
		{"four", FourTurns, false, []int{0, 2, 6, 8}},
		{"five", FiveTurns, false, []int{0, 2, 4, 6, 8}},
		{"nine", NineTurns, false, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{"four after crash", FourTurns, true, []int{1, 3, 5, 7}},
		{"nine after crash", NineTurns, true, []int{1, 3, 4, 5, 7}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := lattice(pt(5, 5), tc.turns, tc.crash)
			if set.Count() != len(tc.slots) {
				t.Fatalf("expected %d candidates, got %d", len(tc.slots), set.Count())
			}
			for _, slot := range tc.slots {
				if set[slot].Kind != Clean {
					t.Fatalf("expected slot %d to exist", slot)
				}
			}
			if got := set[0]; !tc.crash && !got.Point.IsEqual(pt(4, 4)) {
				t.Fatalf("expected upper left corner at 4,4, got %v", got.Point)
			}
		})
	}
}

func TestStartPositions(t *testing.T) {
	cases := []struct {
		name     string
		start    geometry.Segment
		velocity Velocity
		first    geometry.Point
		count    int
	}{
		{"vertical downwards", geometry.NewSegment(pt(10, 10), pt(10, 15)), Velocity{Lateral: 1}, pt(10, 11), 4},
		{"vertical upwards", geometry.NewSegment(pt(10, 15), pt(10, 10)), Velocity{Lateral: -1}, pt(10, 11), 4},
		{"horizontal eastwards", geometry.NewSegment(pt(10, 40), pt(20, 40)), Velocity{Forward: -1}, pt(11, 40), 9},
		{"horizontal westwards", geometry.NewSegment(pt(20, 5), pt(10, 5)), Velocity{Forward: 1}, pt(11, 5), 9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine(DefaultSettings())
			options := e.StartPositions(tc.start)
			if len(options) != tc.count {
				t.Fatalf("expected %d options, got %d", tc.count, len(options))
			}
			if !options[0].IsEqual(tc.first) {
				t.Fatalf("expected first option %v, got %v", tc.first, options[0])
			}
			for _, option := range options {
				if option.Location != geometry.OnStart {
					t.Fatalf("expected %v to be tagged on start, got %s", option, option.Location)
				}
			}
			if e.Formula(1).Velocity() != tc.velocity || e.Formula(2).Velocity() != tc.velocity {
				t.Fatalf("expected start velocity %+v, got %+v", tc.velocity, e.Formula(1).Velocity())
			}
		})
	}
}

func TestFirstTurnOnStraightTrack(t *testing.T) {
	cases := []struct {
		name  string
		turns TurnsCount
		count int
	}{
		{"four", FourTurns, 4},
		{"nine", NineTurns, 9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Turns = tc.turns
			e := corridor(settings)
			if options := e.Prepare(); len(options) != 9 {
				t.Fatalf("expected 9 start options, got %d", len(options))
			}
			if e.Turn(pt(30, 30)) {
				t.Fatalf("expected a click off the start to be refused")
			}

			play(t, e, pt(15, 40))
			if len(e.StartOptions()) != 8 {
				t.Fatalf("expected the taken start to be removed")
			}
			play(t, e, pt(18, 40))

			if e.Stage() != NormalTurn || e.ActID() != 1 {
				t.Fatalf("expected racer 1 on a normal turn, got racer %d in %s", e.ActID(), e.Stage())
			}
			if last := e.Formula(1).Last(); !last.IsEqual(pt(15, 39)) {
				t.Fatalf("expected racer 1 at 15,39, got %v", last)
			}

			set := e.Candidates()
			if set.Count() != tc.count || len(set.Clean()) != tc.count {
				t.Fatalf("expected %d clean candidates, got %d of %d", tc.count, len(set.Clean()), set.Count())
			}
			center := pt(15, 38)
			for _, p := range set.Clean() {
				if abs(p.IntX()-center.IntX()) > 1 || abs(p.IntY()-center.IntY()) > 1 {
					t.Fatalf("candidate %v is not around %v", p, center)
				}
			}
		})
	}
}

func TestEdgeTouchIsCollision(t *testing.T) {
	e := corridor(DefaultSettings())
	set := e.divide(lattice(pt(11, 31), FourTurns, false), pt(12, 32), pt(50, 50))

	got := set[slotOf(-1, -1)]
	if got.Kind != Collision {
		t.Fatalf("expected touching the boundary end to be a collision, got %s", got.Kind)
	}
	if !got.Hit.IsEqual(pt(10, 30)) || got.Hit.Location != geometry.CollisionLeft {
		t.Fatalf("unexpected hit %v (%s)", got.Hit, got.Hit.Location)
	}
	if !got.Wall.First.IsEqual(pt(10, 40)) || !got.Wall.Last.IsEqual(pt(10, 30)) {
		t.Fatalf("unexpected wall %v", got.Wall)
	}
	if pos, _ := geometry.IntersectSegment(pt(12, 32), pt(10, 30), got.Wall); pos != geometry.Edge {
		t.Fatalf("expected edge, got %s", pos)
	}
	if got := set[slotOf(1, -1)]; got.Kind != Clean {
		t.Fatalf("expected 12,30 to be clean, got %s", got.Kind)
	}
}

func TestRivalCellIsSuppressed(t *testing.T) {
	e := corridor(DefaultSettings())
	set := e.divide(lattice(pt(15, 30), FourTurns, false), pt(15, 32), pt(16, 29))
	if set[slotOf(1, -1)].Kind != Absent || set.Count() != 3 {
		t.Fatalf("expected the rival cell to be removed, got %d candidates", set.Count())
	}
}

func TestFinishBeforeCrash(t *testing.T) {
	// the last left segment bends inwards behind the finish line
	e := newEngine(DefaultSettings(), line(10, 40, 10, 0, 14, 8), line(20, 40, 20, 8))
	set := e.divide(lattice(pt(12, 4), FourTurns, false), pt(17, 12), pt(50, 50))

	got := set[slotOf(-1, -1)]
	if got.Kind != Clean || got.Point.Location != geometry.Finish {
		t.Fatalf("expected a finish, got %s (%s)", got.Kind, got.Point.Location)
	}
	if got.Hit.IntX() != 14 || got.Hit.IntY() != 8 {
		t.Fatalf("expected the finish crossing as hit, got %v", got.Hit)
	}
}

func TestCrashAndRecovery(t *testing.T) {
	e := corridor(DefaultSettings())
	e.Prepare()
	play(t, e, pt(11, 40), pt(19, 40))
	e.Events()

	// racer 1 touches the left boundary at speed 2
	play(t, e, pt(10, 37))
	crashed := e.Formula(1)
	if crashed.Wait() != 3 || crashed.Moves() != 4 || crashed.Distance() != 3.24 {
		t.Fatalf("unexpected crash state wait=%d moves=%d distance=%.2f", crashed.Wait(), crashed.Moves(), crashed.Distance())
	}
	events := e.Events()
	if len(events) != 1 || events[0].Kind != EventCrash || events[0].Speed != 2 || events[0].Racer != 1 {
		t.Fatalf("unexpected events %+v", events)
	}
	if e.ActID() != 2 {
		t.Fatalf("expected racer 2 on turn, got %d", e.ActID())
	}

	// racer 2 plays while racer 1 waits
	play(t, e, pt(18, 37), pt(16, 34))
	if e.ActID() != 2 || crashed.Wait() != 1 {
		t.Fatalf("expected racer 2 to keep the turn, got racer %d with wait %d", e.ActID(), crashed.Wait())
	}
	play(t, e, pt(15, 30))

	if e.ActID() != 1 || crashed.Wait() != 0 {
		t.Fatalf("expected racer 1 to recover, got racer %d with wait %d", e.ActID(), crashed.Wait())
	}
	if last := crashed.Last(); !last.IsEqual(pt(11, 37)) {
		t.Fatalf("expected restart at 11,37, got %v", last)
	}
	set := e.Candidates()
	if len(set.Clean()) != 3 || len(set.Collisions()) != 1 || set[slotOf(-1, 0)].Kind != Collision {
		t.Fatalf("unexpected recovery candidates clean=%v bad=%v", set.Clean(), set.Collisions())
	}
	if set[slotOf(-1, -1)].Kind != Absent {
		t.Fatalf("expected no corners after a crash")
	}
}

func TestCollisionFinishType(t *testing.T) {
	settings := DefaultSettings()
	settings.Finish = FinishCollision
	e := corridor(settings)
	e.Prepare()
	play(t, e, pt(11, 40), pt(19, 40), pt(10, 37))

	if e.Stage() != GameOver {
		t.Fatalf("expected the crash to end the race, got %s", e.Stage())
	}
	res := e.Result()
	if res == nil || res.Winner != 2 || res.Draw {
		t.Fatalf("expected racer 2 to win, got %+v", res)
	}
	if e.Candidates().Count() != 0 {
		t.Fatalf("expected no candidates after the race")
	}
	events := e.Events()
	if len(events) != 2 || events[1].Kind != EventWinner {
		t.Fatalf("expected crash and winner events, got %+v", events)
	}
}

func TestFinish(t *testing.T) {
	cases := []struct {
		name   string
		finish FinishType
		clicks []geometry.Point
		winner int
	}{
		{"first win", FinishFirstWin, nil, 1},
		{"second chance", FinishSecondChance, []geometry.Point{pt(18, 2)}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Finish = tc.finish
			e := newEngine(settings, line(10, 12, 10, 4), line(20, 12, 20, 4))
			e.Prepare()
			play(t, e, pt(12, 12), pt(18, 12), pt(13, 9), pt(17, 9), pt(15, 6), pt(17, 6))

			if slot, ok := e.Candidates().Find(pt(16, 2)); !ok || e.Candidates()[slot].Point.Location != geometry.Finish {
				t.Fatalf("expected a finish candidate at 16,2")
			}
			play(t, e, pt(16, 2))
			if !e.Formula(1).Win() || e.Formula(1).Distance() != 9.09 {
				t.Fatalf("expected racer 1 to finish after 9.09, got %.2f", e.Formula(1).Distance())
			}

			play(t, e, tc.clicks...)
			if e.Stage() != GameOver {
				t.Fatalf("expected the race to be over, got %s", e.Stage())
			}
			if res := e.Result(); res.Winner != tc.winner || res.Draw {
				t.Fatalf("expected racer %d to win, got %+v", tc.winner, res)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	finisher := func(name string, dx, dy int) *Formula {
		f := NewFormula(name, HistoryMax)
		f.LengthBetween(pt(0, 0), pt(dx, dy))
		f.SetWin(true)
		return f
	}

	cases := []struct {
		name   string
		r1, r2 *Formula
		winner int
		draw   bool
	}{
		{"only first", finisher("a", 3, 4), NewFormula("b", HistoryMax), 1, false},
		{"shorter second", finisher("a", 6, 8), finisher("b", 3, 4), 2, false},
		{"equal distances", finisher("a", 3, 4), finisher("b", 4, 3), 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := decide(tc.r1, tc.r2)
			if res.Winner != tc.winner || res.Draw != tc.draw {
				t.Fatalf("expected winner %d draw %t, got %+v", tc.winner, tc.draw, res)
			}
			if res.Message == "" {
				t.Fatalf("expected a message")
			}
		})
	}
}

func TestAutoCrash(t *testing.T) {
	e := corridor(DefaultSettings())
	// every option lies behind the right boundary and off the paper
	e.SetTrack(e.Track(), tracks.Paper{Width: 21, Height: 50})
	e.SetStage(NormalTurn)
	racer := e.Formula(1)
	racer.AddPoint(pt(15, 30))
	racer.AddPoint(pt(19, 30))
	e.Formula(2).AddPoint(pt(12, 35))

	e.nextTurn(1, e.Formula(2).Last())
	if e.Stage() != AutoCrash {
		t.Fatalf("expected the auto crash stage, got %s", e.Stage())
	}
	if bad := e.Candidates().Collisions(); len(bad) != 4 {
		t.Fatalf("expected four collisions, got %v", bad)
	}
	events := e.Events()
	if len(events) != 1 || events[0].Kind != EventHint || events[0].Hint != HintNextCloseTurn || events[0].Racer != 1 {
		t.Fatalf("unexpected events %+v", events)
	}

	// the click is ignored, the collision nearest to 19,30 is 22,29
	play(t, e, pt(0, 0))
	hit := racer.Last()
	if hit.IntX() != 20 || hit.IntY() != 30 || hit.Location != geometry.CollisionRight {
		t.Fatalf("expected a hit on the right boundary near 20,30, got %v (%s)", hit, hit.Location)
	}
	if wall := racer.Collision(); !wall.First.IsEqual(pt(20, 30)) || !wall.Last.IsEqual(pt(20, 20)) {
		t.Fatalf("unexpected wall %v", wall)
	}
	if racer.Wait() != 4 {
		t.Fatalf("expected a wait of 4 after a speed 3 crash, got %d", racer.Wait())
	}
	events = e.Events()
	if len(events) != 1 || events[0].Kind != EventCrash || events[0].Speed != 3 {
		t.Fatalf("unexpected events %+v", events)
	}
	if e.Stage() != NormalTurn || e.ActID() != 2 {
		t.Fatalf("expected racer 2 on a normal turn, got racer %d in %s", e.ActID(), e.Stage())
	}
}

func TestAutoFinish(t *testing.T) {
	cases := []struct {
		name   string
		finish FinishType
		rival  bool
	}{
		{"first win", FinishFirstWin, false},
		{"second chance", FinishSecondChance, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Finish = tc.finish
			e := corridor(settings)
			e.SetStage(NormalTurn)
			racer := e.Formula(1)
			racer.AddPoint(pt(15, 26))
			racer.AddPoint(pt(15, 12))
			rival := e.Formula(2)
			rival.AddPoint(pt(18, 22))
			rival.AddPoint(pt(18, 20))

			// every option crosses the finish and leaves the paper
			e.nextTurn(1, rival.Last())
			if e.Stage() != AutoFinish {
				t.Fatalf("expected the auto finish stage, got %s", e.Stage())
			}
			for _, c := range e.Candidates() {
				if c.Kind != Absent && (c.Kind != Clean || c.Point.Location != geometry.Finish) {
					t.Fatalf("expected only finishing candidates, got %+v", c)
				}
			}

			play(t, e, pt(0, 0))
			if !racer.Win() || !racer.Last().IsEqual(pt(14, -1)) {
				t.Fatalf("expected racer 1 to finish at 14,-1, got %v", racer.Last())
			}
			if racer.Distance() != 3 || racer.Moves() != 2 {
				t.Fatalf("expected distance 3 in 2 moves, got %.2f in %d", racer.Distance(), racer.Moves())
			}

			if !tc.rival {
				if e.Stage() != GameOver || e.Result().Winner != 1 {
					t.Fatalf("expected racer 1 to win at once, got %s %+v", e.Stage(), e.Result())
				}
				return
			}

			if e.Stage() != NormalTurn || e.ActID() != 2 || e.Result() != nil {
				t.Fatalf("expected racer 2 to get a last turn, got racer %d in %s", e.ActID(), e.Stage())
			}
			play(t, e, pt(17, 17))
			if e.Stage() != GameOver {
				t.Fatalf("expected the race to be over, got %s", e.Stage())
			}
			if res := e.Result(); res.Winner != 1 || res.Draw || res.Distance != 3 {
				t.Fatalf("expected racer 1 to win, got %+v", res)
			}
		})
	}
}

func TestBothCrashWithEqualWaits(t *testing.T) {
	settings := DefaultSettings()
	settings.Turns = NineTurns
	e := corridor(settings)
	e.Prepare()
	play(t, e, pt(11, 40), pt(19, 40))

	// racer 1 hits the left boundary at speed 2, racer 2 the right one at speed 1
	play(t, e, pt(10, 37))
	first := e.Formula(1)
	if first.Wait() != 3 {
		t.Fatalf("expected racer 1 to wait 3, got %d", first.Wait())
	}
	play(t, e, pt(20, 38))
	second := e.Formula(2)

	// equal remaining penalties favour the racer that crashed first
	if e.ActID() != 1 || first.Wait() != 0 || second.Wait() != 1 {
		t.Fatalf("expected racer 1 to restart first, got racer %d with waits %d/%d", e.ActID(), first.Wait(), second.Wait())
	}
	if !first.Last().IsEqual(pt(11, 37)) {
		t.Fatalf("expected racer 1 to restart at 11,37, got %v", first.Last())
	}

	play(t, e, pt(11, 36))
	if e.ActID() != 2 || second.Wait() != 0 || !second.Last().IsEqual(pt(19, 38)) {
		t.Fatalf("expected racer 2 to restart at 19,38, got racer %d at %v with wait %d", e.ActID(), second.Last(), second.Wait())
	}
	if set := e.Candidates(); set.Count() != 5 || set[slotOf(-1, -1)].Kind != Absent {
		t.Fatalf("expected the recovery lattice, got %d candidates", set.Count())
	}

	play(t, e, pt(19, 37))
	if e.Stage() != NormalTurn || e.ActID() != 1 {
		t.Fatalf("expected racer 1 on a normal turn, got racer %d in %s", e.ActID(), e.Stage())
	}
	if set := e.Candidates(); set.Count() != 9 {
		t.Fatalf("expected a full lattice, got %d candidates", set.Count())
	}
}

func TestCrashTurnOffSlantedWall(t *testing.T) {
	northEast := geometry.NewSegment(pt(10, 40), pt(20, 30))
	northWest := geometry.NewSegment(pt(20, 40), pt(10, 30))

	cases := []struct {
		name     string
		wall     geometry.Segment
		location geometry.Location
		want     geometry.Point
		side     geometry.Side
	}{
		{"left wall heading north east", northEast, geometry.CollisionLeft, pt(16, 36), geometry.Right},
		{"right wall heading north east", northEast, geometry.CollisionRight, pt(14, 34), geometry.Left},
		{"left wall heading north west", northWest, geometry.CollisionLeft, pt(16, 34), geometry.Right},
		{"right wall heading north west", northWest, geometry.CollisionRight, pt(14, 36), geometry.Left},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := corridor(DefaultSettings())
			e.SetStage(NormalTurn)
			racer := e.Formula(1)
			racer.AddPoint(pt(15, 35).WithLocation(tc.location))
			racer.SetCollision(tc.wall)

			e.crashTurn()
			center := racer.Last()
			if !center.IsEqual(tc.want) || center.Location != geometry.Normal {
				t.Fatalf("expected restart at %v, got %v", tc.want, center)
			}
			if side := geometry.SideOf(center, tc.wall); side != tc.side {
				t.Fatalf("expected the restart %s of the wall, got %s", tc.side, side)
			}
			if set := e.Candidates(); set.Count() != 4 || set[slotOf(0, 0)].Kind != Absent {
				t.Fatalf("expected the four sides around the restart, got %d candidates", set.Count())
			}
		})
	}
}
