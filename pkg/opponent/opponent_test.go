package opponent

import (
	"testing"

	"formulagame/pkg/checklines"
	"formulagame/pkg/geometry"
	"formulagame/pkg/race"
	"formulagame/pkg/tracks"
)

func pt(x, y int) geometry.Point {
	return geometry.NewPoint(float64(x), float64(y))
}

// corridorLines are the checklines of a straight track heading north,
// one every ten squares from y=40 to y=10.
func corridorLines(t *testing.T) []geometry.Segment {
	t.Helper()
	track := tracks.NewTrack()
	track.SetLines(
		[]geometry.Point{pt(10, 40), pt(10, 30), pt(10, 20), pt(10, 10)},
		[]geometry.Point{pt(20, 40), pt(20, 30), pt(20, 20), pt(20, 10)},
	)
	lines := checklines.Analyze(track)
	if len(lines) != 4 {
		t.Fatalf("expected 4 checklines, got %d", len(lines))
	}
	return lines
}

func racer(points ...geometry.Point) *race.Formula {
	f := race.NewFormula("computer", race.HistoryMax)
	for _, p := range points {
		f.AddPoint(p)
	}
	return f
}

func candidates(clean []geometry.Point, bad []geometry.Point) race.CandidateSet {
	var set race.CandidateSet
	i := 0
	for _, p := range clean {
		set[i] = race.Candidate{Kind: race.Clean, Point: p}
		i++
	}
	for _, p := range bad {
		set[i] = race.Candidate{Kind: race.Collision, Point: p, Hit: p}
		i++
	}
	return set
}

func TestBrakingDistance(t *testing.T) {
	if BrakingDistance(1) != 0 || BrakingDistance(0) != 0 {
		t.Fatalf("expected no braking distance at speed 1")
	}
	if BrakingDistance(5) != 10 {
		t.Fatalf("expected 4+3+2+1 at speed 5, got %d", BrakingDistance(5))
	}
	for v := 1; v < 30; v++ {
		if BrakingDistance(v) >= BrakingDistance(v+1) {
			t.Fatalf("braking distance is not increasing at %d", v)
		}
	}
}

func TestNew(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"easy", true},
		{"Moderate", true},
		{"hard", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.name)
			if (err == nil) != tc.ok {
				t.Fatalf("unexpected result %v", err)
			}
		})
	}
}

func TestSelectTurn(t *testing.T) {
	lines := corridorLines(t)
	moving := racer(pt(15, 35), pt(15, 33))
	lattice := []geometry.Point{pt(14, 30), pt(16, 30), pt(14, 32), pt(16, 32)}

	cases := []struct {
		name   string
		policy Policy
		view   View
		want   geometry.Point
		index  int
	}{
		{
			name:   "easy crosses the next checkline",
			policy: &Easy{},
			view:   View{Racer: moving, Candidates: candidates(lattice, nil), CheckLines: lines},
			want:   pt(14, 30),
			index:  1,
		},
		{
			name:   "easy takes the finish",
			policy: &Easy{},
			view: View{
				Racer:      moving,
				Candidates: candidates([]geometry.Point{pt(14, 30), pt(16, 30).WithLocation(geometry.Finish)}, nil),
				CheckLines: lines,
			},
			want:  pt(16, 30),
			index: 1,
		},
		{
			name:   "easy prefers the finish line",
			policy: &Easy{},
			view: View{
				Racer:      moving,
				Candidates: candidates([]geometry.Point{pt(16, 30).WithLocation(geometry.FinishLine), pt(14, 30)}, nil),
				CheckLines: lines,
			},
			want: pt(16, 30),
		},
		{
			name:   "easy crashes softly",
			policy: &Easy{},
			view:   View{Racer: moving, Candidates: candidates(nil, []geometry.Point{pt(10, 25), pt(12, 31)}), CheckLines: lines},
			want:   pt(12, 31),
		},
		{
			name:   "moderate crosses the next checkline",
			policy: &Moderate{},
			view:   View{Racer: moving, Candidates: candidates(lattice, nil), CheckLines: lines},
			want:   pt(14, 30),
			index:  1,
		},
		{
			name:   "moderate takes the only clean move",
			policy: &Moderate{},
			view:   View{Racer: moving, Candidates: candidates([]geometry.Point{pt(16, 32)}, []geometry.Point{pt(14, 30)}), CheckLines: lines},
			want:   pt(16, 32),
		},
		{
			name:   "moderate sprints to the finish",
			policy: &Moderate{index: 2, sprint: true},
			view: View{
				Racer:      racer(pt(14, 17), pt(14, 14)),
				Candidates: candidates([]geometry.Point{pt(13, 10), pt(15, 10), pt(13, 12), pt(15, 12)}, nil),
				CheckLines: lines,
			},
			want:  pt(15, 10),
			index: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.policy.SelectTurn(tc.view)
			if !got.IsEqual(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if tc.policy.CheckLinesIndex() != tc.index {
				t.Fatalf("expected checkline index %d, got %d", tc.index, tc.policy.CheckLinesIndex())
			}
			tc.policy.Reset()
			if tc.policy.CheckLinesIndex() != 0 {
				t.Fatalf("expected reset to rewind the checklines")
			}
		})
	}
}
