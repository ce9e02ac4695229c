package checklines

import (
	"testing"

	"formulagame/pkg/geometry"
	"formulagame/pkg/tracks"
)

func line(coords ...int) []geometry.Point {
	out := make([]geometry.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, geometry.NewPoint(float64(coords[i]), float64(coords[i+1])))
	}
	return out
}

func track(left, right []geometry.Point) *tracks.Track {
	t := tracks.NewTrack()
	t.SetLines(left, right)
	return t
}

func sameSegment(a, b geometry.Segment) bool {
	return a.First.IsEqual(b.First) && a.Last.IsEqual(b.Last)
}

func TestAnalyze(t *testing.T) {
	cases := []struct {
		name  string
		track *tracks.Track
		want  []geometry.Segment
	}{
		{
			name:  "straight corridor",
			track: track(line(10, 40, 10, 30, 10, 20, 10, 10), line(20, 40, 20, 30, 20, 20, 20, 10)),
			want: []geometry.Segment{
				geometry.NewSegment(geometry.NewPoint(10, 40), geometry.NewPoint(20, 40)),
				geometry.NewSegment(geometry.NewPoint(10, 30), geometry.NewPoint(20, 30)),
				geometry.NewSegment(geometry.NewPoint(10, 20), geometry.NewPoint(20, 20)),
				geometry.NewSegment(geometry.NewPoint(10, 10), geometry.NewPoint(20, 10)),
			},
		},
		{
			name:  "right side longer",
			track: track(line(10, 40, 10, 10), line(20, 40, 20, 30, 20, 20, 20, 10)),
			want: []geometry.Segment{
				geometry.NewSegment(geometry.NewPoint(10, 40), geometry.NewPoint(20, 40)),
				geometry.NewSegment(geometry.NewPoint(10, 40), geometry.NewPoint(20, 30)),
				geometry.NewSegment(geometry.NewPoint(10, 10), geometry.NewPoint(20, 20)),
				geometry.NewSegment(geometry.NewPoint(10, 10), geometry.NewPoint(20, 10)),
			},
		},
		{
			name:  "skipped short point is paired back",
			track: track(line(10, 40, 10, 30, 10, 20, 10, 10), line(20, 40, 20, 35, 20, 30, 20, 10)),
			want: []geometry.Segment{
				geometry.NewSegment(geometry.NewPoint(10, 40), geometry.NewPoint(20, 40)),
				geometry.NewSegment(geometry.NewPoint(10, 40), geometry.NewPoint(20, 35)),
				geometry.NewSegment(geometry.NewPoint(10, 30), geometry.NewPoint(20, 30)),
				geometry.NewSegment(geometry.NewPoint(10, 20), geometry.NewPoint(20, 30)),
				geometry.NewSegment(geometry.NewPoint(10, 10), geometry.NewPoint(20, 10)),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Analyze(tc.track)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d checklines, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range got {
				if !sameSegment(got[i], tc.want[i]) {
					t.Fatalf("checkline %d: expected %v, got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestAnalyzeAlwaysStartsAndFinishes(t *testing.T) {
	tr := track(line(10, 40, 10, 10), line(20, 40, 20, 10))
	got := Analyze(tr)
	if len(got) < 2 {
		t.Fatalf("expected at least start and finish, got %v", got)
	}
	if !sameSegment(got[0], tr.Start()) || !sameSegment(got[len(got)-1], tr.Finish()) {
		t.Fatalf("expected start first and finish last, got %v", got)
	}
}

func TestAnalyzeStraightCorridors(t *testing.T) {
	for left := 1; left <= 12; left++ {
		for width := 1; width <= 48; width++ {
			for step := 1; step <= 6; step++ {
				right := left + width
				top := 5 + 3*step
				l := line(left, top, left, top-step, left, top-2*step, left, top-3*step)
				r := line(right, top, right, top-step, right, top-2*step, right, top-3*step)

				got := Analyze(track(l, r))
				if len(got) != len(l) {
					t.Fatalf("corridor x=%d..%d step %d: expected %d checklines, got %v", left, right, step, len(l), got)
				}
				for i := range got {
					want := geometry.NewSegment(l[i], r[i])
					if !sameSegment(got[i], want) {
						t.Fatalf("corridor x=%d..%d step %d: checkline %d expected %v, got %v", left, right, step, i, want, got[i])
					}
				}
			}
		}
	}
}
