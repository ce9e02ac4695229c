package standings

import (
	"strings"
	"testing"

	"formulagame/pkg/game"
	"formulagame/pkg/race"
	"formulagame/pkg/store"
)

func TestRace(t *testing.T) {
	cases := []struct {
		name     string
		snapshot game.Snapshot
		want     []string
	}{
		{
			name: "running race",
			snapshot: game.Snapshot{
				Stage: race.NormalTurn,
				ActID: 1,
				Racers: []game.RacerState{
					{ID: 1, Name: "Player 1", Moves: 4, Distance: 3.24},
					{ID: 2, Name: "Computer", Moves: 5, Wait: 2},
				},
			},
			want: []string{"PL1", "COM", "3.24 sq", "2 turns", "on turn", "crashed"},
		},
		{
			name: "finished race",
			snapshot: game.Snapshot{
				Stage:  race.GameOver,
				Result: &race.Result{Winner: 2, Message: "Computer wins after 8 moves and 28.25 squares"},
				Racers: []game.RacerState{
					{ID: 1, Name: "Player 1"},
					{ID: 2, Name: "Computer", Win: true},
				},
			},
			want: []string{"winner", "beaten", "Computer wins after 8 moves"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Race(tc.snapshot)
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Fatalf("expected %q in\n%s", w, out)
				}
			}
		})
	}
}

func TestResults(t *testing.T) {
	out := Results([]store.ResultRecord{
		{Track: "corridor", Winner: "Computer", Distance: 28.25, Moves: 8},
		{Track: "alley", Draw: true, Distance: 12, Moves: 3},
	})
	for _, w := range []string{"corridor", "COM", "28.25 sq", "alley", "draw"} {
		if !strings.Contains(out, w) {
			t.Fatalf("expected %q in\n%s", w, out)
		}
	}
}
