package standings

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"formulagame/pkg/game"
	"formulagame/pkg/helper"
	"formulagame/pkg/store"
)

const (
	tableRacer    = "RAC"
	tableMoves    = "Moves"
	tableDistance = "Distance"
	tableWait     = "Wait"
	tableStatus   = "Status"
	tableTrack    = "Track"
	tableWinner   = "Winner"
)

// Race renders the state of both formulas.
func Race(s game.Snapshot) string {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.AppendSeparator()

	t.AppendHeader(table.Row{tableRacer, tableMoves, tableDistance, tableWait, tableStatus})
	for _, r := range s.Racers {
		t.AppendRow([]interface{}{
			helper.RacerCode(r.Name),
			fmt.Sprintf("%d", r.Moves),
			helper.FormatDistance(r.Distance),
			helper.FormatWait(r.Wait),
			status(s, r),
		})
	}
	t.Render()
	if s.Result != nil {
		b.WriteString(s.Result.Message + "\n")
	}
	return b.String()
}

func status(s game.Snapshot, r game.RacerState) string {
	switch {
	case s.Result != nil && s.Result.Draw:
		return "draw"
	case s.Result != nil && s.Result.Winner == r.ID:
		return "winner"
	case s.Result != nil:
		return "beaten"
	case r.Win:
		return "finished"
	case !s.Stage.Racing():
		return "-"
	case s.ActID == r.ID:
		return "on turn"
	case r.Wait > 0:
		return "crashed"
	}
	return "waiting"
}

// Results renders stored race results, one per row.
func Results(records []store.ResultRecord) string {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	style := table.StyleRounded
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.AppendSeparator()

	t.AppendHeader(table.Row{"#", tableTrack, tableWinner, tableDistance, tableMoves})
	for idx, r := range records {
		winner := helper.RacerCode(r.Winner)
		if r.Draw {
			winner = "draw"
		}
		t.AppendRow([]interface{}{
			fmt.Sprintf("%d", idx+1),
			r.Track,
			winner,
			helper.FormatDistance(r.Distance),
			fmt.Sprintf("%d", r.Moves),
		})
	}
	t.Render()
	return b.String()
}
