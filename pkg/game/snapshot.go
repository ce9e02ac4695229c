package game

import (
	"formulagame/pkg/geometry"
	"formulagame/pkg/race"
	"formulagame/pkg/tracks"
)

// RacerState is a copy of one formula for display.
type RacerState struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Points   []geometry.Point `json:"points"`
	Velocity race.Velocity    `json:"velocity"`
	Moves    int              `json:"moves"`
	Distance float64          `json:"distance"`
	Wait     int              `json:"wait"`
	Win      bool             `json:"win"`
}

// Snapshot is a consistent copy of the game, detached from the manager.
type Snapshot struct {
	Stage        race.Stage         `json:"stage"`
	ActID        int                `json:"actId"`
	Settings     race.Settings      `json:"settings"`
	TrackName    string             `json:"trackName,omitempty"`
	Paper        tracks.Paper       `json:"paper"`
	Left         []geometry.Point   `json:"left"`
	Right        []geometry.Point   `json:"right"`
	Ready        bool               `json:"ready"`
	CheckLines   []geometry.Segment `json:"checkLines"`
	Candidates   race.CandidateSet  `json:"candidates"`
	StartOptions []geometry.Point   `json:"startOptions"`
	BuildOptions []geometry.Point   `json:"buildOptions"`
	Racers       []RacerState       `json:"racers"`
	Result       *race.Result       `json:"result,omitempty"`
	Computer     bool               `json:"computer"`
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.engine.Track().Clone()
	s := Snapshot{
		Stage:        m.engine.Stage(),
		ActID:        m.engine.ActID(),
		Settings:     m.engine.Settings(),
		TrackName:    m.trackName,
		Paper:        m.engine.Paper(),
		Left:         t.Left(),
		Right:        t.Right(),
		Ready:        t.Ready(),
		CheckLines:   append([]geometry.Segment(nil), m.checkLines...),
		Candidates:   m.engine.Candidates(),
		StartOptions: m.engine.StartOptions(),
		BuildOptions: append([]geometry.Point(nil), m.builder.Options()...),
		Result:       m.engine.Result(),
		Computer:     m.computer != nil,
	}
	for id := 1; id <= 2; id++ {
		f := m.engine.Formula(id)
		s.Racers = append(s.Racers, RacerState{
			ID:       id,
			Name:     f.Name,
			Points:   f.Points(),
			Velocity: f.Velocity(),
			Moves:    f.Moves(),
			Distance: f.Distance(),
			Wait:     f.Wait(),
			Win:      f.Win(),
		})
	}
	return s
}
