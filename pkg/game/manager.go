package game

import (
	"log"
	"sync"

	"github.com/pkg/errors"

	"formulagame/pkg/checklines"
	"formulagame/pkg/geometry"
	"formulagame/pkg/opponent"
	"formulagame/pkg/pubsub"
	"formulagame/pkg/queues"
	"formulagame/pkg/race"
	"formulagame/pkg/tracks"
)

var (
	ErrTrackNotReady = errors.New("track is not ready")
	ErrNoComputer    = errors.New("no computer opponent")
)

// maxComputerTurns bounds the moves the computer plays in a row while the
// human formula waits after a crash.
const maxComputerTurns = 64

// Manager owns one game: the track being built or raced on, the race engine
// and the optional computer opponent. All methods are safe for concurrent
// use; events are published once the state lock is released.
type Manager struct {
	mu         sync.Mutex
	engine     *race.Engine
	builder    *tracks.Builder
	editor     *tracks.Editor
	computer   opponent.Policy
	checkLines []geometry.Segment
	paper      tracks.Paper
	trackName  string
	pending    *queues.Queue[Event]
	ps         *pubsub.PubSub[Event]
}

// NewManager creates a game in the building stage on an empty track. A nil
// computer means two human players.
func NewManager(ps *pubsub.PubSub[Event], settings race.Settings, computer opponent.Policy) *Manager {
	engine := race.NewEngine(settings)
	return &Manager{
		engine:   engine,
		builder:  tracks.NewBuilder(engine.Track()),
		editor:   tracks.NewEditor(engine.Track()),
		computer: computer,
		paper:    tracks.DefaultPaper(),
		pending:  queues.NewQueue[Event](),
		ps:       ps,
	}
}

// do runs fn under the lock and publishes what it queued afterwards.
func (m *Manager) do(fn func()) {
	m.mu.Lock()
	fn()
	m.collect()
	events := m.pending.Drain()
	m.mu.Unlock()

	if m.ps == nil {
		return
	}
	for _, ev := range events {
		m.ps.Publish(ev.Topic, ev)
	}
}

// collect moves the engine events onto the pending queue.
func (m *Manager) collect() {
	for _, ev := range m.engine.Events() {
		switch ev.Kind {
		case race.EventHint:
			m.hint(ev.Hint)
		case race.EventCrash:
			m.push(Event{Topic: TopicCrash, Racer: ev.Racer, Speed: ev.Speed})
		case race.EventWinner:
			e := Event{Topic: TopicWinner, Result: ev.Result, Track: m.trackName}
			if ev.Result != nil {
				e.Racer = ev.Result.Winner
				e.Message = ev.Result.Message
			}
			m.push(e)
		}
	}
}

func (m *Manager) push(ev Event) {
	ev.Stage = m.engine.Stage()
	m.pending.Push(ev)
}

func (m *Manager) hint(text string) {
	m.push(Event{Topic: TopicHint, Hint: text})
}

func (m *Manager) repaint() {
	m.push(Event{Topic: TopicRepaint})
}

func (m *Manager) trackReady(ready bool) {
	m.push(Event{Topic: TopicTrackReady, Ready: ready})
}

func (m *Manager) Stage() race.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Stage()
}

func (m *Manager) Settings() race.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Settings()
}

func (m *Manager) SetSettings(s race.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.SetSettings(s)
}

// SetPaper sets the paper of an empty track, used until a track is loaded.
func (m *Manager) SetPaper(p tracks.Paper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paper = p
	if len(m.engine.Track().Left()) == 0 && len(m.engine.Track().Right()) == 0 {
		m.engine.SetTrack(m.engine.Track(), p)
	}
}

// SetTrackName names the current track in winner events and snapshots.
func (m *Manager) SetTrackName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackName = name
}

// TrackSaved names the current track after it was stored under name.
func (m *Manager) TrackSaved(name string) {
	m.do(func() {
		m.trackName = name
		m.hint(HintTrackSaved)
	})
}

// SetOpponent switches between a computer rival and two human players (nil).
func (m *Manager) SetOpponent(p opponent.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computer = p
}

func (m *Manager) SetRacerNames(first, second string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if first != "" {
		m.engine.Formula(1).Name = first
	}
	if second != "" {
		m.engine.Formula(2).Name = second
	}
}

// ApplyTurn handles a click on the paper: it builds the track in the
// building stages and plays the racer on turn during a race.
func (m *Manager) ApplyTurn(p geometry.Point) TurnOutcome {
	var out TurnOutcome
	m.do(func() {
		p = p.Rounded()
		stage := m.engine.Stage()
		out.Racer = m.engine.ActID()
		if m.engine.Paper().IsOutside(p) && stage != race.AutoFinish {
			m.hint(HintOutside)
			return
		}
		switch {
		case stage == race.BuildLeft || stage == race.BuildRight:
			out.Accepted = m.buildPoint(p).Added
		case stage.Racing():
			out = m.playerTurn(p)
		}
	})
	return out
}

// ApplySlot plays the candidate in keypad slot n (0..8, row by row).
func (m *Manager) ApplySlot(n int) TurnOutcome {
	var out TurnOutcome
	m.do(func() {
		out.Racer = m.engine.ActID()
		stage := m.engine.Stage()
		if stage <= race.FirstTurn || stage > race.AutoFinish || n < 0 || n >= len(race.CandidateSet{}) {
			return
		}
		c := m.engine.Candidates()[n]
		if c.Kind == race.Absent {
			return
		}
		out = m.playerTurn(c.Point)
	})
	return out
}

func (m *Manager) playerTurn(p geometry.Point) TurnOutcome {
	racer := m.engine.ActID()
	if !m.engine.Turn(p) {
		return TurnOutcome{Racer: racer}
	}
	m.collect()
	if m.computer != nil {
		m.computerTurns()
	}
	m.repaint()
	return TurnOutcome{Accepted: true, Racer: racer, Winner: m.engine.Result()}
}

// computerTurns plays the computer for as long as it stays on turn.
func (m *Manager) computerTurns() {
	for i := 0; i < maxComputerTurns; i++ {
		if m.engine.ActID() != 2 || !m.engine.Stage().Racing() {
			return
		}
		if i > 0 {
			m.hint(HintComputerAgain)
		}
		if !m.engine.Turn(m.computerSelect()) {
			log.Printf("computer move refused in stage %s\n", m.engine.Stage())
			return
		}
		m.collect()
	}
}

// computerSelect asks the policy for a move. On the start line the
// computer takes the free position closest to the middle of the line.
func (m *Manager) computerSelect() geometry.Point {
	if m.engine.Stage() == race.FirstTurn {
		mid := m.engine.Track().Start().MidPoint()
		_, p, _ := geometry.FindNearest(mid, m.engine.StartOptions())
		return p
	}
	return m.computer.SelectTurn(opponent.View{
		Racer:      m.engine.Formula(2),
		Candidates: m.engine.Candidates(),
		CheckLines: m.checkLines,
	})
}

// ComputerMove lets the computer play its pending turn, as when the human
// hands over the start line choice. It returns the point played.
func (m *Manager) ComputerMove() (geometry.Point, error) {
	var (
		played geometry.Point
		err    error
	)
	m.do(func() {
		switch {
		case m.computer == nil:
			err = ErrNoComputer
		case m.engine.ActID() != 2 || !m.engine.Stage().Racing():
			err = errors.Errorf("computer is not on turn in stage %s", m.engine.Stage())
		default:
			played = m.computerSelect()
			if !m.engine.Turn(played) {
				err = errors.Errorf("computer move %v refused", played)
				return
			}
			m.collect()
			m.computerTurns()
			m.repaint()
		}
	})
	return played, err
}

// CandidateOptions are the moves offered to the racer on turn.
func (m *Manager) CandidateOptions() race.CandidateSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Candidates()
}

// PrepareGame puts both formulas on the start line of a ready track.
func (m *Manager) PrepareGame() ([]geometry.Point, error) {
	var (
		options []geometry.Point
		err     error
	)
	m.do(func() {
		options, err = m.prepare()
	})
	return options, err
}

func (m *Manager) prepare() ([]geometry.Point, error) {
	if !m.engine.Track().Ready() {
		return nil, ErrTrackNotReady
	}
	if m.computer != nil {
		m.computer.Reset()
	}
	m.checkLines = checklines.Analyze(m.engine.Track())
	options := m.engine.Prepare()
	m.hint(HintStartPosition)
	m.repaint()
	return options, nil
}

// ResetRace restarts the race on the current track.
func (m *Manager) ResetRace() error {
	var err error
	m.do(func() {
		_, err = m.prepare()
	})
	return err
}

// EndGame leaves the race and returns to building.
func (m *Manager) EndGame() {
	m.do(func() {
		m.endGame()
		m.repaint()
	})
}

func (m *Manager) endGame() {
	m.engine.SetStage(race.BuildLeft)
	m.checkLines = nil
	m.engine.Reset()
}

// ResetGame drops the track and starts over on an empty paper.
func (m *Manager) ResetGame() {
	m.do(func() {
		m.setTrack(tracks.NewTrack(), m.paper)
		m.trackName = ""
		m.endGame()
		m.trackReady(false)
		m.repaint()
	})
}

func (m *Manager) setTrack(t *tracks.Track, paper tracks.Paper) {
	m.engine.SetTrack(t, paper)
	m.builder.SetTrack(t)
	m.editor = tracks.NewEditor(t)
}

// SwitchStart swaps start and finish of the track.
func (m *Manager) SwitchStart() {
	m.do(func() {
		m.endGame()
		m.engine.Track().SwitchStart()
		if m.engine.Track().Ready() {
			m.checkLines = checklines.Analyze(m.engine.Track())
		}
		m.repaint()
	})
}

// StartBuild picks the side the next clicks draw.
func (m *Manager) StartBuild(side geometry.Side) tracks.Hint {
	var hint tracks.Hint
	m.do(func() {
		hint = m.builder.StartBuild(side)
		if hint != tracks.NoHint {
			m.hint(hint.String())
			return
		}
		if m.engine.Stage().Racing() || m.engine.Stage() == race.GameOver {
			m.endGame()
		}
		if side == geometry.Left {
			m.engine.SetStage(race.BuildLeft)
		} else {
			m.engine.SetStage(race.BuildRight)
		}
		m.repaint()
	})
	return hint
}

// BuildPoint adds a point to the side being built.
func (m *Manager) BuildPoint(p geometry.Point) tracks.BuildResult {
	var res tracks.BuildResult
	m.do(func() {
		res = m.buildPoint(p.Rounded())
	})
	return res
}

func (m *Manager) buildPoint(p geometry.Point) tracks.BuildResult {
	stage := m.engine.Stage()
	if stage != race.BuildLeft && stage != race.BuildRight {
		return tracks.BuildResult{Hint: tracks.HintChooseSide}
	}
	res := m.builder.BuildPoint(p)
	m.afterBuild(res)
	return res
}

// DeletePoint removes the last point of the side being built.
func (m *Manager) DeletePoint() tracks.BuildResult {
	var res tracks.BuildResult
	m.do(func() {
		stage := m.engine.Stage()
		if stage != race.BuildLeft && stage != race.BuildRight {
			res = tracks.BuildResult{Hint: tracks.HintChooseSide}
			return
		}
		res = m.builder.DeletePoint()
		m.afterBuild(res)
		if !res.ReadyChecked {
			m.engine.Track().SetReady(false)
			m.trackReady(false)
		}
	})
	return res
}

func (m *Manager) afterBuild(res tracks.BuildResult) {
	if res.Hint != tracks.NoHint {
		m.hint(res.Hint.String())
	}
	if res.ReadyChecked {
		m.engine.Track().SetReady(res.Ready)
		m.trackReady(res.Ready)
	}
	m.repaint()
}

// EditPoints switches to moving the interior points of a ready track.
func (m *Manager) EditPoints() error {
	var err error
	m.do(func() {
		if !m.engine.Track().Ready() {
			err = ErrTrackNotReady
			return
		}
		m.endGame()
		m.engine.SetStage(race.EditPress)
		m.hint(tracks.HintMovePoints.String())
		m.repaint()
	})
	return err
}

// GrabPoint selects the track point to move.
func (m *Manager) GrabPoint(p geometry.Point) bool {
	var ok bool
	m.do(func() {
		if m.engine.Stage() != race.EditPress {
			return
		}
		ok = m.editor.Grab(p.Rounded())
		if !ok {
			m.hint(HintNoPoint)
			return
		}
		m.engine.SetStage(race.EditRelease)
	})
	return ok
}

// ReleasePoint drops the grabbed point on p. It reports false when the
// move was refused.
func (m *Manager) ReleasePoint(p geometry.Point) bool {
	var ok bool
	m.do(func() {
		if m.engine.Stage() != race.EditRelease {
			return
		}
		m.engine.SetStage(race.EditPress)
		ok = m.editor.Move(p.Rounded())
		if !ok {
			m.hint(tracks.HintBadMove.String())
		}
		m.repaint()
	})
	return ok
}

// LoadTrack replaces the track with a stored one. On a decoding error the
// current track is kept.
func (m *Manager) LoadTrack(data []byte) error {
	var err error
	m.do(func() {
		t, _, uerr := tracks.Unmarshal(data)
		if uerr != nil {
			err = errors.Wrap(uerr, "loading track")
			m.hint(HintTrackNotLoaded)
			return
		}
		m.setTrack(t, tracks.PaperFor(t))
		m.endGame()
		m.checkLines = checklines.Analyze(t)
		m.trackReady(true)
		m.repaint()
	})
	return err
}

// SaveTrack encodes the current track together with the paper size.
func (m *Manager) SaveTrack() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.engine.Track()
	if len(t.Left()) < 2 || len(t.Right()) < 2 {
		return nil, ErrTrackNotReady
	}
	return tracks.Marshal(t, m.engine.Paper())
}
