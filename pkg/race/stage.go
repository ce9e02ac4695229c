package race

import "github.com/pkg/errors"

// Stage of the whole game. Building and editing stages come before the race
// so that a single value orders them all.
type Stage int

const (
	BuildLeft Stage = iota + 1
	BuildRight
	EditPress
	EditRelease
	FirstTurn
	NormalTurn
	AutoCrash
	AutoFinish
	GameOver
)

var stageNames = map[Stage]string{
	BuildLeft:   "build-left",
	BuildRight:  "build-right",
	EditPress:   "edit-press",
	EditRelease: "edit-release",
	FirstTurn:   "first-turn",
	NormalTurn:  "normal-turn",
	AutoCrash:   "auto-crash",
	AutoFinish:  "auto-finish",
	GameOver:    "game-over",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	for stage, name := range stageNames {
		if name == string(text) {
			*s = stage
			return nil
		}
	}
	if string(text) == "unknown" {
		*s = 0
		return nil
	}
	return errors.Errorf("unknown stage %q", text)
}

// Racing is true for the stages in which the formulas move.
func (s Stage) Racing() bool {
	return s >= FirstTurn && s <= AutoFinish
}

// EventKind tells the receiver which fields of an Event are set.
type EventKind int

const (
	EventHint EventKind = iota
	EventCrash
	EventWinner
)

const HintNextCloseTurn = "no move is visible, the closest one is played"

// Event is something the engine reports to the outside while resolving a
// turn. Events are queued and drained by the caller.
type Event struct {
	Kind   EventKind
	Racer  int
	Speed  int
	Hint   string
	Result *Result
}
