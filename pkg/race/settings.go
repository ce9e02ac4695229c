package race

import (
	"strings"

	"github.com/pkg/errors"
)

// TurnsCount is the number of lattice points offered on a normal turn.
type TurnsCount int

const (
	FourTurns TurnsCount = 4
	FiveTurns TurnsCount = 5
	NineTurns TurnsCount = 9
)

func ParseTurnsCount(n int) (TurnsCount, error) {
	switch TurnsCount(n) {
	case FourTurns, FiveTurns, NineTurns:
		return TurnsCount(n), nil
	}
	return FourTurns, errors.Errorf("unsupported turns count %d", n)
}

// FinishType decides how the race ends.
type FinishType int

const (
	// FinishCollision ends the race on the first crash, the rival wins.
	FinishCollision FinishType = iota
	// FinishFirstWin ends the race when either racer crosses the finish.
	FinishFirstWin
	// FinishSecondChance lets racer 2 play one more turn after racer 1 finishes.
	FinishSecondChance
)

var finishNames = map[FinishType]string{
	FinishCollision:    "collision",
	FinishFirstWin:     "first-win",
	FinishSecondChance: "second-chance",
}

func (f FinishType) String() string {
	return finishNames[f]
}

func (f FinishType) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FinishType) UnmarshalText(text []byte) error {
	parsed, err := ParseFinishType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func ParseFinishType(s string) (FinishType, error) {
	for f, name := range finishNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return FinishFirstWin, errors.Errorf("unknown finish type %q", s)
}

// History lengths offered for the formula trace.
const (
	History3   = 3
	History5   = 5
	History10  = 10
	History20  = 20
	HistoryMax = 999
)

func ParseHistoryLength(n int) (int, error) {
	switch n {
	case History3, History5, History10, History20, HistoryMax:
		return n, nil
	}
	return HistoryMax, errors.Errorf("unsupported history length %d", n)
}

type Settings struct {
	Turns   TurnsCount `json:"turns"`
	Finish  FinishType `json:"finish"`
	History int        `json:"history"`
}

func DefaultSettings() Settings {
	return Settings{Turns: FourTurns, Finish: FinishFirstWin, History: HistoryMax}
}
