package race

// WaitTask is the situation the mover ends its turn in.
type WaitTask int

const (
	TaskNormal WaitTask = iota
	TaskInterFinish
	TaskBothCrash
)

// WaitAction is what happens after the mover's turn.
type WaitAction int

const (
	// RivalMoves hands the turn to the rival with a normal lattice.
	RivalMoves WaitAction = iota
	// RivalRecovers hands the turn to the rival, who restarts after a crash.
	RivalRecovers
	// MoverMoves keeps the turn with the mover while the rival waits.
	MoverMoves
	// MoverRecovers keeps the turn with the mover, who restarts after a crash.
	MoverRecovers
	// RaceOver ends the race.
	RaceOver
)

func (a WaitAction) String() string {
	switch a {
	case RivalMoves:
		return "rival moves"
	case RivalRecovers:
		return "rival recovers"
	case MoverMoves:
		return "mover moves"
	case MoverRecovers:
		return "mover recovers"
	}
	return "race over"
}

type WaitResolution struct {
	Action    WaitAction
	MoverWait int
	RivalWait int
}

// ResolveWaits decides who plays next from the crash penalties of both
// racers. A rival with no penalty always plays. When both racers crashed
// the shorter remaining penalty restarts first, equal penalties favour the
// rival.
func ResolveWaits(moverWait, rivalWait int, task WaitTask) WaitResolution {
	res := WaitResolution{MoverWait: moverWait, RivalWait: rivalWait}
	switch rivalWait {
	case 0:
		res.Action = RivalMoves
		return res
	case 1:
		res.RivalWait = 0
		res.Action = RivalRecovers
		return res
	}

	switch task {
	case TaskInterFinish:
		res.Action = RaceOver
	case TaskBothCrash:
		rival := rivalWait - 1
		switch {
		case rival < moverWait:
			res.MoverWait = moverWait - rival + 1
			res.RivalWait = 0
			res.Action = RivalRecovers
		case rival > moverWait:
			res.RivalWait = rival - moverWait + 1
			res.MoverWait = 0
			res.Action = MoverRecovers
		default:
			res.MoverWait = 1
			res.RivalWait = 0
			res.Action = RivalRecovers
		}
	default:
		res.RivalWait = rivalWait - 1
		res.Action = MoverMoves
	}
	return res
}
