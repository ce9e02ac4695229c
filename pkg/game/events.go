package game

import (
	"formulagame/pkg/race"
)

const (
	TopicHint       = "hint"
	TopicRepaint    = "repaint"
	TopicCrash      = "crash"
	TopicWinner     = "winner"
	TopicTrackReady = "trackReady"
)

// Topics lists every topic the manager publishes on.
var Topics = []string{TopicHint, TopicRepaint, TopicCrash, TopicWinner, TopicTrackReady}

const (
	HintOutside        = "Click inside the paper"
	HintNoPoint        = "There is no track point to move here"
	HintStartPosition  = "Choose a start position"
	HintComputerAgain  = "The computer plays again"
	HintTrackSaved     = "The track was saved"
	HintTrackNotLoaded = "The track could not be loaded"
)

// Event is a notification for the outer surfaces. Only the fields that
// belong to the topic are set.
type Event struct {
	Topic   string       `json:"topic"`
	Stage   race.Stage   `json:"stage"`
	Hint    string       `json:"hint,omitempty"`
	Racer   int          `json:"racer,omitempty"`
	Speed   int          `json:"speed,omitempty"`
	Message string       `json:"message,omitempty"`
	Ready   bool         `json:"ready,omitempty"`
	Result  *race.Result `json:"result,omitempty"`
	Track   string       `json:"track,omitempty"`
}

// TurnOutcome reports a click played through the manager.
type TurnOutcome struct {
	Accepted bool         `json:"accepted"`
	Racer    int          `json:"racer"`
	Winner   *race.Result `json:"winner,omitempty"`
}
