package game

import (
	"encoding/json"
	"fmt"
)

// Phase is the state of the hand
type Phase int

// hand phases
const (
	PhaseIdle Phase = iota
	PhaseDealt
	PhaseBetting
	PhaseShowdown
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDealt:
		return "dealt"
	case PhaseBetting:
		return "betting"
	case PhaseShowdown:
		return "showdown"
	case PhaseSettled:
		return "settled"
	}

	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalJSON returns the phase name
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// InHand returns true while cards are out
func (p Phase) InHand() bool {
	return p == PhaseDealt || p == PhaseBetting || p == PhaseShowdown
}
