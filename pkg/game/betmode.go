package game

import (
	"pypoker-client/pkg/protocol"
)

// Preset is a pot sized wager shortcut
type Preset string

// presets
const (
	PresetHalfPot Preset = "half"
	PresetFullPot Preset = "full"
	PresetAllIn   Preset = "allin"
)

// action labels
const (
	LabelAllIn = "ALL IN"
	LabelCheck = "CHECK"
	LabelCall  = "CALL"
	LabelRaise = "RAISE"
	LabelError = "ERR"

	LabelFold = "FOLD"
	LabelPass = "PASS"
)

// BetMode is the local wager input, armed between a player-action for the
// local player and the submission or expiry of that turn
// All operations on a disarmed BetMode are ignored.
type BetMode struct {
	armed   bool
	min     protocol.Chips
	max     protocol.Chips
	current protocol.Chips
	pass    bool
}

// Arm enables wager input with the server's bounds, the wager starts at min
func (b *BetMode) Arm(min, max protocol.Chips, pass bool) {
	*b = BetMode{
		armed:   true,
		min:     min,
		max:     max,
		current: min,
		pass:    pass,
	}
}

// Disarm disables wager input
func (b *BetMode) Disarm() {
	b.armed = false
}

// Armed returns true if the wager can be adjusted and submitted
func (b BetMode) Armed() bool {
	return b.armed
}

// Bounds returns the server supplied minimum and maximum
func (b BetMode) Bounds() (min, max protocol.Chips) {
	return b.min, b.max
}

// Current returns the wager that would be submitted
func (b BetMode) Current() protocol.Chips {
	return b.current
}

// Adjust moves the wager by delta, clamped to the bounds
func (b *BetMode) Adjust(delta protocol.Chips) bool {
	if !b.armed {
		return false
	}

	b.current = b.clamp(b.current + delta)
	return true
}

// Set sets the wager, clamped to the bounds
func (b *BetMode) Set(amount protocol.Chips) bool {
	if !b.armed {
		return false
	}

	b.current = b.clamp(amount)
	return true
}

// ApplyPreset sizes the wager relative to pot
func (b *BetMode) ApplyPreset(p Preset, pot protocol.Chips) bool {
	if !b.armed {
		return false
	}

	var amount protocol.Chips
	switch p {
	case PresetHalfPot:
		amount = b.min + pot/2
	case PresetFullPot:
		amount = b.min + pot
	case PresetAllIn:
		amount = b.max
	default:
		return false
	}

	b.current = b.clamp(amount)
	return true
}

// Submit returns the wager and disarms
func (b *BetMode) Submit() (protocol.Chips, bool) {
	if !b.armed {
		return 0, false
	}

	b.armed = false
	return b.current, true
}

// Fold returns the fold sentinel and disarms
func (b *BetMode) Fold() (protocol.Chips, bool) {
	if !b.armed {
		return 0, false
	}

	b.armed = false
	return protocol.FoldBet, true
}

// Label names the action the current wager submits
func (b BetMode) Label() string {
	switch {
	case b.current == b.max && b.max > 0:
		return LabelAllIn
	case b.min == 0 && b.current == 0:
		return LabelCheck
	case b.current == b.min && b.min > 0:
		return LabelCall
	case b.current > b.min:
		return LabelRaise
	}

	return LabelError
}

// FoldLabel names the fold action, it is a pass when opening requires a minimum score
func (b BetMode) FoldLabel() string {
	if b.pass {
		return LabelPass
	}

	return LabelFold
}

// the maximum wins when the bounds are inverted
func (b BetMode) clamp(v protocol.Chips) protocol.Chips {
	if v < b.min {
		v = b.min
	}

	if v > b.max {
		v = b.max
	}

	return v
}
