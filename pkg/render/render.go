// Package render is the presentation boundary of the client. The session
// calls a Renderer after every state change; renderers only read.
package render

import (
	"time"

	"pypoker-client/pkg/game"
	"pypoker-client/pkg/protocol"
	"pypoker-client/pkg/ranking"
	"pypoker-client/pkg/room"
)

// Status is the connection state shown to the user
type Status int

// connection states
const (
	StatusConnecting Status = iota
	StatusConnected
	StatusJoined
	StatusDisconnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusJoined:
		return "joined"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	}

	return "unknown"
}

// RoomUpdate describes a room change
type RoomUpdate struct {
	View     room.View
	Changes  []room.SeatChange
	Snapshot bool
	LocalID  protocol.ID
	Event    protocol.RoomEvent
}

// HandUpdate describes a hand change
type HandUpdate struct {
	Event      protocol.GameEvent
	Hand       game.Hand
	Transition game.Transition
	Room       room.View
	LocalID    protocol.ID
}

// BetPrompt is the state of the local wager input
type BetPrompt struct {
	Armed     bool
	Min       protocol.Chips
	Max       protocol.Chips
	Current   protocol.Chips
	Label     string
	FoldLabel string
}

// NewBetPrompt reads the bet mode
func NewBetPrompt(b *game.BetMode) BetPrompt {
	min, max := b.Bounds()
	return BetPrompt{
		Armed:     b.Armed(),
		Min:       min,
		Max:       max,
		Current:   b.Current(),
		Label:     b.Label(),
		FoldLabel: b.FoldLabel(),
	}
}

// FinalHands reports the final hands progress, Total is zero until known
type FinalHands struct {
	Started   bool
	Finished  bool
	Countdown int
	Current   int
	Total     int
}

// Renderer consumes state changes
type Renderer interface {
	Status(status Status, detail string)
	RoomChanged(update RoomUpdate)
	HandChanged(update HandUpdate)
	BetChanged(prompt BetPrompt)
	TurnStarted(player protocol.ID, timeout time.Duration)
	TurnEnded()
	Chat(msg protocol.Chat)
	Interaction(msg protocol.Interaction)
	Ranking(entries []ranking.Entry)
	FinalHands(progress FinalHands)
}

// Nop discards everything
type Nop struct{}

var _ Renderer = Nop{}

// Status does nothing
func (Nop) Status(Status, string) {}

// RoomChanged does nothing
func (Nop) RoomChanged(RoomUpdate) {}

// HandChanged does nothing
func (Nop) HandChanged(HandUpdate) {}

// BetChanged does nothing
func (Nop) BetChanged(BetPrompt) {}

// TurnStarted does nothing
func (Nop) TurnStarted(protocol.ID, time.Duration) {}

// TurnEnded does nothing
func (Nop) TurnEnded() {}

// Chat does nothing
func (Nop) Chat(protocol.Chat) {}

// Interaction does nothing
func (Nop) Interaction(protocol.Interaction) {}

// Ranking does nothing
func (Nop) Ranking([]ranking.Entry) {}

// FinalHands does nothing
func (Nop) FinalHands(FinalHands) {}
