package room

import (
	"pypoker-client/pkg/protocol"
)

// View is the local mirror of a room
// Seats holds one entry per seat of the layout, an empty id is an empty seat
type View struct {
	RoomID         protocol.ID
	Seats          []protocol.ID
	Players        map[protocol.ID]protocol.Player
	OwnerID        protocol.ID
	HandInProgress bool
}

// Occupant returns the player in the seat
func (v View) Occupant(seat int) (protocol.Player, bool) {
	if seat < 0 || seat >= len(v.Seats) || v.Seats[seat].IsZero() {
		return protocol.Player{}, false
	}

	p, ok := v.Players[v.Seats[seat]]
	return p, ok
}

// Occupied returns the indices of the occupied seats
func (v View) Occupied() []int {
	seats := make([]int, 0, len(v.Seats))
	for i, id := range v.Seats {
		if !id.IsZero() {
			seats = append(seats, i)
		}
	}

	return seats
}

// SeatOf returns the seat of the player, or -1 if the player is not seated
func (v View) SeatOf(id protocol.ID) int {
	if id.IsZero() {
		return -1
	}

	for i, seated := range v.Seats {
		if seated == id {
			return i
		}
	}

	return -1
}

// IsOwner returns true if the player owns the room
func (v View) IsOwner(id protocol.ID) bool {
	return !id.IsZero() && v.OwnerID == id
}

// CanRemoveBot returns true if the local player may remove the bot in the seat
// Only the owner may remove bots, and not while a hand is being played
func (v View) CanRemoveBot(seat int, local protocol.ID) bool {
	p, ok := v.Occupant(seat)
	return ok && p.IsBot && v.IsOwner(local) && !v.HandInProgress
}

// Clone returns a deep copy of the view
func (v View) Clone() View {
	cp := v
	cp.Seats = append([]protocol.ID(nil), v.Seats...)
	cp.Players = make(map[protocol.ID]protocol.Player, len(v.Players))
	for id, p := range v.Players {
		cp.Players[id] = p
	}

	return cp
}
