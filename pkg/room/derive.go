package room

import (
	"pypoker-client/pkg/protocol"
)

// SeatChangeKind describes how a seat changed between two views
type SeatChangeKind int

// seat change kinds
const (
	SeatOccupied SeatChangeKind = iota
	SeatVacated
	SeatReplaced
	SeatRefreshed
)

func (k SeatChangeKind) String() string {
	switch k {
	case SeatOccupied:
		return "occupied"
	case SeatVacated:
		return "vacated"
	case SeatReplaced:
		return "replaced"
	case SeatRefreshed:
		return "refreshed"
	}

	return "unknown"
}

// SeatChange is a seat whose rendering needs to change
type SeatChange struct {
	Seat     int
	Kind     SeatChangeKind
	Previous protocol.ID
	Current  protocol.ID
}

// Derivation is the result of deriving a new view from a room update
type Derivation struct {
	View    View
	Changes []SeatChange

	// Missing are seated ids that have no entry in the player mapping
	Missing []protocol.ID
	// Duplicates are ids seated more than once, only the first seat is kept
	Duplicates []protocol.ID
	// Overflow are ids listed past the end of the seat layout
	Overflow []protocol.ID
}

// Derive re-derives the room against the seat layout of old
// The update's player_ids are authoritative: any seat not listed is empty afterwards.
// old is not modified.
func Derive(old View, u protocol.RoomUpdate) Derivation {
	var d Derivation

	players := u.Players.ByID()
	seats := make([]protocol.ID, len(old.Seats))
	seen := make(map[protocol.ID]bool, len(seats))

	for i, id := range u.PlayerIDs {
		if id.IsZero() {
			continue
		}

		if i >= len(seats) {
			d.Overflow = append(d.Overflow, id)
			continue
		}

		if _, ok := players[id]; !ok {
			d.Missing = append(d.Missing, id)
			continue
		}

		if seen[id] {
			d.Duplicates = append(d.Duplicates, id)
			continue
		}

		seen[id] = true
		seats[i] = id
	}

	roomID := u.RoomID
	if roomID.IsZero() {
		roomID = old.RoomID
	}

	ownerID := u.OwnerID
	if ownerID.IsZero() {
		ownerID = old.OwnerID
	}

	d.View = View{
		RoomID:         roomID,
		Seats:          seats,
		Players:        players,
		OwnerID:        ownerID,
		HandInProgress: old.HandInProgress,
	}

	d.Changes = diff(old, d.View)
	return d
}

func diff(old, cur View) []SeatChange {
	var changes []SeatChange
	for i := range cur.Seats {
		var prev protocol.ID
		if i < len(old.Seats) {
			prev = old.Seats[i]
		}

		next := cur.Seats[i]
		change := SeatChange{Seat: i, Previous: prev, Current: next}

		switch {
		case prev == next && next.IsZero():
			continue
		case prev.IsZero():
			change.Kind = SeatOccupied
		case next.IsZero():
			change.Kind = SeatVacated
		case prev != next:
			change.Kind = SeatReplaced
		case old.Players[prev] != cur.Players[next]:
			change.Kind = SeatRefreshed
		default:
			continue
		}

		changes = append(changes, change)
	}

	return changes
}
