// Package room keeps the local mirror of the room: seats, players, the owner
// and whether a hand is being played.
package room

import (
	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/protocol"
)

// DefaultCapacity is the number of seats at a table
const DefaultCapacity = 10

// Store holds the room view
// NOTE: a Store is not safe for concurrent use, it must only be used from the session run loop
type Store struct {
	capacity int
	view     View

	// initialized is the room marker, it is cleared on Reset so the next update is a snapshot
	initialized bool
}

// NewStore returns an empty store
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := &Store{capacity: capacity}
	s.Reset()
	return s
}

// View returns a copy of the current view
func (s *Store) View() View {
	return s.view.Clone()
}

// Initialized returns true once a snapshot has been applied
func (s *Store) Initialized() bool {
	return s.initialized
}

// Reset discards the room. It is called when the connection is lost.
func (s *Store) Reset() {
	s.view = View{Players: make(map[protocol.ID]protocol.Player)}
	s.initialized = false
}

// ApplySnapshot replaces the whole room
// The seat layout is fixed here to the length of player_ids, bounded by the store capacity
func (s *Store) ApplySnapshot(u protocol.RoomUpdate) []SeatChange {
	n := len(u.PlayerIDs)
	if n == 0 || n > s.capacity {
		n = s.capacity
	}

	d := Derive(View{Seats: make([]protocol.ID, n)}, u)
	logDerivation(u, d)

	s.view = d.View
	s.initialized = true
	return d.Changes
}

// ApplyDelta re-derives the room against the known seat layout
func (s *Store) ApplyDelta(u protocol.RoomUpdate) []SeatChange {
	if !s.initialized {
		logrus.WithField("event", u.Event).Warn("room delta before snapshot, treating it as a snapshot")
		return s.ApplySnapshot(u)
	}

	d := Derive(s.view, u)
	logDerivation(u, d)

	s.view = d.View
	return d.Changes
}

// Apply applies the update as a snapshot until the room is known, as a delta afterward
func (s *Store) Apply(u protocol.RoomUpdate) (snapshot bool, changes []SeatChange) {
	if !s.initialized {
		return true, s.ApplySnapshot(u)
	}

	return false, s.ApplyDelta(u)
}

// SetHandInProgress records whether a hand is being played
func (s *Store) SetHandInProgress(inProgress bool) {
	s.view.HandInProgress = inProgress
}

// RefreshPlayers merges player details carried by game events into the room
// Unknown players are ignored, the room only learns about players from room updates
func (s *Store) RefreshPlayers(players protocol.PlayerList) []SeatChange {
	old := s.view.Clone()
	for _, p := range players {
		known, ok := s.view.Players[p.ID]
		if !ok {
			logrus.WithField("player", p.ID).Debug("game event references a player not in the room")
			continue
		}

		known.Money = p.Money
		if p.Name != "" {
			known.Name = p.Name
		}

		if p.Avatar != "" {
			known.Avatar = p.Avatar
		}

		s.view.Players[p.ID] = known
	}

	return diff(old, s.view)
}

func logDerivation(u protocol.RoomUpdate, d Derivation) {
	log := logrus.WithFields(logrus.Fields{
		"event": u.Event,
		"room":  d.View.RoomID,
	})

	for _, id := range d.Missing {
		log.WithField("player", id).Warn("seated player missing from player mapping, seat treated as empty")
	}

	for _, id := range d.Duplicates {
		log.WithField("player", id).Warn("player seated twice, keeping the first seat")
	}

	for _, id := range d.Overflow {
		log.WithField("player", id).Warn("player seated beyond the seat layout")
	}
}
