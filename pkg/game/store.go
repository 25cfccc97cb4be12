// Package game folds hand events into the local view of the current hand.
package game

import (
	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/deck"
	"pypoker-client/pkg/protocol"
)

// Hand is the local view of one hand
type Hand struct {
	ID         protocol.ID
	GameType   string
	DealerID   protocol.ID
	BigBlind   protocol.Chips
	SmallBlind protocol.Chips

	LocalCards deck.Hand
	LocalScore deck.Score

	// SharedCards only grows within a hand
	SharedCards deck.Hand

	Bets     map[protocol.ID]protocol.Chips
	Balances map[protocol.ID]protocol.Chips
	Pots     []protocol.Pot

	// Designations holds every winner-designation of the hand, in order
	Designations []protocol.Pot
	// Winnings accumulates the credited amounts across designations
	Winnings map[protocol.ID]protocol.Chips

	Folded   map[protocol.ID]bool
	Revealed map[protocol.ID]protocol.Revealed

	ActionPlayerID protocol.ID
	Action         string
	Round          int
	Terminal       bool
}

// MainPot returns the money in the first pot
func (h Hand) MainPot() protocol.Chips {
	if len(h.Pots) == 0 {
		return 0
	}

	return h.Pots[0].Money
}

// TotalPot returns the money in all pots
func (h Hand) TotalPot() protocol.Chips {
	var total protocol.Chips
	for _, pot := range h.Pots {
		total += pot.Money
	}

	return total
}

// Clone returns a deep copy of the hand
func (h Hand) Clone() Hand {
	cp := h
	cp.LocalCards = append(deck.Hand(nil), h.LocalCards...)
	cp.SharedCards = append(deck.Hand{}, h.SharedCards...)
	cp.Pots = append([]protocol.Pot{}, h.Pots...)
	cp.Designations = append([]protocol.Pot(nil), h.Designations...)
	cp.Bets = cloneChips(h.Bets)
	cp.Balances = cloneChips(h.Balances)
	cp.Winnings = cloneChips(h.Winnings)

	cp.Folded = make(map[protocol.ID]bool, len(h.Folded))
	for id, folded := range h.Folded {
		cp.Folded[id] = folded
	}

	cp.Revealed = make(map[protocol.ID]protocol.Revealed, len(h.Revealed))
	for id, revealed := range h.Revealed {
		cp.Revealed[id] = revealed
	}

	return cp
}

func cloneChips(m map[protocol.ID]protocol.Chips) map[protocol.ID]protocol.Chips {
	cp := make(map[protocol.ID]protocol.Chips, len(m))
	for id, amount := range m {
		cp[id] = amount
	}

	return cp
}

func newHand() Hand {
	return Hand{
		SharedCards: deck.Hand{},
		Bets:        make(map[protocol.ID]protocol.Chips),
		Balances:    make(map[protocol.ID]protocol.Chips),
		Pots:        []protocol.Pot{},
		Winnings:    make(map[protocol.ID]protocol.Chips),
		Folded:      make(map[protocol.ID]bool),
		Revealed:    make(map[protocol.ID]protocol.Revealed),
	}
}

// Transition is the result of applying one event
type Transition struct {
	From  Phase
	To    Phase
	Event string
	// LocalTurn is true when a player-action armed the local bet mode
	LocalTurn bool
	// Via lists the phases entered and left while applying the event
	Via []Phase
	// Settled is true when the hand ended, the phase is back to idle
	Settled bool
}

// Changed returns true if the phase changed
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Store holds the hand state machine
// NOTE: a Store is not safe for concurrent use, it must only be used from the session run loop
type Store struct {
	localID protocol.ID
	phase   Phase
	hand    Hand
	bet     BetMode

	// roundClosed is set by the checkpoints that end a betting round
	roundClosed bool
}

// NewStore returns a store in the idle phase
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset discards the hand and the local player. It is called when the connection is lost.
func (s *Store) Reset() {
	s.localID = ""
	s.phase = PhaseIdle
	s.hand = newHand()
	s.bet = BetMode{}
	s.roundClosed = false
}

// SetLocalPlayer records the id the server assigned to this client
func (s *Store) SetLocalPlayer(id protocol.ID) {
	s.localID = id
}

// LocalPlayer returns the local player id
func (s *Store) LocalPlayer() protocol.ID {
	return s.localID
}

// Phase returns the current phase
func (s *Store) Phase() Phase {
	return s.phase
}

// Hand returns the current hand
// The returned maps are owned by the store and must not be modified
func (s *Store) Hand() Hand {
	return s.hand
}

// BetMode returns the local wager input
func (s *Store) BetMode() *BetMode {
	return &s.bet
}

// Apply folds one event into the hand
// Every event disarms the bet mode, only a player-action for the local player arms it again.
func (s *Store) Apply(ev protocol.GameEvent) Transition {
	t := Transition{From: s.phase, Event: ev.EventName()}
	s.bet.Disarm()

	switch e := ev.(type) {
	case protocol.NewGame:
		s.applyNewGame(e)
	case protocol.CardsAssignment:
		s.hand.LocalCards = e.Cards
		s.hand.LocalScore = e.Score
	case protocol.PlayerAction:
		t.LocalTurn = s.applyPlayerAction(e)
	case protocol.Bet:
		s.applyBet(e)
	case protocol.Fold:
		s.hand.Folded[e.Player.ID] = true
	case protocol.DeadPlayer:
		s.hand.Folded[e.Player.ID] = true
	case protocol.SharedCards:
		s.hand.SharedCards = append(s.hand.SharedCards, e.Cards...)
		s.roundClosed = true
	case protocol.PotsUpdate:
		s.hand.Pots = append([]protocol.Pot{}, e.Pots...)
		s.refreshBalances(e.Players)
		s.hand.Bets = make(map[protocol.ID]protocol.Chips)
		s.roundClosed = true
	case protocol.WinnerDesignation:
		s.applyWinnerDesignation(e)
	case protocol.Showdown:
		for id, revealed := range e.Players {
			s.hand.Revealed[id] = revealed
		}

		s.phase = PhaseShowdown
	case protocol.GameOver:
		s.hand.Terminal = true
		s.hand.ActionPlayerID = ""
		// the hand stays readable until the next new-game
		s.phase = PhaseSettled
		t.Via = append(t.Via, s.phase)
		t.Settled = true
		s.phase = PhaseIdle
	case protocol.RankingUpdate:
		// no hand state
	default:
		logrus.WithField("event", ev.EventName()).Warn("unhandled game event")
	}

	t.To = s.phase
	return t
}

// applyNewGame resets the hand even if the previous hand never ended
func (s *Store) applyNewGame(e protocol.NewGame) {
	if s.phase.InHand() {
		logrus.WithFields(logrus.Fields{
			"previous": s.hand.ID,
			"phase":    s.phase.String(),
			"game":     e.GameID,
		}).Debug("new game before the previous hand ended")
	}

	s.hand = newHand()
	s.hand.ID = e.GameID
	s.hand.GameType = e.GameType
	s.hand.DealerID = e.DealerID
	s.hand.BigBlind = e.BigBlind
	s.hand.SmallBlind = e.SmallBlind
	s.refreshBalances(e.Players)

	s.roundClosed = false
	s.phase = PhaseDealt
}

func (s *Store) applyPlayerAction(e protocol.PlayerAction) (localTurn bool) {
	switch {
	case s.phase == PhaseDealt, s.roundClosed:
		s.hand.Round++
	case s.phase == PhaseIdle:
		// the new-game was missed, start counting from here
		s.hand.Round = 1
	}

	if s.phase != PhaseShowdown {
		s.phase = PhaseBetting
	}

	s.roundClosed = false
	s.hand.ActionPlayerID = e.Player.ID
	s.hand.Action = e.Action

	if e.Action != protocol.ActionBet || s.localID.IsZero() || e.Player.ID != s.localID {
		return false
	}

	s.bet.Arm(e.MinBet, e.MaxBet, e.RequiresScore())
	return true
}

func (s *Store) applyBet(e protocol.Bet) {
	if !e.Player.ID.IsZero() {
		s.hand.Balances[e.Player.ID] = e.Player.Money
	}

	if e.Bets == nil {
		s.hand.Bets[e.Player.ID] = e.Bet
		return
	}

	s.hand.Bets = make(map[protocol.ID]protocol.Chips, len(e.Bets))
	for id, amount := range e.Bets {
		s.hand.Bets[id] = amount
	}
}

// applyWinnerDesignation credits each winner of the pot, designations of one hand add up
func (s *Store) applyWinnerDesignation(e protocol.WinnerDesignation) {
	s.hand.Designations = append(s.hand.Designations, e.Pot)

	credit := e.Pot.Credit()
	for _, id := range e.Pot.WinnerIDs {
		if s.hand.Folded[id] {
			logrus.WithField("player", id).Warn("winner designation for a folded player, not credited")
			continue
		}

		s.hand.Winnings[id] += credit
	}

	if e.Pots != nil {
		s.hand.Pots = append([]protocol.Pot{}, e.Pots...)
	}

	s.refreshBalances(e.Players)
}

func (s *Store) refreshBalances(players protocol.PlayerList) {
	for _, p := range players {
		s.hand.Balances[p.ID] = p.Money
	}
}
