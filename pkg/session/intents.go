package session

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/game"
	"pypoker-client/pkg/protocol"
	"pypoker-client/pkg/render"
	"pypoker-client/pkg/room"
)

// The methods below are safe to call from any goroutine, they are applied on the run loop.
// Calls made while no connection is active are dropped.

// RequestSeat asks for an empty seat, the request rides on the next pong
func (s *Session) RequestSeat(seat int) {
	s.exec(func() {
		view := s.room.View()
		if !s.room.Initialized() || seat < 0 || seat >= len(view.Seats) {
			s.log.WithField("seat", seat).Debug("ignoring seat request outside the layout")
			return
		}

		if !view.Seats[seat].IsZero() {
			s.log.WithField("seat", seat).Debug("ignoring seat request for an occupied seat")
			return
		}

		s.intents.RequestSeat(seat)
	})
}

// ToggleReady flips the readiness reported on every pong
func (s *Session) ToggleReady() {
	s.exec(func() {
		if !s.intents.ToggleReady() {
			s.log.Debug("not seated, ignoring ready toggle")
		}
	})
}

// RequestFinalHands asks the server to play the final hands, owner only
func (s *Session) RequestFinalHands() {
	s.exec(func() {
		if !s.room.View().IsOwner(s.localID) {
			s.log.Debug("only the owner may start the final hands")
			return
		}

		if !s.intents.RequestFinalHands() {
			s.log.Debug("final hands already requested")
		}
	})
}

// AdjustWager moves the wager by delta within the bounds of the turn
func (s *Session) AdjustWager(delta protocol.Chips) {
	s.exec(func() {
		if s.game.BetMode().Adjust(delta) {
			s.betChanged()
		}
	})
}

// SetWager sets the wager, clamped to the bounds of the turn
func (s *Session) SetWager(amount protocol.Chips) {
	s.exec(func() {
		if s.game.BetMode().Set(amount) {
			s.betChanged()
		}
	})
}

// ApplyPreset sizes the wager from the main pot
func (s *Session) ApplyPreset(p game.Preset) {
	s.exec(func() {
		if s.game.BetMode().ApplyPreset(p, s.game.Hand().MainPot()) {
			s.betChanged()
		}
	})
}

// SubmitBet sends the current wager
func (s *Session) SubmitBet() {
	s.exec(func() {
		amount, ok := s.game.BetMode().Submit()
		if !ok {
			s.log.Debug("not our turn, ignoring bet")
			return
		}

		s.submit(amount)
	})
}

// Fold folds, or passes when the turn allows it
func (s *Session) Fold() {
	s.exec(func() {
		amount, ok := s.game.BetMode().Fold()
		if !ok {
			s.log.Debug("not our turn, ignoring fold")
			return
		}

		s.submit(amount)
	})
}

func (s *Session) submit(amount protocol.Chips) {
	s.timer.Cancel()
	s.renderer.TurnEnded()
	s.send(protocol.PlaceBet(amount))
	s.betChanged()
}

// Chat sends a chat line, blank lines are ignored
func (s *Session) Chat(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}

	s.exec(func() {
		s.send(protocol.SendChat(message))
	})
}

// Interact sends a social signal unless it is cooling down
func (s *Session) Interact(kind string) {
	s.exec(func() {
		if !s.cooldown.Allow(kind) {
			s.log.WithFields(logrus.Fields{
				"action":    kind,
				"remaining": s.cooldown.Remaining(kind).String(),
			}).Debug("interaction is cooling down")
			return
		}

		s.send(protocol.SendInteraction(kind))
	})
}

// AddBot seats a bot in an empty seat, owner only and never during a hand
func (s *Session) AddBot(seat int, difficulty string) {
	s.exec(func() {
		view := s.room.View()
		if !view.IsOwner(s.localID) || view.HandInProgress {
			s.log.Debug("may not add a bot now")
			return
		}

		if seat < 0 || seat >= len(view.Seats) || !view.Seats[seat].IsZero() {
			s.log.WithField("seat", seat).Debug("bot seat is not empty")
			return
		}

		s.send(protocol.AddBot(seat, difficulty))
	})
}

// RemoveBot removes the bot in the seat, owner only and never during a hand
func (s *Session) RemoveBot(seat int) {
	s.exec(func() {
		view := s.room.View()
		if !view.CanRemoveBot(seat, s.localID) {
			s.log.WithField("seat", seat).Debug("may not remove a bot from this seat")
			return
		}

		bot, _ := view.Occupant(seat)
		s.send(protocol.RemoveBot(bot.ID, seat))
	})
}

// RefreshRanking reloads the leaderboard
func (s *Session) RefreshRanking() {
	s.exec(s.refreshRanking)
}

func (s *Session) betChanged() {
	s.renderer.BetChanged(render.NewBetPrompt(s.game.BetMode()))
}

// State is a copy of the session state
type State struct {
	LocalID     protocol.ID
	Room        room.View
	Phase       game.Phase
	Hand        game.Hand
	Bet         render.BetPrompt
	Seated      bool
	Ready       bool
	FinalHands  bool
	TurnPlayer  protocol.ID
	TurnPending bool
	// TurnRemaining is the time left until the server deadline of the pending turn
	TurnRemaining time.Duration
}

// State returns a copy of the state, read on the run loop
func (s *Session) State(ctx context.Context) (State, error) {
	ch := make(chan State, 1)
	queued := s.exec(func() {
		turnPlayer, pending := s.timer.Active()
		ch <- State{
			LocalID:       s.localID,
			Room:          s.room.View(),
			Phase:         s.game.Phase(),
			Hand:          s.game.Hand().Clone(),
			Bet:           render.NewBetPrompt(s.game.BetMode()),
			Seated:        s.intents.Seated(),
			Ready:         s.intents.Ready(),
			FinalHands:    s.intents.FinalHandsRequested(),
			TurnPlayer:    turnPlayer,
			TurnPending:   pending,
			TurnRemaining: s.timer.Remaining(),
		}
	})

	if !queued {
		if atomic.LoadInt32(&s.running) == 0 {
			return State{}, ErrNotRunning
		}

		return State{}, ErrBusy
	}

	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}
