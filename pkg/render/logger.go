package render

import (
	"time"

	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/protocol"
	"pypoker-client/pkg/ranking"
)

// Logger renders to a logrus logger, used when stdout is not a terminal
type Logger struct {
	log logrus.FieldLogger
}

var _ Renderer = (*Logger)(nil)

// NewLogger returns a renderer writing to log
func NewLogger(log logrus.FieldLogger) *Logger {
	return &Logger{log: log}
}

// Status logs the connection state
func (l *Logger) Status(status Status, detail string) {
	entry := l.log.WithField("status", status.String())
	if status == StatusDisconnected || status == StatusError {
		entry.Warn(detail)
		return
	}

	entry.Info(detail)
}

// RoomChanged logs seat changes
func (l *Logger) RoomChanged(u RoomUpdate) {
	entry := l.log.WithFields(logrus.Fields{
		"room":     u.View.RoomID,
		"event":    u.Event,
		"snapshot": u.Snapshot,
		"occupied": len(u.View.Occupied()),
	})

	if u.Snapshot || len(u.Changes) == 0 {
		entry.Info("room updated")
		return
	}

	for _, change := range u.Changes {
		p, _ := u.View.Occupant(change.Seat)
		entry.WithFields(logrus.Fields{
			"seat":   change.Seat,
			"change": change.Kind.String(),
			"player": p.Name,
			"money":  p.Money,
		}).Info("seat changed")
	}
}

// HandChanged logs the hand after each event
func (l *Logger) HandChanged(u HandUpdate) {
	h := u.Hand
	entry := l.log.WithFields(logrus.Fields{
		"game":  h.ID,
		"event": u.Transition.Event,
		"phase": u.Transition.To.String(),
	})

	if u.Transition.Settled {
		for id, amount := range h.Winnings {
			entry.WithFields(logrus.Fields{
				"player": id,
				"won":    amount,
			}).Info("hand settled")
		}

		return
	}

	entry.WithFields(logrus.Fields{
		"board": h.SharedCards.String(),
		"cards": h.LocalCards.String(),
		"pot":   h.TotalPot(),
	}).Debug("hand updated")
}

// BetChanged logs the wager prompt
func (l *Logger) BetChanged(p BetPrompt) {
	if !p.Armed {
		return
	}

	l.log.WithFields(logrus.Fields{
		"min":     p.Min,
		"max":     p.Max,
		"current": p.Current,
	}).Infof("your turn: %s or %s", p.Label, p.FoldLabel)
}

// TurnStarted logs whose turn it is
func (l *Logger) TurnStarted(player protocol.ID, timeout time.Duration) {
	l.log.WithFields(logrus.Fields{
		"player":  player,
		"timeout": timeout,
	}).Debug("turn started")
}

// TurnEnded does nothing, the next event says what happened
func (l *Logger) TurnEnded() {}

// Chat logs a chat line
func (l *Logger) Chat(msg protocol.Chat) {
	l.log.WithField("from", msg.SenderName).Info(msg.Message)
}

// Interaction logs a social signal
func (l *Logger) Interaction(msg protocol.Interaction) {
	l.log.WithField("from", msg.SenderID).Infof("interaction: %s", msg.Action)
}

// Ranking logs the leaderboard
func (l *Logger) Ranking(entries []ranking.Entry) {
	for _, e := range entries {
		l.log.WithFields(logrus.Fields{
			"rank":   e.Rank,
			"name":   e.Name,
			"total":  e.TotalScore,
			"bb100":  e.BBPer100,
			"profit": e.DailyProfit,
		}).Info("ranking")
	}
}

// FinalHands logs final hands progress
func (l *Logger) FinalHands(p FinalHands) {
	entry := l.log.WithFields(logrus.Fields{
		"current": p.Current,
		"total":   p.Total,
	})

	switch {
	case p.Finished:
		entry.Info("final hands finished")
	case p.Started:
		entry.WithField("countdown", p.Countdown).Info("final hands started")
	default:
		entry.Info("final hands progress")
	}
}
