// Package intent buffers the player's requests until the next ping.
//
// The Queue is a coalescing buffer, not a FIFO: a second request of the same
// kind overwrites the first, and everything pending goes out in one pong.
package intent

import (
	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/protocol"
)

// Queue holds the pending intents
// NOTE: a Queue is not safe for concurrent use, it must only be used from the session run loop
type Queue struct {
	seated bool
	ready  bool

	seatRequest *int

	finalHandsPending bool
	// finalHandsLatched stays set from the request until the server reports the final hands are over
	finalHandsLatched bool
}

// NewQueue returns an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// RequestSeat asks for a seat on the next pong, replacing any earlier request
// Changing seats always resets readiness.
func (q *Queue) RequestSeat(seat int) {
	if q.seatRequest != nil && *q.seatRequest != seat {
		logrus.WithFields(logrus.Fields{
			"previous": *q.seatRequest,
			"seat":     seat,
		}).Debug("replacing pending seat request")
	}

	q.seatRequest = &seat
	q.ready = false
}

// SetSeated records whether the local player is seated, leaving the seat resets readiness
func (q *Queue) SetSeated(seated bool) {
	if !seated {
		q.ready = false
	}

	q.seated = seated
}

// Seated returns the last seated state
func (q *Queue) Seated() bool {
	return q.seated
}

// ToggleReady flips readiness, it is ignored unless the local player is seated
func (q *Queue) ToggleReady() bool {
	if !q.seated {
		logrus.Debug("ignoring ready toggle, not seated")
		return false
	}

	q.ready = !q.ready
	return true
}

// Ready returns the readiness sent with every pong
func (q *Queue) Ready() bool {
	return q.ready
}

// HandOver is called at game-over, the server expects players to ready up again for the next hand
func (q *Queue) HandOver() {
	q.ready = false
}

// RequestFinalHands asks the server to start the final hands
// Returns false if a request is already outstanding.
func (q *Queue) RequestFinalHands() bool {
	if q.finalHandsLatched {
		return false
	}

	q.finalHandsPending = true
	q.finalHandsLatched = true
	return true
}

// FinalHandsRequested returns true from the request until FinalHandsFinished
func (q *Queue) FinalHandsRequested() bool {
	return q.finalHandsLatched
}

// FinalHandsFinished allows a new final hands request
func (q *Queue) FinalHandsFinished() {
	q.finalHandsPending = false
	q.finalHandsLatched = false
}

// Flush returns the pong for the current ping and clears the pending intents
// Pending intents are never sent twice.
func (q *Queue) Flush() protocol.PongReply {
	reply := protocol.PongReply{
		Ready:           q.ready,
		SeatRequest:     q.seatRequest,
		StartFinalHands: q.finalHandsPending,
	}

	q.seatRequest = nil
	q.finalHandsPending = false
	return reply
}

// Reset drops everything, it is called when the connection is lost
func (q *Queue) Reset() {
	*q = Queue{}
}
