package render

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"pypoker-client/pkg/game"
	"pypoker-client/pkg/protocol"
	"pypoker-client/pkg/room"
)

func TestLogger_RoomChanged(t *testing.T) {
	a := assert.New(t)
	log, hook := test.NewNullLogger()
	r := NewLogger(log)

	view := room.View{
		Seats:   []protocol.ID{"", "2"},
		Players: map[protocol.ID]protocol.Player{"2": {ID: "2", Name: "bob", Money: 100}},
	}

	r.RoomChanged(RoomUpdate{
		View:    view,
		Changes: []room.SeatChange{{Seat: 1, Kind: room.SeatOccupied, Current: "2"}},
	})

	if a.Len(hook.AllEntries(), 1) {
		entry := hook.LastEntry()
		a.Equal("seat changed", entry.Message)
		a.Equal("bob", entry.Data["player"])
		a.Equal("occupied", entry.Data["change"])
	}
}

func TestLogger_Status(t *testing.T) {
	a := assert.New(t)
	log, hook := test.NewNullLogger()
	r := NewLogger(log)

	r.Status(StatusDisconnected, "connection lost")
	a.Equal(logrus.WarnLevel, hook.LastEntry().Level)
	a.Equal("disconnected", hook.LastEntry().Data["status"])

	r.Status(StatusJoined, "joined")
	a.Equal(logrus.InfoLevel, hook.LastEntry().Level)
}

func TestLogger_BetChanged(t *testing.T) {
	a := assert.New(t)
	log, hook := test.NewNullLogger()
	r := NewLogger(log)

	var b game.BetMode
	r.BetChanged(NewBetPrompt(&b))
	a.Empty(hook.AllEntries())

	b.Arm(10, 100, false)
	r.BetChanged(NewBetPrompt(&b))
	a.Equal("your turn: CALL or FOLD", hook.LastEntry().Message)
}

func TestStatus_String(t *testing.T) {
	a := assert.New(t)
	a.Equal("connecting", StatusConnecting.String())
	a.Equal("joined", StatusJoined.String())
	a.Equal("unknown", Status(12).String())
}
