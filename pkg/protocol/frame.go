// Package protocol contains the wire format spoken with the game server.
//
// Every socket message is a Frame. Inbound frames are decoded into a closed
// set of Message types, game-update messages are further decoded into GameEvent.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// socket events
const (
	EventJoinGame      = "join_game"
	EventGameConnected = "game_connected"
	EventGameMessage   = "game_message"
	EventRoomAction    = "room_action"
	EventError         = "error"
)

// game_message types
const (
	TypePing               = "ping"
	TypePong               = "pong"
	TypeRoomUpdate         = "room-update"
	TypeGameUpdate         = "game-update"
	TypeError              = "error"
	TypeChatMessage        = "chat_message"
	TypeInteraction        = "interaction"
	TypeBet                = "bet"
	TypeFinalHandsStarted  = "final-hands-started"
	TypeFinalHandsUpdate   = "final-hands-update"
	TypeFinalHandsFinished = "final-hands-finished"
	TypeDisconnect         = "disconnect"
)

// ErrUnknownEvent is returned for a frame or game event the client does not understand
var ErrUnknownEvent = errors.New("unknown event")

// ErrUnknownMessageType is returned for a game_message with an unknown message_type
var ErrUnknownMessageType = errors.New("unknown message type")

// Frame is the envelope of every socket message
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s %s", f.Event, string(f.Data))
}

func newFrame(event string, v interface{}) Frame {
	data, err := json.Marshal(v)
	if err != nil {
		// all outbound payloads are plain structs
		panic(fmt.Sprintf("could not encode %s: %v", event, err))
	}

	return Frame{Event: event, Data: data}
}
