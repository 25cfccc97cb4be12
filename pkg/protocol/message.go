package protocol

import (
	"encoding/json"
	"fmt"
)

// Message is a decoded inbound message
type Message interface {
	messageType() string
}

// Connected is the server's welcome, it carries the local player id
type Connected struct {
	PlayerID ID
	// Room is set when the welcome includes the room state inline
	Room *RoomUpdate
}

// Ping is the server's liveness probe, it must be answered with exactly one pong
type Ping struct{}

// RoomEvent is the reason for a room update
type RoomEvent string

// room events
const (
	RoomInit        RoomEvent = "init"
	PlayerAdded     RoomEvent = "player-added"
	PlayerRejoined  RoomEvent = "player-rejoined"
	PlayerRemoved   RoomEvent = "player-removed"
	ReadinessUpdate RoomEvent = "readiness-update"
)

// RoomUpdate carries the full player mapping and seat list
type RoomUpdate struct {
	Event     RoomEvent  `json:"event"`
	RoomID    ID         `json:"room_id"`
	Players   PlayerList `json:"players"`
	PlayerIDs []ID       `json:"player_ids"`
	PlayerID  ID         `json:"player_id"`
	OwnerID   ID         `json:"owner_id"`
}

// GameUpdate wraps a hand event
type GameUpdate struct {
	Event GameEvent
}

// ServerError is an error reported by the server
type ServerError struct {
	Message string `json:"error"`
}

// Chat is a chat line from another player
type Chat struct {
	SenderID   ID     `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
}

// Interaction is a social signal from another player
type Interaction struct {
	SenderID ID     `json:"sender_id"`
	Action   string `json:"action"`
}

// FinalHandsStarted is sent when the room starts its last hands
type FinalHandsStarted struct {
	Countdown int `json:"countdown"`
}

// FinalHandsUpdate reports progress through the final hands
type FinalHandsUpdate struct {
	CurrentHand int `json:"current_hand"`
	TotalHands  int `json:"total_hands"`
}

// FinalHandsFinished is sent once the final hands are over
type FinalHandsFinished struct{}

// Disconnect is sent by the server before it drops the connection
type Disconnect struct{}

func (Connected) messageType() string { return EventGameConnected }
func (Ping) messageType() string { return TypePing }
func (RoomUpdate) messageType() string { return TypeRoomUpdate }
func (GameUpdate) messageType() string { return TypeGameUpdate }
func (ServerError) messageType() string { return TypeError }
func (Chat) messageType() string { return TypeChatMessage }
func (Interaction) messageType() string { return TypeInteraction }
func (FinalHandsStarted) messageType() string { return TypeFinalHandsStarted }
func (FinalHandsUpdate) messageType() string { return TypeFinalHandsUpdate }
func (FinalHandsFinished) messageType() string { return TypeFinalHandsFinished }
func (Disconnect) messageType() string { return TypeDisconnect }

// MessageType returns the wire name of the message
func MessageType(m Message) string {
	return m.messageType()
}

// Decode decodes an inbound frame
func Decode(f Frame) (Message, error) {
	switch f.Event {
	case EventGameConnected:
		return decodeConnected(f.Data)
	case EventError:
		var e ServerError
		if err := unmarshal(f.Data, &e); err != nil {
			return nil, fmt.Errorf("could not decode %s: %w", f.Event, err)
		}

		return e, nil
	case EventGameMessage:
		return decodeGameMessage(f.Data)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
}

func decodeConnected(data json.RawMessage) (Message, error) {
	var head struct {
		PlayerID ID `json:"player_id"`
		Player   *struct {
			ID ID `json:"id"`
		} `json:"player"`
		MessageType string `json:"message_type"`
	}

	if err := unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", EventGameConnected, err)
	}

	c := Connected{PlayerID: head.PlayerID}
	if c.PlayerID.IsZero() && head.Player != nil {
		c.PlayerID = head.Player.ID
	}

	if head.MessageType == TypeRoomUpdate {
		var room RoomUpdate
		if err := json.Unmarshal(data, &room); err != nil {
			return nil, fmt.Errorf("could not decode inline room: %w", err)
		}

		c.Room = &room
	}

	return c, nil
}

func decodeGameMessage(data json.RawMessage) (Message, error) {
	var head struct {
		MessageType string `json:"message_type"`
	}

	if err := unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", EventGameMessage, err)
	}

	var (
		msg Message
		err error
	)

	switch head.MessageType {
	case TypePing:
		msg = Ping{}
	case TypeDisconnect:
		msg = Disconnect{}
	case TypeFinalHandsFinished:
		msg = FinalHandsFinished{}
	case TypeRoomUpdate:
		var m RoomUpdate
		err = unmarshal(data, &m)
		msg = m
	case TypeGameUpdate:
		var ev GameEvent
		ev, err = DecodeGameEvent(data)
		msg = GameUpdate{Event: ev}
	case TypeError:
		var m ServerError
		err = unmarshal(data, &m)
		msg = m
	case TypeChatMessage:
		var m Chat
		err = unmarshal(data, &m)
		msg = m
	case TypeInteraction:
		var m Interaction
		err = unmarshal(data, &m)
		msg = m
	case TypeFinalHandsStarted:
		var m FinalHandsStarted
		err = unmarshal(data, &m)
		msg = m
	case TypeFinalHandsUpdate:
		var m FinalHandsUpdate
		err = unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, head.MessageType)
	}

	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", head.MessageType, err)
	}

	return msg, nil
}

// unmarshal treats an absent payload as an empty object
func unmarshal(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, v)
}
