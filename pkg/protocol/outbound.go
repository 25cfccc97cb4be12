package protocol

// FoldBet is the wager amount that folds
const FoldBet Chips = -1

// PongReply is the client's answer to a ping, it carries all coalesced intents
type PongReply struct {
	Ready           bool
	SeatRequest     *int
	StartFinalHands bool
}

type pongPayload struct {
	MessageType     string `json:"message_type"`
	Ready           bool   `json:"ready"`
	SeatRequest     *int   `json:"seat_request,omitempty"`
	StartFinalHands bool   `json:"start_final_10_hands,omitempty"`
}

type betPayload struct {
	MessageType string `json:"message_type"`
	Bet         Chips  `json:"bet"`
}

type chatPayload struct {
	MessageType string `json:"message_type"`
	Message     string `json:"message"`
}

type interactionPayload struct {
	MessageType string `json:"message_type"`
	Action      string `json:"action"`
}

type addBotPayload struct {
	Action     string `json:"action"`
	SeatIndex  int    `json:"seat_index"`
	Difficulty string `json:"difficulty"`
}

type removeBotPayload struct {
	Action    string `json:"action"`
	BotID     ID     `json:"bot_id"`
	SeatIndex int    `json:"seat_index"`
}

// JoinGame is sent once the connection is established
func JoinGame() Frame {
	return newFrame(EventJoinGame, struct{}{})
}

// Pong answers a ping
func Pong(r PongReply) Frame {
	return newFrame(EventGameMessage, pongPayload{
		MessageType:     TypePong,
		Ready:           r.Ready,
		SeatRequest:     r.SeatRequest,
		StartFinalHands: r.StartFinalHands,
	})
}

// PlaceBet submits a wager, FoldBet folds
func PlaceBet(amount Chips) Frame {
	return newFrame(EventGameMessage, betPayload{MessageType: TypeBet, Bet: amount})
}

// SendChat sends a chat line
func SendChat(message string) Frame {
	return newFrame(EventGameMessage, chatPayload{MessageType: TypeChatMessage, Message: message})
}

// SendInteraction triggers a social signal
func SendInteraction(action string) Frame {
	return newFrame(EventGameMessage, interactionPayload{MessageType: TypeInteraction, Action: action})
}

// AddBot asks the server to seat a bot, owner only
func AddBot(seat int, difficulty string) Frame {
	return newFrame(EventRoomAction, addBotPayload{Action: "add-bot", SeatIndex: seat, Difficulty: difficulty})
}

// RemoveBot asks the server to remove a seated bot, owner only
func RemoveBot(botID ID, seat int) Frame {
	return newFrame(EventRoomAction, removeBotPayload{Action: "remove-bot", BotID: botID, SeatIndex: seat})
}
