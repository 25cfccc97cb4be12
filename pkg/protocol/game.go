package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"pypoker-client/pkg/deck"
)

// game events
const (
	GameNewGame           = "new-game"
	GameCardsAssignment   = "cards-assignment"
	GamePlayerAction      = "player-action"
	GameBet               = "bet"
	GameFold              = "fold"
	GameDeadPlayer        = "dead-player"
	GameSharedCards       = "shared-cards"
	GamePotsUpdate        = "pots-update"
	GameWinnerDesignation = "winner-designation"
	GameShowdown          = "showdown"
	GameOverEvent         = "game-over"
	GameRankingUpdate     = "update-ranking-data"
)

// ActionBet is the player-action kind that asks for a wager
const ActionBet = "bet"

// GameEvent is a decoded hand event
type GameEvent interface {
	EventName() string
}

// NewGame starts a hand
type NewGame struct {
	GameID     ID         `json:"game_id"`
	GameType   string     `json:"game_type"`
	Players    PlayerList `json:"players"`
	DealerID   ID         `json:"dealer_id"`
	BigBlind   Chips      `json:"big_blind"`
	SmallBlind Chips      `json:"small_blind"`
}

// CardsAssignment carries the local player's hole cards
type CardsAssignment struct {
	Cards deck.Hand  `json:"cards"`
	Score deck.Score `json:"score"`
}

// PlayerAction asks a player to act
type PlayerAction struct {
	Player   Player   `json:"player"`
	Action   string   `json:"action"`
	MinBet   Chips    `json:"min_bet"`
	MaxBet   Chips    `json:"max_bet"`
	MinScore *float64 `json:"min_score"`
	// Timeout is in seconds, zero when absent
	Timeout float64 `json:"timeout"`
}

// TimeoutOr returns the action's timeout, or def when the server did not send one
func (p PlayerAction) TimeoutOr(def time.Duration) time.Duration {
	if p.Timeout <= 0 {
		return def
	}

	return time.Duration(p.Timeout * float64(time.Second))
}

// RequiresScore is true when folding is a pass because a minimum score is required to open
func (p PlayerAction) RequiresScore() bool {
	return p.MinScore != nil && *p.MinScore != 0
}

// Bet reports a wager
type Bet struct {
	Player Player       `json:"player"`
	Bet    Chips        `json:"bet"`
	Bets   map[ID]Chips `json:"bets"`
}

// Fold reports a player folding
type Fold struct {
	Player Player `json:"player"`
}

// DeadPlayer reports a player dropping out of the hand
type DeadPlayer struct {
	Player Player `json:"player"`
}

// SharedCards carries newly dealt community cards
type SharedCards struct {
	Cards deck.Hand `json:"cards"`
}

// Pot is a main or side pot
type Pot struct {
	Money       Chips  `json:"money"`
	PlayerIDs   []ID   `json:"player_ids,omitempty"`
	WinnerIDs   []ID   `json:"winner_ids,omitempty"`
	MoneySplit  *Chips `json:"money_split,omitempty"`
	NetWinSplit *Chips `json:"net_win_split,omitempty"`
}

// Credit is the amount credited to each winner of the pot
func (p Pot) Credit() Chips {
	if p.NetWinSplit != nil {
		return *p.NetWinSplit
	}

	if p.MoneySplit != nil {
		return *p.MoneySplit
	}

	return 0
}

// PotsUpdate closes a betting round
type PotsUpdate struct {
	Players PlayerList `json:"players"`
	Pots    []Pot      `json:"pots"`
}

// WinnerDesignation awards one pot, a hand sends one per pot
type WinnerDesignation struct {
	Pot     Pot        `json:"pot"`
	Players PlayerList `json:"players"`
	Pots    []Pot      `json:"pots"`
}

// Revealed is a hand shown at showdown
type Revealed struct {
	Cards deck.Hand  `json:"cards"`
	Score deck.Score `json:"score"`
}

// Showdown reveals hole cards
type Showdown struct {
	Players map[ID]Revealed `json:"players"`
}

// GameOver ends a hand
type GameOver struct{}

// RankingUpdate pushes fresh ranking rows, decoded by the ranking package
type RankingUpdate struct {
	Rows json.RawMessage `json:"ranking_list"`
}

func (NewGame) EventName() string { return GameNewGame }
func (CardsAssignment) EventName() string { return GameCardsAssignment }
func (PlayerAction) EventName() string { return GamePlayerAction }
func (Bet) EventName() string { return GameBet }
func (Fold) EventName() string { return GameFold }
func (DeadPlayer) EventName() string { return GameDeadPlayer }
func (SharedCards) EventName() string { return GameSharedCards }
func (PotsUpdate) EventName() string { return GamePotsUpdate }
func (WinnerDesignation) EventName() string { return GameWinnerDesignation }
func (Showdown) EventName() string { return GameShowdown }
func (GameOver) EventName() string { return GameOverEvent }
func (RankingUpdate) EventName() string { return GameRankingUpdate }

// DecodeGameEvent decodes the payload of a game-update message
func DecodeGameEvent(data json.RawMessage) (GameEvent, error) {
	var head struct {
		Event string `json:"event"`
	}

	if err := unmarshal(data, &head); err != nil {
		return nil, err
	}

	var ev GameEvent
	var err error
	switch head.Event {
	case GameNewGame:
		var e NewGame
		err = unmarshal(data, &e)
		ev = e
	case GameCardsAssignment:
		var e CardsAssignment
		err = unmarshal(data, &e)
		ev = e
	case GamePlayerAction:
		var e PlayerAction
		err = unmarshal(data, &e)
		ev = e
	case GameBet:
		var e Bet
		err = unmarshal(data, &e)
		ev = e
	case GameFold:
		var e Fold
		err = unmarshal(data, &e)
		ev = e
	case GameDeadPlayer:
		var e DeadPlayer
		err = unmarshal(data, &e)
		ev = e
	case GameSharedCards:
		var e SharedCards
		err = unmarshal(data, &e)
		ev = e
	case GamePotsUpdate:
		var e PotsUpdate
		err = unmarshal(data, &e)
		ev = e
	case GameWinnerDesignation:
		var e WinnerDesignation
		err = unmarshal(data, &e)
		ev = e
	case GameShowdown:
		var e Showdown
		err = unmarshal(data, &e)
		ev = e
	case GameOverEvent:
		ev = GameOver{}
	case GameRankingUpdate:
		var e RankingUpdate
		err = unmarshal(data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("%w: game event %q", ErrUnknownEvent, head.Event)
	}

	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", head.Event, err)
	}

	return ev, nil
}
