package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidCard is returned when a card on the wire cannot be decoded
var ErrInvalidCard = errors.New("invalid card")

// Suit represents a card suit
type Suit string

// suit constants
const (
	Spades   Suit = "spades"
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
	Hearts   Suit = "hearts"
)

// wireSuits is the suit order used by the server, the index is the wire value
var wireSuits = [...]Suit{Spades, Clubs, Diamonds, Hearts}

// face cards
const (
	Jack    = 11
	Queen   = 12
	King    = 13
	Ace     = 14
	HighAce = Ace
	LowAce  = 1
)

// Card is an individual playing card
// On the wire a card is a two element array of [rank, suit]
type Card struct {
	Rank int
	Suit Suit
}

// SuitFromIndex returns the suit for the server's suit index
func SuitFromIndex(i int) (Suit, error) {
	if i < 0 || i >= len(wireSuits) {
		return "", fmt.Errorf("%w: suit index %d", ErrInvalidCard, i)
	}

	return wireSuits[i], nil
}

// Index returns the server's index for the suit, or -1 if unknown
func (s Suit) Index() int {
	for i, suit := range wireSuits {
		if suit == s {
			return i
		}
	}

	return -1
}

func (c Card) String() string {
	var rank string
	switch c.Rank {
	case Jack:
		rank = "J"
	case Queen:
		rank = "Q"
	case King:
		rank = "K"
	case Ace:
		rank = "A"
	default:
		rank = strconv.Itoa(c.Rank)
	}

	var suit string
	switch c.Suit {
	case Clubs:
		suit = "♣"
	case Diamonds:
		suit = "♢"
	case Hearts:
		suit = "♡"
	case Spades:
		suit = "♠"
	default:
		suit = "?"
	}

	return fmt.Sprintf("%s%s", rank, suit)
}

// IsRed returns true for hearts and diamonds
func (c Card) IsRed() bool {
	return c.Suit == Hearts || c.Suit == Diamonds
}

// MarshalJSON encodes the card as [rank, suit]
func (c Card) MarshalJSON() ([]byte, error) {
	idx := c.Suit.Index()
	if idx < 0 {
		return nil, fmt.Errorf("%w: unknown suit %q", ErrInvalidCard, c.Suit)
	}

	return json.Marshal([2]int{c.Rank, idx})
}

// UnmarshalJSON decodes a [rank, suit] pair
// A low ace (1) is normalized to Ace
func (c *Card) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCard, err)
	}

	if len(pair) != 2 {
		return fmt.Errorf("%w: expected [rank, suit], got %d values", ErrInvalidCard, len(pair))
	}

	rank := pair[0]
	if rank == LowAce {
		rank = Ace
	}

	if rank < 2 || rank > Ace {
		return fmt.Errorf("%w: rank %d", ErrInvalidCard, pair[0])
	}

	suit, err := SuitFromIndex(pair[1])
	if err != nil {
		return err
	}

	c.Rank = rank
	c.Suit = suit
	return nil
}

var cardRx = regexp.MustCompile(`(?i)^([0-9]|1[0-4])([cdhs])\z`)

// CardFromString returns a Card from the string.
// The string must be in the format of <rank><suit> where rank >= 2 and <= 14 and suit in [cdhs]
func CardFromString(s string) Card {
	match := cardRx.FindStringSubmatch(s)
	if match == nil {
		panic(fmt.Sprintf("could not parse card: %s", s))
	}

	rank, err := strconv.Atoi(match[1])
	if err != nil {
		panic(fmt.Sprintf("could not parse card `%s`: %v", s, err))
	}

	var suit Suit
	switch strings.ToLower(match[2]) {
	case "c":
		suit = Clubs
	case "d":
		suit = Diamonds
	case "h":
		suit = Hearts
	case "s":
		suit = Spades
	}

	return Card{Rank: rank, Suit: suit}
}

// CardsFromString will returns a slice of cards
func CardsFromString(s string) []Card {
	if s == "" {
		return []Card{}
	}

	cardStrings := strings.Split(s, ",")
	cards := make([]Card, len(cardStrings))
	for i, card := range cardStrings {
		cards[i] = CardFromString(card)
	}

	return cards
}
