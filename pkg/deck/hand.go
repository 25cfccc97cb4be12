package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Hand represents a collection of cards
type Hand []Card

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}

	return strings.Join(parts, " ")
}

// Category is the server's hand category
type Category int

// hand categories, in the server's order
const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var categoryNames = [...]string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
}

func (c Category) String() string {
	if c < HighCard || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}

	return categoryNames[c]
}

// Score is the evaluation the server attaches to the local hole cards
type Score struct {
	Category Category `json:"category"`
	Cards    Hand     `json:"cards"`
}

// UnmarshalJSON accepts either {"category": n, "cards": [...]} or a bare category number
func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Score{}
		return nil
	}

	if b[0] != '{' {
		var category int
		if err := json.Unmarshal(b, &category); err != nil {
			return fmt.Errorf("could not decode score: %w", err)
		}

		*s = Score{Category: Category(category)}
		return nil
	}

	type plain Score
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("could not decode score: %w", err)
	}

	*s = Score(p)
	return nil
}
