package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ID is an opaque player identifier
// The server may send ids as JSON numbers or strings, and null for an empty seat
type ID string

// IsZero returns true for the empty id
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts a string, a number or null
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid id %s: %w", b, err)
		}

		*id = ID(n.String())
	}

	return nil
}

// MarshalJSON writes numeric ids as numbers so they round trip to the server unchanged
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}

	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}

	return json.Marshal(string(id))
}

// Chips is an amount of money
// Amounts may arrive as floats, they are truncated toward zero
type Chips int64

// UnmarshalJSON accepts an integer, a float or null
func (c *Chips) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("invalid amount %s: %w", b, err)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid amount %s", b)
	}

	*c = Chips(math.Trunc(f))
	return nil
}

// Player is the server's view of a player
type Player struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Money  Chips  `json:"money"`
	Avatar string `json:"avatar,omitempty"`
	Ready  bool   `json:"ready,omitempty"`
	IsBot  bool   `json:"is_bot,omitempty"`
}

// UnmarshalJSON accepts a full player object or a bare id
func (p *Player) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		var id ID
		if err := id.UnmarshalJSON(b); err != nil {
			return err
		}

		*p = Player{ID: id}
		return nil
	}

	type plain Player
	var pl plain
	if err := json.Unmarshal(b, &pl); err != nil {
		return err
	}

	*p = Player(pl)
	return nil
}

// PlayerList is an ordered list of players
// It decodes from either a JSON array or an object keyed by player id,
// in which case the object order is preserved and a missing id is taken from the key
type PlayerList []Player

// UnmarshalJSON decodes an array or an id keyed object
func (l *PlayerList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}

	if b[0] == '[' {
		var players []Player
		if err := json.Unmarshal(b, &players); err != nil {
			return err
		}

		*l = players
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return err
	}

	players := make(PlayerList, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected player key %v", tok)
		}

		var p Player
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("could not decode player %s: %w", key, err)
		}

		if p.ID.IsZero() {
			p.ID = ID(key)
		}

		players = append(players, p)
	}

	*l = players
	return nil
}

// ByID returns the players indexed by id; the first occurrence of a duplicate id wins
func (l PlayerList) ByID() map[ID]Player {
	m := make(map[ID]Player, len(l))
	for _, p := range l {
		if _, found := m[p.ID]; !found {
			m[p.ID] = p
		}
	}

	return m
}
