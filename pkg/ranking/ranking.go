// Package ranking reads the leaderboard, either from the ranking API or from
// ranking rows pushed with the game events.
package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedRow is returned for a row that is not [rank, name, total, bb/100, daily total, daily profit]
var ErrMalformedRow = errors.New("malformed ranking row")

// Entry is one leaderboard line
type Entry struct {
	Rank        int
	Name        string
	TotalScore  float64
	BBPer100    float64
	DailyTotal  float64
	DailyProfit float64
}

const rowLength = 6

// DecodeRows decodes the row arrays sent by the server
// An empty or null payload is an empty ranking.
func DecodeRows(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return []Entry{}, nil
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("could not decode ranking: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entry, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func decodeRow(row []json.RawMessage) (Entry, error) {
	if len(row) != rowLength {
		return Entry{}, fmt.Errorf("%w: %d columns", ErrMalformedRow, len(row))
	}

	var e Entry
	var rank float64
	targets := []interface{}{&rank, &e.Name, &e.TotalScore, &e.BBPer100, &e.DailyTotal, &e.DailyProfit}
	for i, target := range targets {
		if err := json.Unmarshal(row[i], target); err != nil {
			return Entry{}, fmt.Errorf("%w: column %d: %v", ErrMalformedRow, i, err)
		}
	}

	e.Rank = int(rank)
	return e, nil
}
