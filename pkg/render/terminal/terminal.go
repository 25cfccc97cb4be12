// Package terminal renders the table to an interactive terminal with pterm.
package terminal

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"pypoker-client/pkg/deck"
	"pypoker-client/pkg/game"
	"pypoker-client/pkg/intent"
	"pypoker-client/pkg/protocol"
	"pypoker-client/pkg/ranking"
	"pypoker-client/pkg/render"
	"pypoker-client/pkg/room"
)

var interactionText = map[string]string{
	intent.InteractionInspect:   "wants to inspect the cards",
	intent.InteractionNoProblem: "says the cards are fine",
	intent.InteractionReveal:    "says: show your cards",
	intent.InteractionShoeShine: "asks for a shoe shine",
}

// Terminal draws panels and tables
type Terminal struct {
	out  io.Writer
	room room.View
}

var _ render.Renderer = (*Terminal)(nil)

// New returns a renderer that writes to out
func New(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) println(s string) {
	_, _ = fmt.Fprintln(t.out, s)
}

// Status prints the connection state
func (t *Terminal) Status(status render.Status, detail string) {
	switch status {
	case render.StatusDisconnected:
		t.println(pterm.Warning.Sprint(detail))
	case render.StatusError:
		t.println(pterm.Error.Sprint(detail))
	case render.StatusJoined:
		t.println(pterm.Success.Sprint(detail))
	default:
		t.println(pterm.Info.Sprint(detail))
	}
}

// RoomChanged redraws the seats
func (t *Terminal) RoomChanged(u render.RoomUpdate) {
	t.room = u.View
	if !u.Snapshot && len(u.Changes) == 0 {
		return
	}

	t.println(t.seatsTable(u.View, u.LocalID, nil))
}

// HandChanged prints the board on checkpoints and a line for everything else
func (t *Terminal) HandChanged(u render.HandUpdate) {
	t.room = u.Room
	h := u.Hand

	switch u.Transition.Event {
	case protocol.GameNewGame:
		t.println(pterm.DefaultSection.Sprintf("Hand %s, dealer %s", h.ID, t.name(h.DealerID, u.LocalID)))
	case protocol.GameCardsAssignment:
		t.println(fmt.Sprintf("Your cards: %s (%s)", cards(h.LocalCards), h.LocalScore.Category))
	case protocol.GameSharedCards, protocol.GamePotsUpdate, protocol.GameShowdown:
		t.println(t.board(u))
	case protocol.GameFold:
		t.println(pterm.Gray(fmt.Sprintf("%s folded", t.name(eventPlayer(u.Event), u.LocalID))))
	case protocol.GameDeadPlayer:
		t.println(pterm.Gray(fmt.Sprintf("%s is out of the hand", t.name(eventPlayer(u.Event), u.LocalID))))
	case protocol.GameWinnerDesignation:
		t.println(t.winners(u))
	}

	if u.Transition.Settled {
		t.println(t.winners(u))
	}
}

// BetChanged prints the wager prompt
func (t *Terminal) BetChanged(p render.BetPrompt) {
	if !p.Armed {
		return
	}

	body := fmt.Sprintf("Wager %d (min %d, max %d)\n%s  |  %s\n+n / -n, half, full, allin, bet, fold",
		p.Current, p.Min, p.Max, pterm.LightGreen(p.Label), pterm.LightRed(p.FoldLabel))
	t.println(pterm.DefaultBox.WithTitle(pterm.LightYellow("|YOUR TURN|")).WithTitleTopCenter().Sprint(body))
}

// TurnStarted prints whose turn it is
func (t *Terminal) TurnStarted(player protocol.ID, timeout time.Duration) {
	t.println(pterm.Gray(fmt.Sprintf("%s to act (%s)", t.name(player, ""), timeout.Round(time.Second))))
}

// TurnEnded does nothing
func (t *Terminal) TurnEnded() {}

// Chat prints a chat line
func (t *Terminal) Chat(msg protocol.Chat) {
	name := msg.SenderName
	if name == "" {
		name = t.name(msg.SenderID, "")
	}

	t.println(fmt.Sprintf("%s: %s", pterm.LightCyan(name), msg.Message))
}

// Interaction prints a social signal
func (t *Terminal) Interaction(msg protocol.Interaction) {
	text, ok := interactionText[msg.Action]
	if !ok {
		return
	}

	t.println(pterm.LightMagenta(fmt.Sprintf("%s %s", t.name(msg.SenderID, ""), text)))
}

// Ranking prints the leaderboard
func (t *Terminal) Ranking(entries []ranking.Entry) {
	if len(entries) == 0 {
		return
	}

	data := pterm.TableData{{"#", "Player", "Total", "bb/100", "Today", "Profit"}}
	for _, e := range entries {
		data = append(data, []string{
			strconv.Itoa(e.Rank),
			e.Name,
			formatFloat(e.TotalScore),
			formatFloat(e.BBPer100),
			formatFloat(e.DailyTotal),
			formatFloat(e.DailyProfit),
		})
	}

	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return
	}

	t.println(s)
}

// FinalHands prints final hands progress
func (t *Terminal) FinalHands(p render.FinalHands) {
	switch {
	case p.Finished:
		t.println(pterm.Info.Sprint("The final hands are over"))
	case p.Started:
		t.println(pterm.Info.Sprintf("The last %d hands begin", p.Countdown))
	case p.Current == p.Total && p.Total > 0:
		t.println(pterm.LightRed(fmt.Sprintf("Final hand %d of %d", p.Current, p.Total)))
	default:
		t.println(pterm.Info.Sprintf("Hand %d of %d", p.Current, p.Total))
	}
}

func (t *Terminal) name(id protocol.ID, local protocol.ID) string {
	if !local.IsZero() && id == local {
		return "You"
	}

	if p, ok := t.room.Players[id]; ok && p.Name != "" {
		return p.Name
	}

	return string(id)
}

func (t *Terminal) seatsTable(v room.View, local protocol.ID, h *game.Hand) string {
	data := pterm.TableData{{"Seat", "Player", "Money", "Status"}}
	for i := range v.Seats {
		p, ok := v.Occupant(i)
		if !ok {
			data = append(data, []string{strconv.Itoa(i), pterm.Gray("empty"), "", ""})
			continue
		}

		var status []string
		if v.IsOwner(p.ID) {
			status = append(status, "owner")
		}

		if p.IsBot {
			status = append(status, "bot")
		}

		if p.Ready {
			status = append(status, pterm.LightGreen("ready"))
		}

		money := p.Money
		if h != nil {
			if balance, found := h.Balances[p.ID]; found {
				money = balance
			}

			if h.Folded[p.ID] {
				status = append(status, pterm.LightRed("folded"))
			}

			if bet := h.Bets[p.ID]; bet > 0 {
				status = append(status, fmt.Sprintf("bet %d", bet))
			}

			if revealed, found := h.Revealed[p.ID]; found {
				status = append(status, cards(revealed.Cards))
			}
		}

		data = append(data, []string{
			strconv.Itoa(i),
			t.name(p.ID, local),
			strconv.FormatInt(int64(money), 10),
			strings.Join(status, " "),
		})
	}

	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return ""
	}

	return s
}

func (t *Terminal) board(u render.HandUpdate) string {
	h := u.Hand
	board := fmt.Sprintf("Board: %s\nPot: %d", cards(h.SharedCards), h.TotalPot())
	if len(h.Pots) > 1 {
		side := make([]string, 0, len(h.Pots)-1)
		for _, pot := range h.Pots[1:] {
			side = append(side, strconv.FormatInt(int64(pot.Money), 10))
		}

		board += fmt.Sprintf(" (side pots %s)", strings.Join(side, ", "))
	}

	panels := pterm.Panels{{
		{Data: pterm.DefaultBox.WithTitle("|TABLE|").WithTitleTopCenter().Sprint(board)},
		{Data: t.seatsTable(u.Room, u.LocalID, &h)},
	}}

	s, err := pterm.DefaultPanel.WithPanels(panels).Srender()
	if err != nil {
		return board
	}

	return s
}

func (t *Terminal) winners(u render.HandUpdate) string {
	ids := make([]string, 0, len(u.Hand.Winnings))
	for id := range u.Hand.Winnings {
		ids = append(ids, string(id))
	}

	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("%s won %d", pterm.LightCyan(t.name(protocol.ID(id), u.LocalID)), u.Hand.Winnings[protocol.ID(id)]))
	}

	if len(lines) == 0 {
		return pterm.Gray("no winners yet")
	}

	return pterm.DefaultBox.WithTitle(pterm.LightGreen("|WINNERS|")).WithTitleTopCenter().Sprint(strings.Join(lines, "\n"))
}

func eventPlayer(ev protocol.GameEvent) protocol.ID {
	switch e := ev.(type) {
	case protocol.Fold:
		return e.Player.ID
	case protocol.DeadPlayer:
		return e.Player.ID
	}

	return ""
}

func cards(h deck.Hand) string {
	if len(h) == 0 {
		return pterm.Gray("-")
	}

	parts := make([]string, len(h))
	for i, c := range h {
		if c.IsRed() {
			parts[i] = pterm.LightRed(c.String())
		} else {
			parts[i] = c.String()
		}
	}

	return strings.Join(parts, " ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
