package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/game"
	"pypoker-client/pkg/intent"
	"pypoker-client/pkg/protocol"
)

var errUnknownCommand = errors.New("unknown command")
var errUsage = errors.New("invalid arguments")

const defaultBotDifficulty = "easy"

// commander is the part of the session driven from the command line
type commander interface {
	RequestSeat(seat int)
	ToggleReady()
	RequestFinalHands()
	AdjustWager(delta protocol.Chips)
	SetWager(amount protocol.Chips)
	ApplyPreset(p game.Preset)
	SubmitBet()
	Fold()
	Chat(message string)
	Interact(kind string)
	AddBot(seat int, difficulty string)
	RemoveBot(seat int)
	RefreshRanking()
}

var emotes = map[string]string{
	"inspect":   intent.InteractionInspect,
	"fine":      intent.InteractionNoProblem,
	"reveal":    intent.InteractionReveal,
	"shoeshine": intent.InteractionShoeShine,
}

const help = `commands:
  seat <n>              request seat n, starting at 0
  ready                 toggle readiness
  bet [amount]          submit the wager, optionally setting it first
  +<n>, -<n>            raise or lower the wager
  half, full, allin     size the wager from the pot
  fold                  fold, or pass when allowed
  chat <message>        send a chat line
  emote <kind>          inspect, fine, reveal or shoeshine
  addbot <n> [level]    seat a bot, owner only
  removebot <n>         remove a bot, owner only
  final                 start the final hands, owner only
  rank                  reload the leaderboard
  quit                  leave the table`

// readCommands executes each line of r, it returns true when the user quits
func readCommands(r io.Reader, w io.Writer, c commander) bool {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return true
		case "help", "?":
			_, _ = fmt.Fprintln(w, help)
			continue
		}

		if err := execute(c, line); err != nil {
			_, _ = fmt.Fprintf(w, "%v, type help for a list of commands\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		logrus.WithError(err).Error("could not read commands")
	}

	return false
}

func execute(c commander, line string) error {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	if strings.HasPrefix(name, "+") || strings.HasPrefix(name, "-") {
		delta, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", errUsage, name)
		}

		c.AdjustWager(protocol.Chips(delta))
		return nil
	}

	switch name {
	case "seat":
		seat, err := intArg(args, 0)
		if err != nil {
			return err
		}

		c.RequestSeat(seat)
	case "ready":
		c.ToggleReady()
	case "bet", "check", "call", "raise", "b":
		if len(args) > 0 {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || amount < 0 {
				return fmt.Errorf("%w: bet %s", errUsage, args[0])
			}

			c.SetWager(protocol.Chips(amount))
		}

		c.SubmitBet()
	case "fold", "pass", "f":
		c.Fold()
	case string(game.PresetHalfPot), string(game.PresetFullPot), string(game.PresetAllIn):
		c.ApplyPreset(game.Preset(name))
	case "chat", "say":
		if len(args) == 0 {
			return fmt.Errorf("%w: chat needs a message", errUsage)
		}

		c.Chat(strings.Join(args, " "))
	case "emote":
		if len(args) != 1 {
			return fmt.Errorf("%w: emote needs a kind", errUsage)
		}

		kind, ok := emotes[strings.ToLower(args[0])]
		if !ok {
			kind = args[0]
		}

		c.Interact(kind)
	case "addbot":
		seat, err := intArg(args, 0)
		if err != nil {
			return err
		}

		difficulty := defaultBotDifficulty
		if len(args) > 1 {
			difficulty = args[1]
		}

		c.AddBot(seat, difficulty)
	case "removebot":
		seat, err := intArg(args, 0)
		if err != nil {
			return err
		}

		c.RemoveBot(seat)
	case "final":
		c.RequestFinalHands()
	case "rank", "ranking":
		c.RefreshRanking()
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, name)
	}

	return nil
}

func intArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing seat", errUsage)
	}

	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number", errUsage, args[i])
	}

	return n, nil
}
