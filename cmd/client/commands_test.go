package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pypoker-client/internal/config"
	"pypoker-client/pkg/game"
	"pypoker-client/pkg/protocol"
)

type callRecorder struct {
	calls []string
}

func (r *callRecorder) record(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *callRecorder) RequestSeat(seat int) { r.record("seat %d", seat) }
func (r *callRecorder) ToggleReady() { r.record("ready") }
func (r *callRecorder) RequestFinalHands() { r.record("final") }
func (r *callRecorder) AdjustWager(delta protocol.Chips) { r.record("adjust %d", delta) }
func (r *callRecorder) SetWager(amount protocol.Chips) { r.record("set %d", amount) }
func (r *callRecorder) ApplyPreset(p game.Preset) { r.record("preset %s", p) }
func (r *callRecorder) SubmitBet() { r.record("submit") }
func (r *callRecorder) Fold() { r.record("fold") }
func (r *callRecorder) Chat(message string) { r.record("chat %s", message) }
func (r *callRecorder) Interact(kind string) { r.record("interact %s", kind) }
func (r *callRecorder) AddBot(seat int, difficulty string) { r.record("addbot %d %s", seat, difficulty) }
func (r *callRecorder) RemoveBot(seat int) { r.record("removebot %d", seat) }
func (r *callRecorder) RefreshRanking() { r.record("rank") }

func TestExecute(t *testing.T) {
	a := assert.New(t)

	tests := []struct {
		line   string
		expect []string
	}{
		{"seat 3", []string{"seat 3"}},
		{"ready", []string{"ready"}},
		{"bet", []string{"submit"}},
		{"bet 40", []string{"set 40", "submit"}},
		{"+20", []string{"adjust 20"}},
		{"-5", []string{"adjust -5"}},
		{"half", []string{"preset half"}},
		{"ALLIN", []string{"preset allin"}},
		{"fold", []string{"fold"}},
		{"chat good  game", []string{"chat good game"}},
		{"emote reveal", []string{"interact kaipai"}},
		{"emote capixie", []string{"interact capixie"}},
		{"addbot 2", []string{"addbot 2 easy"}},
		{"addbot 2 hard", []string{"addbot 2 hard"}},
		{"removebot 4", []string{"removebot 4"}},
		{"final", []string{"final"}},
		{"rank", []string{"rank"}},
	}

	for _, test := range tests {
		r := &callRecorder{}
		a.NoError(execute(r, test.line), test.line)
		a.Equal(test.expect, r.calls, test.line)
	}
}

func TestExecute_errors(t *testing.T) {
	a := assert.New(t)

	r := &callRecorder{}
	a.True(errors.Is(execute(r, "dance"), errUnknownCommand))
	a.True(errors.Is(execute(r, "seat"), errUsage))
	a.True(errors.Is(execute(r, "seat two"), errUsage))
	a.True(errors.Is(execute(r, "bet -3"), errUsage))
	a.True(errors.Is(execute(r, "+abc"), errUsage))
	a.True(errors.Is(execute(r, "chat"), errUsage))
	a.True(errors.Is(execute(r, "emote"), errUsage))
	a.Empty(r.calls)
}

func TestReadCommands(t *testing.T) {
	a := assert.New(t)

	r := &callRecorder{}
	out := &bytes.Buffer{}
	quit := readCommands(strings.NewReader("ready\n\nnope\nhelp\nfold\nquit\nready\n"), out, r)

	a.True(quit)
	a.Equal([]string{"ready", "fold"}, r.calls)
	a.Contains(out.String(), "unknown command: nope")
	a.Contains(out.String(), "commands:")

	r = &callRecorder{}
	a.False(readCommands(strings.NewReader("ready"), out, r))
	a.Equal([]string{"ready"}, r.calls)
}

func TestRankingBaseURL(t *testing.T) {
	a := assert.New(t)

	cfg := config.DefaultConfig()
	base, err := rankingBaseURL(cfg)
	a.NoError(err)
	a.Equal("http://localhost:5000", base)

	cfg.Server.URL = "wss://poker.example.test/poker/texas-holdem"
	base, err = rankingBaseURL(cfg)
	a.NoError(err)
	a.Equal("https://poker.example.test", base)

	cfg.Server.RankingURL = "http://ranking.example.test"
	base, err = rankingBaseURL(cfg)
	a.NoError(err)
	a.Equal("http://ranking.example.test", base)

	cfg = config.DefaultConfig()
	cfg.Server.URL = "ftp://nope"
	_, err = rankingBaseURL(cfg)
	a.Error(err)
}

func TestHandshakeHeader(t *testing.T) {
	a := assert.New(t)

	cfg := config.DefaultConfig()
	a.Empty(handshakeHeader(cfg))

	cfg.Server.Cookie = "session=abc"
	cfg.Server.Origin = "http://localhost:5000"
	h := handshakeHeader(cfg)
	a.Equal("session=abc", h.Get("Cookie"))
	a.Equal("http://localhost:5000", h.Get("Origin"))
}
