// Package session runs one client connection to the game server.
//
// All state lives in a single run loop: inbound frames, user intents and
// timer expiries are serialized through it, so the stores need no locking.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/game"
	"pypoker-client/pkg/intent"
	"pypoker-client/pkg/protocol"
	"pypoker-client/pkg/ranking"
	"pypoker-client/pkg/render"
	"pypoker-client/pkg/room"
	"pypoker-client/pkg/turntimer"
)

// ErrServerDisconnect is returned by Run when the server ends the session
var ErrServerDisconnect = errors.New("server ended the session")

// ErrRunning is returned by Run when the session is already connected
var ErrRunning = errors.New("session is already running")

// ErrNotRunning is returned by State when no connection is active
var ErrNotRunning = errors.New("session is not running")

// ErrBusy is returned by State when the run loop cannot take more calls
var ErrBusy = errors.New("session run loop is full")

const rankingTimeout = time.Second * 10

// RankingFetcher loads the leaderboard
type RankingFetcher interface {
	Fetch(ctx context.Context) ([]ranking.Entry, error)
}

// Config holds the table settings of a session
type Config struct {
	Seats               int
	TurnTimeout         time.Duration
	ExpiryLead          time.Duration
	InteractionCooldown time.Duration
}

// Option configures a session
type Option func(s *Session)

// WithClock sets the clock used by the turn timer and the cooldowns
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithRanking sets the leaderboard source, it is refreshed on join and after every hand
func WithRanking(fetcher RankingFetcher) Option {
	return func(s *Session) {
		s.ranking = fetcher
	}
}

// Session is the client side of a table
type Session struct {
	cfg      Config
	clock    clockwork.Clock
	renderer render.Renderer
	ranking  RankingFetcher

	room     *room.Store
	game     *game.Store
	intents  *intent.Queue
	cooldown *intent.Cooldown
	timer    *turntimer.Timer

	execInRunLoop chan func()
	expiries      chan func()
	running       int32

	// set for the lifetime of Run, only touched from the run loop
	ctx     context.Context
	out     chan protocol.Frame
	log     logrus.FieldLogger
	localID protocol.ID
}

// New returns a disconnected session
func New(cfg Config, renderer render.Renderer, opts ...Option) *Session {
	if renderer == nil {
		renderer = render.Nop{}
	}

	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = turntimer.DefaultTimeout
	}

	s := &Session{
		cfg:           cfg,
		clock:         clockwork.NewRealClock(),
		renderer:      renderer,
		execInRunLoop: make(chan func(), 256),
		expiries:      make(chan func()),
		log:           logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.room = room.NewStore(cfg.Seats)
	s.game = game.NewStore()
	s.intents = intent.NewQueue()
	s.cooldown = intent.NewCooldown(s.clock, cfg.InteractionCooldown, intent.Interactions...)
	s.timer = turntimer.New(s.clock,
		turntimer.WithExpiryLead(cfg.ExpiryLead),
		turntimer.WithDispatcher(s.dispatchExpiry),
	)

	return s
}

// exec queues fn on the run loop, calls made while disconnected are dropped
func (s *Session) exec(fn func()) bool {
	if atomic.LoadInt32(&s.running) == 0 {
		logrus.Debug("session is not running, dropping call")
		return false
	}

	select {
	case s.execInRunLoop <- fn:
		return true
	default:
		logrus.Warn("session run loop is full, dropping call")
		return false
	}
}

// dispatchExpiry hands a turn expiry to the run loop
// It blocks until accepted, the timer releases it when the countdown is cancelled or replaced.
func (s *Session) dispatchExpiry(fn func(), cancelled <-chan struct{}) {
	select {
	case s.expiries <- fn:
	case <-cancelled:
	}
}

// drain discards calls queued for a previous connection
func (s *Session) drain() {
	for {
		select {
		case <-s.execInRunLoop:
		default:
			return
		}
	}
}

// Run joins the table over conn and blocks until the connection ends
// All derived state is discarded when Run returns.
func (s *Session) Run(ctx context.Context, conn Conn) (err error) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrRunning
	}
	defer atomic.StoreInt32(&s.running, 0)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.drain()

	log := logrus.WithField("conn", uuid.New().String())
	log.Debug("starting session run loop")

	inbound := make(chan protocol.Frame)
	readErr := make(chan error, 1)
	writeErr := make(chan error, 1)
	done := make(chan struct{})

	s.ctx = ctx
	s.log = log
	s.out = make(chan protocol.Frame, 256)

	go readLoop(conn, log, inbound, readErr, done)
	go writeLoop(conn, log, s.out, writeErr, done)

	defer func() {
		close(done)
		closeConn(conn, err)
		s.teardown(err)
		log.WithError(err).Debug("terminating session run loop")
	}()

	s.send(protocol.JoinGame())
	s.renderer.Status(render.StatusConnected, "connected, joining the table")

	for {
		select {
		case f := <-inbound:
			if s.handleFrame(f) {
				return ErrServerDisconnect
			}
		case fn := <-s.execInRunLoop:
			fn()
		case fn := <-s.expiries:
			fn()
		case err := <-readErr:
			return fmt.Errorf("read: %w", err)
		case err := <-writeErr:
			return fmt.Errorf("write: %w", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// teardown discards everything learned over the connection
func (s *Session) teardown(reason error) {
	s.timer.Cancel()
	s.room.Reset()
	s.game.Reset()
	s.intents.Reset()
	s.out = nil
	s.localID = ""

	s.renderer.TurnEnded()
	s.renderer.BetChanged(render.NewBetPrompt(s.game.BetMode()))

	detail := "disconnected"
	if reason != nil && !errors.Is(reason, context.Canceled) {
		detail = fmt.Sprintf("disconnected: %v", reason)
	}

	s.renderer.Status(render.StatusDisconnected, detail)
}

// send queues a frame for the write loop
func (s *Session) send(f protocol.Frame) bool {
	if s.out == nil {
		s.log.WithField("event", f.Event).Debug("not connected, dropping frame")
		return false
	}

	select {
	case s.out <- f:
		return true
	default:
		s.log.WithField("frame", f.String()).Warn("send buffer is full, dropping frame")
		return false
	}
}

// handleFrame returns true when the session must end
func (s *Session) handleFrame(f protocol.Frame) bool {
	msg, err := protocol.Decode(f)
	if err != nil {
		s.log.WithError(err).WithField("frame", f.String()).Warn("could not decode frame")
		return false
	}

	switch m := msg.(type) {
	case protocol.Connected:
		s.connected(m)
	case protocol.Ping:
		s.send(protocol.Pong(s.intents.Flush()))
	case protocol.RoomUpdate:
		s.applyRoom(m)
	case protocol.GameUpdate:
		s.applyGame(m.Event)
	case protocol.ServerError:
		s.log.WithField("error", m.Message).Warn("server error")
		s.renderer.Status(render.StatusError, m.Message)
	case protocol.Chat:
		s.renderer.Chat(m)
	case protocol.Interaction:
		s.renderer.Interaction(m)
	case protocol.FinalHandsStarted:
		s.renderer.FinalHands(render.FinalHands{Started: true, Countdown: m.Countdown})
	case protocol.FinalHandsUpdate:
		s.renderer.FinalHands(render.FinalHands{Current: m.CurrentHand, Total: m.TotalHands})
	case protocol.FinalHandsFinished:
		s.intents.FinalHandsFinished()
		s.renderer.FinalHands(render.FinalHands{Finished: true})
	case protocol.Disconnect:
		s.log.Info("server requested disconnect")
		return true
	default:
		s.log.WithField("type", protocol.MessageType(msg)).Warn("unhandled message")
	}

	return false
}

func (s *Session) connected(m protocol.Connected) {
	s.localID = m.PlayerID
	s.game.SetLocalPlayer(m.PlayerID)
	s.log = s.log.WithField("player", m.PlayerID)
	s.renderer.Status(render.StatusJoined, fmt.Sprintf("joined as player %s", m.PlayerID))

	if m.Room != nil {
		s.applyRoom(*m.Room)
	}

	s.refreshRanking()
}

func (s *Session) applyRoom(u protocol.RoomUpdate) {
	snapshot, changes := s.room.Apply(u)
	view := s.room.View()
	s.intents.SetSeated(view.SeatOf(s.localID) >= 0)

	s.renderer.RoomChanged(render.RoomUpdate{
		View:     view,
		Changes:  changes,
		Snapshot: snapshot,
		LocalID:  s.localID,
		Event:    u.Event,
	})
}

func (s *Session) applyGame(ev protocol.GameEvent) {
	t := s.game.Apply(ev)

	var refreshed []room.SeatChange
	switch e := ev.(type) {
	case protocol.NewGame:
		s.timer.Cancel()
		s.room.SetHandInProgress(true)
		refreshed = s.room.RefreshPlayers(e.Players)
	case protocol.PlayerAction:
		timeout := e.TimeoutOr(s.cfg.TurnTimeout)
		s.timer.Arm(e.Player.ID, timeout, s.expireTurn)
		s.renderer.TurnStarted(e.Player.ID, timeout)
	case protocol.Bet:
		s.endTurn(e.Player.ID)
		refreshed = s.room.RefreshPlayers(protocol.PlayerList{e.Player})
	case protocol.Fold:
		s.endTurn(e.Player.ID)
	case protocol.DeadPlayer:
		s.endTurn(e.Player.ID)
	case protocol.PotsUpdate:
		refreshed = s.room.RefreshPlayers(e.Players)
	case protocol.WinnerDesignation:
		refreshed = s.room.RefreshPlayers(e.Players)
	case protocol.GameOver:
		s.timer.Cancel()
		s.renderer.TurnEnded()
		s.room.SetHandInProgress(false)
		s.intents.HandOver()
		s.refreshRanking()
	case protocol.RankingUpdate:
		entries, err := ranking.DecodeRows(e.Rows)
		if err != nil {
			s.log.WithError(err).Warn("could not decode ranking update")
		} else {
			s.renderer.Ranking(entries)
		}
	}

	view := s.room.View()
	if len(refreshed) > 0 {
		s.renderer.RoomChanged(render.RoomUpdate{View: view, Changes: refreshed, LocalID: s.localID})
	}

	s.renderer.HandChanged(render.HandUpdate{
		Event:      ev,
		Hand:       s.game.Hand(),
		Transition: t,
		Room:       view,
		LocalID:    s.localID,
	})
	s.renderer.BetChanged(render.NewBetPrompt(s.game.BetMode()))
}

// endTurn stops the countdown once the acting player has acted
func (s *Session) endTurn(player protocol.ID) {
	if active, ok := s.timer.Active(); ok && active == player {
		s.timer.Cancel()
		s.renderer.TurnEnded()
	}
}

// expireTurn runs on the run loop when the turn timer fires
func (s *Session) expireTurn() {
	s.renderer.TurnEnded()

	amount, ok := s.game.BetMode().Fold()
	if !ok {
		return
	}

	s.log.Info("turn timed out, folding")
	s.send(protocol.PlaceBet(amount))
	s.renderer.BetChanged(render.NewBetPrompt(s.game.BetMode()))
}

// refreshRanking fetches the leaderboard in the background
func (s *Session) refreshRanking() {
	if s.ranking == nil {
		return
	}

	ctx, log := s.ctx, s.log
	go func() {
		fetchCtx, cancel := context.WithTimeout(ctx, rankingTimeout)
		defer cancel()

		entries, err := s.ranking.Fetch(fetchCtx)
		if err != nil {
			log.WithError(err).Warn("could not fetch ranking")
			return
		}

		if ctx.Err() != nil {
			return
		}

		s.exec(func() {
			// the connection that asked for it is gone
			if ctx.Err() != nil {
				return
			}

			s.renderer.Ranking(entries)
		})
	}()
}
