package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"pypoker-client/pkg/protocol"
	"pypoker-client/pkg/ranking"
	"pypoker-client/pkg/render"
)

const waitFor = time.Second
const tick = time.Millisecond * 5

var errClosed = errors.New("closed")

type fakeConn struct {
	in     chan protocol.Frame
	out    chan protocol.Frame
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan protocol.Frame, 16),
		out:    make(chan protocol.Frame, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadJSON(v interface{}) error {
	select {
	case f := <-c.in:
		*(v.(*protocol.Frame)) = f
		return nil
	case <-c.closed:
		return errClosed
	}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	select {
	case c.out <- v.(protocol.Frame):
		return nil
	case <-c.closed:
		return errClosed
	}
}

func (c *fakeConn) SetWriteDeadline(time.Time) error {
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		close(c.closed)
	})

	return nil
}

func (c *fakeConn) push(event, data string) {
	c.in <- protocol.Frame{Event: event, Data: json.RawMessage(data)}
}

func (c *fakeConn) game(data string) {
	c.push(protocol.EventGameMessage, data)
}

// next returns the next outbound frame with its decoded payload
func (c *fakeConn) next(t *testing.T) (protocol.Frame, map[string]interface{}) {
	t.Helper()

	select {
	case f := <-c.out:
		var payload map[string]interface{}
		if len(f.Data) > 0 {
			if err := json.Unmarshal(f.Data, &payload); err != nil {
				t.Fatalf("could not decode outbound frame: %v", err)
			}
		}

		return f, payload
	case <-time.After(waitFor):
		t.Fatal("no outbound frame")
		return protocol.Frame{}, nil
	}
}

type recorder struct {
	render.Nop

	lock     sync.Mutex
	statuses []render.Status
	rooms    []render.RoomUpdate
	rankings [][]ranking.Entry

	turnEntered chan struct{}
	turnRelease chan struct{}
}

// holdTurn blocks the run loop in the next TurnStarted until release is closed
func (r *recorder) holdTurn() (entered chan struct{}, release chan struct{}) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.turnEntered = make(chan struct{})
	r.turnRelease = make(chan struct{})
	return r.turnEntered, r.turnRelease
}

func (r *recorder) TurnStarted(protocol.ID, time.Duration) {
	r.lock.Lock()
	entered, release := r.turnEntered, r.turnRelease
	r.turnEntered, r.turnRelease = nil, nil
	r.lock.Unlock()

	if entered == nil {
		return
	}

	close(entered)
	<-release
}

func (r *recorder) Status(status render.Status, _ string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) RoomChanged(u render.RoomUpdate) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.rooms = append(r.rooms, u)
}

func (r *recorder) Ranking(entries []ranking.Entry) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.rankings = append(r.rankings, entries)
}

func (r *recorder) lastStatus() render.Status {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.statuses) == 0 {
		return -1
	}

	return r.statuses[len(r.statuses)-1]
}

func (r *recorder) lastRoom() (render.RoomUpdate, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.rooms) == 0 {
		return render.RoomUpdate{}, false
	}

	return r.rooms[len(r.rooms)-1], true
}

func (r *recorder) rankingCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.rankings)
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type fixture struct {
	session  *Session
	conn     *fakeConn
	clock    fakeClock
	renderer *recorder
	cancel   context.CancelFunc
	done     chan error
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		clock:    clockwork.NewFakeClock(),
		renderer: &recorder{},
	}

	opts = append([]Option{WithClock(f.clock)}, opts...)
	f.session = New(Config{
		Seats:               4,
		TurnTimeout:         15 * time.Second,
		ExpiryLead:          time.Second,
		InteractionCooldown: 5 * time.Second,
	}, f.renderer, opts...)

	f.start(t)
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	f.conn = newFakeConn()
	f.cancel = cancel
	f.done = make(chan error, 1)

	go func() {
		f.done <- f.session.Run(ctx, f.conn)
	}()

	frame, _ := f.conn.next(t)
	assert.Equal(t, protocol.EventJoinGame, frame.Event)
	t.Cleanup(cancel)
}

func (f *fixture) wait(t *testing.T) error {
	t.Helper()

	select {
	case err := <-f.done:
		return err
	case <-time.After(waitFor):
		t.Fatal("session did not end")
		return nil
	}
}

func (f *fixture) state(t *testing.T) State {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	st, err := f.session.State(ctx)
	if err != nil {
		t.Fatalf("could not read state: %v", err)
	}

	return st
}

// join connects as player 1 with player 2 seated in seat 1
func (f *fixture) join(t *testing.T) {
	t.Helper()

	f.conn.push(protocol.EventGameConnected, `{"player_id": 1}`)
	f.conn.game(`{
		"message_type": "room-update",
		"event": "init",
		"room_id": "r1",
		"players": {"1": {"id": 1, "name": "me", "money": 1000}, "2": {"id": 2, "name": "bob", "money": 1000}},
		"player_ids": [null, 2, null, null],
		"owner_id": 1
	}`)

	assert.Eventually(t, func() bool {
		return f.state(t).Room.RoomID == "r1"
	}, waitFor, tick)
}

// ping answers a server ping once every queued intent has been applied
func (f *fixture) ping(t *testing.T) map[string]interface{} {
	t.Helper()

	f.state(t)
	f.conn.game(`{"message_type": "ping"}`)
	frame, payload := f.conn.next(t)
	assert.Equal(t, protocol.EventGameMessage, frame.Event)
	assert.Equal(t, protocol.TypePong, payload["message_type"])
	return payload
}

func TestSession_joinAndPing(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	st := f.state(t)
	a.Equal(protocol.ID("1"), st.LocalID)
	a.Len(st.Room.Seats, 4)
	a.False(st.Seated)
	a.Equal(render.StatusJoined, f.renderer.lastStatus())

	payload := f.ping(t)
	a.Equal(false, payload["ready"])
	a.NotContains(payload, "seat_request")
	a.NotContains(payload, "start_final_10_hands")
}

func TestSession_seatAndReady(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	// occupied and out of range seats are ignored
	f.session.RequestSeat(1)
	f.session.RequestSeat(9)
	a.NotContains(f.ping(t), "seat_request")

	// last write wins
	f.session.RequestSeat(2)
	f.session.RequestSeat(0)
	payload := f.ping(t)
	a.Equal(float64(0), payload["seat_request"])

	// sent once
	a.NotContains(f.ping(t), "seat_request")

	// not seated yet
	f.session.ToggleReady()
	a.Equal(false, f.ping(t)["ready"])

	f.conn.game(`{
		"message_type": "room-update",
		"event": "player-added",
		"players": {"1": {"id": 1, "name": "me", "money": 1000}, "2": {"id": 2, "name": "bob", "money": 1000}},
		"player_ids": [1, 2, null, null]
	}`)
	a.Eventually(func() bool { return f.state(t).Seated }, waitFor, tick)

	u, ok := f.renderer.lastRoom()
	if a.True(ok) {
		a.False(u.Snapshot)
		a.Len(u.Changes, 1)
	}

	f.session.ToggleReady()
	a.Equal(true, f.ping(t)["ready"])
	a.Equal(true, f.ping(t)["ready"], "readiness is a level")
}

func TestSession_finalHands(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.session.RequestFinalHands()
	f.session.RequestFinalHands()
	a.Equal(true, f.ping(t)["start_final_10_hands"])
	a.NotContains(f.ping(t), "start_final_10_hands")

	// latched until the server reports the end
	f.session.RequestFinalHands()
	a.NotContains(f.ping(t), "start_final_10_hands")

	f.conn.game(`{"message_type": "final-hands-finished"}`)
	a.Eventually(func() bool { return !f.state(t).FinalHands }, waitFor, tick)
	f.session.RequestFinalHands()
	a.Equal(true, f.ping(t)["start_final_10_hands"])
}

func newGameFrame() string {
	return `{
		"message_type": "game-update",
		"event": "new-game",
		"game_id": "g1",
		"players": [{"id": 1, "name": "me", "money": 1000}, {"id": 2, "name": "bob", "money": 1000}],
		"dealer_id": 2,
		"big_blind": 10,
		"small_blind": 5
	}`
}

func TestSession_turnExpiryFolds(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.game(newGameFrame())
	f.conn.game(`{
		"message_type": "game-update",
		"event": "player-action",
		"action": "bet",
		"player": {"id": 1, "name": "me", "money": 1000},
		"min_bet": 10,
		"max_bet": 1000,
		"timeout": 15
	}`)

	a.Eventually(func() bool {
		st := f.state(t)
		return st.TurnPending && st.Bet.Armed
	}, waitFor, tick)
	a.Equal(15*time.Second, f.state(t).TurnRemaining)

	f.clock.Advance(13 * time.Second)
	f.session.Chat("still thinking")
	frame, payload := f.conn.next(t)
	a.Equal(protocol.EventGameMessage, frame.Event)
	a.Equal(protocol.TypeChatMessage, payload["message_type"])
	a.Equal(2*time.Second, f.state(t).TurnRemaining)

	f.clock.Advance(time.Second)
	frame, payload = f.conn.next(t)
	a.Equal(protocol.EventGameMessage, frame.Event)
	a.Equal(protocol.TypeBet, payload["message_type"])
	a.Equal(float64(-1), payload["bet"])

	st := f.state(t)
	a.False(st.TurnPending)
	a.False(st.Bet.Armed)
	a.Zero(st.TurnRemaining)

	// nothing else is sent for that turn
	f.clock.Advance(time.Minute)
	f.session.Chat("after")
	_, payload = f.conn.next(t)
	a.Equal(protocol.TypeChatMessage, payload["message_type"])
}

func localTurnFrame() string {
	return `{
		"message_type": "game-update",
		"event": "player-action",
		"action": "bet",
		"player": {"id": 1, "name": "me", "money": 1000},
		"min_bet": 10,
		"max_bet": 1000,
		"timeout": 15
	}`
}

func TestSession_expiryWhileRunLoopIsBusy(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	entered, release := f.renderer.holdTurn()
	f.conn.game(newGameFrame())
	f.conn.game(localTurnFrame())

	select {
	case <-entered:
	case <-time.After(waitFor):
		t.Fatal("turn did not start")
	}

	// more calls than the run loop queue holds
	for i := 0; i < 300; i++ {
		f.session.SetWager(protocol.Chips(10 + i))
	}

	f.clock.Advance(14 * time.Second)
	close(release)

	_, payload := f.conn.next(t)
	a.Equal(protocol.TypeBet, payload["message_type"])
	a.Equal(float64(-1), payload["bet"])

	a.Eventually(func() bool {
		st, err := f.session.State(context.Background())
		return err == nil && !st.TurnPending && !st.Bet.Armed
	}, waitFor, tick)
}

func TestSession_submitCancelsTimer(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.game(newGameFrame())
	f.conn.game(`{
		"message_type": "game-update",
		"event": "shared-cards",
		"cards": [[14, 0], [13, 0], [2, 3]]
	}`)
	f.conn.game(`{
		"message_type": "game-update",
		"event": "pots-update",
		"players": [{"id": 1, "money": 950}, {"id": 2, "money": 950}],
		"pots": [{"money": 100, "player_ids": [1, 2]}]
	}`)
	f.conn.game(`{
		"message_type": "game-update",
		"event": "player-action",
		"action": "bet",
		"player": {"id": 1},
		"min_bet": 0,
		"max_bet": 950,
		"timeout": 30
	}`)

	a.Eventually(func() bool { return f.state(t).Bet.Armed }, waitFor, tick)

	f.session.ApplyPreset("half")
	f.session.SubmitBet()
	_, payload := f.conn.next(t)
	a.Equal(protocol.TypeBet, payload["message_type"])
	a.Equal(float64(50), payload["bet"])

	st := f.state(t)
	a.False(st.TurnPending)
	a.Equal(protocol.Chips(950), st.Room.Players["1"].Money)

	f.clock.Advance(time.Minute)
	f.session.Fold()
	f.session.Chat("done")
	_, payload = f.conn.next(t)
	a.Equal(protocol.TypeChatMessage, payload["message_type"], "no expiry fold and no fold while disarmed")
}

func TestSession_otherPlayersTurn(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.game(newGameFrame())
	f.conn.game(`{
		"message_type": "game-update",
		"event": "player-action",
		"action": "bet",
		"player": {"id": 2},
		"min_bet": 10,
		"max_bet": 1000,
		"timeout": 15
	}`)

	a.Eventually(func() bool { return f.state(t).TurnPlayer == "2" }, waitFor, tick)
	a.False(f.state(t).Bet.Armed)

	f.conn.game(`{
		"message_type": "game-update",
		"event": "bet",
		"player": {"id": 2, "money": 990},
		"bet": 10
	}`)
	a.Eventually(func() bool { return !f.state(t).TurnPending }, waitFor, tick)
	a.Equal(protocol.Chips(10), f.state(t).Hand.Bets["2"])
}

func TestSession_winnings(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.game(newGameFrame())
	f.conn.game(`{
		"message_type": "game-update",
		"event": "winner-designation",
		"pot": {"money": 100, "winner_ids": [1], "money_split": 100},
		"players": [{"id": 1, "money": 1100}]
	}`)
	f.conn.game(`{
		"message_type": "game-update",
		"event": "winner-designation",
		"pot": {"money": 50, "winner_ids": [1], "money_split": 50},
		"players": [{"id": 1, "money": 1150}]
	}`)
	f.conn.game(`{"message_type": "game-update", "event": "game-over"}`)

	a.Eventually(func() bool { return f.state(t).Hand.Terminal }, waitFor, tick)

	st := f.state(t)
	a.Equal(protocol.Chips(150), st.Hand.Winnings["1"])
	a.Equal(protocol.Chips(1150), st.Room.Players["1"].Money)
	a.False(st.Room.HandInProgress)
}

func TestSession_gameOverClearsReady(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.game(`{
		"message_type": "room-update",
		"event": "player-added",
		"players": {"1": {"id": 1}, "2": {"id": 2}},
		"player_ids": [1, 2, null, null]
	}`)
	a.Eventually(func() bool { return f.state(t).Seated }, waitFor, tick)

	f.session.ToggleReady()
	a.Equal(true, f.ping(t)["ready"])

	f.conn.game(newGameFrame())
	f.conn.game(`{"message_type": "game-update", "event": "game-over"}`)
	a.Equal(false, f.ping(t)["ready"])
}

func TestSession_interactionCooldown(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.session.Interact("kaipai")
	_, payload := f.conn.next(t)
	a.Equal(protocol.TypeInteraction, payload["message_type"])
	a.Equal("kaipai", payload["action"])

	f.session.Interact("kaipai")
	f.session.Interact("unknown")
	f.session.Chat("marker")
	_, payload = f.conn.next(t)
	a.Equal(protocol.TypeChatMessage, payload["message_type"])

	f.clock.Advance(5 * time.Second)
	f.session.Interact("kaipai")
	_, payload = f.conn.next(t)
	a.Equal(protocol.TypeInteraction, payload["message_type"])
}

func TestSession_bots(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.session.AddBot(1, "hard")
	f.session.AddBot(3, "hard")
	frame, payload := f.conn.next(t)
	a.Equal(protocol.EventRoomAction, frame.Event)
	a.Equal("add-bot", payload["action"])
	a.Equal(float64(3), payload["seat_index"])

	f.conn.game(`{
		"message_type": "room-update",
		"event": "player-added",
		"players": {"1": {"id": 1}, "2": {"id": 2}, "b1": {"id": "b1", "name": "bot", "is_bot": true}},
		"player_ids": [null, 2, null, "b1"]
	}`)
	a.Eventually(func() bool {
		_, ok := f.state(t).Room.Occupant(3)
		return ok
	}, waitFor, tick)

	f.session.RemoveBot(1)
	f.session.RemoveBot(3)
	frame, payload = f.conn.next(t)
	a.Equal(protocol.EventRoomAction, frame.Event)
	a.Equal("remove-bot", payload["action"])
	a.Equal("b1", payload["bot_id"])

	// not during a hand
	f.conn.game(newGameFrame())
	a.Eventually(func() bool { return f.state(t).Room.HandInProgress }, waitFor, tick)
	f.session.RemoveBot(3)
	f.session.Chat("marker")
	_, payload = f.conn.next(t)
	a.Equal(protocol.TypeChatMessage, payload["message_type"])
}

func TestSession_serverDisconnect(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.game(`{"message_type": "disconnect"}`)
	a.True(errors.Is(f.wait(t), ErrServerDisconnect))
	a.Equal(render.StatusDisconnected, f.renderer.lastStatus())

	// the next connection starts from a snapshot
	f.start(t)
	f.conn.push(protocol.EventGameConnected, `{"player_id": 1}`)
	f.conn.game(`{
		"message_type": "room-update",
		"event": "player-added",
		"players": {"2": {"id": 2}},
		"player_ids": [null, 2]
	}`)

	a.Eventually(func() bool {
		u, ok := f.renderer.lastRoom()
		return ok && u.Snapshot && len(u.View.Seats) == 2
	}, waitFor, tick)

	st := f.state(t)
	a.False(st.Ready)
	a.False(st.Seated)
}

func TestSession_intentsWhileDisconnectedAreDropped(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.game(`{"message_type": "disconnect"}`)
	a.True(errors.Is(f.wait(t), ErrServerDisconnect))

	f.session.Chat("typed while offline")
	f.session.Interact("yanpai")
	_, err := f.session.State(context.Background())
	a.Equal(ErrNotRunning, err)

	f.start(t)
	f.join(t)

	// the dropped interaction did not start a cooldown
	f.session.Interact("yanpai")
	_, payload := f.conn.next(t)
	a.Equal(protocol.TypeInteraction, payload["message_type"])
	a.Equal("yanpai", payload["action"])
}

func TestSession_readErrorEndsRun(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.Close()
	err := f.wait(t)
	a.True(errors.Is(err, errClosed))
	a.Equal(render.StatusDisconnected, f.renderer.lastStatus())
}

func TestSession_alreadyRunning(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, ErrRunning, f.session.Run(context.Background(), newFakeConn()))
}

func TestSession_undecodableFrameIsSkipped(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t)
	f.join(t)

	f.conn.push("mystery", `{}`)
	f.conn.game(`{"message_type": "nope"}`)
	payload := f.ping(t)
	a.Equal(false, payload["ready"])
}

type stubRanking struct {
	entries []ranking.Entry
	err     error
}

func (s stubRanking) Fetch(context.Context) ([]ranking.Entry, error) {
	return s.entries, s.err
}

func TestSession_ranking(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, WithRanking(stubRanking{entries: []ranking.Entry{{Rank: 1, Name: "me"}}}))
	f.join(t)

	// on join
	a.Eventually(func() bool { return f.renderer.rankingCount() == 1 }, waitFor, tick)

	f.conn.game(`{
		"message_type": "game-update",
		"event": "update-ranking-data",
		"ranking_list": [[1, "me", 10, 1.5, 3, 2]]
	}`)
	a.Eventually(func() bool { return f.renderer.rankingCount() == 2 }, waitFor, tick)

	f.conn.game(`{"message_type": "game-update", "event": "game-over"}`)
	a.Eventually(func() bool { return f.renderer.rankingCount() == 3 }, waitFor, tick)
}

func TestSession_rankingFailureIsTolerated(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, WithRanking(stubRanking{err: errors.New("boom")}))
	f.join(t)

	a.Equal(false, f.ping(t)["ready"])
	a.Equal(0, f.renderer.rankingCount())
}

type gatedRanking struct {
	gate    chan struct{}
	entries []ranking.Entry
}

func (g gatedRanking) Fetch(context.Context) ([]ranking.Entry, error) {
	<-g.gate
	return g.entries, nil
}

func TestSession_rankingAfterDisconnectIsDiscarded(t *testing.T) {
	a := assert.New(t)
	g := gatedRanking{gate: make(chan struct{}), entries: []ranking.Entry{{Rank: 1, Name: "me"}}}
	f := newFixture(t, WithRanking(g))
	f.join(t)

	f.conn.game(`{"message_type": "disconnect"}`)
	a.True(errors.Is(f.wait(t), ErrServerDisconnect))

	f.start(t)
	close(g.gate)
	a.Never(func() bool { return f.renderer.rankingCount() > 0 }, 100*time.Millisecond, tick)
}
