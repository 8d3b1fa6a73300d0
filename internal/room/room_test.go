package room

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchgame/dutch/internal/auth"
	"github.com/dutchgame/dutch/internal/config"
	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

var authOnce sync.Once

// recorder captures everything the manager tries to deliver, standing in
// for the websocket transport.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	playerID string
	event    string
	payload  map[string]interface{}
}

func (rec *recorder) send(p *models.Player, event string, payload interface{}) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	ev := recordedEvent{playerID: p.ID, event: event}
	if m, ok := payload.(map[string]interface{}); ok {
		ev.payload = m
	}
	rec.events = append(rec.events, ev)
}

func (rec *recorder) count(event string) int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	n := 0
	for _, ev := range rec.events {
		if ev.event == event {
			n++
		}
	}
	return n
}

func (rec *recorder) lastFor(playerID, event string) (recordedEvent, bool) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := len(rec.events) - 1; i >= 0; i-- {
		if rec.events[i].playerID == playerID && rec.events[i].event == event {
			return rec.events[i], true
		}
	}
	return recordedEvent{}, false
}

func testTiming() config.Timing {
	return config.Timing{
		TurnTimeout:    200 * time.Millisecond,
		PresenceGrace:  60 * time.Millisecond,
		ReactionTime:   150 * time.Millisecond,
		RoomTTL:        time.Hour,
		SweepInterval:  time.Hour,
		StaleThreshold: time.Hour,
		ClosingGrace:   time.Hour,
		EmptyRoomGrace: time.Hour,
		BotActionDelay: 10 * time.Millisecond,
	}
}

func newTestManager(t *testing.T) (*Manager, *recorder) {
	t.Helper()
	authOnce.Do(auth.Init)

	log := logrus.New()
	log.SetOutput(io.Discard)

	m := NewManager(log, testTiming())
	rec := &recorder{}
	m.SendFn = rec.send
	return m, rec
}

// twoHumanRoom creates a room with two ready human seats and a short
// reaction window.
func twoHumanRoom(t *testing.T, m *Manager) *Room {
	t.Helper()
	settings := models.DefaultSettings()
	settings.ReactionTimeMs = 100
	r, token := m.CreateRoom("h1", "Ana", "c1", settings, nil)
	require.NotEmpty(t, token)
	_, _, _, err := m.JoinRoom(r.Code, "h2", "Ben", "c2", "", nil)
	require.NoError(t, err)
	require.NoError(t, m.SetReady(r.Code, "h1", true))
	require.NoError(t, m.SetReady(r.Code, "h2", true))
	return r
}

// setCurrent makes the named seat the acting player.
func setCurrent(r *Room, connID string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Game.CurrentPlayerIndex = r.Game.PlayerIndex(connID)
}

func TestCreateAndJoinRoom(t *testing.T) {
	m, rec := newTestManager(t)

	r, token := m.CreateRoom("h1", "Ana", "c1", models.DefaultSettings(), nil)
	require.NotNil(t, r)
	assert.Len(t, r.Code, 6)
	assert.Equal(t, "h1", r.HostID)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, m.RoomCount())

	r2, p, token2, err := m.JoinRoom(r.Code, "h2", "Ben", "c2", "", nil)
	require.NoError(t, err)
	assert.Same(t, r, r2)
	assert.False(t, p.Spectator)
	assert.NotEmpty(t, token2)
	assert.Positive(t, rec.count(EvPlayerJoined))
	assert.Positive(t, rec.count(EvPresenceUpdate))

	_, _, _, err = m.JoinRoom("ZZZZZZ", "h3", "Cal", "c3", "", nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomFullTable(t *testing.T) {
	m, _ := newTestManager(t)
	settings := models.DefaultSettings()
	settings.MaxPlayers = 2

	r, _ := m.CreateRoom("h1", "Ana", "c1", settings, nil)
	_, _, _, err := m.JoinRoom(r.Code, "h2", "Ben", "c2", "", nil)
	require.NoError(t, err)

	_, _, _, err = m.JoinRoom(r.Code, "h3", "Cal", "c3", "", nil)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestReconnectByStableIdentity(t *testing.T) {
	m, _ := newTestManager(t)
	r, _ := m.CreateRoom("h1", "Ana", "c1", models.DefaultSettings(), nil)

	m.HandleDisconnect(r.Code, "h1")
	r.Mu.Lock()
	require.False(t, r.Players[0].Connected)
	r.Mu.Unlock()

	_, p, token, err := m.JoinRoom(r.Code, "h1-new", "", "c1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "h1-new", p.ID)
	assert.Equal(t, "Ana", p.Name, "the seat survives with its name")
	assert.True(t, p.Connected)
	assert.NotEmpty(t, token)

	r.Mu.Lock()
	assert.Len(t, r.Players, 1, "reconnect must not add a second seat")
	assert.Equal(t, "h1-new", r.HostID, "host follows the reconnected identity")
	r.Mu.Unlock()
}

func TestReconnectTokenOverridesClaimedIdentity(t *testing.T) {
	m, _ := newTestManager(t)
	r, token := m.CreateRoom("h1", "Ana", "c1", models.DefaultSettings(), nil)

	m.HandleDisconnect(r.Code, "h1")

	// The claimed client id is a lie; the token wins.
	_, p, _, err := m.JoinRoom(r.Code, "h1-new", "", "someone-else", token, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)

	r.Mu.Lock()
	assert.Len(t, r.Players, 1)
	r.Mu.Unlock()
}

func TestStartGameValidations(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)

	assert.ErrorIs(t, m.StartGame(r.Code, "h2", false), ErrNotHost)

	require.NoError(t, m.SetReady(r.Code, "h1", false))
	assert.ErrorIs(t, m.StartGame(r.Code, "h1", false), ErrHostNotReady)
	require.NoError(t, m.SetReady(r.Code, "h1", true))

	require.NoError(t, m.StartGame(r.Code, "h1", false))

	r.Mu.Lock()
	assert.Equal(t, models.RoomPlaying, r.Status)
	require.NotNil(t, r.Game)
	assert.Equal(t, game.PhasePlaying, r.Game.Phase)
	assert.Len(t, r.Players, 2)
	r.Mu.Unlock()

	assert.Positive(t, rec.count(EvStateUpdate))
}

func TestStartGameFillsBots(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)

	require.NoError(t, m.StartGame(r.Code, "h1", true))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, r.Settings.MaxPlayers, r.SeatedCount())
	bots := 0
	for _, p := range r.Players {
		if !p.IsHuman {
			bots++
			assert.NotNil(t, r.minds[p.ID], "every bot seat gets a mind")
			assert.True(t, p.Ready)
		}
	}
	assert.Equal(t, r.Settings.MaxPlayers-2, bots)
}

func TestDrawDiscardAdvancesThroughReaction(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")

	m.Draw(r.Code, "h1")
	r.Mu.Lock()
	require.NotNil(t, r.Game.DrawnCard)
	r.Mu.Unlock()

	m.Discard(r.Code, "h1")
	r.Mu.Lock()
	waiting := r.Game.WaitingForPower
	r.Mu.Unlock()
	if waiting {
		m.SkipSpecialPower(r.Code, "h1")
	}

	// The reaction window closes on its own and the turn moves on.
	require.Eventually(t, func() bool {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		cur := r.Game.CurrentPlayer()
		return r.Game.Phase == game.PhasePlaying && cur != nil && cur.ID == "h2"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Positive(t, rec.count(EvStateUpdate))
}

func TestActionsFromWrongSeatAreDropped(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")

	m.Draw(r.Code, "h2")
	r.Mu.Lock()
	assert.Nil(t, r.Game.DrawnCard, "only the current actor may draw")
	r.Mu.Unlock()

	m.Draw(r.Code, "nobody")
	r.Mu.Lock()
	assert.Nil(t, r.Game.DrawnCard)
	r.Mu.Unlock()
}

func TestCallDutchEndsRoundAndScores(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")

	m.CallDutch(r.Code, "h1")

	r.Mu.Lock()
	assert.Equal(t, models.RoomEnded, r.Status)
	assert.Equal(t, game.PhaseEnded, r.Game.Phase)
	assert.Equal(t, "h1", r.Game.DutchCallerID)
	assert.Len(t, r.Cumulative, 2, "both stable identities get ledger entries")
	r.Mu.Unlock()

	ev, ok := rec.lastFor("h1", EvStateUpdate)
	require.True(t, ok)
	assert.Equal(t, UpdateGameEnded, ev.payload["updateType"])
	assert.NotNil(t, ev.payload["roundScores"])
	assert.Equal(t, "h1", ev.payload["dutchCallerId"])

	// A second call cannot restart anything.
	m.CallDutch(r.Code, "h2")
	r.Mu.Lock()
	assert.Equal(t, "h1", r.Game.DutchCallerID)
	r.Mu.Unlock()
}

func TestRestartGameResetsSeats(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", true))
	setCurrent(r, "h1")
	m.CallDutch(r.Code, "h1")

	r.Mu.Lock()
	cumulative := len(r.Cumulative)
	r.Mu.Unlock()

	assert.ErrorIs(t, m.RestartGame(r.Code, "h2"), ErrNotHost)
	require.NoError(t, m.RestartGame(r.Code, "h1"))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, models.RoomWaiting, r.Status)
	assert.Nil(t, r.Game)
	assert.Len(t, r.Players, 2, "bot seats are stripped on rematch")
	assert.Empty(t, r.minds)
	for _, p := range r.Players {
		assert.False(t, p.Ready)
		assert.False(t, p.Spectator)
		assert.Nil(t, p.Hand)
	}
	assert.Len(t, r.Cumulative, cumulative, "the ledger survives the rematch")
	assert.Positive(t, rec.count(EvRestarted))
}

func TestSpectatorJoinsMidRound(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))

	_, p, _, err := m.JoinRoom(r.Code, "h3", "Cal", "c3", "", nil)
	require.NoError(t, err)
	assert.True(t, p.Spectator)

	r.Mu.Lock()
	assert.Len(t, r.Game.Players, 3, "the round sees the spectator seat")
	r.Mu.Unlock()
}

func TestKickInLobbyRemovesSeat(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)

	assert.ErrorIs(t, m.KickPlayer(r.Code, "h2", "c1"), ErrNotHost)
	require.NoError(t, m.KickPlayer(r.Code, "h1", "c2"))

	r.Mu.Lock()
	assert.Len(t, r.Players, 1)
	r.Mu.Unlock()
	assert.Positive(t, rec.count(EvKicked))
}

func TestKickMidRoundConvertsToSpectator(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", true))

	require.NoError(t, m.KickPlayer(r.Code, "h1", "c2"))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID("h2")
	require.NotNil(t, p, "mid-round kicks keep the seat for scoring")
	assert.True(t, p.Spectator)
}

func TestCloseRoomAndTransferHost(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)

	require.NoError(t, m.CloseRoom(r.Code, "h1"))
	r.Mu.Lock()
	assert.Equal(t, models.RoomClosing, r.Status)
	assert.Nil(t, r.PlayerByID("h1"))
	r.Mu.Unlock()
	assert.Positive(t, rec.count(EvRoomClosed))

	require.NoError(t, m.TransferHost(r.Code, "h2"))
	r.Mu.Lock()
	assert.Equal(t, models.RoomWaiting, r.Status)
	assert.Equal(t, "h2", r.HostID)
	r.Mu.Unlock()
	assert.Positive(t, rec.count(EvHostTransferred))
}

func TestCloseRoomWithNobodyLeftRemovesIt(t *testing.T) {
	m, _ := newTestManager(t)
	r, _ := m.CreateRoom("h1", "Ana", "c1", models.DefaultSettings(), nil)

	require.NoError(t, m.CloseRoom(r.Code, "h1"))
	assert.Nil(t, m.GetRoom(r.Code))
}

func TestTransferHostRequiresClosingOrAbsentHost(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)

	assert.ErrorIs(t, m.TransferHost(r.Code, "h2"), ErrNotClosing)

	// A vanished host is claimable without an explicit close.
	m.HandleDisconnect(r.Code, "h1")
	r.Mu.Lock()
	r.HostID = "h1"
	r.Mu.Unlock()
	assert.NoError(t, m.TransferHost(r.Code, "h2"))
}

func TestHandleLeaveInLobby(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)

	m.HandleLeave(r.Code, "h1")
	r.Mu.Lock()
	assert.Len(t, r.Players, 1)
	assert.Equal(t, "h2", r.HostID, "host moves to a remaining human")
	r.Mu.Unlock()

	m.HandleLeave(r.Code, "h2")
	assert.Nil(t, m.GetRoom(r.Code), "the last leaver takes the room with them")
}

func TestLeaveMidRoundEndsRoundWhenAlone(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))

	m.HandleLeave(r.Code, "h2")

	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID("h2")
	require.NotNil(t, p)
	assert.True(t, p.Spectator)
	assert.Equal(t, models.RoomEnded, r.Status, "one seat cannot keep playing")
}

func TestLeaveAfterRoundEndKeepsRoundRosterInSync(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	_, _, _, err := m.JoinRoom(r.Code, "h3", "Cal", "c3", "", nil)
	require.NoError(t, err)
	require.NoError(t, m.SetReady(r.Code, "h3", true))
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")
	m.CallDutch(r.Code, "h1")

	// The ended round stays queryable; a departing seat must leave both
	// rosters, not just the room's.
	m.HandleLeave(r.Code, "h2")

	r.Mu.Lock()
	defer r.Mu.Unlock()
	require.NotNil(t, r.Game)
	assert.Len(t, r.Players, 2)
	require.Len(t, r.Game.Players, 2)
	seen := map[string]int{}
	for _, p := range r.Game.Players {
		seen[p.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "seat %s must appear exactly once", id)
	}
}

func TestDisconnectMidRoundKeepsSeat(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", true))

	m.HandleDisconnect(r.Code, "h2")

	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID("h2")
	require.NotNil(t, p)
	assert.False(t, p.Connected)
	assert.False(t, p.Spectator, "a blip is not a forfeit")
	assert.Equal(t, models.RoomPlaying, r.Status)
}

func TestForfeitConvertsToSpectator(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", true))

	m.Forfeit(r.Code, "h2")

	r.Mu.Lock()
	assert.True(t, r.PlayerByID("h2").Spectator)
	r.Mu.Unlock()
	assert.Positive(t, rec.count(EvPlayerForfeit))
}

func TestPresenceTimeoutConvertsActorToSpectator(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")
	r.Mu.Lock()
	m.startTurnTimer(r)
	r.Mu.Unlock()

	// Turn timeout fires the challenge, the grace expires, the seat drops.
	require.Eventually(t, func() bool {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		p := r.PlayerByID("h1")
		return p != nil && p.Spectator
	}, 2*time.Second, 10*time.Millisecond)

	assert.Positive(t, rec.count(EvPresenceCheck))
}

func TestConfirmPresenceClearsChallenge(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")

	r.Mu.Lock()
	m.triggerPresenceCheck(r, r.PlayerByID("h1"), "turn_timeout")
	require.Len(t, r.presence, 1)
	r.Mu.Unlock()

	m.ConfirmPresence(r.Code, "h1")

	r.Mu.Lock()
	assert.Empty(t, r.presence)
	r.Mu.Unlock()

	// The grace period passing must not demote the confirmed seat.
	time.Sleep(150 * time.Millisecond)
	r.Mu.Lock()
	assert.False(t, r.PlayerByID("h1").Spectator)
	r.Mu.Unlock()
}

func TestPauseClearsPendingPresenceChallenge(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")

	r.Mu.Lock()
	m.triggerPresenceCheck(r, r.PlayerByID("h1"), "turn_timeout")
	require.Len(t, r.presence, 1)
	r.Mu.Unlock()

	require.NoError(t, m.Pause(r.Code, "h1"))

	r.Mu.Lock()
	assert.Empty(t, r.presence)
	r.Mu.Unlock()

	// The grace period elapsing during the pause must not demote the seat.
	time.Sleep(150 * time.Millisecond)
	r.Mu.Lock()
	assert.False(t, r.PlayerByID("h1").Spectator)
	assert.Equal(t, models.RoomPlaying, r.Status)
	r.Mu.Unlock()
}

func TestChatReachesHumansAndTruncates(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, m.SendChat(r.Code, "h1", string(long)))

	ev, ok := rec.lastFor("h2", EvChatMessage)
	require.True(t, ok)
	assert.Len(t, ev.payload["message"], 500)
}

func TestSetGameModeHostOnlyInLobby(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)

	assert.ErrorIs(t, m.SetGameMode(r.Code, "h2", models.ModeTournament), ErrNotHost)
	require.NoError(t, m.SetGameMode(r.Code, "h1", models.ModeTournament))

	require.NoError(t, m.StartGame(r.Code, "h1", false))
	assert.ErrorIs(t, m.SetGameMode(r.Code, "h1", models.ModeClassic), ErrRoundActive)

	r.Mu.Lock()
	assert.Equal(t, models.ModeTournament, r.Game.Mode)
	r.Mu.Unlock()
}

func TestPauseAndResume(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")

	require.NoError(t, m.Pause(r.Code, "h1"))
	r.Mu.Lock()
	assert.True(t, r.Paused)
	r.Mu.Unlock()

	m.Draw(r.Code, "h1")
	r.Mu.Lock()
	assert.Nil(t, r.Game.DrawnCard, "a paused round accepts no actions")
	r.Mu.Unlock()

	require.NoError(t, m.Resume(r.Code, "h1"))
	m.Draw(r.Code, "h1")
	r.Mu.Lock()
	assert.NotNil(t, r.Game.DrawnCard)
	r.Mu.Unlock()
}

func TestSweepRemovesExpiredRooms(t *testing.T) {
	m, _ := newTestManager(t)
	r, _ := m.CreateRoom("h1", "Ana", "c1", models.DefaultSettings(), nil)

	r.Mu.Lock()
	r.LastActivity = time.Now().Add(-2 * time.Hour)
	r.Mu.Unlock()

	m.sweep()
	assert.Nil(t, m.GetRoom(r.Code))
}

func TestSweepRemovesAbandonedRoomsAfterGrace(t *testing.T) {
	m, _ := newTestManager(t)
	m.timing.EmptyRoomGrace = 10 * time.Millisecond

	r, _ := m.CreateRoom("h1", "Ana", "c1", models.DefaultSettings(), nil)
	m.HandleDisconnect(r.Code, "h1")

	m.sweep()
	require.NotNil(t, m.GetRoom(r.Code), "the first sweep only starts the clock")

	time.Sleep(20 * time.Millisecond)
	m.sweep()
	assert.Nil(t, m.GetRoom(r.Code))
}

func TestSweepPrunesStaleLobbySeats(t *testing.T) {
	m, _ := newTestManager(t)
	m.timing.StaleThreshold = 10 * time.Millisecond
	r := twoHumanRoom(t, m)

	m.HandleDisconnect(r.Code, "h2")
	time.Sleep(20 * time.Millisecond)
	m.sweep()

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Nil(t, r.PlayerByID("h2"))
	assert.Len(t, r.Players, 1)
}

func TestReactionTimerBroadcastsAndCloses(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", false))
	setCurrent(r, "h1")

	m.Draw(r.Code, "h1")
	m.Discard(r.Code, "h1")
	r.Mu.Lock()
	if r.Game.WaitingForPower {
		r.Mu.Unlock()
		m.SkipSpecialPower(r.Code, "h1")
	} else {
		r.Mu.Unlock()
	}

	require.Eventually(t, func() bool {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		return r.Game.Phase == game.PhasePlaying
	}, 2*time.Second, 10*time.Millisecond)

	timerUpdates := 0
	rec.mu.Lock()
	for _, ev := range rec.events {
		if ev.event == EvStateUpdate && ev.payload["updateType"] == UpdateTimer {
			timerUpdates++
		}
	}
	rec.mu.Unlock()
	assert.Positive(t, timerUpdates, "the countdown must tick at least once")
}

func TestBotPlaysItsTurn(t *testing.T) {
	m, _ := newTestManager(t)
	r := twoHumanRoom(t, m)
	require.NoError(t, m.StartGame(r.Code, "h1", true))

	var botID string
	r.Mu.Lock()
	for _, p := range r.Players {
		if !p.IsHuman {
			botID = p.ID
			break
		}
	}
	require.NotEmpty(t, botID)
	r.Game.CurrentPlayerIndex = r.Game.PlayerIndex(botID)
	r.Game.Phase = game.PhasePlaying
	turns := r.Game.TurnCount
	r.Mu.Unlock()

	m.CheckAndPlayBotTurn(r.Code)

	// The bot acts, the reaction window closes, and the turn advances.
	require.Eventually(t, func() bool {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if r.Status != models.RoomPlaying {
			return true
		}
		return r.Game.TurnCount > turns
	}, 5*time.Second, 20*time.Millisecond)
}

func TestHeartbeatAnswersWithPong(t *testing.T) {
	m, rec := newTestManager(t)
	r := twoHumanRoom(t, m)

	m.Heartbeat(r.Code, "h1")
	_, ok := rec.lastFor("h1", EvHeartbeatPong)
	assert.True(t, ok)
}

func TestCheckActiveRoomsAndListRooms(t *testing.T) {
	m, _ := newTestManager(t)
	r1 := twoHumanRoom(t, m)
	r2, _ := m.CreateRoom("h9", "Zoe", "c9", models.DefaultSettings(), nil)

	active := m.CheckActiveRooms([]string{r1.Code, r2.Code, "ZZZZZZ"})
	assert.Len(t, active, 2)

	listed := m.ListRooms()
	assert.Len(t, listed, 2)
}
