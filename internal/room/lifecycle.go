// internal/room/lifecycle.go
package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dutchgame/dutch/internal/bot"
	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

var botNames = []string{"Alice", "Bob", "Charlie", "Diana"}

var botBehaviors = []models.BotBehavior{
	models.BotBalanced,
	models.BotAggressive,
	models.BotFast,
}

// StartGame validates and launches a round. fillBots tops the table up to
// MaxPlayers with bot seats.
func (m *Manager) StartGame(code, connID string, fillBots bool) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()

	if r.HostID != connID {
		r.Mu.Unlock()
		return ErrNotHost
	}
	host := r.PlayerByID(connID)
	if host == nil || !host.Ready {
		r.Mu.Unlock()
		return ErrHostNotReady
	}
	if r.ReadyHumans() < r.Settings.MinPlayers {
		r.Mu.Unlock()
		return ErrNotEnoughReady
	}

	if fillBots {
		skill := m.botSkillFor(r)
		for i := 0; r.SeatedCount() < r.Settings.MaxPlayers; i++ {
			r.Players = append(r.Players, m.newBotSeat(r, i, skill))
		}
		r.Reindex()
	}

	st := game.NewState(r.Players, r.Settings.Mode, r.Settings.Difficulty)
	st.Initialize()
	r.Game = st
	r.Status = models.RoomPlaying
	r.Paused = false
	r.Touch()

	// Bot belief state is seeded from the dealt hands and lives with the
	// seat until removal or rematch.
	for _, p := range r.Players {
		if !p.IsHuman {
			r.minds[p.ID] = bot.NewMind(p.Hand)
		}
	}

	m.logAction(r, connID, "round_start", map[string]interface{}{
		"players": len(r.Players),
		"mode":    string(r.Settings.Mode),
	})
	m.broadcastGameState(r, UpdateGameStarted, map[string]interface{}{
		"reactionTimeMs": r.Settings.ReactionTimeMs,
	})
	m.broadcastPresence(r)
	m.startTurnTimer(r)
	r.Mu.Unlock()

	m.CheckAndPlayBotTurn(code)
	m.log.WithFields(logrus.Fields{"room": code, "bots": fillBots}).Info("round started")
	return nil
}

// botSkillFor picks the bot tier from the room difficulty, sizing up the
// table rating when set to auto. Lock held.
func (m *Manager) botSkillFor(r *Room) models.BotSkill {
	if r.Settings.Difficulty == models.DifficultyAuto {
		keys := make([]string, 0, len(r.Players))
		for _, p := range r.Players {
			if p.IsHuman {
				keys = append(keys, p.StableKey())
			}
		}
		return bot.SkillForRating(r.Ratings.Mean(keys))
	}
	return bot.SkillForDifficulty(r.Settings.Difficulty)
}

func (m *Manager) newBotSeat(r *Room, ordinal int, skill models.BotSkill) *models.Player {
	return &models.Player{
		ID:        uuid.NewString(),
		Name:      botNames[ordinal%len(botNames)],
		IsHuman:   false,
		Connected: true,
		Focused:   true,
		Ready:     true,
		Position:  len(r.Players),
		Behavior:  botBehaviors[ordinal%len(botBehaviors)],
		Skill:     skill,
		LastSeen:  time.Now(),
	}
}

// RestartGame rematches an ended round: bot seats are stripped, human
// seats reset, and the room returns to waiting with its cumulative ledger
// intact.
func (m *Manager) RestartGame(code, connID string) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.HostID != connID {
		return ErrNotHost
	}
	if r.Status != models.RoomEnded {
		return ErrRoundActive
	}

	kept := r.Players[:0]
	for _, p := range r.Players {
		if !p.IsHuman {
			delete(r.minds, p.ID)
			continue
		}
		p.Ready = false
		p.Spectator = false
		p.Hand = nil
		p.Known = nil
		kept = append(kept, p)
	}
	r.Players = kept
	r.Reindex()
	r.Game = nil
	r.Status = models.RoomWaiting
	r.Paused = false
	r.Touch()

	m.broadcast(r, EvRestarted, map[string]interface{}{"roomCode": code})
	m.broadcastPresence(r)
	return nil
}

// KickPlayer evicts a seat by stable identity; host only.
func (m *Manager) KickPlayer(code, connID, targetStableID string) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.HostID != connID {
		return ErrNotHost
	}
	target := r.PlayerByStableKey(targetStableID)
	if target == nil || target.ID == connID {
		return ErrRoomNotFound
	}

	m.send(target, EvKicked, map[string]interface{}{"roomCode": code})
	m.clearPresenceCheck(r, target.ID)

	if r.Status == models.RoomPlaying && r.Game != nil {
		m.convertToSpectator(r, target)
	} else {
		r.RemoveSeat(target.ID)
		r.EnsureHost()
	}
	r.Touch()
	m.broadcastPresence(r)
	return nil
}

// CloseRoom is the host's explicit shutdown: the host seat leaves, the
// room flags closing, and remaining humans get a bounded window to claim
// the room via TransferHost.
func (m *Manager) CloseRoom(code, connID string) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	if r.HostID != connID {
		r.Mu.Unlock()
		return ErrNotHost
	}

	m.cancelTurnTimer(r)
	for id := range r.presence {
		m.clearPresenceCheck(r, id)
	}
	r.RemoveSeat(connID)
	r.Status = models.RoomClosing
	r.ClosingAt = time.Now()
	r.Touch()

	remaining := r.ConnectedHumans()
	m.broadcast(r, EvRoomClosed, map[string]interface{}{
		"roomCode":      code,
		"canBecomeHost": true,
	})
	m.broadcastPresence(r)
	r.Mu.Unlock()

	m.reactions.Cancel(code)
	if remaining == 0 {
		m.removeRoom(code)
	}
	m.log.WithField("room", code).Info("room closing")
	return nil
}

// TransferHost lets a remaining human claim a closing room (or a room
// whose recorded host is gone) and reopens it to the lobby.
func (m *Manager) TransferHost(code, connID string) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	host := r.PlayerByID(r.HostID)
	if r.Status != models.RoomClosing && host != nil && host.Connected {
		return ErrNotClosing
	}
	p := r.PlayerByID(connID)
	if p == nil || !p.IsHuman {
		return ErrRoomNotFound
	}

	// The abandoned round does not survive the handover.
	for _, pl := range r.Players {
		if !pl.IsHuman {
			delete(r.minds, pl.ID)
		}
	}
	kept := r.Players[:0]
	for _, pl := range r.Players {
		if pl.IsHuman {
			pl.Ready = false
			pl.Spectator = false
			pl.Hand = nil
			pl.Known = nil
			kept = append(kept, pl)
		}
	}
	r.Players = kept
	r.Reindex()
	r.Game = nil
	r.HostID = connID
	r.Status = models.RoomWaiting
	r.ClosingAt = time.Time{}
	r.Touch()

	m.broadcast(r, EvHostTransferred, map[string]interface{}{
		"roomCode": code,
		"hostId":   connID,
	})
	m.broadcastPresence(r)
	return nil
}

// HandleLeave processes a deliberate departure, distinct from a network
// blip: lobby seats are removed outright, mid-round seats convert to
// spectators and have their turn force-resolved.
func (m *Manager) HandleLeave(code, connID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	p := r.PlayerByID(connID)
	if p == nil {
		r.Mu.Unlock()
		return
	}
	m.clearPresenceCheck(r, connID)

	if r.Status == models.RoomPlaying && r.Game != nil {
		m.broadcast(r, EvPlayerLeft, map[string]interface{}{"roomCode": code, "playerId": connID, "name": p.Name})
		m.convertToSpectator(r, p)
		p.Connected = false
		r.EnsureHost()
		m.broadcastPresence(r)
		r.Mu.Unlock()
		return
	}

	r.RemoveSeat(connID)
	r.EnsureHost()
	empty := r.ConnectedHumans() == 0
	if !empty {
		m.broadcast(r, EvPlayerLeft, map[string]interface{}{"roomCode": code, "playerId": connID, "name": p.Name})
		m.broadcastPresence(r)
	}
	r.Mu.Unlock()

	if empty {
		m.removeRoom(code)
	}
}

// HandleDisconnect marks a seat unreachable after its transport drops.
// The seat itself survives so the identity can reconnect.
func (m *Manager) HandleDisconnect(code, connID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID(connID)
	if p == nil {
		return
	}
	p.Connected = false
	p.Focused = false
	p.Conn = nil
	p.LastSeen = time.Now()
	m.clearPresenceCheck(r, connID)
	r.EnsureHost()
	m.broadcastPresence(r)

	if r.Status == models.RoomPlaying && r.Game != nil && r.Game.ActiveCount() <= 1 {
		m.handleGameEnd(r)
	}
}

// Forfeit converts the caller to a spectator for the rest of the round.
func (m *Manager) Forfeit(code, connID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID(connID)
	if p == nil || r.Status != models.RoomPlaying || r.Game == nil || p.Spectator {
		return
	}
	m.broadcast(r, EvPlayerForfeit, map[string]interface{}{"roomCode": code, "playerId": connID, "name": p.Name})
	m.clearPresenceCheck(r, connID)
	m.convertToSpectator(r, p)
	m.broadcastPresence(r)
}

// Pause suspends the round's timers; host only.
func (m *Manager) Pause(code, connID string) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.HostID != connID {
		return ErrNotHost
	}
	if r.Status != models.RoomPlaying || r.Paused {
		return nil
	}
	r.Paused = true
	m.cancelTurnTimer(r)
	m.reactions.Cancel(code)
	// A pending challenge must not expire against a frozen clock.
	for id := range r.presence {
		m.clearPresenceCheck(r, id)
	}
	m.broadcastGameState(r, UpdateGamePaused, nil)
	return nil
}

// Resume restarts a paused round's timers; host only. A paused reaction
// window reopens at full length.
func (m *Manager) Resume(code, connID string) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	if r.HostID != connID {
		r.Mu.Unlock()
		return ErrNotHost
	}
	if r.Status != models.RoomPlaying || !r.Paused {
		r.Mu.Unlock()
		return nil
	}
	r.Paused = false
	m.broadcastGameState(r, UpdateGameResumed, nil)
	inReaction := r.Game != nil && r.Game.Phase == game.PhaseReaction
	if !inReaction {
		m.startTurnTimer(r)
	}
	r.Mu.Unlock()

	if inReaction {
		m.startReactionWindow(code)
	} else {
		m.CheckAndPlayBotTurn(code)
	}
	return nil
}

// convertToSpectator demotes a seat mid-round and force-resolves its turn.
// Lock held.
func (m *Manager) convertToSpectator(r *Room, p *models.Player) {
	if p.Spectator {
		return
	}
	p.Spectator = true
	p.Ready = false

	if r.Game == nil || r.Game.Phase == game.PhaseEnded {
		return
	}
	if r.Game.ActiveCount() <= 1 {
		// Last player standing: the round cannot continue.
		m.handleGameEnd(r)
		return
	}
	if cur := r.Game.CurrentPlayer(); cur != nil && cur.ID == p.ID {
		m.forceEndTurn(r)
	}
}

// handleGameEnd scores the round, folds the results into the cumulative
// ledger and table ratings, and leaves the room in ended with the round
// state queryable until an explicit rematch. Lock held.
func (m *Manager) handleGameEnd(r *Room) {
	if r.Game == nil || r.Status != models.RoomPlaying {
		return
	}
	st := r.Game
	if st.Phase != game.PhaseEnded {
		st.End()
	}
	r.Status = models.RoomEnded
	m.cancelTurnTimer(r)
	for id := range r.presence {
		m.clearPresenceCheck(r, id)
	}
	m.reactions.Cancel(r.Code)

	scores := st.Scores()
	ledger := make(map[string]int, len(scores))
	for _, sc := range scores {
		r.Cumulative[sc.ClientKey] += sc.Score
		ledger[sc.ClientKey] = sc.Score
	}
	r.Ratings.FinalizeRound(ledger)

	// Bots that called Dutch learn from the outcome.
	if st.DutchCallerID != "" {
		if mind := r.minds[st.DutchCallerID]; mind != nil {
			caller := st.PlayerByID(st.DutchCallerID)
			if caller != nil && len(scores) > 0 {
				won := scores[0].PlayerID == caller.ID
				mind.RecordOutcome(won, absInt(mind.Estimate()-caller.HandValue()))
			}
		}
	}

	var winner interface{}
	if w := st.Winner(); w != nil {
		winner = map[string]interface{}{"playerId": w.PlayerID, "name": w.Name, "score": w.Score}
	}
	m.logAction(r, st.DutchCallerID, "round_end", map[string]interface{}{
		"scores": ledger,
	})
	m.broadcastGameState(r, UpdateGameEnded, map[string]interface{}{
		"roundScores":      scores,
		"cumulativeScores": r.Cumulative,
		"winner":           winner,
		"dutchCallerId":    st.DutchCallerID,
	})
	m.broadcastPresence(r)
	m.log.WithField("room", r.Code).Info("round ended")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
