// internal/room/presence.go
package room

import (
	"time"

	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

// startTurnTimer arms the per-turn AFK timeout for a human current actor.
// Bots pace themselves through the drain loop and never get one. Lock held.
func (m *Manager) startTurnTimer(r *Room) {
	m.cancelTurnTimer(r)
	if r.Status != models.RoomPlaying || r.Game == nil || r.Paused {
		return
	}
	cur := r.Game.CurrentPlayer()
	if cur == nil || !cur.IsHuman || cur.Spectator {
		return
	}
	if _, pending := r.presence[cur.ID]; pending {
		return
	}

	r.turnID++
	turnID := r.turnID
	seatID := cur.ID
	code := r.Code
	r.turnSeat = seatID
	r.turnTimer = time.AfterFunc(m.timing.TurnTimeout, func() {
		m.handleTurnTimeout(code, turnID, seatID)
	})
}

// cancelTurnTimer stops the pending turn timeout, if any. Lock held.
func (m *Manager) cancelTurnTimer(r *Room) {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.turnSeat = ""
}

// handleTurnTimeout fires when a human actor sat out their whole turn
// window. It re-fetches the room and validates against the turn id so a
// stale fire after the turn moved on is discarded.
func (m *Manager) handleTurnTimeout(code string, turnID int, seatID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.turnID != turnID || r.Status != models.RoomPlaying || r.Game == nil || r.Paused {
		return
	}
	cur := r.Game.CurrentPlayer()
	if cur == nil || cur.ID != seatID || cur.Spectator || !cur.IsHuman {
		return
	}
	m.triggerPresenceCheck(r, cur, "turn_timeout")
}

// triggerPresenceCheck challenges one seat to prove it is still there. A
// second, shorter timer converts the seat to spectator if the challenge
// goes unanswered. Lock held.
func (m *Manager) triggerPresenceCheck(r *Room, p *models.Player, reason string) {
	if _, pending := r.presence[p.ID]; pending {
		return
	}
	code := r.Code
	playerID := p.ID
	check := &presenceCheck{
		reason: reason,
		timer: time.AfterFunc(m.timing.PresenceGrace, func() {
			m.handlePresenceExpiry(code, playerID)
		}),
	}
	r.presence[playerID] = check

	m.send(p, EvPresenceCheck, map[string]interface{}{
		"roomCode": code,
		"reason":   reason,
		"graceMs":  m.timing.PresenceGrace.Milliseconds(),
	})
}

// clearPresenceCheck resolves a pending challenge. Safe to call when none
// exists. Lock held.
func (m *Manager) clearPresenceCheck(r *Room, playerID string) {
	if check, ok := r.presence[playerID]; ok {
		check.timer.Stop()
		delete(r.presence, playerID)
	}
}

// handlePresenceExpiry converts an unresponsive seat to spectator and
// force-resolves its turn.
func (m *Manager) handlePresenceExpiry(code, playerID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, pending := r.presence[playerID]; !pending {
		return
	}
	delete(r.presence, playerID)

	p := r.PlayerByID(playerID)
	if p == nil || r.Status != models.RoomPlaying || r.Game == nil {
		return
	}
	m.log.WithField("room", code).WithField("player", playerID).Info("presence check expired")
	m.convertToSpectator(r, p)
	m.broadcastPresence(r)
	if r.Status == models.RoomPlaying {
		m.broadcastGameState(r, UpdateActionResult, nil)
	}
}

// forceEndTurn resolves an abandoned turn in place of the vanished actor:
// a pending power is skipped, a pending drawn card is auto-discarded with
// the normal power-or-reaction cascade, otherwise the turn just advances.
// Lock held.
func (m *Manager) forceEndTurn(r *Room) {
	st := r.Game
	if st == nil || st.Phase == game.PhaseEnded {
		return
	}

	if st.WaitingForPower {
		st.SkipPower()
	} else if st.DrawnCard != nil {
		st.DiscardDrawn()
		if st.WaitingForPower {
			// The auto-discarded card opened a power nobody is present to
			// use.
			st.SkipPower()
		}
	} else if st.Phase == game.PhasePlaying {
		st.NextPlayer()
	}

	m.afterAction(r)
}

// RecordPlayerAction timestamps a seat's liveness, clears any pending
// challenge against it, and restarts the turn timer when the seat is the
// current actor. Called at the top of every inbound play action. Lock held.
func (m *Manager) recordPlayerAction(r *Room, playerID string) {
	p := r.PlayerByID(playerID)
	if p == nil {
		return
	}
	p.LastSeen = time.Now()
	p.Connected = true
	r.Touch()
	m.clearPresenceCheck(r, playerID)

	if r.Status == models.RoomPlaying && r.Game != nil {
		if cur := r.Game.CurrentPlayer(); cur != nil && cur.ID == playerID {
			m.startTurnTimer(r)
		}
	}
}

// ConfirmPresence answers a presence challenge.
func (m *Manager) ConfirmPresence(code, connID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	m.recordPlayerAction(r, connID)
}

// UpdateFocus flips a seat's focus flag (tab visibility on the client).
func (m *Manager) UpdateFocus(code, connID string, focused bool) {
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
	p.Focused = focused
	p.LastSeen = time.Now()
	m.broadcastPresence(r)
}

// Heartbeat refreshes a seat's liveness clock and answers with a pong.
func (m *Manager) Heartbeat(code, connID string) {
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
	p.LastSeen = time.Now()
	r.Touch()
	m.send(p, EvHeartbeatPong, map[string]interface{}{
		"roomCode": code,
		"at":       time.Now().UnixMilli(),
	})
}
