// internal/room/actions.go
package room

import (
	"github.com/dutchgame/dutch/internal/bot"
	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

// withRound runs one in-round action under the room lock after the shared
// validations: round active, not paused, caller seated and not a
// spectator, and (when required) the current actor. Failing any check is a
// silent drop, per the error taxonomy.
func (m *Manager) withRound(code, connID string, needCurrent bool, fn func(r *Room, st *game.State, p *models.Player)) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != models.RoomPlaying || r.Game == nil || r.Paused {
		return
	}
	p := r.PlayerByID(connID)
	if p == nil || p.Spectator {
		return
	}
	if needCurrent {
		cur := r.Game.CurrentPlayer()
		if cur == nil || cur.ID != connID {
			return
		}
	}
	m.recordPlayerAction(r, connID)
	fn(r, r.Game, p)
}

// afterAction routes the round's post-mutation branching: a finished round
// is scored, a fresh reaction window starts its countdown, and a bot
// current actor starts the drain loop. Followups that need the lock again
// run on their own goroutines against the room code. Lock held.
func (m *Manager) afterAction(r *Room) {
	st := r.Game
	if st == nil {
		return
	}
	switch {
	case st.Phase == game.PhaseEnded:
		m.handleGameEnd(r)
	case st.Phase == game.PhaseReaction:
		go m.startReactionWindow(r.Code)
	default:
		m.startTurnTimer(r)
		if !st.WaitingForPower {
			go m.CheckAndPlayBotTurn(r.Code)
		}
	}
}

// Draw pulls the top of the deck for the current actor.
func (m *Manager) Draw(code, connID string) {
	m.withRound(code, connID, true, func(r *Room, st *game.State, p *models.Player) {
		if st.Phase != game.PhasePlaying {
			return
		}
		st.Draw()
		m.logAction(r, connID, "draw", nil)
		m.broadcastGameState(r, UpdateActionResult, nil)
		m.afterAction(r)
	})
}

// TakeFromDiscard picks the discard top up as the current actor's drawn
// card.
func (m *Manager) TakeFromDiscard(code, connID string) {
	m.withRound(code, connID, true, func(r *Room, st *game.State, p *models.Player) {
		if st.Phase != game.PhasePlaying {
			return
		}
		st.TakeFromDiscard()
		m.logAction(r, connID, "take_from_discard", nil)
		m.broadcastGameState(r, UpdateActionResult, nil)
		m.afterAction(r)
	})
}

// Discard throws the current actor's drawn card away.
func (m *Manager) Discard(code, connID string) {
	m.withRound(code, connID, true, func(r *Room, st *game.State, p *models.Player) {
		st.DiscardDrawn()
		m.logAction(r, connID, "discard", nil)
		m.broadcastGameState(r, UpdateActionResult, nil)
		m.afterAction(r)
	})
}

// Replace swaps the drawn card into the actor's hand at the given index.
func (m *Manager) Replace(code, connID string, handIndex int) {
	m.withRound(code, connID, true, func(r *Room, st *game.State, p *models.Player) {
		st.Replace(handIndex)
		m.logAction(r, connID, "replace", map[string]interface{}{"index": handIndex})
		m.broadcastGameState(r, UpdateActionResult, nil)
		m.afterAction(r)
	})
}

// AttemptMatch plays a hand card against the discard top. During the
// reaction window any seated player may try; outside it only the current
// actor. A running reaction countdown is never restarted by match
// attempts.
func (m *Manager) AttemptMatch(code, connID string, handIndex int) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	st := r.Game
	if r.Status != models.RoomPlaying || st == nil || r.Paused {
		return
	}
	p := r.PlayerByID(connID)
	if p == nil || p.Spectator {
		return
	}
	if st.Phase != game.PhaseReaction {
		cur := st.CurrentPlayer()
		if st.Phase != game.PhasePlaying || cur == nil || cur.ID != connID {
			return
		}
	}
	m.recordPlayerAction(r, connID)

	matched := st.AttemptMatch(connID, handIndex)
	m.logAction(r, connID, "attempt_match", map[string]interface{}{
		"index":   handIndex,
		"matched": matched,
	})
	m.broadcastGameState(r, UpdateActionResult, map[string]interface{}{
		"matched":  matched,
		"playerId": connID,
	})

	// An own-turn match can open a power window; a reaction-window match
	// leaves the running countdown alone.
	if st.Phase == game.PhasePlaying && st.WaitingForPower {
		m.startTurnTimer(r)
	}
}

// UseSpecialPower resolves the pending power for the current actor and
// delivers the private notifications owed to whoever learned or lost
// something.
func (m *Manager) UseSpecialPower(code, connID string, req game.PowerRequest) {
	m.withRound(code, connID, true, func(r *Room, st *game.State, p *models.Player) {
		if !st.WaitingForPower {
			return
		}
		res := st.UsePower(req)
		m.applyPowerToMinds(r, st, res, req)
		m.notifyPowerEffects(r, p, res)

		m.logAction(r, connID, "use_special_power", nil)
		m.broadcastGameState(r, UpdateActionResult, nil)
		m.afterAction(r)
	})
}

// SkipSpecialPower declines the pending power.
func (m *Manager) SkipSpecialPower(code, connID string) {
	m.withRound(code, connID, true, func(r *Room, st *game.State, p *models.Player) {
		if !st.WaitingForPower {
			return
		}
		st.SkipPower()
		m.logAction(r, connID, "skip_special_power", nil)
		m.broadcastGameState(r, UpdateActionResult, nil)
		m.afterAction(r)
	})
}

// CallDutch registers the round-ending call from any seated player.
func (m *Manager) CallDutch(code, connID string) {
	m.withRound(code, connID, false, func(r *Room, st *game.State, p *models.Player) {
		if st.DutchCallerID != "" {
			return
		}
		st.CallDutch(connID)
		m.logAction(r, connID, "call_dutch", nil)
		m.broadcastGameState(r, UpdateActionResult, map[string]interface{}{
			"message": p.Name + " calls DUTCH!",
		})
		m.afterAction(r)
	})
}

// notifyPowerEffects delivers the private messages a power owes: the
// revealed card to the actor, and a heads-up to every other seat whose
// cards moved. Lock held.
func (m *Manager) notifyPowerEffects(r *Room, actor *models.Player, res game.PowerResult) {
	if res.Spied != nil {
		m.send(actor, EvCardSpied, map[string]interface{}{
			"roomCode": r.Code,
			"card":     res.Spied,
		})
	}
	for _, seat := range res.Affected {
		if target := r.PlayerByID(seat.PlayerID); target != nil {
			m.send(target, EvSwapNotice, map[string]interface{}{
				"roomCode":  r.Code,
				"cardIndex": seat.CardIndex,
				"by":        actor.Name,
			})
		}
	}
	if res.Shuffled != nil {
		if target := r.PlayerByID(res.Shuffled.PlayerID); target != nil {
			m.send(target, EvJokerNotice, map[string]interface{}{
				"roomCode": r.Code,
				"by":       actor.Name,
			})
		}
	}
}

// applyPowerToMinds keeps bot belief state honest about powers that moved
// their cards around: a swap may confuse, a shuffle wipes everything.
// Lock held.
func (m *Manager) applyPowerToMinds(r *Room, st *game.State, res game.PowerResult, req game.PowerRequest) {
	for _, seat := range res.Affected {
		target := r.PlayerByID(seat.PlayerID)
		mind := r.minds[seat.PlayerID]
		if target == nil || mind == nil {
			continue
		}
		cfg := bot.TierFor(target.Skill)
		mind.ConfuseOnSwap(seat.CardIndex, cfg.SwapConfusion)
	}
	if res.Shuffled != nil {
		if mind := r.minds[res.Shuffled.PlayerID]; mind != nil {
			if target := r.PlayerByID(res.Shuffled.PlayerID); target != nil {
				mind.WipeAll(len(target.Hand))
			}
		}
	}
}
