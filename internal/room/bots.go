// internal/room/bots.go
package room

import (
	"time"

	"github.com/dutchgame/dutch/internal/bot"
	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

// CheckAndPlayBotTurn starts the bot drain loop when the current actor is a
// bot. The botActive flag makes the loop single-flight per room: concurrent
// triggers (action followups, round start, resume) collapse into whichever
// claimed the flag first.
func (m *Manager) CheckAndPlayBotTurn(code string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	st := r.Game
	if r.botActive || r.Status != models.RoomPlaying || st == nil || r.Paused || st.Phase != game.PhasePlaying {
		r.Mu.Unlock()
		return
	}
	cur := st.CurrentPlayer()
	if cur == nil || cur.IsHuman || cur.Spectator {
		r.Mu.Unlock()
		return
	}
	r.botActive = true
	r.Mu.Unlock()

	go m.runBotTurns(code)
}

// runBotTurns plays bot turns until the round leaves the playing phase or a
// human becomes the current actor. Pacing sleeps happen off the lock.
func (m *Manager) runBotTurns(code string) {
	defer func() {
		if r := m.GetRoom(code); r != nil {
			r.Mu.Lock()
			r.botActive = false
			r.Mu.Unlock()
		}
	}()

	for {
		r := m.GetRoom(code)
		if r == nil {
			return
		}
		r.Mu.Lock()
		st := r.Game
		if r.Status != models.RoomPlaying || st == nil || r.Paused || st.Phase != game.PhasePlaying {
			r.Mu.Unlock()
			return
		}
		cur := st.CurrentPlayer()
		if cur == nil || cur.IsHuman || cur.Spectator {
			r.Mu.Unlock()
			return
		}
		mind := r.minds[cur.ID]
		if mind == nil {
			// A seat without a mind cannot think; reseed from whatever is in
			// its hand now.
			mind = bot.NewMind(cur.Hand)
			r.minds[cur.ID] = mind
		}
		delay := bot.ThinkDelay(mind, cur.Behavior)
		if delay < m.timing.BotActionDelay {
			delay = m.timing.BotActionDelay
		}
		r.Mu.Unlock()

		time.Sleep(delay)

		if done := m.playBotTurn(code); done {
			return
		}
	}
}

// playBotTurn executes one full bot turn under the room lock: optional
// Dutch call, draw or discard pickup, keep-or-discard, and power
// resolution. The return value reports whether the drain loop should stop.
func (m *Manager) playBotTurn(code string) bool {
	r := m.GetRoom(code)
	if r == nil {
		return true
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	st := r.Game
	if r.Status != models.RoomPlaying || st == nil || r.Paused || st.Phase != game.PhasePlaying {
		return true
	}
	cur := st.CurrentPlayer()
	if cur == nil || cur.IsHuman || cur.Spectator {
		return true
	}
	mind := r.minds[cur.ID]
	if mind == nil {
		mind = bot.NewMind(cur.Hand)
		r.minds[cur.ID] = mind
	}
	cfg := bot.TierFor(cur.Skill)
	r.Touch()

	pressure := 0.0
	if st.Mode == models.ModeTournament {
		pressure = 1.0
	}
	if st.DutchCallerID == "" && bot.ShouldCallDutch(mind, cfg, cur.Behavior, st.TurnCount, pressure) {
		st.CallDutch(cur.ID)
		m.logAction(r, cur.ID, "call_dutch", nil)
		m.broadcastGameState(r, UpdateActionResult, map[string]interface{}{
			"message": cur.Name + " calls DUTCH!",
		})
		m.afterAction(r)
		return true
	}

	if st.DrawnCard == nil && !st.WaitingForPower {
		if bot.ShouldTakeDiscard(st, mind) {
			st.TakeFromDiscard()
			m.logAction(r, cur.ID, "take_from_discard", nil)
		} else {
			st.Draw()
			m.logAction(r, cur.ID, "draw", nil)
		}
		if st.Phase == game.PhaseEnded {
			// Exhaustion during the draw.
			m.broadcastGameState(r, UpdateActionResult, nil)
			m.afterAction(r)
			return true
		}
		m.broadcastGameState(r, UpdatePartial, nil)
	}

	if st.DrawnCard != nil {
		keep := bot.ChooseKeep(mind, cfg, st.DrawnCard, st.TurnCount)
		if keep >= 0 && keep < len(cur.Hand) {
			drawn := st.DrawnCard
			st.Replace(keep)
			mind.Remember(keep, drawn)
			m.logAction(r, cur.ID, "replace", map[string]interface{}{"index": keep})
		} else {
			st.DiscardDrawn()
			m.logAction(r, cur.ID, "discard", nil)
		}
		m.broadcastGameState(r, UpdateActionResult, nil)
	}

	if st.WaitingForPower {
		m.playBotPower(r, st, cur, mind, cfg)
		m.broadcastGameState(r, UpdateActionResult, nil)
	}

	switch {
	case st.Phase == game.PhaseEnded:
		m.handleGameEnd(r)
		return true
	case st.Phase == game.PhaseReaction:
		go m.startReactionWindow(code)
		return true
	}

	next := st.CurrentPlayer()
	if next != nil && !next.IsHuman && !next.Spectator {
		return false
	}
	m.startTurnTimer(r)
	return true
}

// playBotPower resolves the bot's pending special power and keeps its own
// belief state in step with what the power did. Lock held.
func (m *Manager) playBotPower(r *Room, st *game.State, cur *models.Player, mind *bot.Mind, cfg bot.TierConfig) {
	seat := st.PlayerIndex(cur.ID)
	req, use := bot.ChoosePower(st, seat, mind, cfg)
	if !use {
		st.SkipPower()
		m.logAction(r, cur.ID, "skip_special_power", nil)
		return
	}

	rank := ""
	if st.PowerCard != nil {
		rank = st.PowerCard.Rank
	}
	res := st.UsePower(req)

	switch rank {
	case "7":
		if res.Spied != nil {
			mind.Remember(req.CardIndex, res.Spied)
		}
	case models.RankJack:
		if req.Player1Index == seat {
			// Our slot now holds whatever the opponent had there.
			mind.Forget(req.Card1Index)
		}
	case models.RankJoker:
		if req.TargetPlayerIndex == seat {
			mind.WipeAll(len(cur.Hand))
		}
	}

	m.applyPowerToMinds(r, st, res, req)
	m.notifyPowerEffects(r, cur, res)
	m.logAction(r, cur.ID, "use_special_power", nil)
}
