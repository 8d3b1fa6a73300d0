// internal/room/reaction.go
package room

import (
	"sync"
	"time"

	"github.com/dutchgame/dutch/internal/bot"
	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

const (
	reactionTickInterval  = 50 * time.Millisecond
	reactionBroadcastGap  = 200 * time.Millisecond
	reactionDeadlineGrace = 200 * time.Millisecond
)

// ReactionTimers runs the per-room reaction countdowns. Each window is one
// goroutine ticking at 50ms, broadcasting the remaining time at most every
// 200ms, and closing the phase exactly once when the deadline plus a small
// grace passes. Starting a new window for a code cancels the previous one.
type ReactionTimers struct {
	m *Manager

	mu     sync.Mutex
	active map[string]chan struct{}
}

func NewReactionTimers(m *Manager) *ReactionTimers {
	return &ReactionTimers{
		m:      m,
		active: make(map[string]chan struct{}),
	}
}

// Start launches the countdown for a room. Any previous countdown for the
// same code is cancelled first.
func (rt *ReactionTimers) Start(code string, window time.Duration) {
	stop := make(chan struct{})

	rt.mu.Lock()
	if old, ok := rt.active[code]; ok {
		close(old)
	}
	rt.active[code] = stop
	rt.mu.Unlock()

	go rt.run(code, window, stop)
}

// Cancel stops a room's countdown without closing the phase. Safe to call
// when none is running.
func (rt *ReactionTimers) Cancel(code string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if stop, ok := rt.active[code]; ok {
		close(stop)
		delete(rt.active, code)
	}
}

// release clears the registry entry if it still belongs to this run.
func (rt *ReactionTimers) release(code string, stop chan struct{}) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.active[code] == stop {
		delete(rt.active, code)
	}
}

func (rt *ReactionTimers) run(code string, window time.Duration, stop chan struct{}) {
	defer rt.release(code, stop)

	deadline := time.Now().Add(window)
	ticker := time.NewTicker(reactionTickInterval)
	defer ticker.Stop()

	var lastBroadcast time.Time
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if now.After(deadline.Add(reactionDeadlineGrace)) {
				rt.m.EndReactionPhase(code)
				return
			}
			if now.Sub(lastBroadcast) < reactionBroadcastGap {
				continue
			}
			lastBroadcast = now
			if !rt.broadcastRemaining(code, deadline) {
				return
			}
		}
	}
}

// broadcastRemaining pushes a timer tick to the room; a false return means
// the window no longer applies and the run should stop.
func (rt *ReactionTimers) broadcastRemaining(code string, deadline time.Time) bool {
	r := rt.m.GetRoom(code)
	if r == nil {
		return false
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Status != models.RoomPlaying || r.Game == nil || r.Game.Phase != game.PhaseReaction || r.Paused {
		return false
	}
	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	rt.m.broadcastGameState(r, UpdateTimer, map[string]interface{}{
		"remainingMs": remaining.Milliseconds(),
	})
	return true
}

// startReactionWindow opens the match window after a discard: the countdown
// starts and every bot seat schedules one tier-paced attempt against it.
func (m *Manager) startReactionWindow(code string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()

	if r.Status != models.RoomPlaying || r.Game == nil || r.Game.Phase != game.PhaseReaction || r.Paused {
		r.Mu.Unlock()
		return
	}
	window := time.Duration(r.Settings.ReactionTimeMs) * time.Millisecond
	if window <= 0 {
		window = m.timing.ReactionTime
	}

	for _, p := range r.Players {
		if p.IsHuman || p.Spectator {
			continue
		}
		mind := r.minds[p.ID]
		if mind == nil {
			continue
		}
		cfg := bot.TierFor(p.Skill)
		seatID := p.ID
		time.AfterFunc(bot.ReactionDelay(mind, cfg, window), func() {
			m.botReactionAttempt(code, seatID)
		})
	}
	r.Mu.Unlock()

	m.reactions.Start(code, window)
}

// botReactionAttempt is one bot's shot at the open match window. The window
// may have closed or the seat may be gone by the time the delay fires.
func (m *Manager) botReactionAttempt(code, seatID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	st := r.Game
	if r.Status != models.RoomPlaying || st == nil || st.Phase != game.PhaseReaction || r.Paused {
		return
	}
	seat := r.PlayerByID(seatID)
	mind := r.minds[seatID]
	if seat == nil || seat.Spectator || mind == nil {
		return
	}
	cfg := bot.TierFor(seat.Skill)

	idx, ok := bot.ChooseReactionMatch(st, st.PlayerIndex(seatID), mind, cfg)
	if !ok {
		return
	}
	matched := st.AttemptMatch(seatID, idx)
	if matched {
		mind.RemoveAt(idx)
	} else {
		mind.Grow(len(seat.Hand))
	}
	m.logAction(r, seatID, "attempt_match", map[string]interface{}{
		"index":   idx,
		"matched": matched,
	})
	m.broadcastGameState(r, UpdatePartial, map[string]interface{}{
		"matched":  matched,
		"playerId": seatID,
	})
}

// EndReactionPhase closes the window: the turn advances past the acting
// seat, every bot's memory decays a notch, and the next actor's clock
// starts.
func (m *Manager) EndReactionPhase(code string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()

	st := r.Game
	if r.Status != models.RoomPlaying || st == nil || st.Phase != game.PhaseReaction || r.Paused {
		return
	}
	st.FinishReaction()

	for id, mind := range r.minds {
		if seat := r.PlayerByID(id); seat != nil && !seat.Spectator {
			mind.DecayTick(bot.TierFor(seat.Skill).ForgetChance)
		}
	}

	m.broadcastGameState(r, UpdatePhaseChange, nil)
	m.afterAction(r)
}
