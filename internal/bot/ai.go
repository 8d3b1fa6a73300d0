// internal/bot/ai.go
package bot

import (
	"time"

	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

// explorationTurns is the opening stretch during which bots prioritize
// learning their own hand over optimizing it.
const explorationTurns = 6

// ShouldCallDutch decides whether the bot opens its turn by calling Dutch.
// The tier threshold is shifted by archetype audacity, rolling-confidence
// bias, and tournament pressure.
func ShouldCallDutch(m *Mind, cfg TierConfig, behavior models.BotBehavior, turnCount int, pressure float64) bool {
	if turnCount < 2 {
		return false
	}
	threshold := float64(cfg.DutchThreshold)
	switch behavior {
	case models.BotAggressive:
		threshold += 2
	case models.BotFast:
		threshold += 1
	}
	threshold += m.Confidence() * 2
	threshold += pressure
	return float64(m.Estimate()) <= threshold
}

// ShouldTakeDiscard reports whether the bot picks up the discard top
// instead of drawing blind. Only zero-to-one point cards are worth a
// certain pickup, and only when the bot has a slot it would improve.
func ShouldTakeDiscard(s *game.State, m *Mind) bool {
	top := topOfDiscard(s)
	if top == nil || top.Value > 1 {
		return false
	}
	if len(m.UnknownIndexes()) > 0 {
		return true
	}
	_, worst, ok := m.WorstKnown()
	return ok && worst > top.Value
}

// ChooseKeep decides what to do with the drawn card: the returned index is
// the hand slot to replace, or -1 to discard the draw. Early turns replace
// unknown slots to build knowledge; later turns only swap when the draw
// beats the believed-worst card.
func ChooseKeep(m *Mind, cfg TierConfig, drawn *models.Card, turnCount int) int {
	if drawn == nil {
		return -1
	}

	if turnCount < explorationTurns && drawn.Value <= cfg.KeepThreshold {
		if unknown := m.UnknownIndexes(); len(unknown) > 0 {
			m.BadDraws = 0
			return unknown[m.rng.Intn(len(unknown))]
		}
	}

	if worstIdx, worstVal, ok := m.WorstKnown(); ok {
		if drawn.Value <= cfg.KeepThreshold || worstVal > drawn.Value+3 {
			if drawn.Value < worstVal {
				m.BadDraws = 0
				return worstIdx
			}
		}
	} else if drawn.Value <= cfg.KeepThreshold {
		// Nothing remembered at all: keep a good draw somewhere unknown.
		if unknown := m.UnknownIndexes(); len(unknown) > 0 {
			m.BadDraws = 0
			return unknown[0]
		}
	}

	m.BadDraws++
	return -1
}

// ChooseReactionMatch picks a hand card to slap onto the discard top, or
// ok=false to sit the window out. High tiers may also blind-match an
// unknown slot when desperate.
func ChooseReactionMatch(s *game.State, seat int, m *Mind, cfg TierConfig) (int, bool) {
	if seat < 0 || seat >= len(s.Players) {
		return 0, false
	}
	top := topOfDiscard(s)
	if top == nil {
		return 0, false
	}
	if m.rng.Float64() >= cfg.MatchChance {
		return 0, false
	}

	for i, c := range m.Believed {
		if c != nil && models.Matches(c, top) {
			if m.rng.Float64() < cfg.MatchAccuracy {
				return i, true
			}
			// Misremembered: slap a neighboring slot instead.
			hand := s.Players[seat].Hand
			if len(hand) > 1 {
				return (i + 1) % len(hand), true
			}
			return i, true
		}
	}

	// Desperate blind match for the top tiers when far behind.
	if cfg.MatchChance >= 0.9 && m.Estimate() > 15 {
		if unknown := m.UnknownIndexes(); len(unknown) > 0 && m.rng.Float64() < 0.25 {
			return unknown[m.rng.Intn(len(unknown))], true
		}
	}
	return 0, false
}

// ChoosePower builds the power request for the pending special card, or
// use=false to skip. Given full rule knowledge the bot always has a legal
// target, so skipping only happens when the state offers nothing useful.
func ChoosePower(s *game.State, seat int, m *Mind, cfg TierConfig) (game.PowerRequest, bool) {
	var req game.PowerRequest
	if s.PowerCard == nil || seat < 0 || seat >= len(s.Players) {
		return req, false
	}

	switch s.PowerCard.Rank {
	case "7":
		// Look at an unknown own card; nothing to learn means skip.
		unknown := m.UnknownIndexes()
		if len(unknown) == 0 {
			return req, false
		}
		req.CardIndex = unknown[m.rng.Intn(len(unknown))]
		return req, true

	case "10":
		target := pickOpponent(s, seat, m)
		if target < 0 {
			return req, false
		}
		if len(s.Players[target].Hand) == 0 {
			return req, false
		}
		req.TargetPlayerIndex = target
		req.TargetCardIndex = m.rng.Intn(len(s.Players[target].Hand))
		return req, true

	case models.RankJack:
		// Trade our believed-worst card against a random card of the
		// biggest threat.
		worstIdx, worstVal, ok := m.WorstKnown()
		if !ok || worstVal < 8 {
			return req, false
		}
		target := biggestThreat(s, seat)
		if target < 0 || len(s.Players[target].Hand) == 0 {
			return req, false
		}
		req.Player1Index = seat
		req.Card1Index = worstIdx
		req.Player2Index = target
		req.Card2Index = m.rng.Intn(len(s.Players[target].Hand))
		return req, true

	case models.RankJoker:
		// Scramble the opponent with the most knowledge, or our own hand
		// when it is both unknown and believed bad.
		if len(m.UnknownIndexes()) == len(m.Believed) && m.Estimate() > 18 {
			req.TargetPlayerIndex = seat
			return req, true
		}
		target := biggestThreat(s, seat)
		if target < 0 {
			return req, false
		}
		req.TargetPlayerIndex = target
		return req, true
	}
	return req, false
}

// ThinkDelay is the pacing pause before a bot's turn action.
func ThinkDelay(m *Mind, behavior models.BotBehavior) time.Duration {
	var lo, hi int
	switch behavior {
	case models.BotFast:
		lo, hi = 200, 500
	case models.BotAggressive:
		lo, hi = 400, 900
	default:
		lo, hi = 600, 1200
	}
	return time.Duration(lo+m.rng.Intn(hi-lo)) * time.Millisecond
}

// ReactionDelay is how long into the reaction window the bot waits before
// attempting its match. Faster tiers react earlier.
func ReactionDelay(m *Mind, cfg TierConfig, window time.Duration) time.Duration {
	frac := (1 - cfg.ReactionSpeed) * (0.5 + m.rng.Float64()*0.5)
	d := time.Duration(float64(window) * frac)
	if min := 100 * time.Millisecond; d < min {
		d = min
	}
	return d
}

func topOfDiscard(s *game.State) *models.Card {
	if len(s.DiscardPile) == 0 {
		return nil
	}
	return s.DiscardPile[len(s.DiscardPile)-1]
}

// pickOpponent returns a random non-spectator seat other than self.
func pickOpponent(s *game.State, seat int, m *Mind) int {
	var candidates []int
	for i, p := range s.Players {
		if i != seat && !p.Spectator && len(p.Hand) > 0 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	return candidates[m.rng.Intn(len(candidates))]
}

// biggestThreat scores opponents by hand size (fewer cards is closer to
// winning) and picks the most dangerous.
func biggestThreat(s *game.State, seat int) int {
	best, bestScore := -1, -1.0
	for i, p := range s.Players {
		if i == seat || p.Spectator || len(p.Hand) == 0 {
			continue
		}
		score := 10.0 / float64(len(p.Hand))
		if !p.IsHuman {
			score *= 0.9
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
