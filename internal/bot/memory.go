// internal/bot/memory.go
package bot

import (
	"math/rand"
	"time"

	"github.com/dutchgame/dutch/internal/models"
)

const outcomeWindow = 5

// DutchOutcome is one past Dutch call's result, used to modulate how bold
// the bot's future calls are.
type DutchOutcome struct {
	Won bool
	// EstimateError is the absolute gap between the bot's score estimate
	// when it called and its real final score.
	EstimateError int
}

// Mind is one bot seat's private belief about its own hand, kept separate
// from the server's ground-truth knowledge mask so that imperfect memory
// can be modeled. It is owned by the room alongside the seat and cleared
// when the seat is removed or the round restarts.
type Mind struct {
	// Believed is parallel to the seat's hand; nil entries are unknown.
	Believed []*models.Card
	// BadDraws counts consecutive drawn cards the bot chose to discard.
	BadDraws int
	Results  []DutchOutcome

	rng *rand.Rand
}

// NewMind seeds a fresh belief state from the dealt hand. The bot starts
// knowing its first two cards, matching the dealing rule.
func NewMind(hand []*models.Card) *Mind {
	m := &Mind{
		Believed: make([]*models.Card, len(hand)),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := 0; i < len(hand) && i < 2; i++ {
		m.Believed[i] = hand[i]
	}
	return m
}

// SetRand replaces the mind's randomness source for deterministic tests.
func (m *Mind) SetRand(r *rand.Rand) {
	m.rng = r
}

// Remember records the card the bot now believes sits at idx.
func (m *Mind) Remember(idx int, card *models.Card) {
	if idx >= 0 && idx < len(m.Believed) {
		m.Believed[idx] = card
	}
}

// Forget clears the belief at idx.
func (m *Mind) Forget(idx int) {
	if idx >= 0 && idx < len(m.Believed) {
		m.Believed[idx] = nil
	}
}

// DecayTick applies per-turn memory decay: each remembered slot is
// independently forgotten with the tier's chance.
func (m *Mind) DecayTick(chance float64) {
	if chance <= 0 {
		return
	}
	for i, c := range m.Believed {
		if c != nil && m.rng.Float64() < chance {
			m.Believed[i] = nil
		}
	}
}

// ConfuseOnSwap possibly loses track of a swapped slot, per the tier's
// confusion chance. A confused bot keeps a stale belief instead of
// clearing it, which is what makes low tiers play wrong matches.
func (m *Mind) ConfuseOnSwap(idx int, confusion float64) {
	if idx < 0 || idx >= len(m.Believed) {
		return
	}
	if m.rng.Float64() >= confusion {
		m.Believed[idx] = nil
	}
}

// RemoveAt contracts the belief list in lockstep with a hand removal.
func (m *Mind) RemoveAt(idx int) {
	if idx >= 0 && idx < len(m.Believed) {
		m.Believed = append(m.Believed[:idx], m.Believed[idx+1:]...)
	}
}

// Grow appends unknown slots until the belief list matches handLen, used
// after penalty cards.
func (m *Mind) Grow(handLen int) {
	for len(m.Believed) < handLen {
		m.Believed = append(m.Believed, nil)
	}
}

// WipeAll clears every belief, used when the bot's own hand is shuffled.
func (m *Mind) WipeAll(handLen int) {
	m.Believed = make([]*models.Card, handLen)
}

// UnknownIndexes lists the hand positions the bot has no belief about.
func (m *Mind) UnknownIndexes() []int {
	var idxs []int
	for i, c := range m.Believed {
		if c == nil {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// WorstKnown returns the believed-highest card position, or ok=false when
// nothing is remembered.
func (m *Mind) WorstKnown() (idx, value int, ok bool) {
	idx = -1
	for i, c := range m.Believed {
		if c != nil && (idx == -1 || c.Value > value) {
			idx, value = i, c.Value
		}
	}
	return idx, value, idx >= 0
}

// Estimate guesses the bot's current hand value. Remembered cards count at
// face value; unknown slots are assumed near the average of what is
// remembered, clamped to a plausible band, or 5 with no data at all.
func (m *Mind) Estimate() int {
	known, sum := 0, 0
	for _, c := range m.Believed {
		if c != nil {
			known++
			sum += c.Value
		}
	}
	unknown := len(m.Believed) - known
	assumed := 5
	if known > 0 {
		assumed = sum / known
		if assumed < 4 {
			assumed = 4
		}
		if assumed > 7 {
			assumed = 7
		}
	}
	return sum + unknown*assumed
}

// RecordOutcome folds a finished Dutch call into the rolling history.
func (m *Mind) RecordOutcome(won bool, estimateErr int) {
	m.Results = append(m.Results, DutchOutcome{Won: won, EstimateError: estimateErr})
	if len(m.Results) > outcomeWindow {
		m.Results = m.Results[len(m.Results)-outcomeWindow:]
	}
}

// Confidence summarizes recent Dutch outcomes as a small additive bias on
// the call threshold: winning accurate calls embolden, losses restrain.
func (m *Mind) Confidence() float64 {
	if len(m.Results) == 0 {
		return 0
	}
	score := 0.0
	for _, r := range m.Results {
		if r.Won {
			score++
			if r.EstimateError <= 2 {
				score += 0.5
			}
		} else {
			score--
		}
	}
	return score / float64(len(m.Results))
}
