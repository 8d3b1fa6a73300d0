// internal/game/state.go
package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dutchgame/dutch/internal/models"
)

// Phase is the round-level state of play.
type Phase string

const (
	PhaseSetup       Phase = "setup"
	PhasePlaying     Phase = "playing"
	PhaseReaction    Phase = "reaction"
	PhaseDutchCalled Phase = "dutchCalled"
	PhaseEnded       Phase = "ended"
)

const (
	// HandSize is the number of cards dealt to each seat.
	HandSize = 4
	// DeckSize is the full deck: 52 cards plus 2 jokers.
	DeckSize = 54

	historyLimit = 50
)

// State is the authoritative state of one round of Dutch.
//
// Players is shared with the owning room, not copied; the room manager is
// the single mutation gateway and holds the room lock across every call
// into this type. State itself performs no locking, and rule methods never
// return errors: precondition violations are silent no-ops because the
// protocol layer has already validated turn and phase ownership.
type State struct {
	Players            []*models.Player
	Deck               []*models.Card
	DiscardPile        []*models.Card
	CurrentPlayerIndex int
	Phase              Phase

	// DrawnCard is the at-most-one card in transit, held by the acting seat.
	DrawnCard *models.Card

	// WaitingForPower gates further turn actions while a special-power
	// window opened by PowerCard is unresolved.
	WaitingForPower bool
	PowerCard       *models.Card

	DutchCallerID string

	// LastSpied is the most recently revealed card, single use; cleared
	// when the reaction phase opens.
	LastSpied *models.Card

	Mode       models.GameMode
	Difficulty models.Difficulty
	History    []string
	TurnCount  int
	StartedAt  time.Time

	rng *rand.Rand
}

// NewState builds an undealt round over the given seats.
func NewState(players []*models.Player, mode models.GameMode, difficulty models.Difficulty) *State {
	return &State{
		Players:    players,
		Phase:      PhaseSetup,
		Mode:       mode,
		Difficulty: difficulty,
		StartedAt:  time.Now(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the round's randomness source. Used by tests to make
// shuffles and starting-seat selection deterministic.
func (s *State) SetRand(r *rand.Rand) {
	s.rng = r
}

// Initialize shuffles a fresh deck, deals each seat its hand, seeds bot
// seats with knowledge of their first two cards, flips the first discard,
// and picks a random starting actor.
func (s *State) Initialize() {
	s.Deck = models.NewDeck()
	s.DiscardPile = nil
	s.shuffle(s.Deck)

	for _, p := range s.Players {
		p.Hand = make([]*models.Card, 0, HandSize)
		p.Known = make([]bool, 0, HandSize)
		for i := 0; i < HandSize; i++ {
			if len(s.Deck) == 0 {
				break
			}
			p.Hand = append(p.Hand, s.popDeck())
			p.Known = append(p.Known, false)
		}
		// House rule: bots peek at their first two dealt cards, mirroring
		// the human memorization ritual.
		if !p.IsHuman && len(p.Known) >= 2 {
			p.Known[0] = true
			p.Known[1] = true
		}
	}

	if len(s.Deck) > 0 {
		s.DiscardPile = append(s.DiscardPile, s.popDeck())
	}

	if len(s.Players) > 0 {
		s.CurrentPlayerIndex = s.rng.Intn(len(s.Players))
		s.AddHistory("%s starts", s.Players[s.CurrentPlayerIndex].Name)
	}
	s.Phase = PhasePlaying
}

// CurrentPlayer returns the acting seat, or nil for an empty table.
func (s *State) CurrentPlayer() *models.Player {
	if len(s.Players) == 0 {
		return nil
	}
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// PlayerByID finds a seat by transport identity.
func (s *State) PlayerByID(id string) *models.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerIndex returns the seat index for a transport identity, or -1.
func (s *State) PlayerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// NextPlayer rotates the turn pointer forward, skipping spectators. The
// caller guarantees at least one active seat remains.
func (s *State) NextPlayer() {
	if len(s.Players) == 0 {
		return
	}
	for attempts := 0; attempts < len(s.Players); attempts++ {
		s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
		if !s.Players[s.CurrentPlayerIndex].Spectator {
			break
		}
	}
	s.TurnCount++
}

// ActiveCount counts seats still participating in the round.
func (s *State) ActiveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Active() {
			n++
		}
	}
	return n
}

// CardCount totals every card reachable from the round: deck, discard,
// hands, and the in-transit drawn card. It is constant for a round's
// lifetime.
func (s *State) CardCount() int {
	n := len(s.Deck) + len(s.DiscardPile)
	if s.DrawnCard != nil {
		n++
	}
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// AddHistory appends a formatted entry to the round log, capped at the
// most recent entries.
func (s *State) AddHistory(format string, args ...interface{}) {
	entry := format
	if len(args) > 0 {
		entry = fmt.Sprintf(format, args...)
	}
	s.History = append(s.History, entry)
	if len(s.History) > historyLimit {
		s.History = s.History[len(s.History)-historyLimit:]
	}
}

func (s *State) shuffle(cards []*models.Card) {
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

func (s *State) popDeck() *models.Card {
	c := s.Deck[len(s.Deck)-1]
	s.Deck = s.Deck[:len(s.Deck)-1]
	return c
}

func (s *State) discardTop() *models.Card {
	if len(s.DiscardPile) == 0 {
		return nil
	}
	return s.DiscardPile[len(s.DiscardPile)-1]
}
