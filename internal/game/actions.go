// internal/game/actions.go
package game

import "github.com/dutchgame/dutch/internal/models"

// Draw pops the top of the deck into the in-transit slot. An exhausted deck
// is first refilled from the discard pile; if no cards remain anywhere the
// round ends by exhaustion.
func (s *State) Draw() {
	if s.Phase != PhasePlaying || s.DrawnCard != nil || s.WaitingForPower {
		return
	}
	if len(s.Deck) == 0 {
		s.refillDeck()
	}
	if len(s.Deck) == 0 {
		s.End()
		return
	}
	s.DrawnCard = s.popDeck()
	s.AddHistory("%s draws", s.CurrentPlayer().Name)
}

// TakeFromDiscard picks up the discard top as the in-transit card.
func (s *State) TakeFromDiscard() {
	if s.Phase != PhasePlaying || s.DrawnCard != nil || s.WaitingForPower {
		return
	}
	if len(s.DiscardPile) == 0 {
		return
	}
	s.DrawnCard = s.DiscardPile[len(s.DiscardPile)-1]
	s.DiscardPile = s.DiscardPile[:len(s.DiscardPile)-1]
	s.AddHistory("%s takes from the discard pile", s.CurrentPlayer().Name)
}

// DiscardDrawn moves the in-transit card straight to the discard top. If the
// card is special-ranked the power window opens; otherwise the reaction
// phase begins.
func (s *State) DiscardDrawn() {
	if s.DrawnCard == nil {
		return
	}
	card := s.DrawnCard
	s.DrawnCard = nil
	s.DiscardPile = append(s.DiscardPile, card)
	s.AddHistory("%s discards the drawn card", s.CurrentPlayer().Name)

	s.checkPower(card)
	if !s.WaitingForPower {
		s.startReaction()
	}
}

// Replace swaps the in-transit card into the acting seat's hand at the
// given index. The displaced card goes to the discard top and drives the
// power-or-reaction branching.
func (s *State) Replace(handIndex int) {
	if s.DrawnCard == nil {
		return
	}
	player := s.CurrentPlayer()
	if player == nil || handIndex < 0 || handIndex >= len(player.Hand) {
		return
	}

	displaced := player.Hand[handIndex]
	player.Hand[handIndex] = s.DrawnCard
	player.Known[handIndex] = true
	s.DrawnCard = nil
	s.DiscardPile = append(s.DiscardPile, displaced)
	s.AddHistory("%s swaps a card", player.Name)

	s.checkPower(displaced)
	if !s.WaitingForPower {
		s.startReaction()
	}
}

// AttemptMatch plays the named hand card against the discard top. On a
// match the card leaves the hand and joins the pile; a match made during
// the matcher's own turn can open a power window. On a mismatch the seat
// draws a face-down penalty card. Returns whether the match succeeded.
func (s *State) AttemptMatch(playerID string, handIndex int) bool {
	player := s.PlayerByID(playerID)
	if player == nil {
		return false
	}
	top := s.discardTop()
	if top == nil {
		return false
	}
	if handIndex < 0 || handIndex >= len(player.Hand) {
		return false
	}

	card := player.Hand[handIndex]
	if !models.Matches(card, top) {
		s.AddHistory("%s misses the match and takes a penalty card", player.Name)
		s.applyPenalty(player)
		return false
	}

	s.DiscardPile = append(s.DiscardPile, card)
	player.Hand = append(player.Hand[:handIndex], player.Hand[handIndex+1:]...)
	player.Known = append(player.Known[:handIndex], player.Known[handIndex+1:]...)
	s.AddHistory("match: %s plays %s", player.Name, card.Rank)

	if s.Phase != PhaseReaction {
		s.checkPower(card)
	}
	return true
}

// CallDutch records the first caller and ends the round immediately.
// Subsequent calls are no-ops.
func (s *State) CallDutch(callerID string) {
	if s.DutchCallerID != "" {
		return
	}
	if callerID == "" {
		if cur := s.CurrentPlayer(); cur != nil {
			callerID = cur.ID
		}
	}
	s.DutchCallerID = callerID
	s.Phase = PhaseDutchCalled
	if p := s.PlayerByID(callerID); p != nil {
		s.AddHistory("%s calls DUTCH", p.Name)
	}
	s.End()
}

// End forces the round into its terminal state and reveals every hand for
// the end-of-round display.
func (s *State) End() {
	s.Phase = PhaseEnded
	for _, p := range s.Players {
		for i := range p.Known {
			p.Known[i] = true
		}
	}
}

func (s *State) applyPenalty(player *models.Player) {
	if len(s.Deck) == 0 {
		s.refillDeck()
	}
	if len(s.Deck) == 0 {
		return
	}
	player.Hand = append(player.Hand, s.popDeck())
	player.Known = append(player.Known, false)
}

// refillDeck recycles the discard pile into the deck, keeping the top card
// as the new discard base. With nothing to recycle the round ends.
func (s *State) refillDeck() {
	if len(s.DiscardPile) > 1 {
		top := s.DiscardPile[len(s.DiscardPile)-1]
		s.Deck = append(s.Deck, s.DiscardPile[:len(s.DiscardPile)-1]...)
		s.DiscardPile = []*models.Card{top}
		s.shuffle(s.Deck)
		s.AddHistory("deck empty: discard pile reshuffled (%d cards)", len(s.Deck))
		return
	}
	s.End()
}

func (s *State) checkPower(card *models.Card) {
	if card != nil && card.Special {
		s.WaitingForPower = true
		s.PowerCard = card
	}
}

func (s *State) startReaction() {
	s.Phase = PhaseReaction
}

// FinishReaction closes the reaction window: play resumes, the single-use
// spied card is cleared, and the turn advances past the acting seat.
func (s *State) FinishReaction() {
	if s.Phase != PhaseReaction {
		return
	}
	s.Phase = PhasePlaying
	s.LastSpied = nil
	s.NextPlayer()
}
