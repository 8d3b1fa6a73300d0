// internal/game/powers.go
package game

import "github.com/dutchgame/dutch/internal/models"

// PowerRequest names the targets of a special power. Which fields matter
// depends on the pending card's rank:
//
//	7:     CardIndex (one of the actor's own cards)
//	10:    TargetPlayerIndex, TargetCardIndex (an opponent card)
//	Jack:  Player1Index/Card1Index, Player2Index/Card2Index (any two seats)
//	Joker: TargetPlayerIndex (whole hand to shuffle, self allowed)
type PowerRequest struct {
	CardIndex         int `json:"cardIndex"`
	TargetPlayerIndex int `json:"targetPlayerIndex"`
	TargetCardIndex   int `json:"targetCardIndex"`
	Player1Index      int `json:"player1Index"`
	Card1Index        int `json:"card1Index"`
	Player2Index      int `json:"player2Index"`
	Card2Index        int `json:"card2Index"`
}

// AffectedSeat identifies a seat touched by a power, for the private
// notifications owed to parties who lost or gained information.
type AffectedSeat struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	CardIndex  int    `json:"cardIndex,omitempty"`
}

// PowerResult reports what a power did. Spied is revealed only to the
// acting seat; Affected and Shuffled list the other seats owed a private
// notification.
type PowerResult struct {
	Spied    *models.Card
	Affected []AffectedSeat
	Shuffled *AffectedSeat
}

// UsePower resolves the pending special power. Always clears the pending
// flags and opens the reaction window, whether or not the targets were
// valid.
func (s *State) UsePower(req PowerRequest) PowerResult {
	var result PowerResult
	if !s.WaitingForPower || s.PowerCard == nil {
		return result
	}
	actor := s.CurrentPlayer()
	card := s.PowerCard

	switch card.Rank {
	case "7":
		// Spy one of your own cards; it becomes known to you.
		if actor != nil && req.CardIndex >= 0 && req.CardIndex < len(actor.Hand) {
			s.LastSpied = actor.Hand[req.CardIndex]
			actor.Known[req.CardIndex] = true
			s.AddHistory("%s looks at one of their cards", actor.Name)
			result.Spied = actor.Hand[req.CardIndex]
		}

	case "10":
		// Spy an opponent card; the owner's knowledge is untouched.
		if req.TargetPlayerIndex >= 0 && req.TargetPlayerIndex < len(s.Players) {
			target := s.Players[req.TargetPlayerIndex]
			if req.TargetCardIndex >= 0 && req.TargetCardIndex < len(target.Hand) {
				s.LastSpied = target.Hand[req.TargetCardIndex]
				s.AddHistory("%s spies a card of %s", actor.Name, target.Name)
				result.Spied = target.Hand[req.TargetCardIndex]
			}
		}

	case models.RankJack:
		// Universal swap between any two named seats, actor included or not.
		if req.Player1Index >= 0 && req.Player1Index < len(s.Players) &&
			req.Player2Index >= 0 && req.Player2Index < len(s.Players) {
			p1 := s.Players[req.Player1Index]
			p2 := s.Players[req.Player2Index]
			if req.Card1Index >= 0 && req.Card1Index < len(p1.Hand) &&
				req.Card2Index >= 0 && req.Card2Index < len(p2.Hand) {
				s.swapCards(p1, req.Card1Index, p2, req.Card2Index)
				if actor != nil && p1.ID != actor.ID {
					result.Affected = append(result.Affected, AffectedSeat{
						PlayerID: p1.ID, PlayerName: p1.Name, CardIndex: req.Card1Index,
					})
				}
				if actor != nil && p2.ID != actor.ID {
					result.Affected = append(result.Affected, AffectedSeat{
						PlayerID: p2.ID, PlayerName: p2.Name, CardIndex: req.Card2Index,
					})
				}
			}
		}

	case models.RankJoker:
		// Shuffle one seat's entire hand, self allowed.
		if req.TargetPlayerIndex >= 0 && req.TargetPlayerIndex < len(s.Players) {
			target := s.Players[req.TargetPlayerIndex]
			s.shuffleHand(target)
			s.AddHistory("JOKER: %s shuffles %s's hand", actor.Name, target.Name)
			if actor != nil && target.ID != actor.ID {
				result.Shuffled = &AffectedSeat{PlayerID: target.ID, PlayerName: target.Name}
			}
		}
	}

	s.WaitingForPower = false
	s.PowerCard = nil
	s.startReaction()
	return result
}

// SkipPower declines the pending special power. Safe to call twice: once
// the flags are cleared a second call only re-enters the reaction phase it
// already opened.
func (s *State) SkipPower() {
	if s.WaitingForPower {
		if actor := s.CurrentPlayer(); actor != nil {
			s.AddHistory("%s skips the special power", actor.Name)
		}
	}
	s.WaitingForPower = false
	s.PowerCard = nil
	s.startReaction()
}

// swapCards exchanges one card between two seats. The swap invalidates
// both seats' knowledge of the exchanged positions.
func (s *State) swapCards(p1 *models.Player, idx1 int, p2 *models.Player, idx2 int) {
	p1.Hand[idx1], p2.Hand[idx2] = p2.Hand[idx2], p1.Hand[idx1]
	p1.Known[idx1] = false
	p2.Known[idx2] = false
	s.AddHistory("swap: %s card #%d with %s card #%d", p1.Name, idx1+1, p2.Name, idx2+1)
}

// shuffleHand permutes a seat's hand and wipes all its knowledge flags.
func (s *State) shuffleHand(target *models.Player) {
	s.shuffle(target.Hand)
	target.Known = make([]bool, len(target.Hand))
}
