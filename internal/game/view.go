// internal/game/view.go
package game

import (
	"github.com/dutchgame/dutch/internal/models"
)

// ViewCard is a card as one viewer is allowed to see it. Hidden cards are
// bare positional placeholders: no id, rank, suit, or value. Carrying the
// real card id on a placeholder would let a viewer who ever saw that card
// face-up keep tracking it through swaps and shuffles.
type ViewCard struct {
	ID      string `json:"id,omitempty"`
	Hidden  bool   `json:"hidden,omitempty"`
	Suit    string `json:"suit,omitempty"`
	Rank    string `json:"rank,omitempty"`
	Value   int    `json:"value,omitempty"`
	Special bool   `json:"special,omitempty"`
}

// ViewPlayer is one seat as seen by a specific viewer.
type ViewPlayer struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"clientId,omitempty"`
	Name      string     `json:"name"`
	IsHuman   bool       `json:"isHuman"`
	Hand      []ViewCard `json:"hand"`
	Known     []bool     `json:"knownCards,omitempty"`
	Connected bool       `json:"connected"`
	Focused   bool       `json:"focused"`
	Ready     bool       `json:"ready"`
	Spectator bool       `json:"isSpectator"`
	Position  int        `json:"position"`
}

// View is the personalized projection of a round for one recipient.
type View struct {
	Phase              Phase             `json:"phase"`
	Mode               models.GameMode   `json:"mode"`
	CurrentPlayerIndex int               `json:"currentPlayerIndex"`
	CurrentPlayerID    string            `json:"currentPlayerId,omitempty"`
	DeckSize           int               `json:"deckSize"`
	DiscardPile        []ViewCard        `json:"discardPile"`
	DrawnCard          *ViewCard         `json:"drawnCard,omitempty"`
	HasDrawnCard       bool              `json:"hasDrawnCard"`
	WaitingForPower    bool              `json:"isWaitingForSpecialPower"`
	PowerCard          *ViewCard         `json:"specialCard,omitempty"`
	DutchCallerID      string            `json:"dutchCallerId,omitempty"`
	Players            []ViewPlayer      `json:"players"`
	History            []string          `json:"history"`
	TurnCount          int               `json:"turnCount"`
}

// PersonalizedState projects the round for one viewer. The viewer's own
// hand is shown in full; every other hand is redacted to placeholders of
// the correct length; the deck is always opaque. Once the round has ended
// every hand is revealed to every viewer.
func PersonalizedState(s *State, viewerID string) View {
	v := View{
		Phase:              s.Phase,
		Mode:               s.Mode,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		DeckSize:           len(s.Deck),
		WaitingForPower:    s.WaitingForPower,
		DutchCallerID:      s.DutchCallerID,
		History:            s.History,
		TurnCount:          s.TurnCount,
		HasDrawnCard:       s.DrawnCard != nil,
	}
	if cur := s.CurrentPlayer(); cur != nil {
		v.CurrentPlayerID = cur.ID
	}

	// The discard pile is public.
	v.DiscardPile = make([]ViewCard, len(s.DiscardPile))
	for i, c := range s.DiscardPile {
		v.DiscardPile[i] = revealCard(c)
	}
	if s.PowerCard != nil {
		pc := revealCard(s.PowerCard)
		v.PowerCard = &pc
	}

	// The in-transit card is visible to its holder only.
	if s.DrawnCard != nil {
		if cur := s.CurrentPlayer(); cur != nil && cur.ID == viewerID {
			dc := revealCard(s.DrawnCard)
			v.DrawnCard = &dc
		}
	}

	ended := s.Phase == PhaseEnded
	v.Players = make([]ViewPlayer, len(s.Players))
	for i, p := range s.Players {
		vp := ViewPlayer{
			ID:        p.ID,
			ClientID:  p.ClientID,
			Name:      p.Name,
			IsHuman:   p.IsHuman,
			Connected: p.Connected,
			Focused:   p.Focused,
			Ready:     p.Ready,
			Spectator: p.Spectator,
			Position:  p.Position,
		}
		show := ended || p.ID == viewerID
		vp.Hand = make([]ViewCard, len(p.Hand))
		for j, c := range p.Hand {
			if show {
				vp.Hand[j] = revealCard(c)
			} else {
				vp.Hand[j] = ViewCard{Hidden: true}
			}
		}
		if show {
			vp.Known = append([]bool(nil), p.Known...)
		}
		v.Players[i] = vp
	}
	return v
}

func revealCard(c *models.Card) ViewCard {
	return ViewCard{
		ID:      c.ID.String(),
		Suit:    c.Suit,
		Rank:    c.Rank,
		Value:   c.Value,
		Special: c.Special,
	}
}
