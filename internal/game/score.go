// internal/game/score.go
package game

import (
	"sort"

	"github.com/dutchgame/dutch/internal/models"
)

// SeatScore is one seat's result for a finished round. Lower is better.
type SeatScore struct {
	PlayerID  string         `json:"playerId"`
	ClientKey string         `json:"clientId"`
	Name      string         `json:"name"`
	IsHuman   bool           `json:"isHuman"`
	Spectator bool           `json:"isSpectator"`
	Score     int            `json:"score"`
	Hand      []*models.Card `json:"hand"`
	Dutch     bool           `json:"calledDutch"`
}

// Scores computes every seat's hand value for the round, ordered best
// first. Ties break in favor of seats still active in the round. The exact
// Dutch-caller bonus or penalty curve is a product decision applied by the
// caller on top of these raw sums.
func (s *State) Scores() []SeatScore {
	scores := make([]SeatScore, 0, len(s.Players))
	for _, p := range s.Players {
		scores = append(scores, SeatScore{
			PlayerID:  p.ID,
			ClientKey: p.StableKey(),
			Name:      p.Name,
			IsHuman:   p.IsHuman,
			Spectator: p.Spectator,
			Score:     p.HandValue(),
			Hand:      p.Hand,
			Dutch:     p.ID == s.DutchCallerID,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score < scores[j].Score
		}
		return !scores[i].Spectator && scores[j].Spectator
	})
	return scores
}

// Winner returns the best-placed seat of a finished round, or nil for an
// empty table.
func (s *State) Winner() *SeatScore {
	scores := s.Scores()
	if len(scores) == 0 {
		return nil
	}
	return &scores[0]
}
