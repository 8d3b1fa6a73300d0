// internal/models/card.go
package models

import "github.com/google/uuid"

// Suit names. Jokers carry their own pseudo-suit.
const (
	SuitHearts   = "hearts"
	SuitDiamonds = "diamonds"
	SuitClubs    = "clubs"
	SuitSpades   = "spades"
	SuitJoker    = "joker"
)

// Rank strings as they appear on the wire.
const (
	RankAce   = "A"
	RankJack  = "J"
	RankQueen = "Q"
	RankKing  = "K"
	RankJoker = "JOKER"
)

// Card is an immutable playing card. Value is the Dutch point value, not the
// rank ordinal: red kings and jokers score zero, black kings score thirteen.
// Special marks the ranks that open a power window when discarded.
type Card struct {
	ID      uuid.UUID `json:"id"`
	Suit    string    `json:"suit"`
	Rank    string    `json:"rank"`
	Value   int       `json:"value"`
	Special bool      `json:"special"`
}

// NewCard builds a card for the given suit and rank, deriving its point
// value and special flag.
func NewCard(suit, rank string) *Card {
	return &Card{
		ID:      uuid.New(),
		Suit:    suit,
		Rank:    rank,
		Value:   cardValue(suit, rank),
		Special: isSpecialRank(rank),
	}
}

func cardValue(suit, rank string) int {
	switch rank {
	case RankKing:
		if suit == SuitHearts || suit == SuitDiamonds {
			return 0
		}
		return 13
	case RankJoker:
		return 0
	case RankQueen:
		return 12
	case RankJack:
		return 11
	case RankAce:
		return 1
	}
	n := 0
	for _, r := range rank {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func isSpecialRank(rank string) bool {
	switch rank {
	case "7", "10", RankJack, RankJoker:
		return true
	}
	return false
}

// NewDeck returns the full 54-card deck (13 ranks by 4 suits plus 2 jokers)
// in deterministic construction order. Shuffling is the caller's concern.
func NewDeck() []*Card {
	suits := []string{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}
	ranks := []string{RankAce, "2", "3", "4", "5", "6", "7", "8", "9", "10", RankJack, RankQueen, RankKing}

	deck := make([]*Card, 0, 54)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, NewCard(s, r))
		}
	}
	deck = append(deck, NewCard(SuitJoker, RankJoker))
	deck = append(deck, NewCard(SuitJoker, RankJoker))
	return deck
}

// Matches reports whether two cards are match-equivalent. Matching is by
// rank: the two kings match each other despite their point asymmetry, and
// the two jokers match each other.
func Matches(a, b *Card) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Rank == b.Rank
}
