// internal/models/player.go
package models

import (
	"time"

	"github.com/coder/websocket"
)

// BotBehavior is a bot's personality archetype.
type BotBehavior string

const (
	BotBalanced   BotBehavior = "balanced"
	BotAggressive BotBehavior = "aggressive"
	BotFast       BotBehavior = "fast"
)

// BotSkill is a bot's skill tier.
type BotSkill string

const (
	SkillBronze   BotSkill = "bronze"
	SkillSilver   BotSkill = "silver"
	SkillGold     BotSkill = "gold"
	SkillPlatinum BotSkill = "platinum"
)

// Player is one seat in a room.
//
// ID is the transport connection identity and changes whenever the client
// reconnects. ClientID is the stable identity chosen by the client; it is
// what survives a reconnect and what the cumulative score ledger is keyed by.
// Hand and Known are kept in lockstep: every insert, removal, and replacement
// updates both.
type Player struct {
	ID        string      `json:"id"`
	ClientID  string      `json:"clientId,omitempty"`
	Name      string      `json:"name"`
	IsHuman   bool        `json:"isHuman"`
	Hand      []*Card     `json:"hand"`
	Known     []bool      `json:"knownCards"`
	Connected bool        `json:"connected"`
	Focused   bool        `json:"focused"`
	Ready     bool        `json:"ready"`
	Spectator bool        `json:"isSpectator"`
	Position  int         `json:"position"`
	Behavior  BotBehavior `json:"botBehavior,omitempty"`
	Skill     BotSkill    `json:"botSkill,omitempty"`

	LastSeen time.Time       `json:"-"`
	Conn     *websocket.Conn `json:"-"`
}

// StableKey returns the identity used for cross-reconnect bookkeeping:
// the stable client id when the client supplied one, otherwise the
// connection id.
func (p *Player) StableKey() string {
	if p.ClientID != "" {
		return p.ClientID
	}
	return p.ID
}

// HandValue sums the point values of the player's current hand.
func (p *Player) HandValue() int {
	total := 0
	for _, c := range p.Hand {
		total += c.Value
	}
	return total
}

// Active reports whether the seat still participates in the round.
func (p *Player) Active() bool {
	if p.Spectator {
		return false
	}
	return !p.IsHuman || p.Connected
}
