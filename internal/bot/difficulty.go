// internal/bot/difficulty.go
package bot

import "github.com/dutchgame/dutch/internal/models"

// TierConfig are the tunables of one bot skill tier. These are balance
// constants, not correctness surface.
type TierConfig struct {
	// ForgetChance is the per-turn probability of losing one remembered card.
	ForgetChance float64
	// SwapConfusion is the probability a bot loses track of a card that was
	// swapped into or out of its hand.
	SwapConfusion float64
	// DutchThreshold is the estimated-score ceiling below which the bot
	// considers calling Dutch.
	DutchThreshold int
	// ReactionSpeed in [0,1]; higher reacts earlier within the window.
	ReactionSpeed float64
	// MatchAccuracy is the probability a remembered match is played on the
	// right card instead of a misremembered one.
	MatchAccuracy float64
	// MatchChance is the probability the bot attempts a reaction match at all.
	MatchChance float64
	// KeepThreshold: drawn cards at or below this value are kept.
	KeepThreshold int
}

var tiers = map[models.BotSkill]TierConfig{
	models.SkillBronze: {
		ForgetChance:   0.18,
		SwapConfusion:  0.30,
		DutchThreshold: 10,
		ReactionSpeed:  0.55,
		MatchAccuracy:  0.75,
		MatchChance:    0.35,
		KeepThreshold:  7,
	},
	models.SkillSilver: {
		ForgetChance:   0.08,
		SwapConfusion:  0.12,
		DutchThreshold: 6,
		ReactionSpeed:  0.75,
		MatchAccuracy:  0.85,
		MatchChance:    0.55,
		KeepThreshold:  6,
	},
	models.SkillGold: {
		ForgetChance:   0.01,
		SwapConfusion:  0.01,
		DutchThreshold: 3,
		ReactionSpeed:  0.96,
		MatchAccuracy:  0.97,
		MatchChance:    0.90,
		KeepThreshold:  3,
	},
	models.SkillPlatinum: {
		ForgetChance:   0,
		SwapConfusion:  0,
		DutchThreshold: 1,
		ReactionSpeed:  1,
		MatchAccuracy:  1,
		MatchChance:    1,
		KeepThreshold:  1,
	},
}

// TierFor returns the config table for a skill tier, defaulting to silver.
func TierFor(skill models.BotSkill) TierConfig {
	if cfg, ok := tiers[skill]; ok {
		return cfg
	}
	return tiers[models.SkillSilver]
}

// SkillForDifficulty maps a room difficulty to a bot skill tier.
func SkillForDifficulty(d models.Difficulty) models.BotSkill {
	switch d {
	case models.DifficultyEasy:
		return models.SkillBronze
	case models.DifficultyHard:
		return models.SkillPlatinum
	default:
		return models.SkillSilver
	}
}

// SkillForRating maps a table rating (1500-based scale) to a bot skill
// tier, used when the room difficulty is set to auto.
func SkillForRating(rating float64) models.BotSkill {
	switch {
	case rating < 1300:
		return models.SkillBronze
	case rating < 1550:
		return models.SkillSilver
	case rating < 1800:
		return models.SkillGold
	default:
		return models.SkillPlatinum
	}
}
