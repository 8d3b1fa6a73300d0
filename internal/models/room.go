// internal/models/room.go
package models

// GameMode selects the scoring context for a room.
type GameMode string

const (
	ModeClassic    GameMode = "classic"
	ModeTournament GameMode = "tournament"
)

// ParseGameMode maps a wire value to a closed GameMode, defaulting to classic.
func ParseGameMode(s string) GameMode {
	if GameMode(s) == ModeTournament {
		return ModeTournament
	}
	return ModeClassic
}

// Difficulty is the requested bot strength for a room.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAuto   Difficulty = "auto"
)

// RoomStatus is the room-level lifecycle state.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomPlaying RoomStatus = "playing"
	RoomEnded   RoomStatus = "ended"
	RoomClosing RoomStatus = "closing"
)

const (
	minRoomPlayers = 2
	maxRoomPlayers = 4
)

// GameSettings are the host-chosen parameters of a room.
type GameSettings struct {
	Mode           GameMode   `json:"mode"`
	MinPlayers     int        `json:"minPlayers"`
	MaxPlayers     int        `json:"maxPlayers"`
	ReactionTimeMs int        `json:"reactionTimeMs"`
	Difficulty     Difficulty `json:"difficulty"`
}

// DefaultSettings returns the baseline room settings.
func DefaultSettings() GameSettings {
	return GameSettings{
		Mode:           ModeClassic,
		MinPlayers:     minRoomPlayers,
		MaxPlayers:     maxRoomPlayers,
		ReactionTimeMs: 3000,
		Difficulty:     DifficultyMedium,
	}
}

// Normalize clamps player counts to the supported table size and fills in
// defaults for missing values.
func (s *GameSettings) Normalize() {
	if s.Mode != ModeTournament {
		s.Mode = ModeClassic
	}
	if s.MinPlayers < minRoomPlayers {
		s.MinPlayers = minRoomPlayers
	}
	if s.MaxPlayers < s.MinPlayers {
		s.MaxPlayers = s.MinPlayers
	}
	if s.MaxPlayers > maxRoomPlayers {
		s.MaxPlayers = maxRoomPlayers
	}
	if s.ReactionTimeMs <= 0 {
		s.ReactionTimeMs = 3000
	}
	switch s.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAuto:
	default:
		s.Difficulty = DifficultyMedium
	}
}
