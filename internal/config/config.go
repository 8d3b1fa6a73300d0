// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Timing knobs for the session manager, overridable via environment.
type Timing struct {
	TurnTimeout     time.Duration
	PresenceGrace   time.Duration
	ReactionTime    time.Duration
	RoomTTL         time.Duration
	SweepInterval   time.Duration
	StaleThreshold  time.Duration
	ClosingGrace    time.Duration
	EmptyRoomGrace  time.Duration
	BotActionDelay  time.Duration
}

// DefaultTiming reads the timing configuration from the environment,
// falling back to the standard table defaults.
func DefaultTiming() Timing {
	return Timing{
		TurnTimeout:    GetEnvDuration("TURN_TIMEOUT_MS", 20000),
		PresenceGrace:  GetEnvDuration("PRESENCE_GRACE_MS", 3000),
		ReactionTime:   GetEnvDuration("REACTION_TIME_MS", 3000),
		RoomTTL:        GetEnvDuration("ROOM_TTL_MS", 2*60*60*1000),
		SweepInterval:  GetEnvDuration("ROOM_SWEEP_MS", 10000),
		StaleThreshold: GetEnvDuration("STALE_PLAYER_MS", 15000),
		ClosingGrace:   GetEnvDuration("CLOSING_GRACE_MS", 5*60*1000),
		EmptyRoomGrace: GetEnvDuration("EMPTY_ROOM_GRACE_MS", 30000),
		BotActionDelay: GetEnvDuration("BOT_ACTION_DELAY_MS", 800),
	}
}

// GetEnv retrieves an environment variable's value or returns a default.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt parses an environment variable as an integer, else a default.
func GetEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// GetEnvDuration parses an environment variable holding milliseconds.
func GetEnvDuration(key string, defMs int) time.Duration {
	return time.Duration(GetEnvInt(key, defMs)) * time.Millisecond
}
