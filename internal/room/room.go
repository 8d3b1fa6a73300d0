// internal/room/room.go
package room

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/dutchgame/dutch/internal/bot"
	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
	"github.com/dutchgame/dutch/internal/rating"
)

// Room is one live table. Mu is the single mutation gateway: every
// handler entry, timer fire, and bot-drain step acquires it for the
// duration of one logical action, and everything reachable from the room
// (players, round state, bot minds) is private to that gateway.
type Room struct {
	Code         string
	HostID       string
	Settings     models.GameSettings
	Players      []*models.Player
	Game         *game.State
	Status       models.RoomStatus
	Paused       bool
	CreatedAt    time.Time
	LastActivity time.Time
	ClosingAt    time.Time
	EmptySince   time.Time

	// Cumulative is the cross-rematch score ledger keyed by stable client
	// identity, so reconnects keep their running total.
	Cumulative map[string]int

	// Ratings sizes up the table for auto bot difficulty.
	Ratings *rating.Table

	Mu sync.Mutex

	// minds holds bot belief state keyed by bot seat id, cleared whenever
	// a seat is removed or the room rematches.
	minds map[string]*bot.Mind

	turnID      int
	turnTimer   *time.Timer
	turnSeat    string
	presence    map[string]*presenceCheck
	botActive   bool
	actionIndex int
}

type presenceCheck struct {
	timer  *time.Timer
	reason string
}

func newRoom(code string, settings models.GameSettings) *Room {
	now := time.Now()
	return &Room{
		Code:         code,
		Settings:     settings,
		Status:       models.RoomWaiting,
		CreatedAt:    now,
		LastActivity: now,
		Cumulative:   make(map[string]int),
		Ratings:      rating.NewTable(),
		minds:        make(map[string]*bot.Mind),
		presence:     make(map[string]*presenceCheck),
	}
}

// Touch refreshes the room's activity clock. Lock held.
func (r *Room) Touch() {
	r.LastActivity = time.Now()
}

// PlayerByID finds a seat by transport identity. Lock held.
func (r *Room) PlayerByID(id string) *models.Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByStableKey finds a seat by stable client identity. Lock held.
func (r *Room) PlayerByStableKey(key string) *models.Player {
	for _, p := range r.Players {
		if p.StableKey() == key {
			return p
		}
	}
	return nil
}

// SeatedCount counts non-spectator seats. Lock held.
func (r *Room) SeatedCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.Spectator {
			n++
		}
	}
	return n
}

// ConnectedHumans counts humans with a live connection. Lock held.
func (r *Room) ConnectedHumans() int {
	n := 0
	for _, p := range r.Players {
		if p.IsHuman && p.Connected {
			n++
		}
	}
	return n
}

// ReadyHumans counts connected humans that declared ready. Lock held.
func (r *Room) ReadyHumans() int {
	n := 0
	for _, p := range r.Players {
		if p.IsHuman && p.Connected && p.Ready {
			n++
		}
	}
	return n
}

// Reindex renumbers seat positions after removals. Lock held.
func (r *Room) Reindex() {
	for i, p := range r.Players {
		p.Position = i
	}
}

// RemoveSeat drops a seat and its bot mind, keeping positions dense. A
// still-queryable round shares the seat slice, so it is re-pointed at the
// reindexed roster. Lock held.
func (r *Room) RemoveSeat(id string) {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}
	delete(r.minds, id)
	r.Reindex()
	if r.Game != nil {
		r.Game.Players = r.Players
	}
}

// EnsureHost reassigns host to the first eligible connected human when the
// recorded host seat is gone or unreachable. Lock held.
func (r *Room) EnsureHost() {
	if host := r.PlayerByID(r.HostID); host != nil && host.Connected && host.IsHuman {
		return
	}
	for _, p := range r.Players {
		if p.IsHuman && p.Connected {
			r.HostID = p.ID
			return
		}
	}
}

// Mind returns a bot seat's belief state, if any. Lock held.
func (r *Room) Mind(id string) *bot.Mind {
	return r.minds[id]
}

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateRoomCode produces a 6-character code from the A-Z0-9 alphabet.
func generateRoomCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf)
}
