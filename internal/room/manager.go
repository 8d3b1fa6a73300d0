// internal/room/manager.go
package room

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/dutchgame/dutch/internal/auth"
	"github.com/dutchgame/dutch/internal/cache"
	"github.com/dutchgame/dutch/internal/config"
	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

// Manager owns the room registry and is the sole mutation gateway for
// everything reachable from a room. True parallelism across rooms is fine;
// within one room every mutation happens under that room's lock.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room

	log    *logrus.Logger
	timing config.Timing

	// SendFn delivers one event to one seat. It is injected by the
	// transport layer, may be called with the room lock held, and must not
	// block; nil means events are dropped (tests inject a recorder).
	SendFn func(p *models.Player, event string, payload interface{})

	reactions *ReactionTimers

	stopCh chan struct{}
}

// NewManager builds a manager with the given timing table.
func NewManager(log *logrus.Logger, timing config.Timing) *Manager {
	m := &Manager{
		rooms:  make(map[string]*Room),
		log:    log,
		timing: timing,
		stopCh: make(chan struct{}),
	}
	m.reactions = NewReactionTimers(m)
	return m
}

// Run starts the periodic registry sweep. Call once; Stop ends it.
func (m *Manager) Run() {
	go func() {
		ticker := time.NewTicker(m.timing.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// Stop halts the sweep loop.
func (m *Manager) Stop() {
	close(m.stopCh)
}

// GetRoom fetches a live room by code.
func (m *Manager) GetRoom(code string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[code]
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// send delivers an event to one seat through the injected transport.
func (m *Manager) send(p *models.Player, event string, payload interface{}) {
	if m.SendFn != nil && p != nil {
		m.SendFn(p, event, payload)
	}
}

// broadcast delivers an event to every human seat of a room. Lock held.
func (m *Manager) broadcast(r *Room, event string, payload interface{}) {
	for _, p := range r.Players {
		if p.IsHuman {
			m.send(p, event, payload)
		}
	}
}

// broadcastGameState sends one personalized projection of the round to
// each human seat. Lock held.
func (m *Manager) broadcastGameState(r *Room, typ UpdateType, extra map[string]interface{}) {
	if r.Game == nil {
		return
	}
	for _, p := range r.Players {
		if !p.IsHuman {
			continue
		}
		payload := map[string]interface{}{
			"updateType": typ,
			"roomCode":   r.Code,
			"state":      game.PersonalizedState(r.Game, p.ID),
		}
		for k, v := range extra {
			payload[k] = v
		}
		m.send(p, EvStateUpdate, payload)
	}
}

// sendGameState sends one seat its personalized projection. Lock held.
func (m *Manager) sendGameState(r *Room, p *models.Player, typ UpdateType) {
	if r.Game == nil || !p.IsHuman {
		return
	}
	m.send(p, EvStateUpdate, map[string]interface{}{
		"updateType": typ,
		"roomCode":   r.Code,
		"state":      game.PersonalizedState(r.Game, p.ID),
	})
}

// broadcastPresence pushes the roster snapshot to every human seat.
// Lock held.
func (m *Manager) broadcastPresence(r *Room) {
	roster := make([]map[string]interface{}, 0, len(r.Players))
	for _, p := range r.Players {
		roster = append(roster, map[string]interface{}{
			"id":          p.ID,
			"clientId":    p.ClientID,
			"name":        p.Name,
			"isHuman":     p.IsHuman,
			"connected":   p.Connected,
			"focused":     p.Focused,
			"ready":       p.Ready,
			"isSpectator": p.Spectator,
			"position":    p.Position,
		})
	}
	m.broadcast(r, EvPresenceUpdate, map[string]interface{}{
		"roomCode":         r.Code,
		"players":          roster,
		"hostId":           r.HostID,
		"status":           r.Status,
		"cumulativeScores": r.Cumulative,
	})
}

// logAction publishes an action record to the historian queue without
// blocking the room lock.
func (m *Manager) logAction(r *Room, actorID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	rec := cache.ActionRecord{
		RoomCode:      r.Code,
		ActionIndex:   r.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishAction(ctx, rec); err != nil {
			m.log.WithError(err).Warn("failed to publish action record")
		}
	}()
}

// CreateRoom opens a new room with the caller as host and returns it along
// with the reconnect token for the caller's stable identity.
func (m *Manager) CreateRoom(connID, name, clientID string, settings models.GameSettings, conn *websocket.Conn) (*Room, string) {
	settings.Normalize()

	m.mu.Lock()
	code := generateRoomCode()
	for m.rooms[code] != nil {
		code = generateRoomCode()
	}
	r := newRoom(code, settings)
	m.rooms[code] = r
	m.mu.Unlock()

	r.Mu.Lock()
	defer r.Mu.Unlock()

	host := m.newHumanSeat(connID, name, clientID, 0, conn)
	r.Players = append(r.Players, host)
	r.HostID = host.ID

	token, err := auth.CreateRoomToken(code, host.StableKey())
	if err != nil {
		m.log.WithError(err).Warn("failed to sign reconnect token")
	}

	m.log.WithFields(logrus.Fields{"room": code, "host": connID}).Info("room created")
	return r, token
}

// JoinRoom seats a player, reconnects a known stable identity to its
// existing seat, or admits a spectator mid-round. A valid reconnect token
// overrides the claimed client id.
func (m *Manager) JoinRoom(code, connID, name, clientID, token string, conn *websocket.Conn) (*Room, *models.Player, string, error) {
	r := m.GetRoom(code)
	if r == nil {
		return nil, nil, "", ErrRoomNotFound
	}

	if token != "" {
		if tokRoom, tokClient, err := auth.VerifyRoomToken(token); err == nil && tokRoom == code {
			clientID = tokClient
		}
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Touch()

	// Reconnect by stable identity: the seat survives, re-keyed to the new
	// transport identity.
	if clientID != "" {
		if p := r.PlayerByStableKey(clientID); p != nil && p.IsHuman {
			oldID := p.ID
			m.clearPresenceCheck(r, oldID)
			p.ID = connID
			p.Conn = conn
			p.Connected = true
			p.Focused = true
			p.LastSeen = time.Now()
			if name != "" {
				p.Name = name
			}
			if r.HostID == oldID {
				r.HostID = connID
			}
			if r.Game != nil && r.Game.DutchCallerID == oldID {
				r.Game.DutchCallerID = connID
			}
			newToken, _ := auth.CreateRoomToken(code, p.StableKey())
			m.log.WithFields(logrus.Fields{"room": code, "player": connID}).Info("player reconnected")
			m.broadcastPresence(r)
			if r.Game != nil {
				m.sendGameState(r, p, UpdateFullState)
			}
			return r, p, newToken, nil
		}
	}

	spectator := r.Status != models.RoomWaiting
	if !spectator && r.SeatedCount() >= r.Settings.MaxPlayers {
		return nil, nil, "", ErrRoomFull
	}

	p := m.newHumanSeat(connID, name, clientID, len(r.Players), conn)
	p.Spectator = spectator
	r.Players = append(r.Players, p)
	if r.Game != nil && spectator {
		// Mid-round joiners watch the current round and get a seat at the
		// next rematch.
		r.Game.Players = r.Players
	}
	r.EnsureHost()

	newToken, err := auth.CreateRoomToken(code, p.StableKey())
	if err != nil {
		m.log.WithError(err).Warn("failed to sign reconnect token")
	}

	m.broadcast(r, EvPlayerJoined, map[string]interface{}{
		"roomCode": code,
		"player":   map[string]interface{}{"id": p.ID, "name": p.Name, "isSpectator": p.Spectator},
	})
	m.broadcastPresence(r)
	if r.Game != nil {
		m.sendGameState(r, p, UpdateFullState)
	}
	return r, p, newToken, nil
}

func (m *Manager) newHumanSeat(connID, name, clientID string, position int, conn *websocket.Conn) *models.Player {
	if name == "" {
		name = "Player " + connID[:minInt(4, len(connID))]
	}
	return &models.Player{
		ID:        connID,
		ClientID:  clientID,
		Name:      name,
		IsHuman:   true,
		Connected: true,
		Focused:   true,
		Position:  position,
		LastSeen:  time.Now(),
		Conn:      conn,
	}
}

// SetReady flips a seat's ready flag.
func (m *Manager) SetReady(code, connID string, ready bool) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID(connID)
	if p == nil {
		return ErrRoomNotFound
	}
	p.Ready = ready
	p.LastSeen = time.Now()
	r.Touch()
	m.broadcastPresence(r)
	return nil
}

// SetGameMode changes the room mode; host only, lobby only.
func (m *Manager) SetGameMode(code, connID string, mode models.GameMode) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.HostID != connID {
		return ErrNotHost
	}
	if r.Status != models.RoomWaiting {
		return ErrRoundActive
	}
	r.Settings.Mode = mode
	r.Touch()
	m.broadcastPresence(r)
	return nil
}

// SendChat relays a chat line to the room. Spectators may chat.
func (m *Manager) SendChat(code, connID, message string) error {
	r := m.GetRoom(code)
	if r == nil {
		return ErrRoomNotFound
	}
	if message == "" {
		return nil
	}
	if len(message) > 500 {
		message = message[:500]
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID(connID)
	if p == nil {
		return ErrRoomNotFound
	}
	p.LastSeen = time.Now()
	r.Touch()
	m.broadcast(r, EvChatMessage, map[string]interface{}{
		"roomCode": code,
		"from":     p.ID,
		"name":     p.Name,
		"message":  message,
		"sentAt":   time.Now().UnixMilli(),
	})
	return nil
}

// CheckActiveRooms reports which of the given codes are still live.
func (m *Manager) CheckActiveRooms(codes []string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, code := range codes {
		r := m.GetRoom(code)
		if r == nil {
			continue
		}
		r.Mu.Lock()
		out = append(out, map[string]interface{}{
			"roomCode":    r.Code,
			"status":      r.Status,
			"playerCount": len(r.Players),
		})
		r.Mu.Unlock()
	}
	return out
}

// ListRooms summarizes live rooms for the HTTP surface.
func (m *Manager) ListRooms() []map[string]interface{} {
	m.mu.Lock()
	codes := make([]string, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	m.mu.Unlock()
	sort.Strings(codes)

	out := make([]map[string]interface{}, 0, len(codes))
	for _, code := range codes {
		r := m.GetRoom(code)
		if r == nil {
			continue
		}
		r.Mu.Lock()
		out = append(out, map[string]interface{}{
			"roomCode":    r.Code,
			"status":      r.Status,
			"mode":        r.Settings.Mode,
			"playerCount": len(r.Players),
			"createdAt":   r.CreatedAt.UnixMilli(),
		})
		r.Mu.Unlock()
	}
	return out
}

// SendFullState resends the complete personalized round state to one seat.
func (m *Manager) SendFullState(code, connID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	p := r.PlayerByID(connID)
	if p == nil {
		return
	}
	if r.Game != nil {
		m.sendGameState(r, p, UpdateFullState)
	}
	m.broadcastPresence(r)
}

// sweep prunes expired, abandoned, and stuck-closing rooms, and drops
// stale disconnected seats from lobbies.
func (m *Manager) sweep() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	now := time.Now()
	for _, r := range rooms {
		r.Mu.Lock()
		remove := false
		switch {
		case now.Sub(r.LastActivity) > m.timing.RoomTTL:
			remove = true
		case r.Status == models.RoomClosing && now.Sub(r.ClosingAt) > m.timing.ClosingGrace:
			remove = true
		case r.ConnectedHumans() == 0:
			if r.EmptySince.IsZero() {
				r.EmptySince = now
			} else if now.Sub(r.EmptySince) > m.timing.EmptyRoomGrace {
				remove = true
			}
		default:
			r.EmptySince = time.Time{}
		}

		if !remove && r.Status == models.RoomWaiting {
			m.pruneWaitingRoom(r, now)
		}
		code := r.Code
		r.Mu.Unlock()

		if remove {
			m.removeRoom(code)
		}
	}
}

// pruneWaitingRoom drops disconnected lobby seats past the stale
// threshold. Lock held.
func (m *Manager) pruneWaitingRoom(r *Room, now time.Time) {
	changed := false
	for i := len(r.Players) - 1; i >= 0; i-- {
		p := r.Players[i]
		if p.IsHuman && !p.Connected && now.Sub(p.LastSeen) > m.timing.StaleThreshold {
			r.RemoveSeat(p.ID)
			changed = true
		}
	}
	if changed {
		r.EnsureHost()
		m.broadcastPresence(r)
	}
}

// removeRoom tears a room down: every timer and pending challenge dies
// with it so no dangling callback touches a deleted room.
func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	r := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()
	if r == nil {
		return
	}

	m.reactions.Cancel(code)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	m.cancelTurnTimer(r)
	for id := range r.presence {
		m.clearPresenceCheck(r, id)
	}
	m.log.WithField("room", code).Info("room removed")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
