// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/dutchgame/dutch/internal/models"
	"github.com/dutchgame/dutch/internal/room"
)

// Server ties the transport layer to the room manager. It owns the outbound
// path: the manager calls SendFn with a room lock held, so every websocket
// write happens on its own goroutine with a bounded timeout.
type Server struct {
	Log   *logrus.Logger
	Rooms *room.Manager

	startedAt time.Time
}

// NewServer builds the transport server and wires the manager's outbound
// delivery through it.
func NewServer(log *logrus.Logger, rooms *room.Manager) *Server {
	s := &Server{
		Log:       log,
		Rooms:     rooms,
		startedAt: time.Now(),
	}
	rooms.SendFn = s.sendToPlayer
	return s
}

// sendToPlayer marshals one event for one seat and writes it
// asynchronously. Called with the room lock held; must never block.
func (s *Server) sendToPlayer(p *models.Player, event string, payload interface{}) {
	if p == nil || p.Conn == nil {
		return
	}
	msg := map[string]interface{}{"type": event}
	if fields, ok := payload.(map[string]interface{}); ok {
		for k, v := range fields {
			if k != "type" {
				msg[k] = v
			}
		}
	} else if payload != nil {
		msg["payload"] = payload
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.Log.WithError(err).WithField("event", event).Error("failed to marshal outbound event")
		return
	}

	conn := p.Conn
	playerID := p.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			s.Log.WithError(err).WithFields(logrus.Fields{
				"player": playerID,
				"event":  event,
			}).Warn("failed to write outbound event")
		}
	}()
}
