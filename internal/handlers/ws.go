// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dutchgame/dutch/internal/game"
	"github.com/dutchgame/dutch/internal/models"
)

// ClientMessage is the envelope for every inbound websocket message. Which
// fields matter depends on Type; unknown fields are ignored.
type ClientMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode,omitempty"`
	Name     string `json:"name,omitempty"`
	ClientID string `json:"clientId,omitempty"`
	Token    string `json:"token,omitempty"`

	Settings *models.GameSettings `json:"settings,omitempty"`
	Mode     string               `json:"mode,omitempty"`

	Ready    *bool `json:"ready,omitempty"`
	FillBots *bool `json:"fillBots,omitempty"`
	Focused  *bool `json:"focused,omitempty"`

	Index *int               `json:"index,omitempty"`
	Power *game.PowerRequest `json:"power,omitempty"`

	Message   string   `json:"message,omitempty"`
	TargetID  string   `json:"targetId,omitempty"`
	RoomCodes []string `json:"roomCodes,omitempty"`
}

// wsSession tracks one connection's transport identity and the room it
// currently belongs to.
type wsSession struct {
	connID string
	room   string
}

// WSHandler upgrades the connection and runs the read loop. One connection
// maps to one transport identity; a dropped connection marks the seat
// disconnected and the stable client id reclaims it on the next join.
func WSHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"dutch"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Log.WithError(err).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		if c.Subprotocol() != "dutch" {
			c.Close(StatusBadSubprotocol, "client must use the 'dutch' subprotocol")
			return
		}

		sess := &wsSession{connID: uuid.NewString()}
		s.Log.WithFields(logrus.Fields{
			"conn":   sess.connID,
			"remote": r.RemoteAddr,
		}).Info("websocket connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		s.readMessages(ctx, c, sess)

		if sess.room != "" {
			s.Rooms.HandleDisconnect(sess.room, sess.connID)
		}
		s.Log.WithField("conn", sess.connID).Info("websocket disconnected")
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readMessages drains the connection until it closes, routing each envelope
// to the room manager.
func (s *Server) readMessages(ctx context.Context, c *websocket.Conn, sess *wsSession) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return
			}
			s.Log.WithError(err).WithField("conn", sess.connID).Debug("websocket read ended")
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(ctx, c, "invalid JSON")
			continue
		}
		s.route(ctx, c, sess, msg)
	}
}

// route dispatches one envelope. Lifecycle operations answer with an ack or
// an error event on this connection; play actions answer through the
// manager's broadcasts, with invalid ones silently dropped.
func (s *Server) route(ctx context.Context, c *websocket.Conn, sess *wsSession, msg ClientMessage) {
	code := msg.RoomCode
	if code == "" {
		code = sess.room
	}

	switch msg.Type {
	case "room:create":
		settings := models.DefaultSettings()
		if msg.Settings != nil {
			settings = *msg.Settings
		}
		r, token := s.Rooms.CreateRoom(sess.connID, msg.Name, msg.ClientID, settings, c)
		sess.room = r.Code
		s.sendMessage(ctx, c, map[string]interface{}{
			"type":     "room:created",
			"roomCode": r.Code,
			"playerId": sess.connID,
			"token":    token,
		})

	case "room:join":
		if msg.RoomCode == "" {
			s.sendError(ctx, c, "roomCode is required")
			return
		}
		r, p, token, err := s.Rooms.JoinRoom(msg.RoomCode, sess.connID, msg.Name, msg.ClientID, msg.Token, c)
		if err != nil {
			s.sendError(ctx, c, err.Error())
			return
		}
		sess.room = r.Code
		s.sendMessage(ctx, c, map[string]interface{}{
			"type":        "room:joined",
			"roomCode":    r.Code,
			"playerId":    p.ID,
			"isSpectator": p.Spectator,
			"token":       token,
		})

	case "room:ready":
		ready := true
		if msg.Ready != nil {
			ready = *msg.Ready
		}
		if err := s.Rooms.SetReady(code, sess.connID, ready); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "room:start_game":
		fillBots := true
		if msg.FillBots != nil {
			fillBots = *msg.FillBots
		}
		if err := s.Rooms.StartGame(code, sess.connID, fillBots); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "room:leave":
		s.Rooms.HandleLeave(code, sess.connID)
		sess.room = ""

	case "room:close":
		if err := s.Rooms.CloseRoom(code, sess.connID); err != nil {
			s.sendError(ctx, c, err.Error())
			return
		}
		sess.room = ""

	case "room:transfer_host":
		if err := s.Rooms.TransferHost(code, sess.connID); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "room:restart":
		if err := s.Rooms.RestartGame(code, sess.connID); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "room:kick":
		if err := s.Rooms.KickPlayer(code, sess.connID, msg.TargetID); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "room:set_game_mode":
		if err := s.Rooms.SetGameMode(code, sess.connID, models.ParseGameMode(msg.Mode)); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "room:check_active":
		s.sendMessage(ctx, c, map[string]interface{}{
			"type":  "room:active_rooms",
			"rooms": s.Rooms.CheckActiveRooms(msg.RoomCodes),
		})

	case "chat:send":
		if err := s.Rooms.SendChat(code, sess.connID, msg.Message); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "game:draw_card":
		s.Rooms.Draw(code, sess.connID)

	case "game:take_from_discard":
		s.Rooms.TakeFromDiscard(code, sess.connID)

	case "game:discard_card":
		s.Rooms.Discard(code, sess.connID)

	case "game:replace_card":
		if msg.Index != nil {
			s.Rooms.Replace(code, sess.connID, *msg.Index)
		}

	case "game:attempt_match":
		if msg.Index != nil {
			s.Rooms.AttemptMatch(code, sess.connID, *msg.Index)
		}

	case "game:use_special_power":
		if msg.Power != nil {
			s.Rooms.UseSpecialPower(code, sess.connID, *msg.Power)
		}

	case "game:skip_special_power":
		s.Rooms.SkipSpecialPower(code, sess.connID)

	case "game:call_dutch":
		s.Rooms.CallDutch(code, sess.connID)

	case "game:forfeit":
		s.Rooms.Forfeit(code, sess.connID)

	case "game:pause":
		if err := s.Rooms.Pause(code, sess.connID); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "game:resume":
		if err := s.Rooms.Resume(code, sess.connID); err != nil {
			s.sendError(ctx, c, err.Error())
		}

	case "game:request_state":
		s.Rooms.SendFullState(code, sess.connID)

	case "presence:confirm":
		s.Rooms.ConfirmPresence(code, sess.connID)

	case "presence:focus":
		focused := true
		if msg.Focused != nil {
			focused = *msg.Focused
		}
		s.Rooms.UpdateFocus(code, sess.connID, focused)

	case "heartbeat":
		if code != "" {
			s.Rooms.Heartbeat(code, sess.connID)
		} else {
			s.sendMessage(ctx, c, map[string]interface{}{"type": "heartbeat:pong"})
		}

	default:
		s.sendError(ctx, c, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// sendMessage writes one message synchronously on the reader's goroutine.
func (s *Server) sendMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		s.Log.WithError(err).Error("failed to marshal websocket message")
		return
	}
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			s.Log.WithError(err).Debug("failed to write websocket message")
		}
	}
}

func (s *Server) sendError(ctx context.Context, c *websocket.Conn, message string) {
	s.sendMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
