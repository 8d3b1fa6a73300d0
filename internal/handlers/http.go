// internal/handlers/http.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler reports process liveness and the live room count.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"rooms":         s.Rooms.RoomCount(),
		"uptimeSeconds": int(time.Since(s.startedAt).Seconds()),
	})
}

// RoomsHandler lists live rooms with their status and occupancy.
func (s *Server) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": s.Rooms.ListRooms(),
	})
}

// RootHandler identifies the service.
func (s *Server) RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "dutch-game-server",
		"status":  "running",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
