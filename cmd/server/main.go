// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/dutchgame/dutch/internal/auth"
	"github.com/dutchgame/dutch/internal/cache"
	"github.com/dutchgame/dutch/internal/config"
	"github.com/dutchgame/dutch/internal/handlers"
	"github.com/dutchgame/dutch/internal/middleware"
	"github.com/dutchgame/dutch/internal/room"
)

func main() {
	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	auth.Init()
	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("redis unavailable, action history disabled")
	}

	rooms := room.NewManager(logger, config.DefaultTiming())
	rooms.Run()
	defer rooms.Stop()

	srv := handlers.NewServer(logger, rooms)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(srv),
	)))
	mux.Handle("/health", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.HealthHandler)))
	mux.Handle("/rooms", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.RoomsHandler)))
	mux.Handle("/", middleware.LogMiddleware(logger)(http.HandlerFunc(srv.RootHandler)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
