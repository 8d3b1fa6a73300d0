// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dutchgame/dutch/internal/config"
)

// Rdb is the global Redis client. Connect it once at application startup;
// when nil, action publishing is a no-op and the server runs without a
// historian.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for room action logs.
var DefaultQueueName = "dutch_actions"

// ActionRecord holds the minimal info needed by the historian service.
type ActionRecord struct {
	RoomCode      string                 `json:"room_code"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       string                 `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client from the environment:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := config.GetEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := config.GetEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishAction serializes the record and pushes it onto the historian
// queue. Cheap for the caller beyond one network send; callers invoke it
// from a goroutine off the room lock.
func PublishAction(ctx context.Context, record ActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}

	queueName := config.GetEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", queueName, err)
	}
	return nil
}
