// internal/room/events.go
package room

// Outbound event names.
const (
	EvStateUpdate     = "game:state_update"
	EvPresenceUpdate  = "presence:update"
	EvPresenceCheck   = "presence:check"
	EvRoomClosed      = "room:closed"
	EvHostTransferred = "room:host_transferred"
	EvKicked          = "room:kicked"
	EvRestarted       = "room:restarted"
	EvPlayerJoined    = "player:joined"
	EvPlayerLeft      = "player:left"
	EvPlayerForfeit   = "player:forfeit"
	EvChatMessage     = "chat:message"
	EvCardSpied       = "card:spied"
	EvSwapNotice      = "swap:notification"
	EvJokerNotice     = "joker:notification"
	EvHeartbeatPong   = "heartbeat:pong"
)

// UpdateType tags a game:state_update broadcast.
type UpdateType string

const (
	UpdateGameStarted  UpdateType = "GAME_STARTED"
	UpdateActionResult UpdateType = "ACTION_RESULT"
	UpdatePhaseChange  UpdateType = "PHASE_CHANGE"
	UpdatePartial      UpdateType = "PARTIAL_UPDATE"
	UpdateTimer        UpdateType = "TIMER_UPDATE"
	UpdateGameEnded    UpdateType = "GAME_ENDED"
	UpdateGamePaused   UpdateType = "GAME_PAUSED"
	UpdateGameResumed  UpdateType = "GAME_RESUMED"
	UpdatePlayerLeft   UpdateType = "PLAYER_LEFT"
	UpdateFullState    UpdateType = "FULL_STATE"
)
