// internal/room/errors.go
package room

import "errors"

// Lifecycle operations return these to the single requesting caller; the
// handler layer translates them into error acks. In-round play actions
// never return errors, they silently no-op.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrNotHost        = errors.New("only the host may do that")
	ErrHostNotReady   = errors.New("host must be ready")
	ErrNotEnoughReady = errors.New("not enough ready players")
	ErrRoundActive    = errors.New("round still in progress")
	ErrNotClosing     = errors.New("room is not awaiting a host transfer")
)
