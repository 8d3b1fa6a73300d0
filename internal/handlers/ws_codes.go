// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// StatusBadSubprotocol closes a connection that negotiated an unsupported
// subprotocol. Codes 3000-3999 are reserved for application use.
const StatusBadSubprotocol websocket.StatusCode = 3000
