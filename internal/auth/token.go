// internal/auth/token.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// privateKey and publicKey sign and verify reconnect tokens. Keys are
// generated per process: tokens only need to survive a network blip, not a
// server restart, which matches the in-memory lifetime of the rooms they
// reference.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
)

// Init generates the runtime ed25519 key pair.
func Init() {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		fmt.Printf("failed to generate ed25519 key pair: %v\n", err)
		os.Exit(1)
	}
}

// CreateRoomToken issues a signed token binding a stable client identity
// to a room. Clients present it on rejoin as proof the identity is theirs.
func CreateRoomToken(roomCode, clientID string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  clientID,
		"room": roomCode,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifyRoomToken checks a reconnect token and returns the bound room code
// and client identity.
func VerifyRoomToken(tokenString string) (roomCode, clientID string, err error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid jwt claims")
	}
	clientID, ok = claims["sub"].(string)
	if !ok {
		return "", "", fmt.Errorf("missing sub in jwt")
	}
	roomCode, ok = claims["room"].(string)
	if !ok {
		return "", "", fmt.Errorf("missing room in jwt")
	}
	return roomCode, clientID, nil
}
